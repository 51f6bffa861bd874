package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port              string
	SeedFile          string
	WorkerCount       int
	SchedulerInterval int
	SweepInterval     int
	FetchTimeout      int
	BatchTimeout      int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
