package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tributary/app/database"
)

// SeedSource is one entry of the optional startup seed file, a YAML list of
// sources to register without going through the API.
type SeedSource struct {
	Platform string `yaml:"platform"`
	Input    string `yaml:"input"`
	Owner    string `yaml:"owner"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

type seedFile struct {
	Sources []SeedSource `yaml:"sources"`
}

func LoadSeedFile(path string) ([]SeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, seed := range file.Sources {
		if !database.Platform(seed.Platform).Valid() {
			return nil, fmt.Errorf("seed entry %d: unknown platform %q", i, seed.Platform)
		}
		if seed.Input == "" {
			return nil, fmt.Errorf("seed entry %d: missing input", i)
		}
	}

	return file.Sources, nil
}
