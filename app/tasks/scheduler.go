package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tributary/app/cfg"
	"tributary/app/database"
	"tributary/app/feed"
	"tributary/app/sources"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	sourceRepo       database.SourceRepository
	itemRepo         database.ItemRepository
	refresher        *feed.Refresher
	iconResolver     *sources.IconResolver
	contentExtractor *feed.ContentExtractor
	httpClient       *http.Client
	userAgent        string
	fetchTimeout     time.Duration
	interval         time.Duration
	sweepInterval    time.Duration
	workerCount      int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(sourceRepo database.SourceRepository, itemRepo database.ItemRepository,
	refresher *feed.Refresher, iconResolver *sources.IconResolver,
	contentExtractor *feed.ContentExtractor, httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		sourceRepo:       sourceRepo,
		itemRepo:         itemRepo,
		refresher:        refresher,
		iconResolver:     iconResolver,
		contentExtractor: contentExtractor,
		httpClient:       httpClient,
		userAgent:        c.UserAgent,
		fetchTimeout:     time.Duration(c.FetchTimeout) * time.Second,
		interval:         time.Duration(c.SchedulerInterval) * time.Second,
		sweepInterval:    time.Duration(c.SweepInterval) * time.Second,
		workerCount:      c.WorkerCount,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		sweepTicker := time.NewTicker(s.sweepInterval)
		defer sweepTicker.Stop()

		s.enqueueRefreshTasks()
		s.enqueueSweepTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueRefreshTasks()
			case <-sweepTicker.C:
				s.enqueueSweepTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueRefreshTasks() {
	dueSources, err := s.sourceRepo.ListDueSources(time.Now().UTC())
	if err != nil {
		slog.Error("Failed to list due sources", "error", err)
		return
	}

	if len(dueSources) == 0 {
		slog.Debug("No sources due for refresh")
		return
	}

	slog.Debug("Scheduling refresh tasks", "count", len(dueSources))

	for _, source := range dueSources {
		refreshTask := NewRefreshSourceTask(source.ID, s.refresher, s.sourceRepo)
		if err := s.EnqueueTask(refreshTask); err != nil {
			slog.Warn("Failed to enqueue RefreshSourceTask", "source_id", source.ID, "error", err)
			continue
		}

		if source.ExtractContent {
			extractTask := NewExtractContentTask(source.ID, s.httpClient, s.contentExtractor,
				s.sourceRepo, s.itemRepo, s.userAgent, s.fetchTimeout)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "source_id", source.ID, "error", err)
			}
		}
	}
}

func (s *Scheduler) enqueueSweepTasks() {
	allSources, err := s.sourceRepo.ListSources("")
	if err != nil {
		slog.Error("Failed to list sources for sweep", "error", err)
		return
	}

	for _, source := range allSources {
		sweepTask := NewSweepRetentionTask(source.ID, s.sourceRepo, s.itemRepo)
		if err := s.EnqueueTask(sweepTask); err != nil {
			slog.Warn("Failed to enqueue SweepRetentionTask", "source_id", source.ID, "error", err)
		}
	}

	iconTask := NewBackfillIconsTask(s.iconResolver, s.sourceRepo)
	if err := s.EnqueueTask(iconTask); err != nil {
		slog.Warn("Failed to enqueue BackfillIconsTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source_id", task.GetSourceID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			// Tracked in the WaitGroup so Stop cannot close the task queue
			// while a retry is still pending.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				case <-time.After(retryDelay):
				}

				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}()
		}
	}
}
