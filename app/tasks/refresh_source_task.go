package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"tributary/app/database"
	"tributary/app/feed"
)

// RefreshSourceTask runs the fetch→normalize→dedup pipeline for one source.
// Transport errors are not retried here: the next scheduled refresh is the
// retry policy, so MaxRetries is zero.
type RefreshSourceTask struct {
	Task
	refresher  *feed.Refresher
	sourceRepo database.SourceRepository
}

func NewRefreshSourceTask(sourceID string, refresher *feed.Refresher, sourceRepo database.SourceRepository) *RefreshSourceTask {
	task := NewTask(TaskTypeRefreshSource, sourceID)
	task.MaxRetries = 0

	return &RefreshSourceTask{
		Task:       task,
		refresher:  refresher,
		sourceRepo: sourceRepo,
	}
}

func (t *RefreshSourceTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	source, err := t.sourceRepo.GetSource(t.SourceID)
	if err != nil {
		return fmt.Errorf("failed to get source: %w", err)
	}
	if source == nil {
		slog.Debug("Source no longer exists, skipping refresh", "source_id", t.SourceID)
		return nil
	}

	if !source.Enabled {
		slog.Debug("Source disabled, skipping refresh", "source_id", t.SourceID)
		return nil
	}

	newCount, err := t.refresher.RefreshSource(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to refresh source: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source_id", t.SourceID,
		"duration", t.GetDuration(),
		"new", newCount)

	return nil
}
