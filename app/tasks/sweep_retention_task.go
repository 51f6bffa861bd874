package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tributary/app/database"
)

// SweepRetentionTask prunes a source's items older than its retention window.
// Saved items are exempt regardless of age; that exemption lives in the
// repository's delete statement.
type SweepRetentionTask struct {
	Task
	sourceRepo database.SourceRepository
	itemRepo   database.ItemRepository
}

func NewSweepRetentionTask(sourceID string, sourceRepo database.SourceRepository, itemRepo database.ItemRepository) *SweepRetentionTask {
	return &SweepRetentionTask{
		Task:       NewTask(TaskTypeSweepRetention, sourceID),
		sourceRepo: sourceRepo,
		itemRepo:   itemRepo,
	}
}

func (t *SweepRetentionTask) Execute(ctx context.Context) error {

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
		return nil
	}

	if source.RetentionDays <= 0 {
		slog.Debug("Retention disabled for source", "source_id", t.SourceID)
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -source.RetentionDays)

	deleted, err := t.itemRepo.DeleteItemsOlderThan(source.ID, cutoff)
	if err != nil {
		return fmt.Errorf("failed to sweep retention: %w", err)
	}

	if deleted > 0 {
		slog.Info("Task completed",
			"type", t.GetType(),
			"source_id", t.SourceID,
			"duration", t.GetDuration(),
			"deleted", deleted)
	}

	return nil
}
