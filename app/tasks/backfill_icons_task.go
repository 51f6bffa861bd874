package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"tributary/app/database"
	"tributary/app/sources"
)

// BackfillIconsTask is an idempotent sweep over sources currently missing an
// icon. Icon lookups are cosmetic and best-effort; a source the resolver can't
// find anything for just stays empty until the next sweep.
type BackfillIconsTask struct {
	Task
	iconResolver *sources.IconResolver
	sourceRepo   database.SourceRepository
}

func NewBackfillIconsTask(iconResolver *sources.IconResolver, sourceRepo database.SourceRepository) *BackfillIconsTask {
	return &BackfillIconsTask{
		Task:         NewTask(TaskTypeBackfillIcons, ""),
		iconResolver: iconResolver,
		sourceRepo:   sourceRepo,
	}
}

func (t *BackfillIconsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	missing, err := t.sourceRepo.ListSourcesMissingIcon()
	if err != nil {
		return fmt.Errorf("failed to list sources missing icon: %w", err)
	}

	if len(missing) == 0 {
		return nil
	}

	resolvedCount := 0
	for i := range missing {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		source := &missing[i]
		iconURL := t.iconResolver.Resolve(ctx, source)
		if iconURL == "" {
			continue
		}

		if err := t.sourceRepo.UpdateSourceIcon(source.ID, iconURL); err != nil {
			slog.Error("Failed to update source icon", "source_id", source.ID, "error", err)
			continue
		}
		resolvedCount++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"missing", len(missing),
		"resolved", resolvedCount)

	return nil
}
