package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"tributary/app/database"
)

// Refresher composes fetch, normalize and dedup into the refresh pipeline.
// Refreshing a single source propagates its error; refreshing a batch isolates
// each source's failure so partial success is the steady state.
type Refresher struct {
	fetcher     *Fetcher
	normalizers map[database.Platform]Normalizer
	sourceRepo  database.SourceRepository
	itemRepo    database.ItemRepository

	workerCount  int
	batchTimeout time.Duration
}

func NewRefresher(fetcher *Fetcher, sourceRepo database.SourceRepository,
	itemRepo database.ItemRepository, workerCount int, batchTimeout time.Duration) *Refresher {

	normalizers := make(map[database.Platform]Normalizer)
	for _, n := range []Normalizer{
		NewRSSNormalizer(),
		NewYouTubeNormalizer(),
		NewRedditNormalizer(),
		NewBlueskyNormalizer(),
	} {
		normalizers[n.Platform()] = n
	}

	if workerCount < 1 {
		workerCount = 1
	}

	return &Refresher{
		fetcher:      fetcher,
		normalizers:  normalizers,
		sourceRepo:   sourceRepo,
		itemRepo:     itemRepo,
		workerCount:  workerCount,
		batchTimeout: batchTimeout,
	}
}

// RefreshSource fetches, normalizes and stores one source's feed, returning
// the number of newly inserted items. Existing items are never touched, so
// re-running against an unchanged upstream feed inserts nothing.
func (r *Refresher) RefreshSource(ctx context.Context, source *database.Source) (int, error) {
	normalizer, ok := r.normalizers[source.Platform]
	if !ok {
		return 0, fmt.Errorf("no normalizer for platform %q", source.Platform)
	}

	data, err := r.fetcher.Fetch(ctx, source.FeedURL)
	if err != nil {
		return 0, err
	}

	metadata, entries, err := normalizer.Normalize(source, data)
	if err != nil {
		return 0, err
	}

	newCount := 0
	for _, entry := range entries {
		item := r.entryToItem(source.ID, entry)
		inserted, err := r.itemRepo.InsertItemIfAbsent(item)
		if err != nil {
			return newCount, fmt.Errorf("failed to store item: %w", err)
		}
		if inserted {
			newCount++
		}
	}

	r.backfillMetadata(source, metadata)

	if err := r.sourceRepo.TouchLastFetched(source.ID, time.Now().UTC()); err != nil {
		slog.Warn("Failed to update last fetched time", "source_id", source.ID, "error", err)
	}

	slog.Info("Source refreshed",
		"source_id", source.ID,
		"platform", string(source.Platform),
		"total", len(entries),
		"new", newCount)

	return newCount, nil
}

// RefreshAll refreshes a batch of sources with a bounded worker pool. Failures
// are collected per source; the batch itself never fails. An outer timeout
// caps the whole batch so one hung source cannot stall the rest, composing
// with the fetcher's own per-request timeout.
func (r *Refresher) RefreshAll(ctx context.Context, sources []database.Source) *BatchResult {
	result := &BatchResult{
		Errors: make(map[string]error),
	}
	if len(sources) == 0 {
		return result
	}

	if r.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.batchTimeout)
		defer cancel()
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.workerCount)
	)

	for i := range sources {
		source := sources[i]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			newCount, err := r.RefreshSource(ctx, &source)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("Source refresh failed", "source_id", source.ID, "error", err)
				result.Errors[source.ID] = err
				return
			}
			result.SourcesRefreshed++
			result.TotalNewItems += newCount
		}()
	}

	wg.Wait()
	return result
}

func (r *Refresher) entryToItem(sourceID string, entry Entry) *database.Item {
	return &database.Item{
		SourceID:    sourceID,
		GUID:        entry.GUID,
		Title:       entry.Title,
		Link:        entry.Link,
		ContentHTML: entry.ContentHTML,
		ContentText: entry.ContentText,
		Excerpt:     entry.Excerpt,
		Author:      entry.Author,
		ImageURL:    entry.ImageURL,
		Tags:        entry.Tags,
		PublishedAt: entry.PublishedAt,
	}
}

// backfillMetadata fills in a display name and icon learned from the document
// itself when the source still has defaults. RSS sources start out named after
// their host until the feed's own title is known.
func (r *Refresher) backfillMetadata(source *database.Source, metadata *Metadata) {
	if metadata == nil {
		return
	}

	name := ""
	if metadata.Title != "" && (source.Name == "" || source.Name == hostOf(source.FeedURL)) {
		name = metadata.Title
	}

	iconURL := ""
	if metadata.IconURL != "" && source.IconURL == "" {
		iconURL = metadata.IconURL
	}

	if name == "" && iconURL == "" {
		return
	}

	if err := r.sourceRepo.UpdateSourceMetadata(source.ID, name, iconURL); err != nil {
		slog.Warn("Failed to update source metadata", "source_id", source.ID, "error", err)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
