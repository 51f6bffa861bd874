package tasks

import (
	"context"
	"testing"
	"time"

	"tributary/app/database"
	"tributary/app/feed"
)

// mockSourceRepo implements database.SourceRepository for task tests.
type mockSourceRepo struct {
	sources map[string]*database.Source
}

func newMockSourceRepo(sources ...*database.Source) *mockSourceRepo {
	m := &mockSourceRepo{sources: make(map[string]*database.Source)}
	for _, s := range sources {
		m.sources[s.ID] = s
	}
	return m
}

func (m *mockSourceRepo) CreateSource(source *database.Source) error {
	m.sources[source.ID] = source
	return nil
}

func (m *mockSourceRepo) GetSource(id string) (*database.Source, error) {
	return m.sources[id], nil
}

func (m *mockSourceRepo) GetSourceByFeedURL(feedURL string) (*database.Source, error) {
	return nil, nil
}

func (m *mockSourceRepo) ListSources(owner string) ([]database.Source, error) {
	var out []database.Source
	for _, s := range m.sources {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSourceRepo) ListDueSources(now time.Time) ([]database.Source, error) {
	return m.ListSources("")
}

func (m *mockSourceRepo) ListSourcesMissingIcon() ([]database.Source, error) {
	var out []database.Source
	for _, s := range m.sources {
		if s.IconURL == "" {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSourceRepo) GetSourceCount() (int, error) {
	return len(m.sources), nil
}

func (m *mockSourceRepo) UpdateSource(source *database.Source) error { return nil }

func (m *mockSourceRepo) UpdateSourceMetadata(id string, name string, iconURL string) error {
	return nil
}

func (m *mockSourceRepo) UpdateSourceIcon(id string, iconURL string) error {
	if s, ok := m.sources[id]; ok {
		s.IconURL = iconURL
	}
	return nil
}

func (m *mockSourceRepo) TouchLastFetched(id string, fetchedAt time.Time) error { return nil }
func (m *mockSourceRepo) DeleteSource(id string) error                          { return nil }

// mockItemRepo records retention sweeps.
type mockItemRepo struct {
	sweptSources map[string]time.Time
	deleted      int
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{sweptSources: make(map[string]time.Time)}
}

func (m *mockItemRepo) InsertItemIfAbsent(item *database.Item) (bool, error) { return true, nil }
func (m *mockItemRepo) GetItem(id string) (*database.Item, error)            { return nil, nil }
func (m *mockItemRepo) GetItemsBySource(sourceID string, limit int) ([]database.Item, error) {
	return nil, nil
}
func (m *mockItemRepo) GetItemCount() (int, error)                 { return 0, nil }
func (m *mockItemRepo) SetItemRead(id string, read bool) error     { return nil }
func (m *mockItemRepo) SetItemSaved(id string, saved bool) error   { return nil }

func (m *mockItemRepo) DeleteItemsOlderThan(sourceID string, cutoff time.Time) (int, error) {
	m.sweptSources[sourceID] = cutoff
	return m.deleted, nil
}

func (m *mockItemRepo) GetItemsForExtraction(sourceID string, limit int) ([]database.Item, error) {
	return nil, nil
}
func (m *mockItemRepo) UpdateExtractedContent(id string, contentHTML, contentText, excerpt string) error {
	return nil
}
func (m *mockItemRepo) MarkExtractionFailed(id string) error { return nil }

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypeSweepRetention, "src-1")

	if task.ID == "" {
		t.Error("Expected generated task ID")
	}
	if task.Type != TaskTypeSweepRetention {
		t.Errorf("Unexpected type: %s", task.Type)
	}
	if task.SourceID != "src-1" {
		t.Errorf("Unexpected source id: %s", task.SourceID)
	}
	if task.MaxRetries != DefaultMaxRetries {
		t.Errorf("Expected default max retries, got %d", task.MaxRetries)
	}
}

func TestTask_CanRetry(t *testing.T) {
	task := NewTask(TaskTypeBackfillIcons, "")

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i)
		}
		task.IncrementRetryCount()
	}

	if task.CanRetry() {
		t.Error("Retries should be exhausted")
	}
}

func TestRefreshSourceTask_NoRetries(t *testing.T) {
	task := NewRefreshSourceTask("src-1", nil, newMockSourceRepo())

	if task.GetMaxRetries() != 0 {
		t.Errorf("Refresh tasks must not retry in-process, got max retries %d", task.GetMaxRetries())
	}
	if task.CanRetry() {
		t.Error("Refresh task should never be retryable")
	}
}

func TestRefreshSourceTask_SkipsMissingSource(t *testing.T) {
	refresher := feed.NewRefresher(feed.NewFetcher(time.Second, "test"), newMockSourceRepo(), newMockItemRepo(), 1, time.Second)
	task := NewRefreshSourceTask("gone", refresher, newMockSourceRepo())
	task.Start()

	if err := task.Execute(context.Background()); err != nil {
		t.Errorf("Missing source should be skipped without error, got %v", err)
	}
}

func TestRefreshSourceTask_SkipsDisabledSource(t *testing.T) {
	disabled := &database.Source{
		ID:       "src-1",
		Platform: database.PlatformRSS,
		FeedURL:  "http://127.0.0.1:1/feed",
		Enabled:  false,
	}
	repo := newMockSourceRepo(disabled)
	refresher := feed.NewRefresher(feed.NewFetcher(time.Second, "test"), repo, newMockItemRepo(), 1, time.Second)

	task := NewRefreshSourceTask("src-1", refresher, repo)
	task.Start()

	// The feed URL is unreachable; the task only succeeds because the
	// disabled source is skipped before any fetch.
	if err := task.Execute(context.Background()); err != nil {
		t.Errorf("Disabled source should be skipped without error, got %v", err)
	}
}

func TestSweepRetentionTask_Execute(t *testing.T) {
	source := &database.Source{
		ID:            "src-1",
		RetentionDays: 30,
		Enabled:       true,
	}
	sourceRepo := newMockSourceRepo(source)
	itemRepo := newMockItemRepo()
	itemRepo.deleted = 4

	task := NewSweepRetentionTask("src-1", sourceRepo, itemRepo)
	task.Start()

	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	cutoff, ok := itemRepo.sweptSources["src-1"]
	if !ok {
		t.Fatal("Expected retention sweep to run")
	}

	expected := time.Now().UTC().AddDate(0, 0, -30)
	if cutoff.Before(expected.Add(-time.Minute)) || cutoff.After(expected.Add(time.Minute)) {
		t.Errorf("Cutoff should be ~30 days ago, got %v", cutoff)
	}
}

func TestSweepRetentionTask_RetentionDisabled(t *testing.T) {
	source := &database.Source{ID: "src-1", RetentionDays: 0}
	sourceRepo := newMockSourceRepo(source)
	itemRepo := newMockItemRepo()

	task := NewSweepRetentionTask("src-1", sourceRepo, itemRepo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(itemRepo.sweptSources) != 0 {
		t.Error("Zero retention days should disable the sweep")
	}
}

func TestSweepRetentionTask_CancelledContext(t *testing.T) {
	task := NewSweepRetentionTask("src-1", newMockSourceRepo(), newMockItemRepo())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := task.Execute(ctx); err == nil {
		t.Error("Expected context error")
	}
}
