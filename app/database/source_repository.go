package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLSourceRepository handles database operations for sources
type SQLSourceRepository struct {
	db *DB
}

var _ SourceRepository = (*SQLSourceRepository)(nil)

func NewSourceRepository(db *DB) *SQLSourceRepository {
	return &SQLSourceRepository{db: db}
}

const sourceColumns = `id, owner, name, platform, feed_url, channel_id, subreddit,
	reddit_username, reddit_source_type, bluesky_handle, bluesky_did, icon_url,
	category, fetch_interval_seconds, retention_days, min_reddit_score,
	suppress_from_main_feed, extract_content, enabled,
	whitelist_keywords, blacklist_keywords, last_fetched_at, created_at, updated_at`

// CreateSource inserts a new source. A missing ID is generated; timestamps are
// set to the current time.
func (r *SQLSourceRepository) CreateSource(source *Source) error {
	if source.ID == "" {
		source.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	source.CreatedAt = now
	source.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO sources (
			id, owner, name, platform, feed_url, channel_id, subreddit,
			reddit_username, reddit_source_type, bluesky_handle, bluesky_did,
			icon_url, category, fetch_interval_seconds, retention_days,
			min_reddit_score, suppress_from_main_feed, extract_content, enabled,
			whitelist_keywords, blacklist_keywords, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, source.ID, source.Owner, source.Name, string(source.Platform), source.FeedURL,
		source.ChannelID, source.Subreddit, source.RedditUsername, source.RedditSourceType,
		source.BlueskyHandle, source.BlueskyDID, source.IconURL, source.Category,
		source.FetchIntervalSeconds, source.RetentionDays, source.MinRedditScore,
		source.SuppressFromMainFeed, source.ExtractContent, source.Enabled,
		marshalKeywords(source.WhitelistKeywords), marshalKeywords(source.BlacklistKeywords),
		source.CreatedAt, source.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	return nil
}

func (r *SQLSourceRepository) GetSource(id string) (*Source, error) {
	row := r.db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)
	return r.scanSource(row)
}

func (r *SQLSourceRepository) GetSourceByFeedURL(feedURL string) (*Source, error) {
	row := r.db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE feed_url = ?`, feedURL)
	return r.scanSource(row)
}

func (r *SQLSourceRepository) ListSources(owner string) ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT `+sourceColumns+`
		FROM sources
		WHERE owner = ? OR ? = ''
		ORDER BY name COLLATE NOCASE
	`, owner, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	return r.collectSources(rows)
}

// ListDueSources returns enabled sources whose fetch interval has elapsed
// since the last fetch (or that have never been fetched).
func (r *SQLSourceRepository) ListDueSources(now time.Time) ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT `+sourceColumns+`
		FROM sources
		WHERE enabled = 1
		  AND (last_fetched_at IS NULL
		       OR datetime(last_fetched_at, '+' || fetch_interval_seconds || ' seconds') <= datetime(?))
	`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list due sources: %w", err)
	}
	defer rows.Close()

	return r.collectSources(rows)
}

func (r *SQLSourceRepository) ListSourcesMissingIcon() ([]Source, error) {
	rows, err := r.db.Query(`SELECT ` + sourceColumns + ` FROM sources WHERE icon_url = ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources missing icon: %w", err)
	}
	defer rows.Close()

	return r.collectSources(rows)
}

func (r *SQLSourceRepository) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

// UpdateSource persists mutable source configuration (display, filters,
// retention, scheduling). Platform, feed URL and identifiers are immutable
// after creation.
func (r *SQLSourceRepository) UpdateSource(source *Source) error {
	source.UpdatedAt = time.Now().UTC()

	_, err := r.db.Exec(`
		UPDATE sources
		SET name = ?, icon_url = ?, category = ?, fetch_interval_seconds = ?,
		    retention_days = ?, min_reddit_score = ?, suppress_from_main_feed = ?,
		    extract_content = ?, enabled = ?, whitelist_keywords = ?,
		    blacklist_keywords = ?, updated_at = ?
		WHERE id = ?
	`, source.Name, source.IconURL, source.Category, source.FetchIntervalSeconds,
		source.RetentionDays, source.MinRedditScore, source.SuppressFromMainFeed,
		source.ExtractContent, source.Enabled,
		marshalKeywords(source.WhitelistKeywords), marshalKeywords(source.BlacklistKeywords),
		source.UpdatedAt, source.ID)

	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}

	return nil
}

// UpdateSourceMetadata updates the display name and icon discovered after a
// successful fetch. Empty values leave the existing ones untouched.
func (r *SQLSourceRepository) UpdateSourceMetadata(id string, name string, iconURL string) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET name = CASE WHEN ? != '' THEN ? ELSE name END,
		    icon_url = CASE WHEN ? != '' THEN ? ELSE icon_url END,
		    updated_at = ?
		WHERE id = ?
	`, name, name, iconURL, iconURL, time.Now().UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to update source metadata: %w", err)
	}

	return nil
}

func (r *SQLSourceRepository) UpdateSourceIcon(id string, iconURL string) error {
	_, err := r.db.Exec(`
		UPDATE sources SET icon_url = ?, updated_at = ? WHERE id = ?
	`, iconURL, time.Now().UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to update source icon: %w", err)
	}

	return nil
}

func (r *SQLSourceRepository) TouchLastFetched(id string, fetchedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sources SET last_fetched_at = ?, updated_at = ? WHERE id = ?
	`, fetchedAt.UTC(), time.Now().UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to update last fetched time: %w", err)
	}

	return nil
}

// DeleteSource removes a source; its items cascade via the foreign key.
func (r *SQLSourceRepository) DeleteSource(id string) error {
	_, err := r.db.Exec(`DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *SQLSourceRepository) scanSource(row rowScanner) (*Source, error) {
	var source Source
	var platform, whitelist, blacklist string
	var lastFetched sql.NullTime

	err := row.Scan(
		&source.ID, &source.Owner, &source.Name, &platform, &source.FeedURL,
		&source.ChannelID, &source.Subreddit, &source.RedditUsername,
		&source.RedditSourceType, &source.BlueskyHandle, &source.BlueskyDID,
		&source.IconURL, &source.Category, &source.FetchIntervalSeconds,
		&source.RetentionDays, &source.MinRedditScore, &source.SuppressFromMainFeed,
		&source.ExtractContent, &source.Enabled, &whitelist, &blacklist,
		&lastFetched, &source.CreatedAt, &source.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan source row: %w", err)
	}

	source.Platform = Platform(platform)
	source.WhitelistKeywords = unmarshalKeywords(whitelist)
	source.BlacklistKeywords = unmarshalKeywords(blacklist)
	if lastFetched.Valid {
		t := lastFetched.Time
		source.LastFetchedAt = &t
	}

	return &source, nil
}

func (r *SQLSourceRepository) collectSources(rows *sql.Rows) ([]Source, error) {
	var sources []Source
	for rows.Next() {
		source, err := r.scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func marshalKeywords(keywords []string) string {
	if len(keywords) == 0 {
		return "[]"
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalKeywords(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(data), &keywords); err != nil {
		return nil
	}
	return keywords
}
