package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLItemRepository handles database operations for items
type SQLItemRepository struct {
	db *DB
}

var _ ItemRepository = (*SQLItemRepository)(nil)

func NewItemRepository(db *DB) *SQLItemRepository {
	return &SQLItemRepository{db: db}
}

const itemColumns = `id, source_id, guid, title, link, content_html, content_text,
	excerpt, author, image_url, tags, published_at, is_read, is_saved, first_seen_at`

// InsertItemIfAbsent inserts the item unless one with the same identity key
// already exists. The UNIQUE (source_id, guid) constraint makes the check and
// the insert a single atomic statement, so two concurrent refreshes of the
// same source cannot double-insert.
func (r *SQLItemRepository) InsertItemIfAbsent(item *Item) (bool, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.FirstSeenAt.IsZero() {
		item.FirstSeenAt = time.Now().UTC()
	}

	result, err := r.db.Exec(`
		INSERT INTO items (
			id, source_id, guid, title, link, content_html, content_text,
			excerpt, author, image_url, tags, published_at, is_read, is_saved,
			first_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?)
		ON CONFLICT (source_id, guid) DO NOTHING
	`, item.ID, item.SourceID, item.GUID, item.Title, item.Link,
		item.ContentHTML, item.ContentText, item.Excerpt, item.Author,
		item.ImageURL, marshalTags(item.Tags), item.PublishedAt.UTC(),
		item.FirstSeenAt)

	if err != nil {
		return false, fmt.Errorf("failed to insert item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *SQLItemRepository) GetItem(id string) (*Item, error) {
	row := r.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *SQLItemRepository) GetItemsBySource(sourceID string, limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		WHERE source_id = ?
		ORDER BY published_at DESC
		LIMIT ?
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *SQLItemRepository) GetItemCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func (r *SQLItemRepository) SetItemRead(id string, read bool) error {
	_, err := r.db.Exec(`UPDATE items SET is_read = ? WHERE id = ?`, read, id)
	if err != nil {
		return fmt.Errorf("failed to update read flag: %w", err)
	}
	return nil
}

func (r *SQLItemRepository) SetItemSaved(id string, saved bool) error {
	_, err := r.db.Exec(`UPDATE items SET is_saved = ? WHERE id = ?`, saved, id)
	if err != nil {
		return fmt.Errorf("failed to update saved flag: %w", err)
	}
	return nil
}

// DeleteItemsOlderThan removes unsaved items published before the cutoff and
// returns the number of deleted rows. Saved items survive regardless of age.
func (r *SQLItemRepository) DeleteItemsOlderThan(sourceID string, cutoff time.Time) (int, error) {
	result, err := r.db.Exec(`
		DELETE FROM items
		WHERE source_id = ?
		  AND is_saved = 0
		  AND published_at < ?
	`, sourceID, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete aged items: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(affected), nil
}

// GetItemsForExtraction returns items that have a link but no extracted
// content yet.
func (r *SQLItemRepository) GetItemsForExtraction(sourceID string, limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		WHERE source_id = ?
		  AND link != ''
		  AND extraction_status = ''
		ORDER BY published_at DESC
		LIMIT ?
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for extraction: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *SQLItemRepository) UpdateExtractedContent(id string, contentHTML, contentText, excerpt string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET content_html = ?, content_text = ?, excerpt = ?, extraction_status = 'done'
		WHERE id = ?
	`, contentHTML, contentText, excerpt, id)
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}
	return nil
}

func (r *SQLItemRepository) MarkExtractionFailed(id string) error {
	_, err := r.db.Exec(`UPDATE items SET extraction_status = 'failed' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark extraction failed: %w", err)
	}
	return nil
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	var tags string

	err := row.Scan(
		&item.ID, &item.SourceID, &item.GUID, &item.Title, &item.Link,
		&item.ContentHTML, &item.ContentText, &item.Excerpt, &item.Author,
		&item.ImageURL, &tags, &item.PublishedAt, &item.Read, &item.Saved,
		&item.FirstSeenAt,
	)
	if err != nil {
		return nil, err
	}

	item.Tags = unmarshalTags(tags)
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func marshalTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalTags(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return nil
	}
	return tags
}
