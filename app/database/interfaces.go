package database

import (
	"time"
)

type SourceRepository interface {
	CreateSource(source *Source) error
	GetSource(id string) (*Source, error)
	GetSourceByFeedURL(feedURL string) (*Source, error)
	ListSources(owner string) ([]Source, error)
	ListDueSources(now time.Time) ([]Source, error)
	ListSourcesMissingIcon() ([]Source, error)
	GetSourceCount() (int, error)

	UpdateSource(source *Source) error
	UpdateSourceMetadata(id string, name string, iconURL string) error
	UpdateSourceIcon(id string, iconURL string) error
	TouchLastFetched(id string, fetchedAt time.Time) error

	DeleteSource(id string) error
}

type ItemRepository interface {
	// InsertItemIfAbsent inserts the item unless one with the same
	// (source_id, guid) identity key already exists. Reports whether a row
	// was inserted. Existing rows are never modified.
	InsertItemIfAbsent(item *Item) (bool, error)

	GetItem(id string) (*Item, error)
	GetItemsBySource(sourceID string, limit int) ([]Item, error)
	GetItemCount() (int, error)

	SetItemRead(id string, read bool) error
	SetItemSaved(id string, saved bool) error

	// DeleteItemsOlderThan removes unsaved items published before the cutoff.
	// Saved items are exempt regardless of age.
	DeleteItemsOlderThan(sourceID string, cutoff time.Time) (int, error)

	GetItemsForExtraction(sourceID string, limit int) ([]Item, error)
	UpdateExtractedContent(id string, contentHTML, contentText, excerpt string) error
	MarkExtractionFailed(id string) error
}
