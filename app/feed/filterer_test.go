package feed

import (
	"testing"

	"tributary/app/database"
)

func TestFilterer_Run_NoKeywords(t *testing.T) {
	filterer := NewFilterer()

	items := []database.Item{
		{Title: "First post"},
		{Title: "Second post"},
	}
	source := &database.Source{Enabled: true}

	result := filterer.Run(items, source)

	if len(result) != 2 {
		t.Errorf("Expected 2 items, got %d", len(result))
	}
}

func TestFilterer_Run_DisabledSource(t *testing.T) {
	filterer := NewFilterer()

	items := []database.Item{
		{Title: "First post"},
	}
	source := &database.Source{Enabled: false}

	result := filterer.Run(items, source)

	if len(result) != 0 {
		t.Errorf("Disabled source should contribute zero items, got %d", len(result))
	}
}

func TestFilterer_Run_Whitelist(t *testing.T) {
	filterer := NewFilterer()

	items := []database.Item{
		{Title: "Go 1.24 released"},
		{Title: "Cooking with cast iron"},
		{Title: "Concurrency patterns", Excerpt: "A tour of Go channels"},
	}
	source := &database.Source{
		Enabled:           true,
		WhitelistKeywords: []string{"go"},
	}

	result := filterer.Run(items, source)

	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	if result[0].Title != "Go 1.24 released" {
		t.Errorf("Unexpected first item: %s", result[0].Title)
	}
	if result[1].Title != "Concurrency patterns" {
		t.Errorf("Whitelist should match excerpt text, got: %s", result[1].Title)
	}
}

func TestFilterer_Run_Blacklist(t *testing.T) {
	filterer := NewFilterer()

	items := []database.Item{
		{Title: "Weekly digest"},
		{Title: "SPONSORED: buy now"},
		{Title: "Regular update", ContentText: "this post is sponsored by"},
	}
	source := &database.Source{
		Enabled:           true,
		BlacklistKeywords: []string{"sponsored"},
	}

	result := filterer.Run(items, source)

	if len(result) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(result))
	}
	if result[0].Title != "Weekly digest" {
		t.Errorf("Unexpected surviving item: %s", result[0].Title)
	}
}

func TestFilterer_Run_BlacklistWinsOverWhitelist(t *testing.T) {
	filterer := NewFilterer()

	items := []database.Item{
		{Title: "Go release notes"},
		{Title: "Go conference sponsored talk"},
	}
	source := &database.Source{
		Enabled:           true,
		WhitelistKeywords: []string{"go"},
		BlacklistKeywords: []string{"sponsored"},
	}

	result := filterer.Run(items, source)

	if len(result) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(result))
	}
	if result[0].Title != "Go release notes" {
		t.Errorf("Item matching both lists should be dropped, got: %s", result[0].Title)
	}
}

func TestFilterer_Run_CaseFolding(t *testing.T) {
	filterer := NewFilterer()

	items := []database.Item{
		{Title: "BREAKING: Straße closed"},
		{Title: "quiet day"},
	}
	source := &database.Source{
		Enabled:           true,
		WhitelistKeywords: []string{"STRASSE"},
	}

	result := filterer.Run(items, source)

	if len(result) != 1 {
		t.Fatalf("Expected 1 item via case folding, got %d", len(result))
	}
	if result[0].Title != "BREAKING: Straße closed" {
		t.Errorf("Unexpected item: %s", result[0].Title)
	}
}

func TestFilterer_Run_MatchesAuthorAndTags(t *testing.T) {
	filterer := NewFilterer()

	items := []database.Item{
		{Title: "untitled", Author: "Jane Doe"},
		{Title: "untitled too", Tags: []string{"golang", "databases"}},
		{Title: "unrelated"},
	}
	source := &database.Source{
		Enabled:           true,
		WhitelistKeywords: []string{"jane", "golang"},
	}

	result := filterer.Run(items, source)

	if len(result) != 2 {
		t.Errorf("Expected author and tag matches, got %d items", len(result))
	}
}

func TestFilterer_Run_EmptyKeywordIgnored(t *testing.T) {
	filterer := NewFilterer()

	items := []database.Item{
		{Title: "anything at all"},
	}
	source := &database.Source{
		Enabled:           true,
		BlacklistKeywords: []string{"  ", ""},
	}

	result := filterer.Run(items, source)

	if len(result) != 1 {
		t.Errorf("Blank keywords should never match, got %d items", len(result))
	}
}
