package sources

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSeedFile(t *testing.T) {
	tempDir := t.TempDir()

	content := `
sources:
  - platform: rss
    input: "https://blog.example.com/feed.xml"
    owner: alice
    category: tech
  - platform: reddit
    input: r/golang
    owner: alice
    name: Go subreddit
  - platform: bluesky
    input: "@alice.bsky.social"
`

	path := filepath.Join(tempDir, "seed.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	seeds, err := LoadSeedFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(seeds) != 3 {
		t.Fatalf("Expected 3 seed entries, got %d", len(seeds))
	}
	if seeds[0].Platform != "rss" || seeds[0].Category != "tech" {
		t.Errorf("Unexpected first entry: %+v", seeds[0])
	}
	if seeds[1].Name != "Go subreddit" {
		t.Errorf("Expected explicit name, got '%s'", seeds[1].Name)
	}
}

func TestLoadSeedFile_UnknownPlatform(t *testing.T) {
	tempDir := t.TempDir()

	content := `
sources:
  - platform: myspace
    input: someone
`

	path := filepath.Join(tempDir, "seed.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSeedFile(path); err == nil {
		t.Fatal("Expected error for unknown platform")
	}
}

func TestLoadSeedFile_MissingInput(t *testing.T) {
	tempDir := t.TempDir()

	content := `
sources:
  - platform: rss
`

	path := filepath.Join(tempDir, "seed.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSeedFile(path); err == nil {
		t.Fatal("Expected error for missing input")
	}
}

func TestLoadSeedFile_NotFound(t *testing.T) {
	if _, err := LoadSeedFile("/nonexistent/seed.yml"); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
