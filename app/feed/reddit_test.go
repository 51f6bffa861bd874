package feed

import (
	"strings"
	"testing"

	"tributary/app/database"
)

const sampleRedditListing = `{
  "kind": "Listing",
  "data": {
    "children": [
      {
        "kind": "t3",
        "data": {
          "name": "t3_aaa111",
          "title": "Self post &amp; discussion",
          "permalink": "/r/golang/comments/aaa111/self_post/",
          "author": "gopher",
          "subreddit": "golang",
          "link_flair_text": "discussion",
          "selftext_html": "&lt;div class=\"md\"&gt;&lt;p&gt;some text&lt;/p&gt;&lt;/div&gt;",
          "score": 150,
          "created_utc": 1700000000
        }
      },
      {
        "kind": "t3",
        "data": {
          "name": "t3_bbb222",
          "title": "Low score post",
          "permalink": "/r/golang/comments/bbb222/low/",
          "author": "lurker",
          "score": 3,
          "created_utc": 1700000100
        }
      },
      {
        "kind": "t3",
        "data": {
          "name": "t3_ccc333",
          "title": "Native video",
          "permalink": "/r/videos/comments/ccc333/vid/",
          "author": "filmer",
          "score": 900,
          "created_utc": 1700000200,
          "is_video": true,
          "media": {"reddit_video": {"fallback_url": "https://v.redd.it/xyz/DASH_720.mp4"}}
        }
      },
      {
        "kind": "t3",
        "data": {
          "name": "t3_ddd444",
          "title": "Gallery post",
          "permalink": "/r/pics/comments/ddd444/gallery/",
          "author": "shooter",
          "score": 50,
          "created_utc": 1700000300,
          "is_gallery": true,
          "gallery_data": {"items": [{"media_id": "img1"}, {"media_id": "img2"}]},
          "media_metadata": {
            "img1": {"s": {"u": "https://preview.redd.it/img1.jpg?width=640&amp;s=abc"}},
            "img2": {"s": {"u": "https://preview.redd.it/img2.jpg?width=640&amp;s=def"}}
          }
        }
      },
      {
        "kind": "t1",
        "data": {
          "name": "t1_comment",
          "title": "a comment",
          "permalink": "/r/golang/comments/aaa111/self_post/comment1/",
          "score": 10,
          "created_utc": 1700000400
        }
      }
    ]
  }
}`

func TestRedditNormalizer_Normalize(t *testing.T) {
	normalizer := NewRedditNormalizer()
	source := &database.Source{Platform: database.PlatformReddit}

	_, entries, err := normalizer.Normalize(source, []byte(sampleRedditListing))
	if err != nil {
		t.Fatal(err)
	}

	// Four t3 posts, the t1 comment is skipped
	if len(entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.GUID != "t3_aaa111" {
		t.Errorf("Expected fullname as GUID, got '%s'", first.GUID)
	}
	if first.Title != "Self post & discussion" {
		t.Errorf("Title entities should be decoded, got '%s'", first.Title)
	}
	if first.Link != "https://www.reddit.com/r/golang/comments/aaa111/self_post/" {
		t.Errorf("Unexpected link: %s", first.Link)
	}
	if !strings.Contains(first.ContentHTML, "<p>some text</p>") {
		t.Errorf("selftext_html should be decoded and kept, got: %s", first.ContentHTML)
	}
	if first.Author != "gopher" {
		t.Errorf("Unexpected author: %s", first.Author)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "discussion" {
		t.Errorf("Flair should become a tag, got %v", first.Tags)
	}
	if first.PublishedAt.Unix() != 1700000000 {
		t.Errorf("Unexpected published time: %v", first.PublishedAt)
	}
}

func TestRedditNormalizer_MinScoreSuppression(t *testing.T) {
	normalizer := NewRedditNormalizer()
	source := &database.Source{
		Platform:       database.PlatformReddit,
		MinRedditScore: 100,
	}

	_, entries, err := normalizer.Normalize(source, []byte(sampleRedditListing))
	if err != nil {
		t.Fatal(err)
	}

	// Only the 150 and 900 score posts survive
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries above threshold, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.GUID == "t3_bbb222" || entry.GUID == "t3_ddd444" {
			t.Errorf("Post below score threshold should be dropped: %s", entry.GUID)
		}
	}
}

func TestRedditNormalizer_VideoPost(t *testing.T) {
	normalizer := NewRedditNormalizer()
	source := &database.Source{Platform: database.PlatformReddit}

	_, entries, err := normalizer.Normalize(source, []byte(sampleRedditListing))
	if err != nil {
		t.Fatal(err)
	}

	video := entries[2]
	if !strings.Contains(video.ContentHTML, "<video") {
		t.Errorf("Native video should render a video element, got: %s", video.ContentHTML)
	}
	if !strings.Contains(video.ContentHTML, "v.redd.it/xyz/DASH_720.mp4") {
		t.Errorf("Fallback URL should be the video source, got: %s", video.ContentHTML)
	}
}

func TestRedditNormalizer_GalleryPost(t *testing.T) {
	normalizer := NewRedditNormalizer()
	source := &database.Source{Platform: database.PlatformReddit}

	_, entries, err := normalizer.Normalize(source, []byte(sampleRedditListing))
	if err != nil {
		t.Fatal(err)
	}

	gallery := entries[3]
	if !strings.Contains(gallery.ContentHTML, "gallery-grid") {
		t.Errorf("Gallery should render a grid container, got: %s", gallery.ContentHTML)
	}
	if count := strings.Count(gallery.ContentHTML, "<img"); count != 2 {
		t.Errorf("Expected 2 gallery images, got %d: %s", count, gallery.ContentHTML)
	}
	if strings.Contains(gallery.ContentHTML, "&amp;amp;") {
		t.Errorf("Image URLs should be unescaped once, got: %s", gallery.ContentHTML)
	}
}

func TestRedditNormalizer_InvalidJSON(t *testing.T) {
	normalizer := NewRedditNormalizer()
	source := &database.Source{Platform: database.PlatformReddit}

	_, _, err := normalizer.Normalize(source, []byte("<html>rate limited</html>"))
	if err == nil {
		t.Fatal("Expected parse error")
	}
}
