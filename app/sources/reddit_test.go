package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sentinel-news/sentinel/app/cache"
	"github.com/sentinel-news/sentinel/app/feed"
)

func newTestClient() *Client {
	return NewClient(5*time.Second, "sentinel-test/1.0")
}

const redditFixture = `{
	"data": {
		"children": [
			{"data": {"id": "abc", "title": "Go 1.25 released", "url": "https://go.dev", "permalink": "/r/programming/comments/abc/go/", "subreddit": "programming", "score": 321, "num_comments": 45, "thumbnail": "https://thumb.example/1.png", "created_utc": 1700000000, "author": "gopher", "selftext": "", "domain": "go.dev"}},
			{"data": {"id": "nsfw1", "title": "Hidden", "subreddit": "programming", "over_18": true}},
			{"data": {"id": "stick1", "title": "Rules", "subreddit": "programming", "stickied": true}},
			{"data": {"id": "def", "title": "Self post", "subreddit": "programming", "thumbnail": "self", "created_utc": 1700000100, "selftext": "body text"}}
		]
	}
}`

func TestReddit_Fetch(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(redditFixture))
	}))
	defer server.Close()

	adapter := NewReddit(newTestClient(), cache.NewMemory(time.Minute))
	adapter.baseURL = server.URL

	items := adapter.Fetch(context.Background(), "programming", "hot", 15, "day")

	if len(items) != 2 {
		t.Fatalf("Expected 2 items (NSFW and stickied dropped), got %d", len(items))
	}

	first := items[0]
	if first.ID != "r_abc" {
		t.Errorf("Expected prefixed id r_abc, got %s", first.ID)
	}
	if first.Source != feed.SourceReddit {
		t.Errorf("Expected source reddit, got %s", first.Source)
	}
	if first.SourceDetail != "r/programming" {
		t.Errorf("Expected sourceDetail r/programming, got %s", first.SourceDetail)
	}
	if first.Permalink != "https://reddit.com/r/programming/comments/abc/go/" {
		t.Errorf("Unexpected permalink: %s", first.Permalink)
	}
	if first.Created != 1700000000000 {
		t.Errorf("Expected epoch millis, got %d", first.Created)
	}
	if first.Category != feed.CategoryTechnology {
		t.Errorf("Expected technology category for r/programming, got %s", first.Category)
	}

	// Placeholder thumbnails become empty.
	if items[1].Thumbnail != "" {
		t.Errorf("Expected placeholder thumbnail stripped, got %q", items[1].Thumbnail)
	}

	// Second call is served from cache.
	adapter.Fetch(context.Background(), "programming", "hot", 15, "day")
	if requests != 1 {
		t.Errorf("Expected cached second fetch, upstream saw %d requests", requests)
	}
}

func TestReddit_FetchErrorYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewReddit(newTestClient(), cache.NewMemory(time.Minute))
	adapter.baseURL = server.URL

	items := adapter.Fetch(context.Background(), "news", "hot", 10, "day")
	if items == nil || len(items) != 0 {
		t.Errorf("Expected empty non-nil slice on upstream failure, got %v", items)
	}
}

func TestReddit_CacheKeyEncodesParams(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"data":{"children":[]}}`))
	}))
	defer server.Close()

	adapter := NewReddit(newTestClient(), cache.NewMemory(time.Minute))
	adapter.baseURL = server.URL

	ctx := context.Background()
	adapter.Fetch(ctx, "news", "hot", 10, "day")
	adapter.Fetch(ctx, "news", "top", 10, "day")
	adapter.Fetch(ctx, "news", "hot", 25, "day")

	if requests != 3 {
		t.Errorf("Expected distinct params to bypass cache, upstream saw %d requests", requests)
	}
}
