package sources

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/sentinel-news/sentinel/app/cache"
	"github.com/sentinel-news/sentinel/app/feed"
)

const (
	wikinewsFeedURL  = "https://en.wikinews.org/w/index.php?title=Special:NewsFeed&feed=rss"
	wikinewsMaxItems = 20
)

var wikinewsIDPattern = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Wikinews is a single free syndication feed.
type Wikinews struct {
	parser  *gofeed.Parser
	cache   cache.Cache
	feedURL string
}

func NewWikinews(c cache.Cache, userAgent string) *Wikinews {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &Wikinews{parser: parser, cache: c, feedURL: wikinewsFeedURL}
}

func (w *Wikinews) Fetch(ctx context.Context) []feed.Item {
	const key = "wikinews"
	if items, ok := w.cache.Get(key); ok {
		return items
	}

	fctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	parsed, err := w.parser.ParseURLWithContext(w.feedURL, fctx)
	if err != nil {
		slog.Warn("Wikinews fetch failed", "error", err)
		return []feed.Item{}
	}

	now := time.Now().UnixMilli()
	count := len(parsed.Items)
	if count > wikinewsMaxItems {
		count = wikinewsMaxItems
	}

	items := make([]feed.Item, 0, count)
	for _, entry := range parsed.Items[:count] {
		created := now
		if entry.PublishedParsed != nil {
			created = entry.PublishedParsed.UnixMilli()
		}

		idSource := entry.GUID
		if idSource == "" {
			idSource = entry.Link
		}
		if idSource == "" {
			idSource = entry.Title
		}
		id := wikinewsIDPattern.ReplaceAllString(idSource, "_")
		if len(id) > 80 {
			id = id[:80]
		}

		author := ""
		if len(entry.Authors) > 0 && entry.Authors[0] != nil {
			author = entry.Authors[0].Name
		}

		items = append(items, feed.Item{
			ID:           "wiki_" + id,
			Title:        entry.Title,
			URL:          entry.Link,
			Permalink:    entry.Link,
			Source:       feed.SourceWikinews,
			SourceDetail: "WikiNews",
			Created:      created,
			Author:       author,
			Snippet:      truncate(stripHTML(entry.Description), 250),
			Domain:       "en.wikinews.org",
			Category:     feed.Categorize("world", entry.Title),
		})
	}

	w.cache.Set(key, items)
	return items
}

func (w *Wikinews) Available() bool { return true }
