package sources

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/sentinel-news/sentinel/app/cache"
	"github.com/sentinel-news/sentinel/app/catalog"
	"github.com/sentinel-news/sentinel/app/feed"
)

const itemsPerOutlet = 10

// RSS fetches the default syndication bundle: every configured outlet
// in parallel, each isolated so one broken feed cannot take down the
// bundle.
type RSS struct {
	parser  *gofeed.Parser
	cache   cache.Cache
	outlets []catalog.Outlet
	timeout time.Duration
}

func NewRSS(c cache.Cache, outlets []catalog.Outlet, userAgent string) *RSS {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &RSS{
		parser:  parser,
		cache:   c,
		outlets: outlets,
		timeout: 10 * time.Second,
	}
}

// Fetch returns the normalized bundle across all outlets.
func (r *RSS) Fetch(ctx context.Context) []feed.Item {
	const key = "rss:all"
	if items, ok := r.cache.Get(key); ok {
		return items
	}

	results := make([][]feed.Item, len(r.outlets))
	var wg sync.WaitGroup
	for i, outlet := range r.outlets {
		wg.Add(1)
		go func(i int, outlet catalog.Outlet) {
			defer wg.Done()
			results[i] = r.fetchOutlet(ctx, outlet)
		}(i, outlet)
	}
	wg.Wait()

	items := make([]feed.Item, 0, len(r.outlets)*itemsPerOutlet)
	for _, outletItems := range results {
		items = append(items, outletItems...)
	}

	r.cache.Set(key, items)
	return items
}

func (r *RSS) fetchOutlet(ctx context.Context, outlet catalog.Outlet) []feed.Item {
	octx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	parsed, err := r.parser.ParseURLWithContext(outlet.URL, octx)
	if err != nil {
		slog.Warn("RSS outlet fetch failed", "outlet", outlet.Name, "error", err)
		return nil
	}

	now := time.Now().UnixMilli()
	count := len(parsed.Items)
	if count > itemsPerOutlet {
		count = itemsPerOutlet
	}

	items := make([]feed.Item, 0, count)
	for _, entry := range parsed.Items[:count] {
		created := now
		if entry.PublishedParsed != nil {
			created = entry.PublishedParsed.UnixMilli()
		}

		thumbnail := ""
		if len(entry.Enclosures) > 0 && entry.Enclosures[0] != nil {
			thumbnail = entry.Enclosures[0].URL
		}

		author := ""
		if len(entry.Authors) > 0 && entry.Authors[0] != nil {
			author = entry.Authors[0].Name
		}

		items = append(items, feed.Item{
			ID:           rssItemID(entry.Link, outlet.URL),
			Title:        entry.Title,
			URL:          entry.Link,
			Permalink:    entry.Link,
			Source:       feed.SourceRSS,
			SourceDetail: outlet.Name,
			Thumbnail:    thumbnail,
			Created:      created,
			Author:       author,
			Snippet:      truncate(stripHTML(entry.Description), 250),
			Domain:       outlet.Name,
			Category:     feed.Categorize(outlet.Category, entry.Title),
		})
	}
	return items
}

// rssItemID derives a stable id from the entry link so repeated fetches
// of the same story keep the same identity. The full link is hashed:
// entries from one outlet share a long URL prefix, so any prefix-based
// id would collapse them into one identity.
func rssItemID(link, fallback string) string {
	src := link
	if src == "" {
		src = fallback
	}
	h := fnv.New64a()
	h.Write([]byte(src))
	return fmt.Sprintf("rss_%016x", h.Sum64())
}

func (r *RSS) Available() bool { return true }
