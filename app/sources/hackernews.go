package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sentinel-news/sentinel/app/cache"
	"github.com/sentinel-news/sentinel/app/feed"
)

const hackerNewsBaseURL = "https://hacker-news.firebaseio.com/v0"

// HackerNews resolves a story id list, then fetches the items with
// bounded concurrency. The API is not rate limited.
type HackerNews struct {
	client  *Client
	cache   cache.Cache
	baseURL string
}

func NewHackerNews(client *Client, c cache.Cache) *HackerNews {
	return &HackerNews{client: client, cache: c, baseURL: hackerNewsBaseURL}
}

type hnItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	By          string `json:"by"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	Text        string `json:"text"`
	Kids        []int  `json:"kids"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// Fetch returns normalized stories from one of the HN lists (top, new,
// best). Individual item failures are skipped silently; a list failure
// yields an empty result.
func (h *HackerNews) Fetch(ctx context.Context, list string, limit int) []feed.Item {
	if list == "" {
		list = "top"
	}
	if limit <= 0 {
		limit = 30
	}

	key := fmt.Sprintf("hn:%s:%d", list, limit)
	if items, ok := h.cache.Get(key); ok {
		return items
	}

	var ids []int
	endpoint := fmt.Sprintf("%s/%sstories.json", h.baseURL, url.PathEscape(list))
	if err := h.client.GetJSON(ctx, endpoint, &ids); err != nil {
		slog.Warn("Hacker News list fetch failed", "list", list, "error", err)
		return []feed.Item{}
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	raw := h.itemsByIDs(ctx, ids)

	items := make([]feed.Item, 0, len(raw))
	for _, it := range raw {
		if it.Title == "" {
			continue
		}

		permalink := fmt.Sprintf("https://news.ycombinator.com/item?id=%d", it.ID)
		itemURL := it.URL
		domain := "news.ycombinator.com"
		if itemURL == "" {
			itemURL = permalink
		} else if parsed, err := url.Parse(itemURL); err == nil && parsed.Hostname() != "" {
			domain = strings.TrimPrefix(parsed.Hostname(), "www.")
		}

		items = append(items, feed.Item{
			ID:           fmt.Sprintf("hn_%d", it.ID),
			Title:        it.Title,
			URL:          itemURL,
			Permalink:    permalink,
			Source:       feed.SourceHackerNews,
			SourceDetail: "Hacker News",
			Score:        it.Score,
			Comments:     it.Descendants,
			Created:      it.Time * 1000,
			Author:       it.By,
			Domain:       domain,
			Category:     feed.Categorize("technology", it.Title),
		})
	}

	h.cache.Set(key, items)
	return items
}

// itemsByIDs resolves ids concurrently, preserving list order and
// dropping failures.
func (h *HackerNews) itemsByIDs(ctx context.Context, ids []int) []hnItem {
	if len(ids) == 0 {
		return nil
	}

	const maxWorkers = 8
	sem := make(chan struct{}, maxWorkers)
	results := make([]*hnItem, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i, id int) {
			defer wg.Done()
			defer func() { <-sem }()

			ictx, cancel := context.WithTimeout(ctx, 8*time.Second)
			defer cancel()

			var it hnItem
			endpoint := fmt.Sprintf("%s/item/%d.json", h.baseURL, id)
			if err := h.client.GetJSON(ictx, endpoint, &it); err != nil {
				return
			}
			if it.Deleted || it.Dead {
				return
			}
			results[i] = &it
		}(i, id)
	}
	wg.Wait()

	items := make([]hnItem, 0, len(ids))
	for _, r := range results {
		if r != nil {
			items = append(items, *r)
		}
	}
	return items
}

func (h *HackerNews) Available() bool { return true }
