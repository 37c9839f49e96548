package aggregator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sentinel-news/sentinel/app/catalog"
	"github.com/sentinel-news/sentinel/app/feed"
)

// Source adapter contracts. The aggregator depends on these rather than
// the concrete adapters so fetch behavior stays testable without the
// network.
type RedditSource interface {
	Fetch(ctx context.Context, channel, sort string, limit int, window string) []feed.Item
	Available() bool
}

type HackerNewsSource interface {
	Fetch(ctx context.Context, list string, limit int) []feed.Item
	Available() bool
}

type NewsAPISource interface {
	Fetch(ctx context.Context, query, category, country string, limit int) []feed.Item
	Available() bool
}

type GuardianSource interface {
	Fetch(ctx context.Context, section string, limit int) []feed.Item
	Available() bool
}

// BundleSource covers the parameterless feeds (RSS outlets, Wikinews).
type BundleSource interface {
	Fetch(ctx context.Context) []feed.Item
	Available() bool
}

// FetchOptions narrows a combined fetch. Zero value means the full
// default feed.
type FetchOptions struct {
	Category string
	Search   string
	Country  string
	Subs     []string
}

// Aggregator fans a fetch out across every available source, merges and
// deduplicates the results, and returns them coarse-ranked. Reddit is
// the only rate-limited upstream, so its channels go out in small
// ordered batches while everything else runs free.
type Aggregator struct {
	reddit     RedditSource
	hackerNews HackerNewsSource
	newsAPI    NewsAPISource
	guardian   GuardianSource
	rss        BundleSource
	wikinews   BundleSource
	catalog    *catalog.Catalog

	batchSize  int
	batchDelay time.Duration
	feedCap    int
}

type Config struct {
	BatchSize  int
	BatchDelay time.Duration
	FeedCap    int
}

func New(reddit RedditSource, hackerNews HackerNewsSource, newsAPI NewsAPISource,
	guardian GuardianSource, rss, wikinews BundleSource, cat *catalog.Catalog, cfg Config) *Aggregator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 4
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = 200 * time.Millisecond
	}
	if cfg.FeedCap <= 0 {
		cfg.FeedCap = 150
	}
	return &Aggregator{
		reddit:     reddit,
		hackerNews: hackerNews,
		newsAPI:    newsAPI,
		guardian:   guardian,
		rss:        rss,
		wikinews:   wikinews,
		catalog:    cat,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay,
		feedCap:    cfg.FeedCap,
	}
}

// Availability reports per-source readiness for the status endpoint.
func (a *Aggregator) Availability() map[string]bool {
	return map[string]bool{
		string(feed.SourceReddit):     a.reddit.Available(),
		string(feed.SourceHackerNews): a.hackerNews.Available(),
		string(feed.SourceNewsAPI):    a.newsAPI.Available(),
		string(feed.SourceGuardian):   a.guardian.Available(),
		string(feed.SourceRSS):        a.rss.Available(),
		string(feed.SourceWikinews):   a.wikinews.Available(),
	}
}

// Fetch runs the combined pipeline: fan-out, merge, dedup, filter,
// coarse rank. It never fails; a source error or even a panic degrades
// to whatever the other sources returned.
func (a *Aggregator) Fetch(ctx context.Context, opts FetchOptions) (items []feed.Item) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Aggregation recovered from panic", "panic", r)
			if items == nil {
				items = []feed.Item{}
			}
		}
	}()

	var (
		mu        sync.Mutex
		collected []feed.Item
		wg        sync.WaitGroup
	)
	collect := func(batch []feed.Item) {
		mu.Lock()
		collected = append(collected, batch...)
		mu.Unlock()
	}

	// Each source runs in its own goroutine with its own recover so a
	// misbehaving adapter cannot take the whole fetch down.
	spawn := func(name string, fetch func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Source fetch recovered from panic", "source", name, "panic", r)
				}
			}()
			fetch()
		}()
	}

	spawn("hackernews", func() { collect(a.hackerNews.Fetch(ctx, "top", 30)) })
	spawn("newsapi", func() { collect(a.newsAPI.Fetch(ctx, opts.Search, opts.Category, opts.Country, 20)) })
	spawn("guardian", func() { collect(a.guardian.Fetch(ctx, "", 25)) })
	spawn("rss", func() { collect(a.rss.Fetch(ctx)) })
	spawn("wikinews", func() { collect(a.wikinews.Fetch(ctx)) })
	spawn("reddit", func() { collect(a.fetchRedditChannels(ctx, a.redditRequests(opts))) })

	wg.Wait()

	items = feed.Dedup(collected)
	items = filterCategory(items, opts.Category)
	items = filterSearch(items, opts.Search)
	items = feed.CoarseRank(items, time.Now(), a.feedCap)
	return items
}

type redditRequest struct {
	channel string
	local   bool
}

// redditRequests builds the channel fan-out: the subscribed channels
// (catalog defaults when none given) plus the country-specific list,
// skipping country channels the user already follows.
func (a *Aggregator) redditRequests(opts FetchOptions) []redditRequest {
	subs := opts.Subs
	if len(subs) == 0 {
		subs = a.catalog.DefaultChannels()
	}

	seen := make(map[string]bool, len(subs))
	requests := make([]redditRequest, 0, len(subs))
	for _, sub := range subs {
		key := strings.ToLower(sub)
		if sub == "" || seen[key] {
			continue
		}
		seen[key] = true
		requests = append(requests, redditRequest{channel: sub})
	}

	for _, sub := range a.catalog.CountryChannels(opts.Country) {
		key := strings.ToLower(sub)
		if sub == "" || seen[key] {
			continue
		}
		seen[key] = true
		requests = append(requests, redditRequest{channel: sub, local: true})
	}
	return requests
}

// fetchRedditChannels walks the requests in strictly ordered batches,
// pausing between batches to stay under the upstream rate limit.
// Channels within a batch run concurrently.
func (a *Aggregator) fetchRedditChannels(ctx context.Context, requests []redditRequest) []feed.Item {
	if !a.reddit.Available() {
		return nil
	}

	var out []feed.Item
	for start := 0; start < len(requests); start += a.batchSize {
		end := start + a.batchSize
		if end > len(requests) {
			end = len(requests)
		}
		batch := requests[start:end]

		results := make([][]feed.Item, len(batch))
		var wg sync.WaitGroup
		for i, req := range batch {
			wg.Add(1)
			go func(i int, req redditRequest) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						slog.Error("Reddit channel fetch recovered from panic", "channel", req.channel, "panic", r)
					}
				}()
				items := a.reddit.Fetch(ctx, req.channel, "hot", 25, "day")
				if req.local {
					for j := range items {
						items[j].Local = true
					}
				}
				results[i] = items
			}(i, req)
		}
		wg.Wait()

		for _, items := range results {
			out = append(out, items...)
		}

		if end < len(requests) {
			select {
			case <-time.After(a.batchDelay):
			case <-ctx.Done():
				return out
			}
		}
	}
	return out
}

func filterCategory(items []feed.Item, category string) []feed.Item {
	if category == "" || category == "all" {
		return items
	}
	want := feed.Category(category)
	filtered := items[:0]
	for _, item := range items {
		if item.Category == want {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func filterSearch(items []feed.Item, query string) []feed.Item {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	filtered := items[:0]
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), query) ||
			strings.Contains(strings.ToLower(item.Snippet), query) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
