package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/sentinel-news/sentinel/app/cache"
	"github.com/sentinel-news/sentinel/app/feed"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// NewsAPI is the key-gated editorial source. Without a configured key
// it reports unavailable and contributes nothing.
type NewsAPI struct {
	client  *Client
	cache   cache.Cache
	apiKey  string
	baseURL string
}

func NewNewsAPI(client *Client, c cache.Cache, apiKey string) *NewsAPI {
	return &NewsAPI{client: client, cache: c, apiKey: apiKey, baseURL: newsAPIBaseURL}
}

type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Author      string `json:"author"`
		Description string `json:"description"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Fetch returns editorial headlines. A non-empty query switches from
// top-headlines to full-archive search sorted by popularity.
func (n *NewsAPI) Fetch(ctx context.Context, query, category, country string, limit int) []feed.Item {
	if n.apiKey == "" {
		return []feed.Item{}
	}
	if category == "" {
		category = "general"
	}
	if country == "" {
		country = "us"
	}
	if limit <= 0 {
		limit = 20
	}

	key := fmt.Sprintf("news:%s:%s:%s:%d", query, category, country, limit)
	if items, ok := n.cache.Get(key); ok {
		return items
	}

	var endpoint string
	if query != "" {
		endpoint = fmt.Sprintf("%s/everything?q=%s&pageSize=%d&sortBy=popularity&apiKey=%s",
			n.baseURL, url.QueryEscape(query), limit, url.QueryEscape(n.apiKey))
	} else {
		endpoint = fmt.Sprintf("%s/top-headlines?category=%s&country=%s&pageSize=%d&apiKey=%s",
			n.baseURL, url.QueryEscape(category), url.QueryEscape(country), limit, url.QueryEscape(n.apiKey))
	}

	var resp newsAPIResponse
	if err := n.client.GetJSON(ctx, endpoint, &resp); err != nil {
		slog.Warn("NewsAPI fetch failed", "category", category, "error", err)
		return []feed.Item{}
	}

	now := time.Now().UnixMilli()
	items := make([]feed.Item, 0, len(resp.Articles))
	for i, a := range resp.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}

		created := now
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			created = t.UnixMilli()
		}

		sourceName := a.Source.Name
		if sourceName == "" {
			sourceName = "News"
		}

		items = append(items, feed.Item{
			ID:           fmt.Sprintf("na_%d_%d", now, i),
			Title:        a.Title,
			URL:          a.URL,
			Permalink:    a.URL,
			Source:       feed.SourceNewsAPI,
			SourceDetail: sourceName,
			Thumbnail:    a.URLToImage,
			Created:      created,
			Author:       a.Author,
			Snippet:      truncate(stripHTML(a.Description), 250),
			Domain:       sourceName,
			Category:     feed.Categorize("", a.Title),
		})
	}

	n.cache.Set(key, items)
	return items
}

func (n *NewsAPI) Available() bool { return n.apiKey != "" }
