package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/sentinel-news/sentinel/app/cache"
	"github.com/sentinel-news/sentinel/app/feed"
)

const redditBaseURL = "https://www.reddit.com"

// placeholder thumbnail markers the API uses instead of real URLs
var redditThumbnailPlaceholders = map[string]bool{
	"self": true, "default": true, "nsfw": true, "spoiler": true, "image": true, "": true,
}

// Reddit fetches one channel (subreddit) per call. The upstream API is
// rate limited, so callers batch invocations through the aggregator.
type Reddit struct {
	client  *Client
	cache   cache.Cache
	baseURL string
}

func NewReddit(client *Client, c cache.Cache) *Reddit {
	return &Reddit{client: client, cache: c, baseURL: redditBaseURL}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Thumbnail   string  `json:"thumbnail"`
	CreatedUTC  float64 `json:"created_utc"`
	Author      string  `json:"author"`
	Selftext    string  `json:"selftext"`
	Domain      string  `json:"domain"`
	Over18      bool    `json:"over_18"`
	Stickied    bool    `json:"stickied"`
}

// Fetch returns the normalized items for one channel. Any fetch or
// decode error yields an empty list and a logged warning.
func (r *Reddit) Fetch(ctx context.Context, channel, sort string, limit int, window string) []feed.Item {
	if channel == "" {
		channel = "popular"
	}
	if sort == "" {
		sort = "hot"
	}
	if limit <= 0 {
		limit = 25
	}
	if window == "" {
		window = "day"
	}

	key := fmt.Sprintf("reddit:%s:%s:%d:%s", channel, sort, limit, window)
	if items, ok := r.cache.Get(key); ok {
		return items
	}

	endpoint := fmt.Sprintf("%s/r/%s/%s.json?limit=%d&t=%s&raw_json=1",
		r.baseURL, url.PathEscape(channel), url.PathEscape(sort), limit, url.QueryEscape(window))

	var listing redditListing
	if err := r.client.GetJSON(ctx, endpoint, &listing); err != nil {
		slog.Warn("Reddit fetch failed", "channel", channel, "error", err)
		return []feed.Item{}
	}

	items := make([]feed.Item, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Over18 || post.Stickied {
			continue
		}

		thumbnail := post.Thumbnail
		if redditThumbnailPlaceholders[thumbnail] {
			thumbnail = ""
		}

		items = append(items, feed.Item{
			ID:           "r_" + post.ID,
			Title:        post.Title,
			URL:          post.URL,
			Permalink:    "https://reddit.com" + post.Permalink,
			Source:       feed.SourceReddit,
			SourceDetail: "r/" + post.Subreddit,
			Score:        post.Score,
			Comments:     post.NumComments,
			Thumbnail:    thumbnail,
			Created:      int64(post.CreatedUTC * 1000),
			Author:       post.Author,
			Snippet:      truncate(post.Selftext, 250),
			Domain:       post.Domain,
			Category:     feed.Categorize(post.Subreddit, post.Title),
		})
	}

	r.cache.Set(key, items)
	return items
}

// Available reports whether the source can be queried at all.
func (r *Reddit) Available() bool { return true }
