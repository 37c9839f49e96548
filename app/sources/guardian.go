package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/sentinel-news/sentinel/app/cache"
	"github.com/sentinel-news/sentinel/app/feed"
)

const guardianBaseURL = "https://content.guardianapis.com"

// Guardian uses the Open Platform API. The public "test" key works for
// basic access, so the source is always available.
type Guardian struct {
	client  *Client
	cache   cache.Cache
	apiKey  string
	baseURL string
}

func NewGuardian(client *Client, c cache.Cache, apiKey string) *Guardian {
	if apiKey == "" {
		apiKey = "test"
	}
	return &Guardian{client: client, cache: c, apiKey: apiKey, baseURL: guardianBaseURL}
}

type guardianResponse struct {
	Response struct {
		Results []struct {
			ID                 string `json:"id"`
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			SectionID          string `json:"sectionId"`
			Fields             struct {
				Thumbnail string `json:"thumbnail"`
				TrailText string `json:"trailText"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

var guardianIDPattern = regexp.MustCompile(`[^a-zA-Z0-9]`)

func (g *Guardian) Fetch(ctx context.Context, section string, limit int) []feed.Item {
	if limit <= 0 {
		limit = 25
	}

	key := fmt.Sprintf("guardian:%s:%d", section, limit)
	if items, ok := g.cache.Get(key); ok {
		return items
	}

	endpoint := fmt.Sprintf("%s/search?api-key=%s&page-size=%d&show-fields=thumbnail,trailText&order-by=newest",
		g.baseURL, url.QueryEscape(g.apiKey), limit)
	if section != "" {
		endpoint += "&section=" + url.QueryEscape(section)
	}

	var resp guardianResponse
	if err := g.client.GetJSON(ctx, endpoint, &resp); err != nil {
		slog.Warn("Guardian fetch failed", "section", section, "error", err)
		return []feed.Item{}
	}

	now := time.Now().UnixMilli()
	items := make([]feed.Item, 0, len(resp.Response.Results))
	for _, a := range resp.Response.Results {
		if a.WebTitle == "" {
			continue
		}

		created := now
		if t, err := time.Parse(time.RFC3339, a.WebPublicationDate); err == nil {
			created = t.UnixMilli()
		}

		items = append(items, feed.Item{
			ID:           "guardian_" + guardianIDPattern.ReplaceAllString(a.ID, "_"),
			Title:        a.WebTitle,
			URL:          a.WebURL,
			Permalink:    a.WebURL,
			Source:       feed.SourceGuardian,
			SourceDetail: "The Guardian",
			Thumbnail:    a.Fields.Thumbnail,
			Created:      created,
			Snippet:      truncate(stripHTML(a.Fields.TrailText), 250),
			Domain:       "theguardian.com",
			Category:     feed.Categorize(a.SectionID, a.WebTitle),
		})
	}

	g.cache.Set(key, items)
	return items
}

func (g *Guardian) Available() bool { return true }
