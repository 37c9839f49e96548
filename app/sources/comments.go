package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sentinel-news/sentinel/app/feed"
)

const (
	maxTopComments = 15
	maxHNComments  = 12
	maxReplies     = 3
)

// Comments fetches small discussion trees from the sources that have
// them. Unsupported source/id combinations return an empty list, never
// an error.
type Comments struct {
	client        *Client
	redditBaseURL string
	hnBaseURL     string
}

func NewComments(client *Client) *Comments {
	return &Comments{
		client:        client,
		redditBaseURL: redditBaseURL,
		hnBaseURL:     hackerNewsBaseURL,
	}
}

// Fetch dispatches on source. Reddit needs the post permalink path,
// Hacker News the native numeric id.
func (c *Comments) Fetch(ctx context.Context, source feed.Source, permalink, id string) []feed.Comment {
	switch {
	case source == feed.SourceReddit && permalink != "":
		return c.fetchReddit(ctx, permalink)
	case source == feed.SourceHackerNews && id != "":
		return c.fetchHackerNews(ctx, id)
	default:
		return []feed.Comment{}
	}
}

type redditCommentListing struct {
	Data struct {
		Children []redditCommentNode `json:"children"`
	} `json:"data"`
}

type redditCommentNode struct {
	Kind string `json:"kind"`
	Data struct {
		Author     string          `json:"author"`
		Body       string          `json:"body"`
		Score      int             `json:"score"`
		CreatedUTC float64         `json:"created_utc"`
		Replies    json.RawMessage `json:"replies"` // empty string or nested listing
	} `json:"data"`
}

func (c *Comments) fetchReddit(ctx context.Context, permalink string) []feed.Comment {
	if !strings.HasPrefix(permalink, "/") {
		permalink = "/" + permalink
	}
	endpoint := fmt.Sprintf("%s%s.json?limit=%d&depth=2&sort=top", c.redditBaseURL, permalink, maxTopComments)

	var payload []redditCommentListing
	if err := c.client.GetJSON(ctx, endpoint, &payload); err != nil {
		slog.Warn("Reddit comments fetch failed", "permalink", permalink, "error", err)
		return []feed.Comment{}
	}
	if len(payload) < 2 {
		return []feed.Comment{}
	}

	comments := make([]feed.Comment, 0, maxTopComments)
	for _, node := range payload[1].Data.Children {
		if node.Kind != "t1" {
			continue
		}
		if len(comments) >= maxTopComments {
			break
		}

		comment := feed.Comment{
			Author: commentAuthor(node.Data.Author),
			Text:   truncate(node.Data.Body, 800),
			Score:  node.Data.Score,
			Time:   int64(node.Data.CreatedUTC * 1000),
		}

		var nested redditCommentListing
		if len(node.Data.Replies) > 0 && json.Unmarshal(node.Data.Replies, &nested) == nil {
			for _, reply := range nested.Data.Children {
				if reply.Kind != "t1" {
					continue
				}
				if len(comment.Replies) >= maxReplies {
					break
				}
				comment.Replies = append(comment.Replies, feed.Comment{
					Author: commentAuthor(reply.Data.Author),
					Text:   truncate(reply.Data.Body, 500),
					Score:  reply.Data.Score,
					Time:   int64(reply.Data.CreatedUTC * 1000),
				})
			}
		}

		comments = append(comments, comment)
	}
	return comments
}

func (c *Comments) fetchHackerNews(ctx context.Context, id string) []feed.Comment {
	var item hnItem
	if err := c.client.GetJSON(ctx, fmt.Sprintf("%s/item/%s.json", c.hnBaseURL, id), &item); err != nil {
		slog.Warn("Hacker News comments fetch failed", "id", id, "error", err)
		return []feed.Comment{}
	}

	kids := item.Kids
	if len(kids) > maxHNComments {
		kids = kids[:maxHNComments]
	}

	comments := make([]feed.Comment, 0, len(kids))
	for _, kidID := range kids {
		var kid hnItem
		if err := c.client.GetJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.hnBaseURL, kidID), &kid); err != nil {
			continue
		}
		if kid.Deleted || kid.Dead {
			continue
		}

		comment := feed.Comment{
			Author: hnAuthor(kid.By),
			Text:   truncate(stripHTML(kid.Text), 800),
			Score:  kid.Score,
			Time:   kid.Time * 1000,
		}

		replyIDs := kid.Kids
		if len(replyIDs) > maxReplies {
			replyIDs = replyIDs[:maxReplies]
		}
		for _, replyID := range replyIDs {
			var reply hnItem
			if err := c.client.GetJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.hnBaseURL, replyID), &reply); err != nil {
				continue
			}
			if reply.Deleted || reply.Dead {
				continue
			}
			comment.Replies = append(comment.Replies, feed.Comment{
				Author: hnAuthor(reply.By),
				Text:   truncate(stripHTML(reply.Text), 500),
				Score:  reply.Score,
				Time:   reply.Time * 1000,
			})
		}

		comments = append(comments, comment)
	}
	return comments
}

func commentAuthor(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}

func hnAuthor(author string) string {
	if author == "" {
		return "anon"
	}
	return author
}
