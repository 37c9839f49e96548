package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Client is the HTTP helper shared by all adapters: JSON decoding,
// redirect following (net/http default), per-request timeout via the
// underlying client, and a stable User-Agent.
type Client struct {
	http      *http.Client
	userAgent string
}

func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// GetJSON fetches url and decodes the JSON response body into v.
// Responses with status >= 400 are errors.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("status %d from %s", resp.StatusCode, strings.SplitN(url, "?", 2)[0])
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", strings.SplitN(url, "?", 2)[0], err)
	}
	return nil
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// stripHTML removes markup from snippet text. Source payloads carry
// simple HTML only, so tag removal plus common entities is enough.
func stripHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	replacer := strings.NewReplacer(
		"&quot;", `"`,
		"&apos;", "'",
		"&#39;", "'",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&nbsp;", " ",
	)
	return strings.TrimSpace(replacer.Replace(s))
}

// truncate limits s to max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
