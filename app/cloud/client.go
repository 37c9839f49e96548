package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sentinel-news/sentinel/app/feed"
	"github.com/sentinel-news/sentinel/app/store"
)

// Client talks to the remote account backend: an identity provider for
// sessions and a REST row store for the synced snapshot. Auth calls
// pass the provider's status and body through verbatim so the caller
// sees exactly what the provider said.
type Client struct {
	http    *http.Client
	baseURL string
	anonKey string
}

func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		anonKey: anonKey,
	}
}

// Enabled reports whether a remote backend is configured at all.
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.anonKey != ""
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte, headers map[string]string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// --- Identity provider passthrough ---

func (c *Client) SignUp(ctx context.Context, body []byte) (int, []byte, error) {
	return c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, nil)
}

func (c *Client) SignIn(ctx context.Context, body []byte) (int, []byte, error) {
	return c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, nil)
}

func (c *Client) SignOut(ctx context.Context, token string) (int, []byte, error) {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", token, nil, nil)
}

func (c *Client) ChangePassword(ctx context.Context, token string, body []byte) (int, []byte, error) {
	return c.do(ctx, http.MethodPut, "/auth/v1/user", token, body, nil)
}

func (c *Client) User(ctx context.Context, token string) (int, []byte, error) {
	return c.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, nil)
}

// UserID resolves the account id behind a session token.
func (c *Client) UserID(ctx context.Context, token string) (string, error) {
	status, body, err := c.User(ctx, token)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("identity lookup failed with status %d: %s", status, body)
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("failed to decode identity response: %w", err)
	}
	if user.ID == "" {
		return "", fmt.Errorf("identity response carried no id")
	}
	return user.ID, nil
}

// --- Snapshot storage ---

// PrefsRecord is the single upserted preferences row per account.
type PrefsRecord struct {
	UserID     string         `json:"user_id,omitempty"`
	Subreddits []string       `json:"subreddits"`
	CustomSubs []string       `json:"custom_subs"`
	Interests  map[string]int `json:"interests"`
	Settings   map[string]any `json:"settings"`
}

type bookmarkRecord struct {
	UserID   string    `json:"user_id,omitempty"`
	ItemID   string    `json:"item_id"`
	Item     feed.Item `json:"item"`
	Position int       `json:"position"`
}

// Pull fetches the remote snapshot. A nil PrefsRecord means the
// account has never pushed, which the sync engine treats as first
// sync.
func (c *Client) Pull(ctx context.Context, token string) (*PrefsRecord, []feed.Item, error) {
	status, body, err := c.do(ctx, http.MethodGet,
		"/rest/v1/user_prefs?select=subreddits,custom_subs,interests,settings&limit=1", token, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	if status != http.StatusOK {
		return nil, nil, fmt.Errorf("prefs pull failed with status %d: %s", status, body)
	}

	var prefsRows []PrefsRecord
	if err := json.Unmarshal(body, &prefsRows); err != nil {
		return nil, nil, fmt.Errorf("failed to decode prefs rows: %w", err)
	}
	var prefs *PrefsRecord
	if len(prefsRows) > 0 {
		prefs = &prefsRows[0]
	}

	status, body, err = c.do(ctx, http.MethodGet,
		"/rest/v1/user_bookmarks?select=item,position&order=position.asc", token, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	if status != http.StatusOK {
		return nil, nil, fmt.Errorf("bookmarks pull failed with status %d: %s", status, body)
	}

	var bookmarkRows []bookmarkRecord
	if err := json.Unmarshal(body, &bookmarkRows); err != nil {
		return nil, nil, fmt.Errorf("failed to decode bookmark rows: %w", err)
	}
	bookmarks := make([]feed.Item, 0, len(bookmarkRows))
	for _, row := range bookmarkRows {
		bookmarks = append(bookmarks, row.Item)
	}

	return prefs, bookmarks, nil
}

// Push replaces the remote snapshot: the preferences row is upserted,
// the bookmark rows are deleted and reinserted. Last writer wins; no
// merge, no conflict detection.
func (c *Client) Push(ctx context.Context, token string, snap store.Snapshot) error {
	userID, err := c.UserID(ctx, token)
	if err != nil {
		return err
	}

	prefs, err := json.Marshal([]PrefsRecord{{
		UserID:     userID,
		Subreddits: snap.Subreddits,
		CustomSubs: snap.CustomSubs,
		Interests:  snap.Interests,
		Settings:   snap.Settings,
	}})
	if err != nil {
		return fmt.Errorf("failed to encode prefs: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, "/rest/v1/user_prefs", token, prefs,
		map[string]string{"Prefer": "resolution=merge-duplicates"})
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("prefs push failed with status %d: %s", status, body)
	}

	deletePath := "/rest/v1/user_bookmarks?user_id=eq." + url.QueryEscape(userID)
	status, body, err = c.do(ctx, http.MethodDelete, deletePath, token, nil, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("bookmarks clear failed with status %d: %s", status, body)
	}

	if len(snap.Bookmarks) == 0 {
		return nil
	}

	rows := make([]bookmarkRecord, len(snap.Bookmarks))
	for i, item := range snap.Bookmarks {
		rows[i] = bookmarkRecord{UserID: userID, ItemID: item.ID, Item: item, Position: i}
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode bookmarks: %w", err)
	}

	status, body, err = c.do(ctx, http.MethodPost, "/rest/v1/user_bookmarks", token, encoded, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("bookmarks push failed with status %d: %s", status, body)
	}
	return nil
}
