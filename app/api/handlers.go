package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sentinel-news/sentinel/app/aggregator"
	"github.com/sentinel-news/sentinel/app/catalog"
	"github.com/sentinel-news/sentinel/app/feed"
	"github.com/sentinel-news/sentinel/app/store"
)

func NewHandler(agg AggregatorInterface, reddit aggregator.RedditSource,
	hn aggregator.HackerNewsSource, newsAPI aggregator.NewsAPISource,
	guardian aggregator.GuardianSource, rss aggregator.BundleSource,
	comments CommentsInterface, cloudClient CloudInterface,
	cat *catalog.Catalog, cacheStats CacheStats,
	userStore *store.Store, engine SyncEngineInterface,
	authURL, authAnonKey, version string) *Handler {
	return &Handler{
		agg:         agg,
		reddit:      reddit,
		hn:          hn,
		newsAPI:     newsAPI,
		guardian:    guardian,
		rss:         rss,
		comments:    comments,
		cloud:       cloudClient,
		catalog:     cat,
		cache:       cacheStats,
		store:       userStore,
		engine:      engine,
		authURL:     authURL,
		authAnonKey: authAnonKey,
		version:     version,
		startedAt:   time.Now(),
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// GetFeed serves the combined personalizable feed. It always answers
// 200 with a JSON array, even when every upstream fails.
func (h *Handler) GetFeed(c *gin.Context) {
	opts := aggregator.FetchOptions{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if country := c.Query("country"); country != "" && country != "auto" {
		opts.Country = strings.ToLower(country)
	}
	if subs := c.Query("subs"); subs != "" {
		for _, sub := range strings.Split(subs, ",") {
			if sub = strings.TrimSpace(sub); sub != "" {
				opts.Subs = append(opts.Subs, sub)
			}
		}
	}

	items := h.agg.Fetch(c.Request.Context(), opts)
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetReddit(c *gin.Context) {
	items := h.reddit.Fetch(c.Request.Context(),
		c.Query("sub"), c.Query("sort"), intQuery(c, "limit", 25), c.Query("t"))
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetHackerNews(c *gin.Context) {
	items := h.hn.Fetch(c.Request.Context(), c.Query("list"), intQuery(c, "limit", 30))
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetNews(c *gin.Context) {
	items := h.newsAPI.Fetch(c.Request.Context(),
		c.Query("q"), c.Query("category"), c.Query("country"), intQuery(c, "limit", 20))
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetGuardian(c *gin.Context) {
	items := h.guardian.Fetch(c.Request.Context(), c.Query("section"), intQuery(c, "limit", 25))
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetRSS(c *gin.Context) {
	c.JSON(http.StatusOK, h.rss.Fetch(c.Request.Context()))
}

// GetComments returns a small nested comment tree. Unsupported
// source/id combinations yield an empty list, never an error.
func (h *Handler) GetComments(c *gin.Context) {
	source := feed.Source(c.Query("source"))
	comments := h.comments.Fetch(c.Request.Context(), source, c.Query("permalink"), c.Query("id"))
	c.JSON(http.StatusOK, gin.H{
		"source":   source,
		"comments": comments,
	})
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sources":      h.agg.Availability(),
		"cacheEntries": h.cache.Len(),
		"uptime":       int(time.Since(h.startedAt).Seconds()),
		"version":      h.version,
	})
}

// GetConfig exposes the public identity-provider coordinates the
// client needs to establish sessions.
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authUrl":     h.authURL,
		"authAnonKey": h.authAnonKey,
	})
}

func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"channels": h.catalog.Channels(),
		"sections": h.catalog.Sections(),
		"defaults": h.catalog.DefaultChannels(),
	})
}

// --- Auth passthrough ---

func (h *Handler) requireCloud(c *gin.Context) bool {
	if h.cloud.Enabled() {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Accounts are not configured"})
	return false
}

// proxyAuth relays the provider's status and body untouched so the
// client sees its error shapes verbatim.
func (h *Handler) proxyAuth(c *gin.Context, status int, body []byte, err error) {
	if err != nil {
		slog.Error("Identity provider unreachable", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Identity provider unreachable"})
		return
	}
	c.Data(status, "application/json", body)
}

func (h *Handler) PostSignUp(c *gin.Context) {
	if !h.requireCloud(c) {
		return
	}
	body, _ := io.ReadAll(c.Request.Body)
	status, respBody, err := h.cloud.SignUp(c.Request.Context(), body)
	h.proxyAuth(c, status, respBody, err)
}

func (h *Handler) PostSignIn(c *gin.Context) {
	if !h.requireCloud(c) {
		return
	}
	body, _ := io.ReadAll(c.Request.Body)
	status, respBody, err := h.cloud.SignIn(c.Request.Context(), body)

	// A successful sign-in starts the reconciling pull in the
	// background; the session response goes back to the client
	// immediately either way.
	if err == nil && status == http.StatusOK && h.engine != nil {
		var session struct {
			AccessToken string `json:"access_token"`
		}
		if json.Unmarshal(respBody, &session) == nil && session.AccessToken != "" {
			go func(token string) {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := h.engine.SignIn(ctx, token); err != nil {
					slog.Warn("Post-sign-in reconciliation failed", "error", err)
				}
			}(session.AccessToken)
		}
	}

	h.proxyAuth(c, status, respBody, err)
}

func (h *Handler) PostSignOut(c *gin.Context) {
	if !h.requireCloud(c) {
		return
	}
	if h.engine != nil {
		h.engine.SignOut()
	}
	status, respBody, err := h.cloud.SignOut(c.Request.Context(), bearerToken(c))
	h.proxyAuth(c, status, respBody, err)
}

func (h *Handler) PostPassword(c *gin.Context) {
	if !h.requireCloud(c) {
		return
	}
	body, _ := io.ReadAll(c.Request.Body)
	status, respBody, err := h.cloud.ChangePassword(c.Request.Context(), bearerToken(c), body)
	h.proxyAuth(c, status, respBody, err)
}

func (h *Handler) GetUser(c *gin.Context) {
	if !h.requireCloud(c) {
		return
	}
	status, respBody, err := h.cloud.User(c.Request.Context(), bearerToken(c))
	h.proxyAuth(c, status, respBody, err)
}

// --- Sync ---

func (h *Handler) GetSyncPull(c *gin.Context) {
	if !h.requireCloud(c) {
		return
	}
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session token required"})
		return
	}

	prefs, bookmarks, err := h.cloud.Pull(c.Request.Context(), token)
	if err != nil {
		slog.Error("Snapshot pull failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Pull failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prefs":     prefs,
		"bookmarks": bookmarks,
	})
}

func (h *Handler) PostSyncPush(c *gin.Context) {
	if !h.requireCloud(c) {
		return
	}
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session token required"})
		return
	}

	var snap store.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid snapshot payload"})
		return
	}

	if err := h.cloud.Push(c.Request.Context(), token, snap); err != nil {
		slog.Error("Snapshot push failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Push failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
