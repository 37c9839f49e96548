package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sentinel-news/sentinel/app/aggregator"
	"github.com/sentinel-news/sentinel/app/feed"
	"github.com/sentinel-news/sentinel/app/rank"
	"github.com/sentinel-news/sentinel/app/store"
)

// GetPersonalFeed serves the aggregate feed re-ranked with the local
// profile: subscriptions drive the channel fan-out, blocked items are
// dropped, and the requested sort mode is applied.
func (h *Handler) GetPersonalFeed(c *gin.Context) {
	opts := aggregator.FetchOptions{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Subs:     h.store.Subscriptions(),
	}
	if country, ok := h.store.Setting("country").(string); ok && country != "" && country != "auto" {
		opts.Country = strings.ToLower(country)
	}

	items := h.agg.Fetch(c.Request.Context(), opts)

	mode := c.DefaultQuery("mode", rank.ModeRanked)
	ranked := rank.Rank(items, rank.ProfileFromStore(h.store), mode, time.Now())
	c.JSON(http.StatusOK, ranked)
}

// --- Bookmarks ---

func (h *Handler) GetBookmarks(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Bookmarks())
}

func (h *Handler) PostBookmark(c *gin.Context) {
	var item feed.Item
	if err := c.ShouldBindJSON(&item); err != nil || item.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item payload"})
		return
	}
	if err := h.store.AddBookmark(item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save bookmark"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteBookmark(c *gin.Context) {
	if err := h.store.RemoveBookmark(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove bookmark"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Reactions ---

func (h *Handler) PostReaction(c *gin.Context) {
	var payload struct {
		Item feed.Item `json:"item"`
		Type string    `json:"type"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Item.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reaction payload"})
		return
	}
	if err := h.store.SetReaction(payload.Item, payload.Type); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteReaction(c *gin.Context) {
	if err := h.store.ClearReaction(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear reaction"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Blocking, muting, clicks ---

func (h *Handler) PostBlock(c *gin.Context) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid block payload"})
		return
	}
	if err := h.store.BlockItem(payload.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to block item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) PostShowLess(c *gin.Context) {
	var payload struct {
		Channel string `json:"channel"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel payload"})
		return
	}
	muted, err := h.store.ToggleShowLess(payload.Channel)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle channel"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"muted": muted})
}

func (h *Handler) PostClick(c *gin.Context) {
	var payload struct {
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid click payload"})
		return
	}
	if err := h.store.TrackClick(feed.Category(payload.Category)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to track click"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Subscriptions ---

func (h *Handler) GetSubscriptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"subscriptions": h.store.Subscriptions(),
		"custom":        h.store.CustomSubscriptions(),
	})
}

func (h *Handler) PostToggleSubscription(c *gin.Context) {
	var payload struct {
		Channel string `json:"channel"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel payload"})
		return
	}
	subscribed, err := h.store.ToggleSubscription(payload.Channel)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle subscription"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": subscribed})
}

func (h *Handler) PostCustomSubscription(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	name, err := h.store.AddCustomSubscription(payload.Name)
	if errors.Is(err, store.ErrInvalidChannel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Channel name is empty after normalization"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add channel"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name})
}

func (h *Handler) DeleteCustomSubscription(c *gin.Context) {
	if err := h.store.RemoveCustomSubscription(c.Param("name")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove channel"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Settings and profile lifecycle ---

func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Settings())
}

func (h *Handler) PostSetting(c *gin.Context) {
	var payload struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid setting payload"})
		return
	}
	if err := h.store.SaveSetting(payload.Key, payload.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save setting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) PostWipe(c *gin.Context) {
	if err := h.store.Wipe(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to wipe profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GetSyncStatus(c *gin.Context) {
	resp := gin.H{"status": string(h.engine.Status())}
	if err := h.engine.LastError(); err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
