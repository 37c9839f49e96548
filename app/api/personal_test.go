package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/sentinel-news/sentinel/app/feed"
)

func TestPersonalFeed_UsesStoreProfile(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.agg.items = []feed.Item{
		{ID: "keep", Title: "Visible", Category: feed.CategoryGeneral, Created: now.UnixMilli()},
		{ID: "blocked", Title: "Hidden", Category: feed.CategoryGeneral, Created: now.UnixMilli()},
	}
	env.store.BlockItem("blocked")

	w := doRequest(env, "GET", "/api/personal/feed?mode=ranked", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var items []feed.Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "keep" {
		t.Errorf("Expected blocked item filtered, got %v", items)
	}

	// The fan-out uses the stored subscriptions.
	if len(env.agg.lastOpts.Subs) != 1 || env.agg.lastOpts.Subs[0] != "worldnews" {
		t.Errorf("Expected store subscriptions forwarded, got %v", env.agg.lastOpts.Subs)
	}
}

func TestBookmarkLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(env, "POST", "/api/personal/bookmarks",
		`{"id":"r_1","title":"Saved story"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(env, "GET", "/api/personal/bookmarks", "", nil)
	var items []feed.Item
	json.Unmarshal(w.Body.Bytes(), &items)
	if len(items) != 1 || items[0].ID != "r_1" {
		t.Errorf("Expected saved bookmark, got %v", items)
	}

	doRequest(env, "DELETE", "/api/personal/bookmarks/r_1", "", nil)
	if len(env.store.Bookmarks()) != 0 {
		t.Error("Expected bookmark removed")
	}

	w = doRequest(env, "POST", "/api/personal/bookmarks", `{"title":"no id"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for item without id, got %d", w.Code)
	}
}

func TestReactionEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(env, "POST", "/api/personal/reactions",
		`{"item":{"id":"r_1","category":"technology","sourceDetail":"r/programming"},"type":"like"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if r := env.store.Reactions()["r_1"]; r.Type != "like" || r.Category != feed.CategoryTechnology {
		t.Errorf("Unexpected stored reaction: %+v", r)
	}

	w = doRequest(env, "POST", "/api/personal/reactions",
		`{"item":{"id":"r_1"},"type":"meh"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown reaction type, got %d", w.Code)
	}

	doRequest(env, "DELETE", "/api/personal/reactions/r_1", "", nil)
	if len(env.store.Reactions()) != 0 {
		t.Error("Expected reaction cleared")
	}
}

func TestBlockShowLessClick(t *testing.T) {
	env := newTestEnv(t)

	doRequest(env, "POST", "/api/personal/blocked", `{"id":"bad"}`, nil)
	if !env.store.Blocked()["bad"] {
		t.Error("Expected item blocked")
	}

	w := doRequest(env, "POST", "/api/personal/showless", `{"channel":"r/spam"}`, nil)
	var resp map[string]bool
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp["muted"] || !env.store.ShowLess()["r/spam"] {
		t.Error("Expected channel muted")
	}

	doRequest(env, "POST", "/api/personal/clicks", `{"category":"science"}`, nil)
	if env.store.Interests()["science"] != 1 {
		t.Error("Expected click tracked")
	}
}

func TestSubscriptionEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(env, "POST", "/api/personal/subscriptions/toggle", `{"channel":"science"}`, nil)
	var toggle map[string]bool
	json.Unmarshal(w.Body.Bytes(), &toggle)
	if !toggle["subscribed"] {
		t.Error("Expected channel subscribed")
	}

	w = doRequest(env, "POST", "/api/personal/subscriptions/custom", `{"name":"r/selfhosted!"}`, nil)
	var custom map[string]string
	json.Unmarshal(w.Body.Bytes(), &custom)
	if custom["name"] != "selfhosted" {
		t.Errorf("Expected normalized name, got %v", custom)
	}

	w = doRequest(env, "POST", "/api/personal/subscriptions/custom", `{"name":"###"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid channel, got %d", w.Code)
	}

	doRequest(env, "DELETE", "/api/personal/subscriptions/custom/selfhosted", "", nil)
	if len(env.store.CustomSubscriptions()) != 0 {
		t.Error("Expected custom channel removed")
	}

	w = doRequest(env, "GET", "/api/personal/subscriptions", "", nil)
	var subs struct {
		Subscriptions []string `json:"subscriptions"`
		Custom        []string `json:"custom"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &subs); err != nil {
		t.Fatal(err)
	}
	if len(subs.Subscriptions) == 0 {
		t.Error("Expected subscription list")
	}
}

func TestSettingsAndWipe(t *testing.T) {
	env := newTestEnv(t)

	doRequest(env, "POST", "/api/personal/settings", `{"key":"radarSpeed","value":"fast"}`, nil)
	if env.store.Setting("radarSpeed") != "fast" {
		t.Error("Expected setting saved")
	}

	w := doRequest(env, "GET", "/api/personal/settings", "", nil)
	var settings map[string]any
	json.Unmarshal(w.Body.Bytes(), &settings)
	if settings["radarSpeed"] != "fast" || settings["crtEffect"] != true {
		t.Errorf("Unexpected settings: %v", settings)
	}

	env.store.TrackClick(feed.CategoryScience)
	doRequest(env, "POST", "/api/personal/wipe", "", nil)
	if len(env.store.Interests()) != 0 {
		t.Error("Expected profile wiped")
	}
}

func TestSignInStartsReconciliation(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(env, "POST", "/api/auth/signin", `{"email":"a@b.c","password":"x"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	// The engine sign-in runs on its own goroutine.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(env.engine.signedIn) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(env.engine.signedIn) != 1 || env.engine.signedIn[0] != "tok" {
		t.Errorf("Expected engine sign-in with session token, got %v", env.engine.signedIn)
	}
}

func TestSignOutDropsSession(t *testing.T) {
	env := newTestEnv(t)
	doRequest(env, "POST", "/api/auth/signout", "", map[string]string{"Authorization": "Bearer tok"})
	if !env.engine.signedOut {
		t.Error("Expected engine sign-out")
	}
}

func TestSyncStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(env, "GET", "/api/sync/status", "", nil)
	var status map[string]string
	json.Unmarshal(w.Body.Bytes(), &status)
	if status["status"] != "guest" {
		t.Errorf("Expected guest status, got %v", status)
	}
}
