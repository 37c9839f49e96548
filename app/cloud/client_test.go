package cloud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sentinel-news/sentinel/app/feed"
	"github.com/sentinel-news/sentinel/app/store"
)

func TestSignIn_PassesProviderResponseThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Error("Expected anon key header")
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "anon-key")
	status, body, err := client.SignIn(context.Background(), []byte(`{"email":"a@b.c","password":"nope"}`))
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusBadRequest {
		t.Errorf("Expected provider status preserved, got %d", status)
	}
	if string(body) != `{"error":"invalid_grant","error_description":"Invalid login credentials"}` {
		t.Errorf("Expected provider body verbatim, got %s", body)
	}
}

func TestUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer session-token" {
			t.Error("Expected bearer token forwarded")
		}
		w.Write([]byte(`{"id":"user-123","email":"a@b.c"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "anon-key")
	id, err := client.UserID(context.Background(), "session-token")
	if err != nil {
		t.Fatal(err)
	}
	if id != "user-123" {
		t.Errorf("Expected user-123, got %s", id)
	}
}

func TestPull(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/user_prefs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"subreddits":["science"],"custom_subs":["selfhosted"],"interests":{"science":4},"settings":{"sound":true}}]`))
	})
	mux.HandleFunc("/rest/v1/user_bookmarks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"item":{"id":"r_1","title":"Saved"},"position":0},{"item":{"id":"hn_2","title":"Also saved"},"position":1}]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "anon-key")
	prefs, bookmarks, err := client.Pull(context.Background(), "session-token")
	if err != nil {
		t.Fatal(err)
	}
	if prefs == nil || prefs.Subreddits[0] != "science" || prefs.Interests["science"] != 4 {
		t.Errorf("Unexpected prefs: %+v", prefs)
	}
	if len(bookmarks) != 2 || bookmarks[0].ID != "r_1" {
		t.Errorf("Unexpected bookmarks: %v", bookmarks)
	}
}

func TestPull_NoRemoteSnapshot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/user_prefs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/rest/v1/user_bookmarks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "anon-key")
	prefs, bookmarks, err := client.Pull(context.Background(), "session-token")
	if err != nil {
		t.Fatal(err)
	}
	if prefs != nil {
		t.Errorf("Expected nil prefs for a never-pushed account, got %+v", prefs)
	}
	if len(bookmarks) != 0 {
		t.Errorf("Expected no bookmarks, got %v", bookmarks)
	}
}

func TestPush_ReplacesRemoteSnapshot(t *testing.T) {
	var (
		upserted    []PrefsRecord
		deletedPath string
		inserted    []map[string]any
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"user-123"}`))
	})
	mux.HandleFunc("/rest/v1/user_prefs", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Prefer") != "resolution=merge-duplicates" {
			t.Error("Expected upsert Prefer header")
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &upserted)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/rest/v1/user_bookmarks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			deletedPath = r.URL.String()
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &inserted)
			w.WriteHeader(http.StatusCreated)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "anon-key")
	err := client.Push(context.Background(), "session-token", store.Snapshot{
		Subreddits: []string{"science"},
		Interests:  map[string]int{"science": 4},
		Settings:   map[string]any{"sound": true},
		Bookmarks: []feed.Item{
			{ID: "r_1", Title: "First"},
			{ID: "hn_2", Title: "Second"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(upserted) != 1 || upserted[0].UserID != "user-123" || upserted[0].Subreddits[0] != "science" {
		t.Errorf("Unexpected prefs upsert: %+v", upserted)
	}
	if deletedPath != "/rest/v1/user_bookmarks?user_id=eq.user-123" {
		t.Errorf("Expected scoped bookmark delete, got %s", deletedPath)
	}
	if len(inserted) != 2 || inserted[0]["item_id"] != "r_1" || inserted[1]["position"] != float64(1) {
		t.Errorf("Unexpected bookmark insert: %v", inserted)
	}
}

func TestPush_PropagatesRemoteErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"user-123"}`))
	})
	mux.HandleFunc("/rest/v1/user_prefs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"row-level security violation"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "anon-key")
	err := client.Push(context.Background(), "session-token", store.Snapshot{})
	if err == nil {
		t.Fatal("Expected push error on remote rejection")
	}
}
