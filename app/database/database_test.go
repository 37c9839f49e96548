package database

import (
	"path/filepath"
	"testing"

	"github.com/sentinel-news/sentinel/app/feed"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewConnection(filepath.Join(t.TempDir(), "sentinel.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestPrefsRepository(t *testing.T) {
	repo := NewPrefsRepository(newTestDB(t))

	doc, err := repo.Get("local")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc != nil {
		t.Errorf("Expected nil document before first save, got %s", doc)
	}

	if err := repo.Save("local", []byte(`{"interests":{"technology":3}}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Save("local", []byte(`{"interests":{"technology":5}}`)); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	doc, err = repo.Get("local")
	if err != nil {
		t.Fatalf("Get after save failed: %v", err)
	}
	if string(doc) != `{"interests":{"technology":5}}` {
		t.Errorf("Expected latest document, got %s", doc)
	}

	// Namespaces are isolated.
	other, err := repo.Get("other")
	if err != nil || other != nil {
		t.Errorf("Expected empty other namespace, got %s, %v", other, err)
	}

	if err := repo.Delete("local"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	doc, _ = repo.Get("local")
	if doc != nil {
		t.Errorf("Expected nil after delete, got %s", doc)
	}
}

func TestBookmarkRepository(t *testing.T) {
	repo := NewBookmarkRepository(newTestDB(t))

	items := []feed.Item{
		{ID: "r_1", Title: "First saved"},
		{ID: "hn_2", Title: "Second saved"},
		{ID: "rss_3", Title: "Third saved"},
	}
	if err := repo.Replace("local", items); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, err := repo.List("local")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 bookmarks, got %d", len(got))
	}
	for i := range items {
		if got[i].ID != items[i].ID {
			t.Errorf("Save order lost at %d: expected %s, got %s", i, items[i].ID, got[i].ID)
		}
	}

	if err := repo.Delete("local", "hn_2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	count, err := repo.Count("local")
	if err != nil || count != 2 {
		t.Errorf("Expected 2 bookmarks after delete, got %d, %v", count, err)
	}

	// Replace overwrites rather than appends.
	if err := repo.Replace("local", items[:1]); err != nil {
		t.Fatalf("Second replace failed: %v", err)
	}
	got, _ = repo.List("local")
	if len(got) != 1 || got[0].ID != "r_1" {
		t.Errorf("Expected overwritten list, got %v", got)
	}
}
