package database

import (
	"encoding/json"
	"fmt"

	"github.com/sentinel-news/sentinel/app/feed"
)

// BookmarkRepository persists the saved-items list per namespace,
// keeping the user's save order.
type BookmarkRepository struct {
	db *DB
}

func NewBookmarkRepository(db *DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// List returns the bookmarks for a namespace in save order.
func (r *BookmarkRepository) List(namespace string) ([]feed.Item, error) {
	rows, err := r.db.Query(`
		SELECT item FROM user_bookmarks
		WHERE namespace = ?
		ORDER BY position ASC
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	var items []feed.Item
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark row: %w", err)
		}
		var item feed.Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("failed to decode bookmark: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookmark rows: %w", err)
	}

	return items, nil
}

// Replace overwrites the full bookmark list for a namespace in one
// transaction so a crash never leaves a half-written list.
func (r *BookmarkRepository) Replace(namespace string, items []feed.Item) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin bookmark transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM user_bookmarks WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("failed to clear bookmarks: %w", err)
	}

	for position, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode bookmark: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO user_bookmarks (namespace, item_id, item, position)
			VALUES (?, ?, ?, ?)
		`, namespace, item.ID, string(raw), position); err != nil {
			return fmt.Errorf("failed to insert bookmark: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bookmarks: %w", err)
	}
	return nil
}

// Delete removes a single bookmark.
func (r *BookmarkRepository) Delete(namespace, itemID string) error {
	_, err := r.db.Exec(`
		DELETE FROM user_bookmarks WHERE namespace = ? AND item_id = ?
	`, namespace, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

// Count returns the number of bookmarks in a namespace.
func (r *BookmarkRepository) Count(namespace string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM user_bookmarks WHERE namespace = ?`, namespace).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	return count, nil
}
