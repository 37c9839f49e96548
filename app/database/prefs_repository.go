package database

import (
	"database/sql"
	"fmt"
)

// PrefsRepository persists preference snapshots as opaque JSON
// documents keyed by namespace. The store owns the document shape; the
// repository never inspects it.
type PrefsRepository struct {
	db *DB
}

func NewPrefsRepository(db *DB) *PrefsRepository {
	return &PrefsRepository{db: db}
}

// Get returns the stored document for a namespace, or nil when none
// has been saved yet.
func (r *PrefsRepository) Get(namespace string) ([]byte, error) {
	var document string
	err := r.db.QueryRow(`SELECT document FROM user_prefs WHERE namespace = ?`, namespace).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prefs: %w", err)
	}
	return []byte(document), nil
}

// Save upserts the document for a namespace.
func (r *PrefsRepository) Save(namespace string, document []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO user_prefs (namespace, document, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (namespace) DO UPDATE SET
			document = excluded.document,
			updated_at = CURRENT_TIMESTAMP
	`, namespace, string(document))
	if err != nil {
		return fmt.Errorf("failed to save prefs: %w", err)
	}
	return nil
}

// Delete removes the document for a namespace.
func (r *PrefsRepository) Delete(namespace string) error {
	_, err := r.db.Exec(`DELETE FROM user_prefs WHERE namespace = ?`, namespace)
	if err != nil {
		return fmt.Errorf("failed to delete prefs: %w", err)
	}
	return nil
}
