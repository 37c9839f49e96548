package sync

import (
	"context"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/sentinel-news/sentinel/app/cloud"
	"github.com/sentinel-news/sentinel/app/feed"
	"github.com/sentinel-news/sentinel/app/store"
)

// Status is the engine's externally visible state.
type Status string

const (
	StatusGuest   Status = "guest"
	StatusIdle    Status = "idle"
	StatusPushing Status = "pushing"
	StatusPulling Status = "pulling"
)

// Cloud is the slice of the remote client the engine needs.
type Cloud interface {
	Pull(ctx context.Context, token string) (*cloud.PrefsRecord, []feed.Item, error)
	Push(ctx context.Context, token string, snap store.Snapshot) error
}

// Engine mirrors the store to the remote account. While signed in,
// the store's debounced change signal triggers a full-snapshot push;
// sign-in triggers a pull that overwrites local preferences. Pushes
// are fire-and-forget: a failure sets the error flag and waits for
// the next mutation, never retries on its own.
type Engine struct {
	mu      stdsync.Mutex
	store   *store.Store
	cloud   Cloud
	token   string
	status  Status
	lastErr error

	pushTimeout time.Duration
}

func NewEngine(s *store.Store, c Cloud) *Engine {
	e := &Engine{
		store:       s,
		cloud:       c,
		status:      StatusGuest,
		pushTimeout: 30 * time.Second,
	}
	s.OnChange(e.onStoreChange)
	return e
}

// Status returns the current engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// LastError returns the most recent sync failure, cleared by the next
// successful push or pull.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// SignIn stores the session token and reconciles with the remote
// snapshot: an existing snapshot overwrites local preferences and
// merges bookmarks; a missing one means first sync, so local state is
// pushed instead.
func (e *Engine) SignIn(ctx context.Context, token string) error {
	e.mu.Lock()
	e.token = token
	e.status = StatusPulling
	e.mu.Unlock()

	prefs, bookmarks, err := e.cloud.Pull(ctx, token)
	if err != nil {
		e.settle(fmt.Errorf("pull failed: %w", err))
		return err
	}

	if prefs == nil {
		// First sync for this account: local state is authoritative.
		e.mu.Lock()
		e.status = StatusPushing
		e.mu.Unlock()

		if err := e.cloud.Push(ctx, token, e.store.ExportSnapshot()); err != nil {
			e.settle(fmt.Errorf("first-sync push failed: %w", err))
			return err
		}
		e.settle(nil)
		return nil
	}

	err = e.store.ImportSnapshot(store.Snapshot{
		Subreddits: prefs.Subreddits,
		CustomSubs: prefs.CustomSubs,
		Interests:  prefs.Interests,
		Settings:   prefs.Settings,
		Bookmarks:  bookmarks,
	})
	if err != nil {
		e.settle(fmt.Errorf("import failed: %w", err))
		return err
	}
	e.settle(nil)
	return nil
}

// SignOut drops the session. Local state is untouched and the store
// keeps working in guest mode.
func (e *Engine) SignOut() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.token = ""
	e.status = StatusGuest
	e.lastErr = nil
}

// settle records the outcome and returns to the resting state for the
// current session.
func (e *Engine) settle(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = err
	if e.token == "" {
		e.status = StatusGuest
	} else {
		e.status = StatusIdle
	}
}

// onStoreChange runs on the store's debounce timer after each quiet
// period with mutations.
func (e *Engine) onStoreChange() {
	e.mu.Lock()
	if e.token == "" {
		e.mu.Unlock()
		return
	}
	if e.status == StatusPushing || e.status == StatusPulling {
		// A sync is in flight. The next mutation re-triggers.
		e.mu.Unlock()
		return
	}
	token := e.token
	e.status = StatusPushing
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.pushTimeout)
	defer cancel()

	err := e.cloud.Push(ctx, token, e.store.ExportSnapshot())
	if err != nil {
		slog.Warn("Snapshot push failed", "error", err)
	}
	e.settle(err)
}
