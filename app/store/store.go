package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sentinel-news/sentinel/app/feed"
)

// ErrInvalidChannel is returned when a custom channel name is empty
// after normalization.
var ErrInvalidChannel = errors.New("invalid channel name")

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"

	bookmarkNamespace = "local"
	defaultDebounce   = 2 * time.Second
)

// Reaction records a like or dislike together with where the item came
// from, so ranking can aggregate reactions per category.
type Reaction struct {
	Type         string        `json:"type"`
	Category     feed.Category `json:"category"`
	SourceDetail string        `json:"sourceDetail"`
}

// PrefsPersister is the slice of the prefs repository the store needs.
type PrefsPersister interface {
	Get(namespace string) ([]byte, error)
	Save(namespace string, document []byte) error
	Delete(namespace string) error
}

// BookmarkPersister is the slice of the bookmark repository the store
// needs.
type BookmarkPersister interface {
	List(namespace string) ([]feed.Item, error)
	Replace(namespace string, items []feed.Item) error
}

// Store owns all personalization state. Every mutation is a
// read-modify-write under one mutex, persisted per namespace, and
// followed by a debounced change notification. Reads hand out copies,
// never live references.
type Store struct {
	mu        sync.Mutex
	prefs     PrefsPersister
	bookmarks BookmarkPersister

	bookmarkList  []feed.Item
	reactions     map[string]Reaction
	blocked       map[string]bool
	showLess      map[string]bool
	interests     map[string]int
	subscriptions []string
	customSubs    []string
	settings      map[string]any

	defaultSubs []string

	debounce   time.Duration
	timer      *time.Timer
	onChange   func()
	suppressed bool
}

// DefaultSettings returns the settings every fresh profile starts with.
func DefaultSettings() map[string]any {
	return map[string]any{
		"refreshInterval": 120,
		"crtEffect":       true,
		"radarSpeed":      "normal",
		"sound":           false,
		"country":         "auto",
		"avatar":          "default",
	}
}

// New loads the persisted state, seeding subscriptions from the
// catalog defaults on first run. A zero debounce selects the standard
// quiet period.
func New(prefs PrefsPersister, bookmarks BookmarkPersister, defaultSubs []string, debounce time.Duration) (*Store, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	s := &Store{
		prefs:       prefs,
		bookmarks:   bookmarks,
		reactions:   make(map[string]Reaction),
		blocked:     make(map[string]bool),
		showLess:    make(map[string]bool),
		interests:   make(map[string]int),
		settings:    DefaultSettings(),
		defaultSubs: append([]string(nil), defaultSubs...),
		debounce:    debounce,
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	if err := s.loadNamespace("reactions", &s.reactions); err != nil {
		return err
	}
	if err := s.loadNamespace("blocked", &s.blocked); err != nil {
		return err
	}
	if err := s.loadNamespace("showLess", &s.showLess); err != nil {
		return err
	}
	if err := s.loadNamespace("interests", &s.interests); err != nil {
		return err
	}

	var subs []string
	if err := s.loadNamespace("subreddits", &subs); err != nil {
		return err
	}
	if subs == nil {
		subs = append([]string(nil), s.defaultSubs...)
	}
	s.subscriptions = subs

	if err := s.loadNamespace("customSubs", &s.customSubs); err != nil {
		return err
	}

	var overrides map[string]any
	if err := s.loadNamespace("settings", &overrides); err != nil {
		return err
	}
	for key, value := range overrides {
		s.settings[key] = value
	}

	items, err := s.bookmarks.List(bookmarkNamespace)
	if err != nil {
		return fmt.Errorf("failed to load bookmarks: %w", err)
	}
	s.bookmarkList = items
	return nil
}

func (s *Store) loadNamespace(namespace string, target any) error {
	raw, err := s.prefs.Get(namespace)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", namespace, err)
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", namespace, err)
	}
	return nil
}

func (s *Store) saveNamespace(namespace string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", namespace, err)
	}
	if err := s.prefs.Save(namespace, raw); err != nil {
		return fmt.Errorf("failed to persist %s: %w", namespace, err)
	}
	return nil
}

// OnChange registers the debounced change hook. The hook fires once
// per quiet period measured from the last mutation, on its own
// goroutine.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// scheduleNotify must be called with the mutex held.
func (s *Store) scheduleNotify() {
	if s.suppressed || s.onChange == nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		fn := s.onChange
		s.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

// --- Bookmarks ---

// AddBookmark saves an item at the front of the list. Adding an
// already-saved item is a no-op.
func (s *Store) AddBookmark(item feed.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.bookmarkList {
		if existing.ID == item.ID {
			return nil
		}
	}
	s.bookmarkList = append([]feed.Item{item}, s.bookmarkList...)
	if err := s.bookmarks.Replace(bookmarkNamespace, s.bookmarkList); err != nil {
		return err
	}
	s.scheduleNotify()
	return nil
}

func (s *Store) RemoveBookmark(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.bookmarkList[:0]
	removed := false
	for _, item := range s.bookmarkList {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return nil
	}
	s.bookmarkList = kept
	if err := s.bookmarks.Replace(bookmarkNamespace, s.bookmarkList); err != nil {
		return err
	}
	s.scheduleNotify()
	return nil
}

func (s *Store) Bookmarks() []feed.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]feed.Item, len(s.bookmarkList))
	copy(out, s.bookmarkList)
	return out
}

func (s *Store) IsBookmarked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.bookmarkList {
		if item.ID == id {
			return true
		}
	}
	return false
}

// --- Reactions ---

// SetReaction records a like or dislike for an item, replacing any
// previous reaction.
func (s *Store) SetReaction(item feed.Item, reactionType string) error {
	if reactionType != ReactionLike && reactionType != ReactionDislike {
		return fmt.Errorf("unknown reaction type %q", reactionType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reactions[item.ID] = Reaction{
		Type:         reactionType,
		Category:     item.Category,
		SourceDetail: item.SourceDetail,
	}
	if err := s.saveNamespace("reactions", s.reactions); err != nil {
		return err
	}
	s.scheduleNotify()
	return nil
}

func (s *Store) ClearReaction(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reactions[id]; !ok {
		return nil
	}
	delete(s.reactions, id)
	if err := s.saveNamespace("reactions", s.reactions); err != nil {
		return err
	}
	s.scheduleNotify()
	return nil
}

func (s *Store) Reactions() map[string]Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Reaction, len(s.reactions))
	for id, r := range s.reactions {
		out[id] = r
	}
	return out
}

// --- Blocking and muting ---

func (s *Store) BlockItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blocked[id] {
		return nil
	}
	s.blocked[id] = true
	if err := s.saveNamespace("blocked", s.blocked); err != nil {
		return err
	}
	s.scheduleNotify()
	return nil
}

func (s *Store) Blocked() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.blocked))
	for id := range s.blocked {
		out[id] = true
	}
	return out
}

// ToggleShowLess mutes or unmutes a channel and reports the new muted
// state.
func (s *Store) ToggleShowLess(channel string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.showLess[channel] {
		delete(s.showLess, channel)
	} else {
		s.showLess[channel] = true
	}
	if err := s.saveNamespace("showLess", s.showLess); err != nil {
		return false, err
	}
	s.scheduleNotify()
	return s.showLess[channel], nil
}

func (s *Store) ShowLess() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.showLess))
	for channel := range s.showLess {
		out[channel] = true
	}
	return out
}

// --- Interests ---

// TrackClick bumps the click count for a category. Counts only grow;
// nothing but Wipe resets them.
func (s *Store) TrackClick(category feed.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interests[string(category)]++
	if err := s.saveNamespace("interests", s.interests); err != nil {
		return err
	}
	s.scheduleNotify()
	return nil
}

func (s *Store) Interests() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.interests))
	for category, count := range s.interests {
		out[category] = count
	}
	return out
}

// --- Subscriptions ---

var channelNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// NormalizeChannel reduces a raw user-typed channel name to its
// canonical form: leading "r/" marker stripped, only word characters
// kept. Returns the empty string when nothing survives.
func NormalizeChannel(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.TrimPrefix(name, "/")
	if len(name) >= 2 && strings.EqualFold(name[:2], "r/") {
		name = name[2:]
	}
	return channelNamePattern.ReplaceAllString(name, "")
}

// ToggleSubscription subscribes or unsubscribes a channel and reports
// the new subscribed state.
func (s *Store) ToggleSubscription(channel string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subscribed := false
	kept := s.subscriptions[:0]
	for _, sub := range s.subscriptions {
		if strings.EqualFold(sub, channel) {
			subscribed = true
			continue
		}
		kept = append(kept, sub)
	}
	s.subscriptions = kept
	if !subscribed {
		s.subscriptions = append(s.subscriptions, channel)
	}

	if err := s.saveNamespace("subreddits", s.subscriptions); err != nil {
		return false, err
	}
	s.scheduleNotify()
	return !subscribed, nil
}

func (s *Store) Subscriptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out
}

// AddCustomSubscription normalizes and registers a user-added channel,
// subscribing to it at the same time. Returns the normalized name.
func (s *Store) AddCustomSubscription(raw string) (string, error) {
	name := NormalizeChannel(raw)
	if name == "" {
		return "", ErrInvalidChannel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customSubs {
		if strings.EqualFold(existing, name) {
			return existing, nil
		}
	}
	s.customSubs = append(s.customSubs, name)
	if err := s.saveNamespace("customSubs", s.customSubs); err != nil {
		return "", err
	}

	found := false
	for _, sub := range s.subscriptions {
		if strings.EqualFold(sub, name) {
			found = true
			break
		}
	}
	if !found {
		s.subscriptions = append(s.subscriptions, name)
		if err := s.saveNamespace("subreddits", s.subscriptions); err != nil {
			return "", err
		}
	}

	s.scheduleNotify()
	return name, nil
}

// RemoveCustomSubscription drops a user-added channel and its
// subscription.
func (s *Store) RemoveCustomSubscription(channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.customSubs[:0]
	for _, sub := range s.customSubs {
		if strings.EqualFold(sub, channel) {
			continue
		}
		kept = append(kept, sub)
	}
	s.customSubs = kept
	if err := s.saveNamespace("customSubs", s.customSubs); err != nil {
		return err
	}

	keptSubs := s.subscriptions[:0]
	for _, sub := range s.subscriptions {
		if strings.EqualFold(sub, channel) {
			continue
		}
		keptSubs = append(keptSubs, sub)
	}
	s.subscriptions = keptSubs
	if err := s.saveNamespace("subreddits", s.subscriptions); err != nil {
		return err
	}

	s.scheduleNotify()
	return nil
}

func (s *Store) CustomSubscriptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.customSubs))
	copy(out, s.customSubs)
	return out
}

// --- Settings ---

func (s *Store) SaveSetting(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	if err := s.saveNamespace("settings", s.settings); err != nil {
		return err
	}
	s.scheduleNotify()
	return nil
}

func (s *Store) Settings() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.settings))
	for key, value := range s.settings {
		out[key] = value
	}
	return out
}

// Setting returns one settings value, falling back to the profile
// defaults for unknown keys.
func (s *Store) Setting(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value, ok := s.settings[key]; ok {
		return value
	}
	return DefaultSettings()[key]
}

// --- Snapshot exchange ---

// Snapshot is the slice of personalization state mirrored to the
// remote account. Reactions, blocks, and mutes stay device-local.
type Snapshot struct {
	Subreddits []string       `json:"subreddits"`
	CustomSubs []string       `json:"custom_subs"`
	Interests  map[string]int `json:"interests"`
	Settings   map[string]any `json:"settings"`
	Bookmarks  []feed.Item    `json:"bookmarks"`
}

// ExportSnapshot returns a copy of the syncable state.
func (s *Store) ExportSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Subreddits: make([]string, len(s.subscriptions)),
		CustomSubs: make([]string, len(s.customSubs)),
		Interests:  make(map[string]int, len(s.interests)),
		Settings:   make(map[string]any, len(s.settings)),
		Bookmarks:  make([]feed.Item, len(s.bookmarkList)),
	}
	copy(snap.Subreddits, s.subscriptions)
	copy(snap.CustomSubs, s.customSubs)
	copy(snap.Bookmarks, s.bookmarkList)
	for category, count := range s.interests {
		snap.Interests[category] = count
	}
	for key, value := range s.settings {
		snap.Settings[key] = value
	}
	return snap
}

// ImportSnapshot applies a pulled remote snapshot: preference fields
// overwrite local state, bookmarks merge with the remote copy winning
// on id conflicts and local-only saves kept. The change hook stays
// suppressed for the whole import so a pull never triggers a push.
func (s *Store) ImportSnapshot(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suppressed = true
	defer func() { s.suppressed = false }()

	if snap.Subreddits != nil {
		s.subscriptions = append([]string(nil), snap.Subreddits...)
	}
	if snap.CustomSubs != nil {
		s.customSubs = append([]string(nil), snap.CustomSubs...)
	}
	if snap.Interests != nil {
		s.interests = make(map[string]int, len(snap.Interests))
		for category, count := range snap.Interests {
			s.interests[category] = count
		}
	}
	if snap.Settings != nil {
		s.settings = DefaultSettings()
		for key, value := range snap.Settings {
			s.settings[key] = value
		}
	}

	merged := append([]feed.Item(nil), snap.Bookmarks...)
	remote := make(map[string]bool, len(snap.Bookmarks))
	for _, item := range snap.Bookmarks {
		remote[item.ID] = true
	}
	for _, item := range s.bookmarkList {
		if !remote[item.ID] {
			merged = append(merged, item)
		}
	}
	s.bookmarkList = merged

	if err := s.saveNamespace("subreddits", s.subscriptions); err != nil {
		return err
	}
	if err := s.saveNamespace("customSubs", s.customSubs); err != nil {
		return err
	}
	if err := s.saveNamespace("interests", s.interests); err != nil {
		return err
	}
	if err := s.saveNamespace("settings", s.settings); err != nil {
		return err
	}
	if err := s.bookmarks.Replace(bookmarkNamespace, s.bookmarkList); err != nil {
		return err
	}
	return nil
}

// Wipe resets every namespace to its first-run state.
func (s *Store) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookmarkList = nil
	s.reactions = make(map[string]Reaction)
	s.blocked = make(map[string]bool)
	s.showLess = make(map[string]bool)
	s.interests = make(map[string]int)
	s.subscriptions = append([]string(nil), s.defaultSubs...)
	s.customSubs = nil
	s.settings = DefaultSettings()

	for _, namespace := range []string{"reactions", "blocked", "showLess", "interests", "subreddits", "customSubs", "settings"} {
		if err := s.prefs.Delete(namespace); err != nil {
			slog.Error("Failed to wipe namespace", "namespace", namespace, "error", err)
			return err
		}
	}
	if err := s.bookmarks.Replace(bookmarkNamespace, nil); err != nil {
		return err
	}
	return nil
}

// Close stops any pending change notification.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
