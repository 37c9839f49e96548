package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/sentinel-news/sentinel/app/cloud"
	"github.com/sentinel-news/sentinel/app/feed"
	"github.com/sentinel-news/sentinel/app/store"
)

type fakeCloud struct {
	mu        stdsync.Mutex
	prefs     *cloud.PrefsRecord
	bookmarks []feed.Item
	pulls     int
	pushes    []store.Snapshot
	pullErr   error
	pushErr   error
}

func (f *fakeCloud) Pull(ctx context.Context, token string) (*cloud.PrefsRecord, []feed.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	if f.pullErr != nil {
		return nil, nil, f.pullErr
	}
	return f.prefs, f.bookmarks, nil
}

func (f *fakeCloud) Push(ctx context.Context, token string, snap store.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, snap)
	return nil
}

func (f *fakeCloud) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

type memPrefs struct {
	mu   stdsync.Mutex
	docs map[string][]byte
}

func (m *memPrefs) Get(namespace string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[namespace], nil
}

func (m *memPrefs) Save(namespace string, document []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[namespace] = append([]byte(nil), document...)
	return nil
}

func (m *memPrefs) Delete(namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, namespace)
	return nil
}

type memBookmarks struct {
	mu    stdsync.Mutex
	items []feed.Item
}

func (m *memBookmarks) List(namespace string) ([]feed.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]feed.Item(nil), m.items...), nil
}

func (m *memBookmarks) Replace(namespace string, items []feed.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]feed.Item(nil), items...)
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(&memPrefs{docs: map[string][]byte{}}, &memBookmarks{}, []string{"worldnews"}, 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestGuestMutationsNeverPush(t *testing.T) {
	s := newTestStore(t)
	remote := &fakeCloud{}
	engine := NewEngine(s, remote)

	if engine.Status() != StatusGuest {
		t.Errorf("Expected guest state, got %s", engine.Status())
	}

	s.TrackClick(feed.CategoryTechnology)
	time.Sleep(60 * time.Millisecond)

	if remote.pushCount() != 0 {
		t.Errorf("Guest mutations must never be transmitted, saw %d pushes", remote.pushCount())
	}
}

func TestSignIn_PullsAndImports(t *testing.T) {
	s := newTestStore(t)
	remote := &fakeCloud{
		prefs: &cloud.PrefsRecord{
			Subreddits: []string{"science"},
			Interests:  map[string]int{"science": 9},
			Settings:   map[string]any{"sound": true},
		},
		bookmarks: []feed.Item{{ID: "r_1", Title: "Remote save"}},
	}
	engine := NewEngine(s, remote)

	if err := engine.SignIn(context.Background(), "session-token"); err != nil {
		t.Fatal(err)
	}

	if engine.Status() != StatusIdle {
		t.Errorf("Expected idle after pull, got %s", engine.Status())
	}
	if got := s.Subscriptions(); len(got) != 1 || got[0] != "science" {
		t.Errorf("Expected remote subscriptions applied, got %v", got)
	}
	if len(s.Bookmarks()) != 1 {
		t.Error("Expected remote bookmarks merged")
	}

	// The import itself must not bounce back as a push.
	time.Sleep(60 * time.Millisecond)
	if remote.pushCount() != 0 {
		t.Errorf("Pull import triggered %d pushes", remote.pushCount())
	}
}

func TestSignIn_FirstSyncPushesLocalState(t *testing.T) {
	s := newTestStore(t)
	s.TrackClick(feed.CategoryTechnology)
	time.Sleep(60 * time.Millisecond)

	remote := &fakeCloud{}
	engine := NewEngine(s, remote)

	if err := engine.SignIn(context.Background(), "session-token"); err != nil {
		t.Fatal(err)
	}

	if remote.pushCount() != 1 {
		t.Fatalf("Expected exactly one first-sync push, got %d", remote.pushCount())
	}
	if remote.pushes[0].Interests["technology"] != 1 {
		t.Errorf("Expected local state in first-sync push, got %+v", remote.pushes[0])
	}
}

func TestMutationWhileSignedInPushesDebounced(t *testing.T) {
	s := newTestStore(t)
	remote := &fakeCloud{prefs: &cloud.PrefsRecord{}}
	engine := NewEngine(s, remote)
	if err := engine.SignIn(context.Background(), "session-token"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		s.TrackClick(feed.CategoryScience)
	}
	time.Sleep(100 * time.Millisecond)

	if remote.pushCount() != 1 {
		t.Errorf("Expected rapid mutations coalesced into one push, got %d", remote.pushCount())
	}
	if remote.pushes[0].Interests["science"] != 4 {
		t.Errorf("Expected latest state pushed, got %+v", remote.pushes[0])
	}
	if engine.Status() != StatusIdle {
		t.Errorf("Expected idle after push, got %s", engine.Status())
	}
}

func TestPushFailureSetsFlagWithoutRetry(t *testing.T) {
	s := newTestStore(t)
	remote := &fakeCloud{prefs: &cloud.PrefsRecord{}, pushErr: errors.New("network down")}
	engine := NewEngine(s, remote)
	if err := engine.SignIn(context.Background(), "session-token"); err != nil {
		t.Fatal(err)
	}

	s.TrackClick(feed.CategoryScience)
	time.Sleep(80 * time.Millisecond)

	if engine.LastError() == nil {
		t.Error("Expected failure surfaced via the status flag")
	}
	if engine.Status() != StatusIdle {
		t.Errorf("Expected engine back to idle, got %s", engine.Status())
	}

	// No automatic retry; the next mutation re-triggers and succeeds.
	remote.mu.Lock()
	remote.pushErr = nil
	remote.mu.Unlock()
	time.Sleep(60 * time.Millisecond)
	if remote.pushCount() != 0 {
		t.Error("Expected no retry without a new mutation")
	}

	s.TrackClick(feed.CategoryScience)
	time.Sleep(80 * time.Millisecond)
	if remote.pushCount() != 1 {
		t.Errorf("Expected the next mutation to push, got %d", remote.pushCount())
	}
	if engine.LastError() != nil {
		t.Error("Expected error flag cleared by the successful push")
	}
}

func TestSignOut_LeavesLocalStateUntouched(t *testing.T) {
	s := newTestStore(t)
	remote := &fakeCloud{prefs: &cloud.PrefsRecord{Subreddits: []string{"science"}}}
	engine := NewEngine(s, remote)
	if err := engine.SignIn(context.Background(), "session-token"); err != nil {
		t.Fatal(err)
	}

	engine.SignOut()

	if engine.Status() != StatusGuest {
		t.Errorf("Expected guest after sign-out, got %s", engine.Status())
	}
	if got := s.Subscriptions(); len(got) != 1 || got[0] != "science" {
		t.Errorf("Expected local state untouched by sign-out, got %v", got)
	}

	s.TrackClick(feed.CategoryScience)
	time.Sleep(60 * time.Millisecond)
	if remote.pushCount() != 0 {
		t.Error("Expected no pushes after sign-out")
	}
}

func TestPullFailureFallsBackToLocal(t *testing.T) {
	s := newTestStore(t)
	remote := &fakeCloud{pullErr: errors.New("remote unavailable")}
	engine := NewEngine(s, remote)

	if err := engine.SignIn(context.Background(), "session-token"); err == nil {
		t.Fatal("Expected sign-in pull error surfaced")
	}
	if engine.LastError() == nil {
		t.Error("Expected error flag set")
	}
	if got := s.Subscriptions(); len(got) != 1 || got[0] != "worldnews" {
		t.Errorf("Expected local defaults untouched, got %v", got)
	}
}
