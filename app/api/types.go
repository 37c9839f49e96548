package api

import (
	"context"
	"time"

	"github.com/sentinel-news/sentinel/app/aggregator"
	"github.com/sentinel-news/sentinel/app/catalog"
	"github.com/sentinel-news/sentinel/app/cloud"
	"github.com/sentinel-news/sentinel/app/feed"
	"github.com/sentinel-news/sentinel/app/store"
	"github.com/sentinel-news/sentinel/app/sync"
)

type AggregatorInterface interface {
	Fetch(ctx context.Context, opts aggregator.FetchOptions) []feed.Item
	Availability() map[string]bool
}

var _ AggregatorInterface = (*aggregator.Aggregator)(nil)

type CommentsInterface interface {
	Fetch(ctx context.Context, source feed.Source, permalink, id string) []feed.Comment
}

type CloudInterface interface {
	Enabled() bool
	SignUp(ctx context.Context, body []byte) (int, []byte, error)
	SignIn(ctx context.Context, body []byte) (int, []byte, error)
	SignOut(ctx context.Context, token string) (int, []byte, error)
	ChangePassword(ctx context.Context, token string, body []byte) (int, []byte, error)
	User(ctx context.Context, token string) (int, []byte, error)
	Pull(ctx context.Context, token string) (*cloud.PrefsRecord, []feed.Item, error)
	Push(ctx context.Context, token string, snap store.Snapshot) error
}

var _ CloudInterface = (*cloud.Client)(nil)

// CacheStats is the slice of the cache the status endpoint reports on.
type CacheStats interface {
	Len() int
}

type SyncEngineInterface interface {
	SignIn(ctx context.Context, token string) error
	SignOut()
	Status() sync.Status
	LastError() error
}

var _ SyncEngineInterface = (*sync.Engine)(nil)

type Handler struct {
	agg      AggregatorInterface
	reddit   aggregator.RedditSource
	hn       aggregator.HackerNewsSource
	newsAPI  aggregator.NewsAPISource
	guardian aggregator.GuardianSource
	rss      aggregator.BundleSource
	comments CommentsInterface
	cloud    CloudInterface
	catalog  *catalog.Catalog
	cache    CacheStats
	store    *store.Store
	engine   SyncEngineInterface

	authURL     string
	authAnonKey string
	version     string
	startedAt   time.Time
}
