package rank

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sentinel-news/sentinel/app/feed"
	"github.com/sentinel-news/sentinel/app/store"
)

// Sort modes for the personalized feed. Newest and oldest bypass the
// scoring formula entirely and order by creation time alone.
const (
	ModeRanked = "ranked"
	ModeNewest = "newest"
	ModeOldest = "oldest"
)

// Profile is the read-only slice of personalization state the engine
// scores against.
type Profile struct {
	Interests     map[string]int
	Reactions     map[string]store.Reaction
	Blocked       map[string]bool
	ShowLess      map[string]bool
	Subscriptions []string
}

// ProfileFromStore snapshots the store into a Profile.
func ProfileFromStore(s *store.Store) Profile {
	return Profile{
		Interests:     s.Interests(),
		Reactions:     s.Reactions(),
		Blocked:       s.Blocked(),
		ShowLess:      s.ShowLess(),
		Subscriptions: s.Subscriptions(),
	}
}

// scorer precomputes the per-category and per-channel aggregates so
// scoring each item is O(1).
type scorer struct {
	profile     Profile
	totalClicks int
	likes       map[feed.Category]int
	dislikes    map[feed.Category]int
	subscribed  map[string]bool
}

func newScorer(profile Profile) *scorer {
	s := &scorer{
		profile:    profile,
		likes:      make(map[feed.Category]int),
		dislikes:   make(map[feed.Category]int),
		subscribed: make(map[string]bool, len(profile.Subscriptions)),
	}
	for _, count := range profile.Interests {
		s.totalClicks += count
	}
	for _, reaction := range profile.Reactions {
		switch reaction.Type {
		case store.ReactionLike:
			s.likes[reaction.Category]++
		case store.ReactionDislike:
			s.dislikes[reaction.Category]++
		}
	}
	for _, sub := range profile.Subscriptions {
		s.subscribed[strings.ToLower(sub)] = true
	}
	return s
}

// channelKey reduces a display channel name to the subscription key,
// so "r/programming" matches a subscription to "programming".
func channelKey(sourceDetail string) string {
	key := strings.ToLower(sourceDetail)
	key = strings.TrimPrefix(key, "r/")
	return key
}

func (s *scorer) interestBoost(category feed.Category) float64 {
	if s.totalClicks == 0 {
		return 1
	}
	share := float64(s.profile.Interests[string(category)]) / float64(s.totalClicks)
	return 1 + 4*share
}

func (s *scorer) subscriptionBoost(sourceDetail string) float64 {
	if s.subscribed[channelKey(sourceDetail)] {
		return 1.3
	}
	return 1
}

// reactionMultiplier aggregates likes and dislikes in the item's
// category, floored at 0.1 so pile-on dislikes can dim a category but
// never erase it.
func (s *scorer) reactionMultiplier(category feed.Category) float64 {
	m := 1 + 0.15*float64(s.likes[category]) - 0.25*float64(s.dislikes[category])
	if m < 0.1 {
		return 0.1
	}
	return m
}

func (s *scorer) showLessMultiplier(sourceDetail string) float64 {
	if s.profile.ShowLess[sourceDetail] {
		return 0.2
	}
	return 1
}

// Score computes the personalized sort key for one item.
func Score(item feed.Item, profile Profile, now time.Time) float64 {
	return newScorer(profile).score(item, now)
}

func (s *scorer) score(item feed.Item, now time.Time) float64 {
	boosted := feed.Engagement(item) *
		s.interestBoost(item.Category) *
		s.subscriptionBoost(item.SourceDetail) *
		s.reactionMultiplier(item.Category) *
		s.showLessMultiplier(item.SourceDetail)
	return (boosted + 1) / math.Pow(feed.AgeHours(item, now)+2, feed.RecencyExponent)
}

// Rank orders the candidate pool for one user. Blocked items are
// removed before any scoring. Ties keep their original pool order so
// identical calls on unchanged input produce identical output.
func Rank(items []feed.Item, profile Profile, mode string, now time.Time) []feed.Item {
	pool := make([]feed.Item, 0, len(items))
	for _, item := range items {
		if profile.Blocked[item.ID] {
			continue
		}
		pool = append(pool, item)
	}

	switch mode {
	case ModeNewest:
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Created > pool[j].Created
		})
	case ModeOldest:
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].Created < pool[j].Created
		})
	default:
		s := newScorer(profile)
		type scored struct {
			item  feed.Item
			score float64
		}
		entries := make([]scored, len(pool))
		for i, item := range pool {
			entries[i] = scored{item: item, score: s.score(item, now)}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].score > entries[j].score
		})
		for i, e := range entries {
			pool[i] = e.item
		}
	}

	return pool
}
