package feed

import (
	"math"
	"sort"
	"time"
)

// Engagement scale factors. Vote-driven sources are log-compressed with
// per-source multipliers so a 10k-upvote thread cannot drown everything
// else; editorial and syndication sources carry no native vote signal
// and receive a flat baseline roughly equal to a moderate reddit score.
const (
	redditEngagementScale     = 15.0
	hackerNewsEngagementScale = 18.0
	baselineEngagement        = 30.0

	// RecencyExponent controls how fast scores decay with item age.
	RecencyExponent = 1.3
)

// Engagement computes the per-source-normalized engagement value shared
// by the coarse ranker and the personalized ranking engine.
func Engagement(item Item) float64 {
	raw := float64(item.Score + item.Comments*2)
	switch item.Source {
	case SourceReddit:
		return math.Log10(raw+1) * redditEngagementScale
	case SourceHackerNews:
		return math.Log10(raw+1) * hackerNewsEngagementScale
	default:
		return baselineEngagement
	}
}

// AgeHours returns the item age in hours at the given instant, never
// negative.
func AgeHours(item Item, now time.Time) float64 {
	age := float64(now.UnixMilli()-item.Created) / float64(time.Hour.Milliseconds())
	if age < 0 {
		return 0
	}
	return age
}

// CoarseScore is the source-agnostic default sort key:
// (engagement + 1) / (ageHours + 2)^1.3, descending.
func CoarseScore(item Item, now time.Time) float64 {
	return (Engagement(item) + 1) / math.Pow(AgeHours(item, now)+2, RecencyExponent)
}

// CoarseRank sorts items by coarse score descending and truncates the
// result to max (no truncation when max <= 0). Ties keep their original
// relative order so identical inputs produce identical output.
func CoarseRank(items []Item, now time.Time, max int) []Item {
	type scored struct {
		item  Item
		score float64
	}
	entries := make([]scored, len(items))
	for i, item := range items {
		entries[i] = scored{item: item, score: CoarseScore(item, now)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	ranked := make([]Item, len(entries))
	for i, e := range entries {
		ranked[i] = e.item
	}

	if max > 0 && len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}
