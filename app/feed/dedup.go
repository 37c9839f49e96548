package feed

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const dedupKeyLength = 60

// DedupKey builds the normalized-title fingerprint used to collapse
// near-duplicate items across sources: NFKD-decomposed, lowercased,
// stripped to ASCII alphanumerics, truncated to 60 characters. Returns
// an empty string for titles with no usable characters.
func DedupKey(title string) string {
	decomposed := norm.NFKD.String(strings.ToLower(title))
	var b strings.Builder
	for _, r := range decomposed {
		if r > unicode.MaxASCII {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= dedupKeyLength {
				break
			}
		}
	}
	return b.String()
}

// Dedup drops items whose dedup key was already claimed by an earlier
// item in the slice (first-seen wins). Items with an empty title or an
// empty resulting key are dropped as well. The input slice is not
// modified.
func Dedup(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		key := DedupKey(item.Title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
