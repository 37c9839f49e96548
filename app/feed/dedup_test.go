package feed

import (
	"reflect"
	"testing"
)

func TestDedupKey(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Fed raises rates", "fedraisesrates"},
		{"Fed Raises Rates!!", "fedraisesrates"},
		{"Café — résumé", "caferesume"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DedupKey(tt.title); got != tt.expected {
			t.Errorf("DedupKey(%q) = %q, expected %q", tt.title, got, tt.expected)
		}
	}
}

func TestDedupKey_Truncation(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	if got := DedupKey(long); len(got) != 60 {
		t.Errorf("Expected key truncated to 60 characters, got %d", len(got))
	}
}

func TestDedup_FirstSeenWins(t *testing.T) {
	items := []Item{
		{ID: "r_1", Title: "Fed raises rates", Source: SourceReddit},
		{ID: "rss_1", Title: "Fed Raises Rates!!", Source: SourceRSS},
		{ID: "na_1", Title: "Unrelated story", Source: SourceNewsAPI},
	}

	result := Dedup(items)

	if len(result) != 2 {
		t.Fatalf("Expected 2 items after dedup, got %d", len(result))
	}
	if result[0].ID != "r_1" {
		t.Errorf("Expected first-seen item r_1 to survive, got %s", result[0].ID)
	}
	if result[1].ID != "na_1" {
		t.Errorf("Expected unrelated item na_1 to survive, got %s", result[1].ID)
	}
}

func TestDedup_DropsEmptyTitles(t *testing.T) {
	items := []Item{
		{ID: "a", Title: ""},
		{ID: "b", Title: "???"},
		{ID: "c", Title: "Real headline"},
	}

	result := Dedup(items)

	if len(result) != 1 || result[0].ID != "c" {
		t.Errorf("Expected only the item with a usable title, got %v", result)
	}
}

func TestDedup_Idempotent(t *testing.T) {
	items := []Item{
		{ID: "1", Title: "Alpha story"},
		{ID: "2", Title: "alpha STORY"},
		{ID: "3", Title: "Beta story"},
		{ID: "4", Title: "Gamma story"},
	}

	once := Dedup(items)
	twice := Dedup(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Dedup is not idempotent: %v vs %v", once, twice)
	}
}
