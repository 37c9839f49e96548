package feed

// Source identifies the upstream adapter an item originated from.
type Source string

const (
	SourceReddit     Source = "reddit"
	SourceHackerNews Source = "hackernews"
	SourceNewsAPI    Source = "newsapi"
	SourceGuardian   Source = "guardian"
	SourceRSS        Source = "rss"
	SourceWikinews   Source = "wikinews"
)

// Category is the fixed topic taxonomy items are classified into.
type Category string

const (
	CategoryTechnology    Category = "technology"
	CategoryPolitics      Category = "politics"
	CategoryScience       Category = "science"
	CategoryBusiness      Category = "business"
	CategoryEntertainment Category = "entertainment"
	CategoryEsports       Category = "esports"
	CategorySports        Category = "sports"
	CategoryWorld         Category = "world"
	CategoryCommunity     Category = "community"
	CategoryGeneral       Category = "general"
)

// Item is the canonical, source-agnostic representation of a single
// piece of content. IDs are unique within their source namespace
// (prefixed with a source tag, e.g. "r_", "hn_").
type Item struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Permalink    string   `json:"permalink"`
	Source       Source   `json:"source"`
	SourceDetail string   `json:"sourceDetail"`
	Score        int      `json:"score"`
	Comments     int      `json:"comments"`
	Thumbnail    string   `json:"thumbnail,omitempty"`
	Created      int64    `json:"created"` // epoch milliseconds
	Author       string   `json:"author"`
	Snippet      string   `json:"snippet"`
	Domain       string   `json:"domain"`
	Category     Category `json:"category"`
	Local        bool     `json:"local,omitempty"`
}

// Comment is a single node in a discussion thread. Replies are capped
// at one level deep by the fetchers.
type Comment struct {
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	Time    int64     `json:"time"` // epoch milliseconds
	Replies []Comment `json:"replies,omitempty"`
}
