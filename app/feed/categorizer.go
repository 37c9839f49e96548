package feed

import (
	"regexp"
	"strings"
)

// channelTable maps categories to known channel-name fragments. Order is
// significant: the first category whose fragment list matches wins, which
// is why esports precedes sports ("esports" would otherwise match the
// plain "sports" fragment).
var channelTable = []struct {
	category  Category
	fragments []string
}{
	{CategoryTechnology, []string{
		"technology", "programming", "javascript", "python", "webdev", "coding",
		"linux", "apple", "android", "tech", "gadgets", "software", "hardware",
		"machinelearning", "artificial", "cybersecurity", "netsec", "hacking",
		"devops", "gamedev", "compsci", "datascience", "chatgpt", "openai", "singularity",
	}},
	{CategoryPolitics, []string{
		"politics", "worldnews", "news", "conservative", "liberal", "democrats",
		"republicans", "geopolitics", "uspolitics", "ukpolitics", "europe", "law",
		"credibledefense",
	}},
	{CategoryScience, []string{
		"science", "space", "physics", "biology", "chemistry", "astronomy",
		"environment", "climate", "nature", "earthscience", "futurology",
	}},
	{CategoryBusiness, []string{
		"business", "economics", "finance", "stocks", "investing",
		"wallstreetbets", "cryptocurrency", "bitcoin", "entrepreneur", "startups",
		"personalfinance", "economy",
	}},
	{CategoryEntertainment, []string{
		"movies", "television", "music", "gaming", "books", "anime",
		"comics", "entertainment", "celebs", "popculture", "netflix", "marvel",
		"starwars", "hiphopheads", "indieheads",
	}},
	{CategoryEsports, []string{
		"esports", "leagueoflegends", "dota", "globaloffensive", "valorant",
		"overwatch", "competitivehs", "starcraft", "smashbros", "fgc",
	}},
	{CategorySports, []string{
		"sports", "nba", "nfl", "soccer", "football", "baseball", "hockey",
		"mma", "formula1", "tennis", "olympics", "running", "golf",
	}},
	{CategoryWorld, []string{
		"worldnews", "internationalnews", "middleeast", "asia", "africa",
		"india", "china", "japan", "korea", "ukraine", "europe",
	}},
	{CategoryCommunity, []string{
		"askreddit", "todayilearned", "explainlikeimfive", "amitheasshole",
		"showerthoughts", "unpopularopinion", "changemyview", "nostupidquestions",
		"tooafraidtoask", "tifu", "confessions", "relationship_advice", "trueoffmychest",
	}},
}

// keywordTable is the second classification stage, applied to titles when
// the channel hint matched nothing. First matching regex wins.
var keywordTable = []struct {
	category Category
	pattern  *regexp.Regexp
}{
	{CategoryTechnology, regexp.MustCompile(`(?i)\b(tech|software|app|ai |robot|cyber|hack|code|program|chip|gpu|startup|openai|google|apple|microsoft|amazon|meta )\b`)},
	{CategoryPolitics, regexp.MustCompile(`(?i)\b(politi|elect|president|congress|senat|govern|vote|democrat|republican|parliament|minister|law|court|judge|ruling)`)},
	{CategoryScience, regexp.MustCompile(`(?i)\b(scien|study|research|discover|space|nasa|climate|species|fossil|quantum|telescope|mars|moon)`)},
	{CategoryBusiness, regexp.MustCompile(`(?i)\b(market|stock|econom|financ|bank|crypto|bitcoin|invest|billion|million|ceo|company|revenue|profit|trade|tariff)`)},
	{CategoryEntertainment, regexp.MustCompile(`(?i)\b(movie|film|music|game|tv show|actor|actress|album|song|stream|netflix|disney|concert|award|grammy|oscar)\b`)},
	{CategoryEsports, regexp.MustCompile(`(?i)\b(esports|e-sports|grand final|worlds|major|tournament|roster|scrim)\b`)},
	{CategorySports, regexp.MustCompile(`(?i)\b(team|player|score|champion|league|cup|match|season|coach|nba|nfl|fifa|goal|win |lost )\b`)},
	{CategoryWorld, regexp.MustCompile(`(?i)\b(war|conflict|bomb|missile|military|troops|refugee|humanitarian|sanction|treaty|border|crisis)\b`)},
	{CategoryCommunity, regexp.MustCompile(`(?i)\b(aita|yta|nta|eli5|til |what is|how do|why do|what would|does anyone|am i the|today i learned|explain like)\b`)},
}

// Categorize classifies an item from its channel hint and title. Stage
// one checks the lowercased channel hint against the curated fragment
// table; stage two runs the title through the keyword regex cascade.
// Pure and deterministic, falls back to general.
func Categorize(channelHint, title string) Category {
	hint := strings.ToLower(channelHint)
	if hint != "" {
		for _, row := range channelTable {
			for _, frag := range row.fragments {
				if strings.Contains(hint, frag) {
					return row.category
				}
			}
		}
	}
	if title != "" {
		for _, row := range keywordTable {
			if row.pattern.MatchString(title) {
				return row.category
			}
		}
	}
	return CategoryGeneral
}
