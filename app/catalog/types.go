package catalog

// Channel is one subscribable vote-forum community in the master list.
type Channel struct {
	Name        string `yaml:"name"`
	Section     string `yaml:"section"`
	Default     bool   `yaml:"default"`
	Description string `yaml:"desc"`
}

// Section groups catalog channels for presentation.
type Section struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Outlet is one syndication feed in the default bundle.
type Outlet struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

type catalogFile struct {
	Channels  []Channel           `yaml:"channels"`
	Sections  []Section           `yaml:"sections"`
	Outlets   []Outlet            `yaml:"outlets"`
	Countries map[string][]string `yaml:"countries"`
}
