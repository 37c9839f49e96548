package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yml
var defaultsYAML []byte

// Catalog holds the channel master list, the default syndication
// outlets, and the per-country channel lists. Immutable after Load.
type Catalog struct {
	channels  []Channel
	sections  []Section
	outlets   []Outlet
	countries map[string][]string
}

// Load reads a catalog YAML file, falling back to the embedded defaults
// when path is empty or the file does not exist.
func Load(path string) (*Catalog, error) {
	data := defaultsYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
			}
			slog.Warn("Catalog file not found, using embedded defaults", "path", path)
		} else {
			data = fileData
		}
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(file.Channels) == 0 {
		return nil, fmt.Errorf("catalog contains no channels")
	}

	return &Catalog{
		channels:  file.Channels,
		sections:  file.Sections,
		outlets:   file.Outlets,
		countries: file.Countries,
	}, nil
}

// Channels returns the full channel master list.
func (c *Catalog) Channels() []Channel {
	out := make([]Channel, len(c.channels))
	copy(out, c.channels)
	return out
}

// Sections returns the presentation sections in catalog order.
func (c *Catalog) Sections() []Section {
	out := make([]Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// DefaultChannels returns the names of channels enabled by default.
func (c *Catalog) DefaultChannels() []string {
	var names []string
	for _, ch := range c.channels {
		if ch.Default {
			names = append(names, ch.Name)
		}
	}
	return names
}

// Outlets returns the default syndication feed bundle.
func (c *Catalog) Outlets() []Outlet {
	out := make([]Outlet, len(c.outlets))
	copy(out, c.outlets)
	return out
}

// CountryChannels returns the region-specific channel list for a
// two-letter country code, or nil when the country is unknown.
func (c *Catalog) CountryChannels(code string) []string {
	channels, ok := c.countries[code]
	if !ok {
		return nil
	}
	out := make([]string, len(channels))
	copy(out, channels)
	return out
}
