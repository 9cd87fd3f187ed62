// Package content holds the static placeholder cards shown by the traffic,
// flights and stays views.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"finitefield.org/trip-planner/internal/itinerary"
)

// DriveURLMarker in a link URL is replaced by the configured cloud storage URL.
const DriveURLMarker = "{{driveURL}}"

//go:embed default.yaml
var defaultYAML []byte

// ErrUnknownSection is returned when a view has no placeholder content.
var ErrUnknownSection = errors.New("content: unknown section")

// Item is one placeholder card.
type Item struct {
	Title string
	Meta  string
	Links []itinerary.LinkRef
}

// Catalog maps a view name to its placeholder cards.
type Catalog struct {
	sections map[string][]Item
}

type itemDoc struct {
	Title string    `yaml:"title"`
	Meta  string    `yaml:"meta"`
	Links []linkDoc `yaml:"links"`
}

type linkDoc struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Default returns the embedded catalog with driveURL substituted.
func Default(driveURL string) (*Catalog, error) {
	return Parse(defaultYAML, driveURL)
}

// Load reads a catalog from path, or the embedded default when path is empty.
func Load(path, driveURL string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(driveURL)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	return Parse(data, driveURL)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte, driveURL string) (*Catalog, error) {
	var raw map[string][]itemDoc
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("content: parse: %w", err)
	}
	c := &Catalog{sections: make(map[string][]Item, len(raw))}
	for name, docs := range raw {
		items := make([]Item, 0, len(docs))
		for _, d := range docs {
			item := Item{Title: d.Title, Meta: d.Meta}
			for _, l := range d.Links {
				item.Links = append(item.Links, itinerary.LinkRef{
					Title: l.Title,
					URL:   strings.ReplaceAll(l.URL, DriveURLMarker, driveURL),
				})
			}
			items = append(items, item)
		}
		c.sections[strings.ToLower(strings.TrimSpace(name))] = items
	}
	return c, nil
}

// Section returns the cards for view, in document order.
func (c *Catalog) Section(view string) ([]Item, error) {
	if c == nil {
		return nil, ErrUnknownSection
	}
	items, ok := c.sections[view]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, view)
	}
	return items, nil
}

// Has reports whether view has placeholder content.
func (c *Catalog) Has(view string) bool {
	if c == nil {
		return false
	}
	_, ok := c.sections[view]
	return ok
}
