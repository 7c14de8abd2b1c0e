package cards

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog holds named sequence definitions, typically loaded once at startup
// from a YAML file. Lookups after construction are read-only, so no locking
// is needed.
type Catalog struct {
	sequences map[string]Sequence
}

type catalogFile struct {
	Sequences []struct {
		Name        string `yaml:"name"`
		PreferVideo bool   `yaml:"prefer_video"`
		Cards       []struct {
			ID       string `yaml:"id"`
			ImageURL string `yaml:"image_url"`
			VideoURL string `yaml:"video_url"`
		} `yaml:"cards"`
	} `yaml:"sequences"`
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{sequences: make(map[string]Sequence)}
}

// LoadCatalog reads sequence definitions from a YAML file. Sequence names
// must be unique and non-empty, every sequence needs at least one card, and
// every card needs an ID.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := NewCatalog()
	for _, def := range file.Sequences {
		if def.Name == "" {
			return nil, fmt.Errorf("catalog: sequence without a name")
		}
		if _, dup := c.sequences[def.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate sequence %q", def.Name)
		}
		if len(def.Cards) == 0 {
			return nil, fmt.Errorf("catalog: sequence %q has no cards", def.Name)
		}

		seq := Sequence{PreferVideo: def.PreferVideo, Cards: make([]Card, 0, len(def.Cards))}
		for i, card := range def.Cards {
			if card.ID == "" {
				return nil, fmt.Errorf("catalog: sequence %q card %d has no id", def.Name, i)
			}
			seq.Cards = append(seq.Cards, Card{
				ID:       CardID(card.ID),
				ImageURL: card.ImageURL,
				VideoURL: card.VideoURL,
			})
		}
		c.sequences[def.Name] = seq
	}
	return c, nil
}

// Get returns the sequence registered under name.
func (c *Catalog) Get(name string) (Sequence, bool) {
	seq, ok := c.sequences[name]
	return seq, ok
}

// Names returns the registered sequence names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.sequences))
	for name := range c.sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
