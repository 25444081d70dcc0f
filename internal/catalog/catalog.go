// Package catalog holds the read-only research content: technologies, the
// categories that group them and the practical theories an empire matures.
//
// A Catalog must be fully loaded before any empire is built from it and is
// never mutated afterwards, so it is safe to share between goroutines.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
	"lukechampine.com/blake3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// ResearchCategory groups technologies.
type ResearchCategory string

// PracticalTheory names an independently tracked applied-research counter.
type PracticalTheory string

// Technology is one researchable capability. Identity is by name; values are
// shared by pointer and must not be modified after loading.
type Technology struct {
	Name     string           `yaml:"name" json:"name"`
	Category ResearchCategory `yaml:"category" json:"category"`
	Level    int              `yaml:"level" json:"level"`
	Requires []string         `yaml:"requires,omitempty" json:"requires,omitempty"`
}

func (t *Technology) String() string {
	return t.Name
}

type document struct {
	Categories   []ResearchCategory `yaml:"categories"`
	Theories     []PracticalTheory  `yaml:"theories"`
	Technologies []Technology       `yaml:"technologies"`
}

// Catalog is the loaded lookup tables.
type Catalog struct {
	Categories             []ResearchCategory
	Theories               []PracticalTheory
	TechnologiesByName     map[string]*Technology
	TechnologiesByCategory map[ResearchCategory][]*Technology
	Digest                 string
}

// Default parses the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Errorf("default catalog: %w", err))
	}
	return c
}

// Load reads a catalog file. An empty path selects the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog yaml: %w", err)
	}

	sum := blake3.Sum256(raw)
	c := &Catalog{
		Categories:             doc.Categories,
		Theories:               doc.Theories,
		TechnologiesByName:     make(map[string]*Technology, len(doc.Technologies)),
		TechnologiesByCategory: make(map[ResearchCategory][]*Technology, len(doc.Categories)),
		Digest:                 hex.EncodeToString(sum[:]),
	}

	for _, category := range doc.Categories {
		if category == "" {
			return nil, fmt.Errorf("catalog: empty category name")
		}
		if _, dup := c.TechnologiesByCategory[category]; dup {
			return nil, fmt.Errorf("catalog: duplicate category %q", category)
		}
		c.TechnologiesByCategory[category] = nil
	}

	seenTheory := make(map[PracticalTheory]bool, len(doc.Theories))
	for _, theory := range doc.Theories {
		if theory == "" || seenTheory[theory] {
			return nil, fmt.Errorf("catalog: empty or duplicate theory %q", theory)
		}
		seenTheory[theory] = true
	}

	for i := range doc.Technologies {
		tech := &doc.Technologies[i]
		if tech.Name == "" {
			return nil, fmt.Errorf("catalog: technology %d has no name", i)
		}
		if _, dup := c.TechnologiesByName[tech.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate technology %q", tech.Name)
		}
		techs, ok := c.TechnologiesByCategory[tech.Category]
		if !ok {
			return nil, fmt.Errorf("catalog: technology %q has unknown category %q", tech.Name, tech.Category)
		}
		c.TechnologiesByName[tech.Name] = tech
		c.TechnologiesByCategory[tech.Category] = append(techs, tech)
	}

	for _, tech := range c.TechnologiesByName {
		for _, req := range tech.Requires {
			if _, ok := c.TechnologiesByName[req]; !ok {
				return nil, fmt.Errorf("catalog: technology %q requires unknown %q", tech.Name, req)
			}
		}
	}

	for _, techs := range c.TechnologiesByCategory {
		sortTechnologies(techs)
	}

	return c, nil
}

// sortTechnologies orders by level, then name.
func sortTechnologies(techs []*Technology) {
	sort.Slice(techs, func(i, j int) bool {
		if techs[i].Level != techs[j].Level {
			return techs[i].Level < techs[j].Level
		}
		return techs[i].Name < techs[j].Name
	})
}

// Technology looks up a technology by name.
func (c *Catalog) Technology(name string) (*Technology, bool) {
	tech, ok := c.TechnologiesByName[name]
	return tech, ok
}

// TechnologiesIn returns the sorted technologies of category. The slice is
// shared and must not be modified.
func (c *Catalog) TechnologiesIn(category ResearchCategory) ([]*Technology, bool) {
	techs, ok := c.TechnologiesByCategory[category]
	return techs, ok
}

// HasTheory reports whether theory is defined.
func (c *Catalog) HasTheory(theory PracticalTheory) bool {
	for _, t := range c.Theories {
		if t == theory {
			return true
		}
	}
	return false
}
