package library

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sample_catalog.yaml
var sampleCatalog []byte

// Catalog is a batch of items to add, usually read from YAML.
type Catalog struct {
	Books     []BookEntry     `yaml:"books"`
	Videos    []VideoEntry    `yaml:"videos"`
	Magazines []MagazineEntry `yaml:"magazines"`
}

// Entry holds the fields shared by every kind of catalog entry.
type Entry struct {
	Title string `yaml:"title"`
	Year  int    `yaml:"year"`
	Genre string `yaml:"genre"`
}

type BookEntry struct {
	Entry `yaml:",inline"`
	Book  `yaml:",inline"`
}

type VideoEntry struct {
	Entry `yaml:",inline"`
	Video `yaml:",inline"`
}

type MagazineEntry struct {
	Entry    `yaml:",inline"`
	Magazine `yaml:",inline"`
}

// SampleCatalog returns the catalog bundled with the binary.
func SampleCatalog() Catalog {
	c, err := LoadCatalog(bytes.NewReader(sampleCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog decodes and validates a YAML catalog.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// LoadCatalogFile reads a catalog from path.
func LoadCatalogFile(path string) (Catalog, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Catalog{}, err
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Validate rejects entries without a title and books without an ISBN.
func (c Catalog) Validate() error {
	var problems []string
	for i, b := range c.Books {
		if strings.TrimSpace(b.Title) == "" {
			problems = append(problems, fmt.Sprintf("books[%d]: missing title", i))
		}
		if strings.TrimSpace(b.ISBN) == "" {
			problems = append(problems, fmt.Sprintf("books[%d]: missing isbn", i))
		}
	}
	for i, v := range c.Videos {
		if strings.TrimSpace(v.Title) == "" {
			problems = append(problems, fmt.Sprintf("videos[%d]: missing title", i))
		}
		if v.Duration < 0 {
			problems = append(problems, fmt.Sprintf("videos[%d]: negative duration", i))
		}
	}
	for i, m := range c.Magazines {
		if strings.TrimSpace(m.Title) == "" {
			problems = append(problems, fmt.Sprintf("magazines[%d]: missing title", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Len is the number of entries across all kinds.
func (c Catalog) Len() int { return len(c.Books) + len(c.Videos) + len(c.Magazines) }

// Items builds fresh items for every entry, books first.
func (c Catalog) Items() []*Item {
	items := make([]*Item, 0, c.Len())
	for _, b := range c.Books {
		items = append(items, NewBook(b.Title, b.Year, b.Genre, b.Author, b.ISBN))
	}
	for _, v := range c.Videos {
		items = append(items, NewVideo(v.Title, v.Year, v.Genre, v.Format, v.Duration))
	}
	for _, m := range c.Magazines {
		items = append(items, NewMagazine(m.Title, m.Year, m.Genre, m.Publisher))
	}
	return items
}
