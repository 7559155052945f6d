package scraper

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"immosearch/models"
)

//go:embed sources.yaml
var defaultSources []byte

// Catalog is the static list of sources known to the service.
type Catalog struct {
	Sources []models.Source `yaml:"sources"`
}

// Unit is one page fetch of one source: a category page, or the base URL for
// sources without categories (Category.Index 0).
type Unit struct {
	Source   *models.Source
	Category models.Category
	URL      string
}

// LoadCatalog reads the catalog from path, or the embedded default when path
// is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultSources
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %q: %w", path, err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	seen := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.ID == "" {
			return nil, fmt.Errorf("catalog: source #%d has no id", i+1)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("catalog: duplicate source id %q", s.ID)
		}
		seen[s.ID] = true

		u, err := url.Parse(s.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("catalog: source %q: invalid base_url %q", s.ID, s.BaseURL)
		}
		switch s.Status {
		case "":
			s.Status = models.SourceActive
		case models.SourceActive, models.SourceComingSoon:
		default:
			return nil, fmt.Errorf("catalog: source %q: unknown status %q", s.ID, s.Status)
		}
		if s.IDPrefix == "" {
			s.IDPrefix = s.ID
		}
	}
	return &c, nil
}

// Get returns the source with the given id.
func (c *Catalog) Get(id string) (*models.Source, bool) {
	for i := range c.Sources {
		if c.Sources[i].ID == id {
			return &c.Sources[i], true
		}
	}
	return nil, false
}

// Active returns every active source in catalog order.
func (c *Catalog) Active() []*models.Source {
	var out []*models.Source
	for i := range c.Sources {
		if c.Sources[i].Status == models.SourceActive {
			out = append(out, &c.Sources[i])
		}
	}
	return out
}

// Select resolves requested ids to active sources, in catalog order. Unknown
// and inactive ids are ignored; no ids means every active source.
func (c *Catalog) Select(ids []string) []*models.Source {
	if len(ids) == 0 {
		return c.Active()
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	var out []*models.Source
	for _, s := range c.Active() {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// Units expands a source into its page fetches.
func Units(src *models.Source) ([]Unit, error) {
	base, err := url.Parse(src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("catalog: source %q: %w", src.ID, err)
	}
	if len(src.Categories) == 0 {
		return []Unit{{Source: src, URL: base.String()}}, nil
	}

	units := make([]Unit, 0, len(src.Categories))
	for _, cat := range src.Categories {
		ref, err := url.Parse(cat.Path)
		if err != nil {
			return nil, fmt.Errorf("catalog: source %q category %d: %w", src.ID, cat.Index, err)
		}
		units = append(units, Unit{
			Source:   src,
			Category: cat,
			URL:      resolveAgainst(base, ref).String(),
		})
	}
	return units, nil
}

// resolveAgainst treats base as a directory so that relative paths land
// under it even when base has no trailing slash.
func resolveAgainst(base, ref *url.URL) *url.URL {
	dir := *base
	if !strings.HasSuffix(dir.Path, "/") {
		dir.Path += "/"
	}
	return dir.ResolveReference(ref)
}
