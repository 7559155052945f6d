package models

// Source statuses.
const (
	SourceActive     = "active"
	SourceComingSoon = "coming-soon"
)

// Source describes one listing site and how to read it.
type Source struct {
	ID                  string     `yaml:"id"`
	Name                string     `yaml:"name"`
	Color               string     `yaml:"color"`
	BaseURL             string     `yaml:"base_url"`
	Status              string     `yaml:"status"`
	Render              bool       `yaml:"render"`
	IDPrefix            string     `yaml:"id_prefix"`
	RentThreshold       int        `yaml:"rent_threshold"`
	LocationPlaceholder string     `yaml:"location_placeholder"`
	CandidatePatterns   []Pattern  `yaml:"candidate_patterns"`
	Categories          []Category `yaml:"categories"`
}

// Pattern is one structural candidate hint. When RequireCurrency is set only
// matches whose text carries a currency marker count.
type Pattern struct {
	Selector        string `yaml:"selector"`
	RequireCurrency bool   `yaml:"require_currency"`
}

// Category is one listings page of a source.
type Category struct {
	Index int    `yaml:"index"`
	Path  string `yaml:"path"`
	Label string `yaml:"label"`
}

// SourceStats records what one source contributed to a search.
type SourceStats struct {
	SourceID    string
	UnitsOK     int
	UnitsFailed int
	Candidates  int
	Listings    int
}
