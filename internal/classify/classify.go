// Package classify maps free-text performance fields onto the part, concert
// sub-category and region taxonomies.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"stagehub/pkg/models"
)

// MatchMode controls how a keyword is matched against text.
type MatchMode int

const (
	// MatchAuto infers the mode from the keyword: ASCII keywords match as words, others as substrings.
	MatchAuto MatchMode = iota
	// MatchWord requires the keyword to be bounded by non-alphanumeric ASCII characters or the string ends.
	MatchWord
	// MatchSubstring matches anywhere, case-insensitively.
	MatchSubstring
)

func (m MatchMode) String() string {
	switch m {
	case MatchWord:
		return "word"
	case MatchSubstring:
		return "substring"
	default:
		return "auto"
	}
}

// Pattern is one keyword with its match mode.
type Pattern struct {
	Keyword string
	Mode    MatchMode
}

// Category is a named concert sub-category and the patterns that select it.
type Category struct {
	Name     string
	Patterns []Pattern
}

// RegionKeywords lists the venue and area fragments that place a performance in a region.
type RegionKeywords struct {
	Region   models.Region
	Keywords []string
}

// Table is the uncompiled, data-only form of a taxonomy.
type Table struct {
	Version string
	Theater []Pattern
	Concert []Category
	Regions []RegionKeywords
}

// InferMode returns MatchWord when the keyword is plain ASCII once spaces,
// hyphens, dots and apostrophes are ignored, and MatchSubstring otherwise.
func InferMode(keyword string) MatchMode {
	for _, r := range keyword {
		switch r {
		case ' ', '-', '.', '\'':
			continue
		}
		if r > 0x7f {
			return MatchSubstring
		}
	}
	return MatchWord
}

type matcher struct {
	keyword string
	re      *regexp.Regexp
}

func compilePattern(p Pattern) (matcher, error) {
	kw := strings.TrimSpace(p.Keyword)
	if kw == "" {
		return matcher{}, fmt.Errorf("empty keyword")
	}
	mode := p.Mode
	if mode == MatchAuto {
		mode = InferMode(kw)
	}
	expr := "(?i)" + regexp.QuoteMeta(kw)
	if mode == MatchWord {
		expr = `(?i)(?:^|[^A-Za-z0-9])` + regexp.QuoteMeta(kw) + `(?:[^A-Za-z0-9]|$)`
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return matcher{}, fmt.Errorf("compile %q: %w", kw, err)
	}
	return matcher{keyword: kw, re: re}, nil
}

type category struct {
	name     string
	matchers []matcher
}

type region struct {
	region   models.Region
	keywords []string // as given, for exact area containment
	upper    []string // upper-cased, for venue containment
}

// Taxonomy is a compiled Table. It is safe for concurrent use.
type Taxonomy struct {
	version string
	theater []matcher
	concert []category
	regions []region
}

// Compile validates a table and builds its matchers.
func Compile(t Table) (*Taxonomy, error) {
	tx := &Taxonomy{version: t.Version}
	if tx.version == "" {
		tx.version = "unversioned"
	}

	for _, p := range t.Theater {
		m, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("theater pattern: %w", err)
		}
		tx.theater = append(tx.theater, m)
	}

	seen := make(map[string]bool, len(t.Concert))
	for _, c := range t.Concert {
		if c.Name == "" {
			return nil, fmt.Errorf("concert category without a name")
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate concert category %q", c.Name)
		}
		seen[c.Name] = true
		cat := category{name: c.Name}
		for _, p := range c.Patterns {
			m, err := compilePattern(p)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", c.Name, err)
			}
			cat.matchers = append(cat.matchers, m)
		}
		tx.concert = append(tx.concert, cat)
	}

	for _, r := range t.Regions {
		if !knownRegion(r.Region) {
			return nil, fmt.Errorf("unknown region %q", r.Region)
		}
		rg := region{region: r.Region}
		for _, k := range r.Keywords {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			rg.keywords = append(rg.keywords, k)
			rg.upper = append(rg.upper, strings.ToUpper(k))
		}
		tx.regions = append(tx.regions, rg)
	}
	return tx, nil
}

// MustCompile is Compile for tables known to be valid.
func MustCompile(t Table) *Taxonomy {
	tx, err := Compile(t)
	if err != nil {
		panic("classify: " + err.Error())
	}
	return tx
}

func knownRegion(r models.Region) bool {
	for _, k := range models.Regions {
		if k == r {
			return true
		}
	}
	return false
}

// Version identifies the table this taxonomy was compiled from.
func (tx *Taxonomy) Version() string { return tx.version }

// Categories returns the concert sub-category names in priority order.
func (tx *Taxonomy) Categories() []string {
	out := make([]string, 0, len(tx.concert))
	for _, c := range tx.concert {
		out = append(out, c.name)
	}
	return out
}

// Part scans genre, then name, for theater keywords. Anything else is a concert.
func (tx *Taxonomy) Part(name, genre string) models.Part {
	for _, text := range [...]string{genre, name} {
		for _, m := range tx.theater {
			if m.re.MatchString(text) {
				return models.PartTheater
			}
		}
	}
	return models.PartConcert
}

// Region places a venue in one of the seven zones. The authoritative area text
// is tried first with exact containment, then the upper-cased venue name.
// When nothing matches the result is models.RegionUnclassified.
func (tx *Taxonomy) Region(venue, area string) models.Region {
	if area != "" {
		for _, r := range tx.regions {
			for _, k := range r.keywords {
				if strings.Contains(area, k) {
					return r.region
				}
			}
		}
	}
	if venue != "" {
		v := strings.ToUpper(venue)
		for _, r := range tx.regions {
			for _, k := range r.upper {
				if strings.Contains(v, k) {
					return r.region
				}
			}
		}
	}
	return models.RegionUnclassified
}

// Category returns the first concert sub-category whose patterns match name, or OtherCategory.
func (tx *Taxonomy) Category(name string) string {
	if name == "" {
		return OtherCategory
	}
	for _, c := range tx.concert {
		for _, m := range c.matchers {
			if m.re.MatchString(name) {
				return c.name
			}
		}
	}
	return OtherCategory
}

// Default is the built-in taxonomy.
var Default = MustCompile(DefaultTable())

// ClassifyPart classifies with the built-in taxonomy.
func ClassifyPart(name, genre string) models.Part { return Default.Part(name, genre) }

// ClassifyRegion classifies with the built-in taxonomy.
func ClassifyRegion(venue, area string) models.Region { return Default.Region(venue, area) }

// CategorizeConcert classifies with the built-in taxonomy.
func CategorizeConcert(name string) string { return Default.Category(name) }
