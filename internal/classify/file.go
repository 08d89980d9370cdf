package classify

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"stagehub/pkg/models"
)

// fileTable is the YAML shape of a taxonomy override:
//
//	version: "2026.10-local"
//	theater: [뮤지컬, MUSICAL, ...]
//	categories:
//	  - name: 아이돌
//	    keywords: [BTS, 방탄]      # mode inferred
//	    words: [IVE]              # always word-bounded
//	    substrings: [NCT]         # always substring
//	regions:
//	  - name: 서울
//	    keywords: [예술의전당, 잠실]
type fileTable struct {
	Version    string         `koanf:"version"`
	Theater    []string       `koanf:"theater"`
	Categories []fileCategory `koanf:"categories"`
	Regions    []fileRegion   `koanf:"regions"`
}

type fileCategory struct {
	Name       string   `koanf:"name"`
	Keywords   []string `koanf:"keywords"`
	Words      []string `koanf:"words"`
	Substrings []string `koanf:"substrings"`
}

type fileRegion struct {
	Name     string   `koanf:"name"`
	Keywords []string `koanf:"keywords"`
}

// LoadFile reads a YAML taxonomy and compiles it. Sections left out of the
// file keep their built-in values, so an override can replace only the
// concert categories, for instance.
func LoadFile(path string) (*Taxonomy, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load taxonomy %s: %w", path, err)
	}
	var ft fileTable
	if err := k.Unmarshal("", &ft); err != nil {
		return nil, fmt.Errorf("decode taxonomy %s: %w", path, err)
	}

	t := DefaultTable()
	t.Version = ft.Version
	if ft.Version == "" {
		t.Version = path
	}
	if len(ft.Theater) > 0 {
		t.Theater = auto(ft.Theater...)
	}
	if len(ft.Categories) > 0 {
		t.Concert = t.Concert[:0:0]
		for _, c := range ft.Categories {
			cat := Category{Name: c.Name, Patterns: auto(c.Keywords...)}
			for _, w := range c.Words {
				cat.Patterns = append(cat.Patterns, Pattern{Keyword: w, Mode: MatchWord})
			}
			for _, s := range c.Substrings {
				cat.Patterns = append(cat.Patterns, Pattern{Keyword: s, Mode: MatchSubstring})
			}
			t.Concert = append(t.Concert, cat)
		}
	}
	if len(ft.Regions) > 0 {
		t.Regions = t.Regions[:0:0]
		for _, r := range ft.Regions {
			t.Regions = append(t.Regions, RegionKeywords{Region: models.Region(r.Name), Keywords: r.Keywords})
		}
	}

	tx, err := Compile(t)
	if err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	return tx, nil
}
