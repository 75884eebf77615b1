// Package registry holds the read-only lookup tables used by the georeferencing
// engine: distance units, compass headings, geodetic datums, and coordinate
// sources. Tables are loaded once, validated, and indexed; nothing mutates them
// afterwards, so a *Registry may be shared freely between goroutines.
package registry

import (
	"bytes"
	"embed"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var tableFS embed.FS

// Registry bundles every lookup table.
type Registry struct {
	Units    *UnitRegistry
	Headings *HeadingRegistry
	Datums   *DatumRegistry
	Sources  *SourceRegistry
}

// Options points individual tables at external YAML files. An empty path
// selects the embedded table.
type Options struct {
	UnitsPath    string
	HeadingsPath string
	DatumsPath   string
	SourcesPath  string
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the registry built from the embedded tables. It is loaded on
// first use and shared by every caller.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Load(Options{})
	})
	return defaultReg, defaultErr
}

// MustDefault is Default for package-level initialization; it panics if the
// embedded tables are malformed.
func MustDefault() *Registry {
	reg, err := Default()
	if err != nil {
		panic(err)
	}
	return reg
}

// Load reads, validates, and indexes every table.
func Load(opts Options) (*Registry, error) {
	var unitsDoc struct {
		Units []DistanceUnit `yaml:"units"`
	}
	if err := readTable(opts.UnitsPath, "tables/units.yaml", &unitsDoc); err != nil {
		return nil, err
	}
	units, err := NewUnitRegistry(unitsDoc.Units)
	if err != nil {
		return nil, err
	}

	var headingsDoc struct {
		Headings []Heading `yaml:"headings"`
	}
	if err := readTable(opts.HeadingsPath, "tables/headings.yaml", &headingsDoc); err != nil {
		return nil, err
	}
	headings, err := NewHeadingRegistry(headingsDoc.Headings)
	if err != nil {
		return nil, err
	}

	var datumsDoc struct {
		Datums []Datum `yaml:"datums"`
	}
	if err := readTable(opts.DatumsPath, "tables/datums.yaml", &datumsDoc); err != nil {
		return nil, err
	}
	datums, err := NewDatumRegistry(datumsDoc.Datums)
	if err != nil {
		return nil, err
	}

	var sourcesDoc struct {
		Sources []CoordinateSource `yaml:"sources"`
	}
	if err := readTable(opts.SourcesPath, "tables/sources.yaml", &sourcesDoc); err != nil {
		return nil, err
	}
	sources, err := NewSourceRegistry(sourcesDoc.Sources, units)
	if err != nil {
		return nil, err
	}

	return &Registry{
		Units:    units,
		Headings: headings,
		Datums:   datums,
		Sources:  sources,
	}, nil
}

// readTable decodes a YAML table from path, or from the embedded copy when path
// is empty.
func readTable(path, embedded string, out any) error {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "registry: read table %s", path)
		}
	} else {
		data, err = tableFS.ReadFile(embedded)
		if err != nil {
			return eris.Wrapf(err, "registry: read embedded table %s", embedded)
		}
		path = embedded
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return eris.Wrapf(err, "registry: parse table %s", path)
	}
	return nil
}

// normalizeForm folds case and drops punctuation and whitespace so that
// "N.N.E.", "north-northeast" and "North Northeast" index identically.
func normalizeForm(s string) string {
	s = cases.Fold().String(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '-', ',', '_', ' ', '\t':
			return -1
		}
		return r
	}, s)
}

// formIndex maps normalized synonyms to a canonical code.
type formIndex map[string]string

// add registers form for code. Two codes claiming the same normalized form is a
// table error.
func (ix formIndex) add(table, form, code string) error {
	key := normalizeForm(form)
	if key == "" {
		return nil
	}
	if prev, ok := ix[key]; ok && prev != code {
		return eris.Errorf("registry: %s form %q claimed by both %q and %q", table, form, prev, code)
	}
	ix[key] = code
	return nil
}

func (ix formIndex) resolve(s string) (string, bool) {
	code, ok := ix[normalizeForm(s)]
	return code, ok
}

// Constants is the JSON listing of every table.
type Constants struct {
	Datums   []Datum            `json:"datums"`
	Units    []DistanceUnit     `json:"units"`
	Headings []Heading          `json:"headings"`
	Sources  []CoordinateSource `json:"sources"`
}

// Constants lists the tables in registry order.
func (r *Registry) Constants() Constants {
	return Constants{
		Datums:   r.Datums.All(),
		Units:    r.Units.All(),
		Headings: r.Headings.All(),
		Sources:  r.Sources.All(),
	}
}
