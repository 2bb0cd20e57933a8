package catalog

import (
	"sort"
	"strings"

	"agriwater-platform/internal/models"
)

// Catalog bundles the static reference tables the query pipeline depends
// on: the gazetteer, the crop catalog, and per-dataset coverage. A Catalog
// is built once at startup and treated as immutable; tests substitute
// smaller fixtures.
type Catalog struct {
	Gazetteer Gazetteer
	Crops     CropCatalog
	Coverage  map[models.Dataset]Coverage

	// VariableSynonyms maps lower-cased user phrasing to a canonical
	// variable family token. Families, not dataset codes: "precipitation"
	// binds to PC or PPT only after the dataset is known.
	VariableSynonyms map[string]string

	// FamilyDataset maps a family token to the dataset that owns it.
	// Families in AmbiguousFamilies appear in both datasets and are
	// deliberately absent here.
	FamilyDataset map[string]models.Dataset

	// AmbiguousFamilies lists families present in both datasets; routing
	// for these is decided by Policy, not by this table.
	AmbiguousFamilies map[string]bool

	// AggregationFunc maps a canonical variable code to "sum", "mean", or
	// "count". Fixed policy, never user-chosen.
	AggregationFunc map[models.VariableCode]string
}

// Gazetteer holds the known geographic names per location type. All names
// are stored lower-cased with single internal spaces.
type Gazetteer struct {
	Stations []string
	Cities   []string
	Counties []string
}

// Coverage describes what one dataset can answer: which family tokens map
// to which variable codes, which years carry data, and which locations are
// valid for each geography kind the dataset supports.
type Coverage struct {
	Dataset     models.Dataset
	Families    map[string]models.VariableCode
	MinYear     int
	MaxYear     int
	Granularity models.Granularity
}

// Crop is one entry in the crop catalog, keyed by its CDL code.
type Crop struct {
	Code     int
	Name     string
	Group    string
	Synonyms []string
}

// CropCatalog maps CDL codes to crop metadata.
type CropCatalog map[int]Crop

// Policy carries the configurable disambiguation choices the router
// applies. Kept as data so datasets can be added without touching control
// flow.
type Policy struct {
	// AmbiguousDefault is the dataset an ambiguous family (e.g.
	// precipitation) routes to when the intent has no qualifier.
	AmbiguousDefault models.Dataset
	// StationQualifiers are phrases that force ambiguous families to the
	// station dataset when present in the question or dataset hint.
	StationQualifiers []string
}

// DefaultPolicy routes ambiguous variables to the field dataset unless the
// user said something station-like. Product policy, not structural truth.
func DefaultPolicy() Policy {
	return Policy{
		AmbiguousDefault:  models.DatasetFieldAgriculture,
		StationQualifiers: []string{"weather station", "station", "agrimet"},
	}
}

// NormalizeName lower-cases a geographic or crop name and collapses
// punctuation and repeated whitespace, so "Hood  River" and "hood river"
// compare equal.
func NormalizeName(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// HasStation reports whether name matches a known station after
// normalization.
func (g Gazetteer) HasStation(name string) bool { return contains(g.Stations, name) }

// HasCity reports whether name matches a known city after normalization.
func (g Gazetteer) HasCity(name string) bool { return contains(g.Cities, name) }

// HasCounty reports whether name matches a known county after
// normalization. Accepts a trailing "county" suffix.
func (g Gazetteer) HasCounty(name string) bool {
	return contains(g.Counties, strings.TrimSuffix(NormalizeName(name), " county"))
}

func contains(names []string, name string) bool {
	norm := NormalizeName(name)
	for _, candidate := range names {
		if candidate == norm {
			return true
		}
	}
	return false
}

// ValidLocations returns the sorted valid location names for a dataset,
// used to build helpful LocationNotFound messages.
func (c *Catalog) ValidLocations(ds models.Dataset) []string {
	var out []string
	switch ds {
	case models.DatasetStationWeather:
		out = append(out, c.Gazetteer.Stations...)
	case models.DatasetFieldAgriculture:
		out = append(out, c.Gazetteer.Cities...)
		for _, county := range c.Gazetteer.Counties {
			out = append(out, county+" county")
		}
	}
	sort.Strings(out)
	return out
}

// MatchCrop resolves a crop token against the catalog. Matching is
// case-insensitive substring in either direction with trailing-s plural
// stripping, plus explicit synonym lists. Returns the matched crop and
// true, or the zero Crop and false.
func (c CropCatalog) MatchCrop(token string) (Crop, bool) {
	norm := NormalizeName(token)
	if norm == "" {
		return Crop{}, false
	}
	singular := strings.TrimSuffix(norm, "s")

	// Synonyms win over fuzzy name matching.
	for _, crop := range c.Ordered() {
		for _, syn := range crop.Synonyms {
			if syn == norm || syn == singular {
				return crop, true
			}
		}
	}
	for _, crop := range c.Ordered() {
		name := NormalizeName(crop.Name)
		nameSingular := strings.TrimSuffix(name, "s")
		if strings.Contains(name, norm) || strings.Contains(norm, name) ||
			strings.Contains(name, singular) || strings.Contains(singular, nameSingular) {
			return crop, true
		}
	}
	return Crop{}, false
}

// Ordered returns crops sorted by CDL code for deterministic matching
// and stable prompt text.
func (c CropCatalog) Ordered() []Crop {
	codes := make([]int, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	out := make([]Crop, 0, len(c))
	for _, code := range codes {
		out = append(out, c[code])
	}
	return out
}

// Name returns the crop name for a CDL code, or "" if unknown.
func (c CropCatalog) Name(code int) string {
	if crop, ok := c[code]; ok {
		return crop.Name
	}
	return ""
}
