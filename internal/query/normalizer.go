package query

import (
	"strings"

	"agriwater-platform/internal/catalog"
	"agriwater-platform/internal/models"
)

// Normalizer cleans a raw Intent into a NormalizedIntent: lower-casing,
// synonym mapping, and structural location-type inference. It never
// rejects; unrecognized tokens pass through and fail validation in the
// resolver instead of being silently dropped.
type Normalizer struct {
	catalog *catalog.Catalog
}

// NewNormalizer creates a normalizer over the given reference catalog.
func NewNormalizer(cat *catalog.Catalog) *Normalizer {
	return &Normalizer{catalog: cat}
}

// Normalize produces the cleaned intent. Pure function: the input Intent
// is not modified.
func (n *Normalizer) Normalize(intent models.Intent) models.NormalizedIntent {
	ni := models.NormalizedIntent{
		Task:        normalizeTask(intent.Task),
		DatasetHint: normalizeDatasetHint(intent.DatasetHint),
		Crop:        strings.TrimSpace(strings.ToLower(intent.Crop)),
		StartDate:   strings.TrimSpace(strings.ToLower(intent.StartDate)),
		EndDate:     strings.TrimSpace(strings.ToLower(intent.EndDate)),
		ChartType:   strings.TrimSpace(strings.ToLower(intent.ChartType)),
		RawQuery:    strings.TrimSpace(strings.ToLower(intent.RawQuery)),
	}

	ni.Location, ni.LocationType = n.normalizeLocation(intent.Location, intent.LocationType)
	ni.Variables = n.normalizeVariables(intent.Variables)

	// A crop-summary task with no variables still resolves: it binds the
	// crop-distribution pseudo-variable downstream.
	if ni.Task == models.TaskCropSummary && len(ni.Variables) == 0 {
		ni.Variables = []string{catalog.FamilyCropDistribution}
	}

	return ni
}

// normalizeVariables maps each requested variable through the synonym
// table. Unknown tokens survive unchanged so the resolver can name them in
// an UnknownVariable failure.
func (n *Normalizer) normalizeVariables(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		norm := catalog.NormalizeName(tok)
		if norm == "" {
			continue
		}
		if family, ok := n.catalog.VariableSynonyms[norm]; ok {
			out = append(out, family)
			continue
		}
		out = append(out, norm)
	}
	return out
}

// normalizeLocation lower-cases the location and infers its type when the
// intent did not carry one: known station name → station, known city →
// city, "... county" suffix or county gazetteer match → county.
func (n *Normalizer) normalizeLocation(location, locationType string) (string, models.LocationType) {
	name := catalog.NormalizeName(location)

	switch strings.TrimSpace(strings.ToLower(locationType)) {
	case "station":
		return name, models.LocationStation
	case "city":
		return name, models.LocationCity
	case "county":
		return strings.TrimSuffix(name, " county"), models.LocationCounty
	}

	if strings.HasSuffix(name, " county") {
		return strings.TrimSuffix(name, " county"), models.LocationCounty
	}

	g := n.catalog.Gazetteer
	switch {
	case g.HasStation(name):
		return name, models.LocationStation
	case g.HasCity(name):
		return name, models.LocationCity
	case g.HasCounty(name):
		return name, models.LocationCounty
	}
	return name, models.LocationUnknown
}

func normalizeTask(task string) models.TaskKind {
	switch strings.TrimSpace(strings.ToLower(task)) {
	case "crop_summary", "crop summary", "crops", "summarize_crops":
		return models.TaskCropSummary
	default:
		return models.TaskTimeseries
	}
}

// normalizeDatasetHint collapses the many ways users name a dataset to the
// two internal hint values, or "" when there is no usable hint.
func normalizeDatasetHint(hint string) string {
	switch catalog.NormalizeName(hint) {
	case "agrimet", "station", "weather station", "station weather", "weather":
		return "agrimet"
	case "openet", "field", "fields", "field level", "field agriculture":
		return "openet"
	default:
		return ""
	}
}
