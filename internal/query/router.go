package query

import (
	"strings"

	"agriwater-platform/internal/catalog"
	"agriwater-platform/internal/models"
)

// Router decides which dataset answers a normalized intent. It is a pure
// function over the intent, the family-to-dataset table, and the injected
// disambiguation policy.
type Router struct {
	catalog *catalog.Catalog
	policy  catalog.Policy
}

// NewRouter creates a router with the given disambiguation policy.
func NewRouter(cat *catalog.Catalog, policy catalog.Policy) *Router {
	return &Router{catalog: cat, policy: policy}
}

// Route picks the dataset for an intent. Decision order:
//  1. explicit dataset hint, honored unconditionally
//  2. crop-summary task always binds the field dataset
//  3. variable classification via the family table
//  4. ambiguous-only variable sets fall back to the policy default,
//     unless a station qualifier appears in the question
//
// Variables spanning both datasets with no hint fail with RoutingConflict:
// the router never silently splits a query across datasets.
func (r *Router) Route(ni models.NormalizedIntent) (models.Dataset, error) {
	switch ni.DatasetHint {
	case "agrimet":
		return models.DatasetStationWeather, nil
	case "openet":
		return models.DatasetFieldAgriculture, nil
	}

	if ni.Task == models.TaskCropSummary {
		return models.DatasetFieldAgriculture, nil
	}

	var stationFamilies, fieldFamilies []string
	ambiguousOnly := true
	for _, family := range ni.Variables {
		if r.catalog.AmbiguousFamilies[family] {
			continue
		}
		ds, known := r.catalog.FamilyDataset[family]
		if !known {
			// Unrecognized token: no routing signal. The resolver will
			// reject it with UnknownVariable for whichever dataset wins.
			continue
		}
		ambiguousOnly = false
		switch ds {
		case models.DatasetStationWeather:
			stationFamilies = append(stationFamilies, family)
		case models.DatasetFieldAgriculture:
			fieldFamilies = append(fieldFamilies, family)
		}
	}

	if len(stationFamilies) > 0 && len(fieldFamilies) > 0 {
		return "", &RoutingConflictError{
			StationFamilies: stationFamilies,
			FieldFamilies:   fieldFamilies,
		}
	}
	if len(stationFamilies) > 0 {
		return models.DatasetStationWeather, nil
	}
	if len(fieldFamilies) > 0 {
		return models.DatasetFieldAgriculture, nil
	}

	// Only ambiguous or unknown variables remain. A crop filter is a field
	// signal; otherwise the policy decides, with station qualifiers in the
	// question overriding the default.
	if ambiguousOnly && ni.Crop != "" {
		return models.DatasetFieldAgriculture, nil
	}
	if r.hasStationQualifier(ni.RawQuery) {
		return models.DatasetStationWeather, nil
	}
	return r.policy.AmbiguousDefault, nil
}

func (r *Router) hasStationQualifier(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}
	for _, qualifier := range r.policy.StationQualifiers {
		if strings.Contains(rawQuery, qualifier) {
			return true
		}
	}
	return false
}
