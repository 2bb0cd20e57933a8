package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"agriwater-platform/internal/catalog"
	"agriwater-platform/internal/models"
)

// Resolver converts a normalized, routed intent into a fully bound
// ResolvedQuery. Resolution is atomic: it either succeeds completely
// (possibly with a coverage-clip warning) or fails with one typed error.
// No partial ResolvedQuery is ever exposed.
type Resolver struct {
	catalog *catalog.Catalog
}

// NewResolver creates a resolver over the given reference catalog.
func NewResolver(cat *catalog.Catalog) *Resolver {
	return &Resolver{catalog: cat}
}

// Resolve binds geography, dates, variables, and the crop filter for the
// routed dataset, validating each against the coverage table.
func (r *Resolver) Resolve(ni models.NormalizedIntent, ds models.Dataset) (*models.ResolvedQuery, error) {
	cov, ok := r.catalog.Coverage[ds]
	if !ok {
		return nil, &LocationNotFoundError{Dataset: ds, Location: ni.Location}
	}

	variables, err := r.resolveVariables(ni, cov)
	if err != nil {
		return nil, err
	}

	geo, err := r.resolveGeography(ni, ds)
	if err != nil {
		return nil, err
	}

	start, end, warnings, err := r.resolveDates(ni, cov)
	if err != nil {
		return nil, err
	}

	cropCode, cropName, err := r.resolveCrop(ni, ds)
	if err != nil {
		return nil, err
	}

	return &models.ResolvedQuery{
		Task:        ni.Task,
		Dataset:     ds,
		Geography:   geo,
		Start:       start,
		End:         end,
		Variables:   variables,
		CropCode:    cropCode,
		CropName:    cropName,
		Granularity: cov.Granularity,
		Warnings:    warnings,
	}, nil
}

// resolveVariables maps family tokens to the dataset's canonical codes,
// deduplicating while preserving first-seen order. That order is the
// display order used by the layout selector and chart axes.
func (r *Resolver) resolveVariables(ni models.NormalizedIntent, cov catalog.Coverage) ([]models.VariableCode, error) {
	if ni.Task == models.TaskCropSummary {
		return []models.VariableCode{models.VarCropDist}, nil
	}
	if len(ni.Variables) == 0 {
		return nil, &UnknownVariableError{Token: "(no variables requested)", Dataset: cov.Dataset}
	}

	seen := make(map[models.VariableCode]bool)
	out := make([]models.VariableCode, 0, len(ni.Variables))
	for _, family := range ni.Variables {
		code, ok := cov.Families[family]
		if !ok {
			return nil, &UnknownVariableError{Token: family, Dataset: cov.Dataset}
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out, nil
}

// resolveGeography re-binds the normalizer's structural guess to the
// geography kinds the routed dataset actually supports. Station names and
// city names overlap, so the claimed location type is advisory, not
// binding.
func (r *Resolver) resolveGeography(ni models.NormalizedIntent, ds models.Dataset) (models.GeoScope, error) {
	g := r.catalog.Gazetteer
	name := ni.Location

	switch ds {
	case models.DatasetStationWeather:
		// Stations are a fixed set matched exactly after normalization;
		// no radius search.
		if g.HasStation(name) {
			return models.GeoScope{Type: models.LocationStation, Name: name}, nil
		}
	case models.DatasetFieldAgriculture:
		// An explicit county claim is checked first; otherwise city wins
		// over county for names valid as both.
		if ni.LocationType == models.LocationCounty {
			if g.HasCounty(name) {
				return models.GeoScope{Type: models.LocationCounty, Name: name}, nil
			}
		}
		if g.HasCity(name) {
			return models.GeoScope{Type: models.LocationCity, Name: name}, nil
		}
		if g.HasCounty(name) {
			return models.GeoScope{Type: models.LocationCounty, Name: name}, nil
		}
	}

	return models.GeoScope{}, &LocationNotFoundError{
		Dataset:  ds,
		Location: name,
		Valid:    r.catalog.ValidLocations(ds),
	}
}

// resolveDates expands partial date tokens, defaults missing bounds to the
// dataset's coverage interval, and clips partial overlap with a warning.
// A range entirely outside coverage fails rather than silently emptying.
func (r *Resolver) resolveDates(ni models.NormalizedIntent, cov catalog.Coverage) (time.Time, time.Time, []string, error) {
	covStart := time.Date(cov.MinYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	covEnd := time.Date(cov.MaxYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	start, end := covStart, covEnd

	if ni.StartDate != "" {
		s, e, err := parseDateToken(ni.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, nil, err
		}
		start, end = s, e
	}
	if ni.EndDate != "" {
		_, e, err := parseDateToken(ni.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, nil, err
		}
		end = e
		if ni.StartDate == "" {
			start = covStart
		}
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, nil, &DateRangeInvalidError{
			Start: start, End: end, Reason: "start is after end",
		}
	}
	if end.Before(covStart) || start.After(covEnd) {
		return time.Time{}, time.Time{}, nil, &DateRangeInvalidError{
			Start:  start,
			End:    end,
			Reason: fmt.Sprintf("entirely outside %s coverage %d-%d", cov.Dataset, cov.MinYear, cov.MaxYear),
		}
	}

	var warnings []string
	clipped := false
	if start.Before(covStart) {
		start = covStart
		clipped = true
	}
	if end.After(covEnd) {
		end = covEnd
		clipped = true
	}
	if clipped {
		warnings = append(warnings, fmt.Sprintf(
			"requested range partially outside %s coverage; clipped to %s..%s",
			cov.Dataset, start.Format("2006-01-02"), end.Format("2006-01-02")))
	}
	return start, end, warnings, nil
}

// resolveCrop validates the crop filter. A crop filter against the station
// dataset is a contract violation, rejected rather than silently dropped.
func (r *Resolver) resolveCrop(ni models.NormalizedIntent, ds models.Dataset) (int, string, error) {
	if ni.Crop == "" {
		return 0, "", nil
	}
	if ds != models.DatasetFieldAgriculture {
		return 0, "", &IncompatibleFilterError{Dataset: ds, Crop: ni.Crop}
	}
	crop, ok := r.catalog.Crops.MatchCrop(ni.Crop)
	if !ok {
		return 0, "", &UnknownCropError{Token: ni.Crop}
	}
	return crop.Code, crop.Name, nil
}

// seasonMonths maps season and quarter keywords to [start month/day, end
// month/day] within a year. Winter runs December through February of the
// following year.
var seasonMonths = map[string]struct {
	startMonth time.Month
	endMonth   time.Month
	crossYear  bool
}{
	"spring": {time.March, time.May, false},
	"summer": {time.June, time.August, false},
	"fall":   {time.September, time.November, false},
	"autumn": {time.September, time.November, false},
	"winter": {time.December, time.February, true},
	"q1":     {time.January, time.March, false},
	"q2":     {time.April, time.June, false},
	"q3":     {time.July, time.September, false},
	"q4":     {time.October, time.December, false},
}

// parseDateToken expands a partial date token into the calendar interval
// it denotes. Accepted forms: YYYY, YYYY-MM, YYYY-MM-DD, "<season> YYYY",
// "YYYY <season>", and "qN YYYY".
func parseDateToken(token string) (time.Time, time.Time, error) {
	token = strings.TrimSpace(token)

	if t, err := time.Parse("2006-01-02", token); err == nil {
		return t, t, nil
	}
	if t, err := time.Parse("2006-01", token); err == nil {
		return t, lastDayOfMonth(t), nil
	}
	if year, err := strconv.Atoi(token); err == nil && year >= 1000 && year <= 9999 {
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), nil
	}

	// Season or quarter with a year, in either order.
	fields := strings.Fields(token)
	if len(fields) == 2 {
		season, yearStr := fields[0], fields[1]
		if _, ok := seasonMonths[season]; !ok {
			season, yearStr = fields[1], fields[0]
		}
		if sm, ok := seasonMonths[season]; ok {
			if year, err := strconv.Atoi(yearStr); err == nil && year >= 1000 && year <= 9999 {
				endYear := year
				if sm.crossYear {
					endYear = year + 1
				}
				start := time.Date(year, sm.startMonth, 1, 0, 0, 0, 0, time.UTC)
				end := lastDayOfMonth(time.Date(endYear, sm.endMonth, 1, 0, 0, 0, 0, time.UTC))
				return start, end, nil
			}
		}
	}

	return time.Time{}, time.Time{}, &DateRangeInvalidError{
		Reason: fmt.Sprintf("unparseable date %q (expected YYYY, YYYY-MM, YYYY-MM-DD, or a season with a year)", token),
	}
}

func lastDayOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}
