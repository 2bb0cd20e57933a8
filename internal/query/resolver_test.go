package query

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"agriwater-platform/internal/catalog"
	"agriwater-platform/internal/models"
)

// resolveIntent runs normalize, route, resolve end to end against the
// production catalog.
func resolveIntent(t *testing.T, intent models.Intent) (*models.ResolvedQuery, error) {
	t.Helper()
	cat := catalog.NewOregon()
	ni := NewNormalizer(cat).Normalize(intent)
	ds, err := NewRouter(cat, catalog.DefaultPolicy()).Route(ni)
	if err != nil {
		return nil, err
	}
	return NewResolver(cat).Resolve(ni, ds)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveWaterUseByCounty(t *testing.T) {
	q, err := resolveIntent(t, models.Intent{
		Task:         "visualize_timeseries",
		Location:     "Hood River",
		LocationType: "county",
		Variables:    []string{"water use"},
		StartDate:    "2022",
		EndDate:      "2024",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if q.Dataset != models.DatasetFieldAgriculture {
		t.Errorf("Dataset = %q, want field-agriculture", q.Dataset)
	}
	if q.Geography.Type != models.LocationCounty || q.Geography.Name != "hood river" {
		t.Errorf("Geography = %+v, want hood river county", q.Geography)
	}
	if !reflect.DeepEqual(q.Variables, []models.VariableCode{models.VarAppliedWater}) {
		t.Errorf("Variables = %v, want [AW]", q.Variables)
	}
	if !q.Start.Equal(date(2022, time.January, 1)) || !q.End.Equal(date(2024, time.December, 31)) {
		t.Errorf("interval = %s..%s, want 2022-01-01..2024-12-31", q.Start, q.End)
	}
	if q.Granularity != models.GranularityMonthly {
		t.Errorf("Granularity = %q, want monthly", q.Granularity)
	}
	if len(q.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", q.Warnings)
	}
}

func TestResolveCropFilterBySynonym(t *testing.T) {
	q, err := resolveIntent(t, models.Intent{
		Task:      "visualize_timeseries",
		Location:  "Hermiston",
		Crop:      "spud",
		Variables: []string{"irrigation water applied"},
		StartDate: "2023",
		EndDate:   "2023",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if q.CropCode != 43 || q.CropName != "Potatoes" {
		t.Errorf("crop = (%d, %q), want (43, Potatoes)", q.CropCode, q.CropName)
	}
	if q.Geography.Type != models.LocationCity {
		t.Errorf("Geography.Type = %q, want city", q.Geography.Type)
	}
	if !reflect.DeepEqual(q.Variables, []models.VariableCode{models.VarAppliedWater}) {
		t.Errorf("Variables = %v, want [AW]", q.Variables)
	}
	if !q.HasCropFilter() {
		t.Error("HasCropFilter should be true")
	}
}

func TestResolveAmbiguousRainfallWithCrop(t *testing.T) {
	// Rainfall alone is ambiguous; the crop filter pins the field dataset,
	// where precipitation is PPT.
	q, err := resolveIntent(t, models.Intent{
		Task:      "visualize_timeseries",
		Location:  "Klamath Falls",
		Crop:      "lucerne",
		Variables: []string{"rainfall"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if q.Dataset != models.DatasetFieldAgriculture {
		t.Errorf("Dataset = %q, want field-agriculture", q.Dataset)
	}
	if !reflect.DeepEqual(q.Variables, []models.VariableCode{models.VarFieldPrecip}) {
		t.Errorf("Variables = %v, want [PPT]", q.Variables)
	}
	if q.CropCode != 36 {
		t.Errorf("CropCode = %d, want 36 (Alfalfa)", q.CropCode)
	}
	// No dates given: defaults to full field coverage.
	if !q.Start.Equal(date(2020, time.January, 1)) || !q.End.Equal(date(2024, time.December, 31)) {
		t.Errorf("interval = %s..%s, want full 2020-2024 coverage", q.Start, q.End)
	}
}

func TestResolveEvapotranspirationForCherries(t *testing.T) {
	q, err := resolveIntent(t, models.Intent{
		Task:      "visualize_timeseries",
		Location:  "Hood River County",
		Crop:      "cherry",
		Variables: []string{"crop water consumption"},
		StartDate: "summer 2023",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !reflect.DeepEqual(q.Variables, []models.VariableCode{models.VarET}) {
		t.Errorf("Variables = %v, want [ETa]", q.Variables)
	}
	if q.CropCode != 66 {
		t.Errorf("CropCode = %d, want 66 (Cherries)", q.CropCode)
	}
	if !q.Start.Equal(date(2023, time.June, 1)) || !q.End.Equal(date(2023, time.August, 31)) {
		t.Errorf("interval = %s..%s, want summer 2023", q.Start, q.End)
	}
}

func TestResolveCropSummary(t *testing.T) {
	q, err := resolveIntent(t, models.Intent{
		Task:      "crop_summary",
		Location:  "Benton County",
		StartDate: "2023",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !reflect.DeepEqual(q.Variables, []models.VariableCode{models.VarCropDist}) {
		t.Errorf("Variables = %v, want [CROP]", q.Variables)
	}
	if q.Geography.Type != models.LocationCounty || q.Geography.Name != "benton" {
		t.Errorf("Geography = %+v, want benton county", q.Geography)
	}
}

func TestResolveUnknownVariableNamesToken(t *testing.T) {
	_, err := resolveIntent(t, models.Intent{
		Task:        "visualize_timeseries",
		Location:    "Corvallis",
		DatasetHint: "agrimet",
		Variables:   []string{"soil moisture"},
	})

	var unknown *UnknownVariableError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownVariableError", err)
	}
	if unknown.Token != "soil moisture" {
		t.Errorf("Token = %q, want the offending token", unknown.Token)
	}
	if unknown.IsTransient() {
		t.Error("resolution errors are permanent for the same input")
	}
}

func TestResolveEmptyVariableListRejected(t *testing.T) {
	_, err := resolveIntent(t, models.Intent{
		Task:        "visualize_timeseries",
		Location:    "Corvallis",
		DatasetHint: "agrimet",
	})

	var unknown *UnknownVariableError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownVariableError", err)
	}
}

func TestResolveDateRangeOutsideCoverage(t *testing.T) {
	_, err := resolveIntent(t, models.Intent{
		Task:        "visualize_timeseries",
		Location:    "Pendleton",
		DatasetHint: "agrimet",
		Variables:   []string{"max temp"},
		StartDate:   "1900",
		EndDate:     "1901",
	})

	var invalid *DateRangeInvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want DateRangeInvalidError", err)
	}
}

func TestResolvePartialOverlapClipsWithWarning(t *testing.T) {
	q, err := resolveIntent(t, models.Intent{
		Task:        "visualize_timeseries",
		Location:    "Pendleton",
		DatasetHint: "agrimet",
		Variables:   []string{"max temp"},
		StartDate:   "2013",
		EndDate:     "2016",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !q.Start.Equal(date(2015, time.January, 1)) {
		t.Errorf("Start = %s, want clipped to 2015-01-01", q.Start)
	}
	if !q.End.Equal(date(2016, time.December, 31)) {
		t.Errorf("End = %s, want 2016-12-31", q.End)
	}
	if len(q.Warnings) == 0 {
		t.Error("clipping should produce a warning")
	}
}

func TestResolveStartAfterEndRejected(t *testing.T) {
	_, err := resolveIntent(t, models.Intent{
		Task:        "visualize_timeseries",
		Location:    "Corvallis",
		DatasetHint: "agrimet",
		Variables:   []string{"max temp"},
		StartDate:   "2023-06-01",
		EndDate:     "2023-01-01",
	})

	var invalid *DateRangeInvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want DateRangeInvalidError", err)
	}
}

func TestResolveLocationNotFoundListsValid(t *testing.T) {
	_, err := resolveIntent(t, models.Intent{
		Task:        "visualize_timeseries",
		Location:    "Hermiston",
		DatasetHint: "agrimet",
		Variables:   []string{"max temp"},
	})

	var notFound *LocationNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want LocationNotFoundError", err)
	}
	if len(notFound.Valid) == 0 {
		t.Error("error should list the valid locations")
	}
}

func TestResolveCropAgainstStationRejected(t *testing.T) {
	_, err := resolveIntent(t, models.Intent{
		Task:        "visualize_timeseries",
		Location:    "Corvallis",
		DatasetHint: "agrimet",
		Crop:        "potato",
		Variables:   []string{"max temp"},
	})

	var incompatible *IncompatibleFilterError
	if !errors.As(err, &incompatible) {
		t.Fatalf("err = %v, want IncompatibleFilterError", err)
	}
}

func TestResolveUnknownCrop(t *testing.T) {
	_, err := resolveIntent(t, models.Intent{
		Task:      "visualize_timeseries",
		Location:  "Hermiston",
		Crop:      "kumquat",
		Variables: []string{"water use"},
	})

	var unknown *UnknownCropError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownCropError", err)
	}
}

func TestParseDateTokenForms(t *testing.T) {
	tests := []struct {
		token     string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"2023", date(2023, time.January, 1), date(2023, time.December, 31)},
		{"2023-02", date(2023, time.February, 1), date(2023, time.February, 28)},
		{"2023-07-04", date(2023, time.July, 4), date(2023, time.July, 4)},
		{"summer 2023", date(2023, time.June, 1), date(2023, time.August, 31)},
		{"2023 fall", date(2023, time.September, 1), date(2023, time.November, 30)},
		{"winter 2022", date(2022, time.December, 1), date(2023, time.February, 28)},
		{"q2 2021", date(2021, time.April, 1), date(2021, time.June, 30)},
		{"2024-02", date(2024, time.February, 1), date(2024, time.February, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			start, end, err := parseDateToken(tt.token)
			if err != nil {
				t.Fatalf("parseDateToken(%q): %v", tt.token, err)
			}
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Errorf("got %s..%s, want %s..%s", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParseDateTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{"someday", "year 20", "2023-13", "springtime"} {
		if _, _, err := parseDateToken(token); err == nil {
			t.Errorf("parseDateToken(%q) should fail", token)
		}
	}
}
