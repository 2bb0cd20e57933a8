package query

import (
	"errors"
	"testing"

	"agriwater-platform/internal/catalog"
	"agriwater-platform/internal/models"
)

func newTestRouter() *Router {
	return NewRouter(catalog.NewOregon(), catalog.DefaultPolicy())
}

func TestRouteByVariableFamily(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		name      string
		variables []string
		want      models.Dataset
	}{
		{"applied water is field data", []string{catalog.FamilyAppliedWater}, models.DatasetFieldAgriculture},
		{"solar radiation is station data", []string{catalog.FamilySolarRadiation}, models.DatasetStationWeather},
		{
			"ambiguous riding along with a station family",
			[]string{catalog.FamilyMaxTemperature, catalog.FamilyPrecipitation},
			models.DatasetStationWeather,
		},
		{
			"ambiguous riding along with a field family",
			[]string{catalog.FamilyEvapotranspiration, catalog.FamilyPrecipitation},
			models.DatasetFieldAgriculture,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := r.Route(models.NormalizedIntent{Task: models.TaskTimeseries, Variables: tt.variables})
			if err != nil {
				t.Fatalf("Route: %v", err)
			}
			if ds != tt.want {
				t.Errorf("dataset = %q, want %q", ds, tt.want)
			}
		})
	}
}

func TestRouteConflictNeverSplits(t *testing.T) {
	r := newTestRouter()

	_, err := r.Route(models.NormalizedIntent{
		Task:      models.TaskTimeseries,
		Variables: []string{catalog.FamilyMaxTemperature, catalog.FamilyEvapotranspiration},
	})

	var conflict *RoutingConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want RoutingConflictError", err)
	}
	if len(conflict.StationFamilies) == 0 || len(conflict.FieldFamilies) == 0 {
		t.Errorf("conflict should name both sides: %+v", conflict)
	}
}

func TestRouteAmbiguousPrecipitation(t *testing.T) {
	r := newTestRouter()

	// Bare precipitation follows the policy default.
	ds, err := r.Route(models.NormalizedIntent{
		Task:      models.TaskTimeseries,
		Variables: []string{catalog.FamilyPrecipitation},
	})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if ds != models.DatasetFieldAgriculture {
		t.Errorf("default = %q, want field-agriculture", ds)
	}

	// A crop filter pins it to field data.
	ds, err = r.Route(models.NormalizedIntent{
		Task:      models.TaskTimeseries,
		Variables: []string{catalog.FamilyPrecipitation},
		Crop:      "alfalfa",
	})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if ds != models.DatasetFieldAgriculture {
		t.Errorf("with crop = %q, want field-agriculture", ds)
	}

	// A station qualifier in the question flips it to stations.
	ds, err = r.Route(models.NormalizedIntent{
		Task:      models.TaskTimeseries,
		Variables: []string{catalog.FamilyPrecipitation},
		RawQuery:  "rainfall at the pendleton weather station in 2023",
	})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if ds != models.DatasetStationWeather {
		t.Errorf("with qualifier = %q, want station-weather", ds)
	}
}

func TestRouteExplicitHintWins(t *testing.T) {
	r := newTestRouter()

	ds, err := r.Route(models.NormalizedIntent{
		Task:        models.TaskTimeseries,
		DatasetHint: "agrimet",
		Variables:   []string{catalog.FamilyPrecipitation},
	})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if ds != models.DatasetStationWeather {
		t.Errorf("dataset = %q, want station-weather", ds)
	}
}

func TestRouteCropSummaryAlwaysField(t *testing.T) {
	r := newTestRouter()

	ds, err := r.Route(models.NormalizedIntent{
		Task:      models.TaskCropSummary,
		Variables: []string{catalog.FamilyCropDistribution},
	})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if ds != models.DatasetFieldAgriculture {
		t.Errorf("dataset = %q, want field-agriculture", ds)
	}
}
