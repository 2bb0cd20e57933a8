package chart

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"agriwater-platform/internal/models"
)

func TestTitleForCropFilter(t *testing.T) {
	q := models.ResolvedQuery{
		Task:      models.TaskTimeseries,
		Geography: models.GeoScope{Type: models.LocationCity, Name: "hermiston"},
		Variables: []models.VariableCode{models.VarAppliedWater},
		CropCode:  43,
		CropName:  "Potatoes",
	}

	title := Title(q)
	if !strings.Contains(title, "Potatoes") || !strings.Contains(title, "Hermiston") {
		t.Errorf("title %q should name the crop and the location", title)
	}
}

func TestTitleForCountyCropSummary(t *testing.T) {
	q := models.ResolvedQuery{
		Task:      models.TaskCropSummary,
		Geography: models.GeoScope{Type: models.LocationCounty, Name: "benton"},
		Start:     time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
	}

	title := Title(q)
	if !strings.Contains(title, "Benton County") || !strings.Contains(title, "2023") {
		t.Errorf("title %q should name the county and the year", title)
	}
}

func TestVegaSpecDualAxisLayers(t *testing.T) {
	q := models.ResolvedQuery{
		Task:      models.TaskTimeseries,
		Geography: models.GeoScope{Type: models.LocationStation, Name: "corvallis"},
		Variables: []models.VariableCode{models.VarPrecip, models.VarSolar},
	}
	s := models.Series{
		{Variable: models.VarPrecip, Points: []models.SeriesPoint{point(1, 2)}},
		{Variable: models.VarSolar, Points: []models.SeriesPoint{point(1, 500)}},
	}
	layout := models.LayoutDecision{
		Kind:          models.LayoutDualAxis,
		PrimaryAxis:   models.VarPrecip,
		SecondaryAxis: models.VarSolar,
	}

	spec := VegaSpec(q, s, layout)
	layers, ok := spec["layer"].([]map[string]interface{})
	if !ok || len(layers) != 2 {
		t.Fatalf("dual-axis spec should have two layers: %v", spec["layer"])
	}
	if _, err := json.Marshal(spec); err != nil {
		t.Fatalf("spec should be JSON-serializable: %v", err)
	}
}

func TestVegaSpecBarSortsByCount(t *testing.T) {
	q := models.ResolvedQuery{
		Task:      models.TaskCropSummary,
		Geography: models.GeoScope{Type: models.LocationCounty, Name: "benton"},
		Variables: []models.VariableCode{models.VarCropDist},
		Start:     time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	s := models.Series{
		{Variable: models.VarCropDist, CropCode: 36, CropName: "Alfalfa", Points: []models.SeriesPoint{point(1, 12)}},
		{Variable: models.VarCropDist, CropCode: 24, CropName: "Winter Wheat", Points: []models.SeriesPoint{point(1, 7)}},
	}

	spec := VegaSpec(q, s, models.LayoutDecision{Kind: models.LayoutBar, SortDescending: true})
	if spec["mark"] != "bar" {
		t.Errorf("mark = %v, want bar", spec["mark"])
	}
	values, ok := spec["data"].(map[string]interface{})["values"].([]map[string]interface{})
	if !ok || len(values) != 2 {
		t.Fatalf("unexpected bar data: %v", spec["data"])
	}
	if values[0]["crop"] != "Alfalfa" || values[0]["count"] != 12.0 {
		t.Errorf("first bar = %v, want Alfalfa/12", values[0])
	}
}

func TestLabelFallsBackToCode(t *testing.T) {
	if got := Label(models.VarET); got == string(models.VarET) {
		t.Errorf("ETa should have a display label")
	}
	if got := Label(models.VariableCode("XYZ")); got != "XYZ" {
		t.Errorf("unknown code should fall back to itself, got %q", got)
	}
}
