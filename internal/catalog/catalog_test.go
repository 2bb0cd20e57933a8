package catalog

import (
	"testing"

	"agriwater-platform/internal/models"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hood  River", "hood river"},
		{"KLAMATH FALLS", "klamath falls"},
		{"  Benton County ", "benton county"},
		{"O'Brien", "o brien"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGazetteerLookups(t *testing.T) {
	cat := NewOregon()
	g := cat.Gazetteer

	if !g.HasStation("Corvallis") {
		t.Error("corvallis should be a station")
	}
	if g.HasStation("hermiston") {
		t.Error("hermiston is a city, not a station")
	}
	if !g.HasCity("Hood River") {
		t.Error("hood river should be a city")
	}
	if !g.HasCounty("hood river county") {
		t.Error("county lookup should accept the county suffix")
	}
	if !g.HasCounty("umatilla") {
		t.Error("county lookup should accept the bare name")
	}
}

func TestMatchCrop(t *testing.T) {
	cat := NewOregon()

	tests := []struct {
		token    string
		wantCode int
		wantOK   bool
	}{
		{"potato", 43, true},
		{"spud", 43, true},
		{"spuds", 43, true},
		{"lucerne", 36, true},
		{"alfalfa", 36, true},
		{"cherry", 66, true},
		{"Cherries", 66, true},
		{"winter wheat", 24, true},
		{"wheat", 24, true},
		{"vineyard", 69, true},
		{"kumquat", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		crop, ok := cat.Crops.MatchCrop(tt.token)
		if ok != tt.wantOK {
			t.Errorf("MatchCrop(%q) ok = %v, want %v", tt.token, ok, tt.wantOK)
			continue
		}
		if ok && crop.Code != tt.wantCode {
			t.Errorf("MatchCrop(%q) code = %d, want %d", tt.token, crop.Code, tt.wantCode)
		}
	}
}

func TestValidLocationsSorted(t *testing.T) {
	cat := NewOregon()

	stations := cat.ValidLocations(models.DatasetStationWeather)
	if len(stations) != 5 {
		t.Fatalf("got %d station locations, want 5", len(stations))
	}
	for i := 1; i < len(stations); i++ {
		if stations[i] < stations[i-1] {
			t.Fatalf("locations not sorted: %q before %q", stations[i-1], stations[i])
		}
	}

	fields := cat.ValidLocations(models.DatasetFieldAgriculture)
	found := false
	for _, loc := range fields {
		if loc == "hood river county" {
			found = true
		}
	}
	if !found {
		t.Error("field locations should include counties with their suffix")
	}
}

func TestCoverageFamilies(t *testing.T) {
	cat := NewOregon()

	station := cat.Coverage[models.DatasetStationWeather]
	if station.Families[FamilyPrecipitation] != models.VarPrecip {
		t.Errorf("station precipitation = %q, want PC", station.Families[FamilyPrecipitation])
	}
	field := cat.Coverage[models.DatasetFieldAgriculture]
	if field.Families[FamilyPrecipitation] != models.VarFieldPrecip {
		t.Errorf("field precipitation = %q, want PPT", field.Families[FamilyPrecipitation])
	}
	if !cat.AmbiguousFamilies[FamilyPrecipitation] {
		t.Error("precipitation should be marked ambiguous")
	}
	if cat.AmbiguousFamilies[FamilyEvapotranspiration] {
		t.Error("evapotranspiration belongs to one dataset only")
	}
}
