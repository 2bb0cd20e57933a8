package interpreter

import (
	"reflect"
	"testing"
)

func TestParseIntentPlainJSON(t *testing.T) {
	raw := `{"task":"visualize_timeseries","dataset":"openet","location":"hermiston","crop":"potato","variables":["water use"],"start_date":"2023","end_date":"2023"}`
	intent := ParseIntent(raw, "water use for potato fields near hermiston in 2023")

	if intent.Task != "visualize_timeseries" {
		t.Errorf("Task = %q, want visualize_timeseries", intent.Task)
	}
	if intent.DatasetHint != "openet" {
		t.Errorf("DatasetHint = %q, want openet", intent.DatasetHint)
	}
	if intent.Location != "hermiston" {
		t.Errorf("Location = %q, want hermiston", intent.Location)
	}
	if intent.Crop != "potato" {
		t.Errorf("Crop = %q, want potato", intent.Crop)
	}
	if !reflect.DeepEqual(intent.Variables, []string{"water use"}) {
		t.Errorf("Variables = %v, want [water use]", intent.Variables)
	}
	if intent.RawQuery == "" {
		t.Error("RawQuery should carry the original question")
	}
}

func TestParseIntentStripsFences(t *testing.T) {
	raw := "```json\n{\"task\":\"crop_summary\",\"location\":\"benton county\",\"location_type\":\"county\"}\n```"
	intent := ParseIntent(raw, "what crops are grown in benton county")

	if intent.Task != "crop_summary" {
		t.Errorf("Task = %q, want crop_summary", intent.Task)
	}
	if intent.Location != "benton county" {
		t.Errorf("Location = %q, want benton county", intent.Location)
	}
}

func TestParseIntentSurroundingProse(t *testing.T) {
	raw := `Here is the extraction: {"task":"visualize_timeseries","location":"corvallis","variables":["solar radiation"]} Hope that helps.`
	intent := ParseIntent(raw, "solar radiation at corvallis")

	if intent.Location != "corvallis" {
		t.Errorf("Location = %q, want corvallis", intent.Location)
	}
}

func TestParseIntentGarbageFallsBackToKeywords(t *testing.T) {
	intent := ParseIntent("I could not determine the answer.", "show rainfall and wind speed in pendleton")

	if intent.Task != "visualize_timeseries" {
		t.Errorf("Task = %q, want default visualize_timeseries", intent.Task)
	}
	want := []string{"rainfall", "wind speed"}
	if !reflect.DeepEqual(intent.Variables, want) {
		t.Errorf("Variables = %v, want %v", intent.Variables, want)
	}
}

func TestParseIntentCropSummaryHeuristic(t *testing.T) {
	intent := ParseIntent("{}", "which crops are grown near ontario?")

	if intent.Task != "crop_summary" {
		t.Errorf("Task = %q, want crop_summary", intent.Task)
	}
	if len(intent.Variables) != 0 {
		t.Errorf("Variables = %v, want none for crop summary", intent.Variables)
	}
}

func TestInferVariablesDedupes(t *testing.T) {
	vars := inferVariables("compare rain against rainfall totals")
	want := []string{"rainfall"}
	if !reflect.DeepEqual(vars, want) {
		t.Errorf("inferVariables = %v, want %v", vars, want)
	}
}

func TestInferVariablesSpecificTempWins(t *testing.T) {
	vars := inferVariables("plot max temperature for pendleton")
	want := []string{"max temperature"}
	if !reflect.DeepEqual(vars, want) {
		t.Errorf("inferVariables = %v, want %v", vars, want)
	}
}
