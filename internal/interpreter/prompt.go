package interpreter

import (
	"fmt"
	"strings"
	"time"

	"agriwater-platform/internal/catalog"
)

// BuildPrompt assembles the system prompt from the injected catalog so the
// model only ever suggests locations, variables, and crops the platform
// can actually resolve. The model sees vocabulary, never data.
func BuildPrompt(cat *catalog.Catalog, today time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a JSON converter for agricultural water and weather queries. Today: %s\n\n",
		today.Format("2006-01-02"))

	b.WriteString("Extract a JSON object with these fields:\n")
	b.WriteString(`  task: "visualize_timeseries" or "crop_summary" (for "what crops are grown ..." questions)` + "\n")
	b.WriteString(`  dataset: "agrimet" (weather station) or "openet" (field-level), omit if unsure` + "\n")
	b.WriteString("  location: the place name mentioned\n")
	b.WriteString(`  location_type: "station", "city", or "county", omit if unsure` + "\n")
	b.WriteString("  crop: crop name if the question filters by crop, omit otherwise\n")
	b.WriteString("  variables: list of requested variable names, as the user said them\n")
	b.WriteString("  start_date, end_date: YYYY-MM-DD, or YYYY for a whole year, or a season like \"summer 2023\"\n")
	b.WriteString(`  chart_type: "line" or "bar" if the user asked for one` + "\n\n")

	fmt.Fprintf(&b, "Weather stations: %s\n", strings.Join(cat.Gazetteer.Stations, ", "))
	fmt.Fprintf(&b, "Cities: %s\n", strings.Join(cat.Gazetteer.Cities, ", "))
	fmt.Fprintf(&b, "Counties: %s\n", strings.Join(cat.Gazetteer.Counties, ", "))

	var crops []string
	for _, crop := range cat.Crops.Ordered() {
		crops = append(crops, crop.Name)
	}
	fmt.Fprintf(&b, "Known crops: %s\n\n", strings.Join(crops, ", "))

	b.WriteString("Examples:\n")
	b.WriteString(`  "show me solar radiation in corvallis" -> {"task":"visualize_timeseries","dataset":"agrimet","location":"corvallis","variables":["solar radiation"]}` + "\n")
	b.WriteString(`  "water use for potato fields near hermiston in 2023" -> {"task":"visualize_timeseries","dataset":"openet","location":"hermiston","crop":"potato","variables":["water use"],"start_date":"2023","end_date":"2023"}` + "\n")
	b.WriteString(`  "what crops are grown in benton county" -> {"task":"crop_summary","location":"benton county","location_type":"county"}` + "\n\n")

	b.WriteString("Output ONLY valid JSON. No explanations.")
	return b.String()
}
