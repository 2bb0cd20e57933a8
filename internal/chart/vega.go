package chart

import (
	"fmt"
	"strings"
	"time"

	"agriwater-platform/internal/models"
)

const vegaSchema = "https://vega.github.io/schema/vega-lite/v5.json"

// variableLabels maps canonical codes to axis labels.
var variableLabels = map[models.VariableCode]string{
	models.VarMeanTemp:       "Avg Temp (°F)",
	models.VarMaxTemp:        "Max Temp (°F)",
	models.VarMinTemp:        "Min Temp (°F)",
	models.VarPrecip:         "Precipitation (mm)",
	models.VarSolar:          "Solar Radiation (Langleys)",
	models.VarWind:           "Wind Speed (mph)",
	models.VarHumidity:       "Humidity (%)",
	models.VarET:             "Evapotranspiration (mm)",
	models.VarFieldPrecip:    "Precipitation (mm)",
	models.VarAppliedWater:   "Applied Water (acre-ft)",
	models.VarNetIrrigation:  "Net Irrigation Requirement (mm)",
	models.VarWaterStress:    "Water Stress Coefficient",
	models.VarCropDist:       "Number of Fields",
}

// Label returns the display label for a variable code.
func Label(v models.VariableCode) string {
	if l, ok := variableLabels[v]; ok {
		return l
	}
	return string(v)
}

// VegaSpec renders a layout decision and series into a Vega-Lite v5 spec.
// PNG rendering is left to the caller; this output pastes directly into
// the Vega editor.
func VegaSpec(q models.ResolvedQuery, s models.Series, layout models.LayoutDecision) map[string]interface{} {
	switch layout.Kind {
	case models.LayoutBar:
		return barSpec(q, s)
	case models.LayoutDualAxis:
		return dualAxisSpec(q, s, layout)
	case models.LayoutFaceted:
		return facetedSpec(q, s)
	default:
		return singleAxisSpec(q, s)
	}
}

// Title builds the chart title from the resolved query.
func Title(q models.ResolvedQuery) string {
	location := titleCase(q.Geography.Name)
	if q.Geography.Type == models.LocationCounty {
		location += " County"
	}

	if q.Task == models.TaskCropSummary {
		return fmt.Sprintf("Crops near %s (%d)", location, q.Start.Year())
	}

	var labels []string
	for _, v := range q.Variables {
		labels = append(labels, string(v))
	}
	varLabel := strings.Join(labels, ", ")
	if len(labels) > 3 {
		varLabel = fmt.Sprintf("%d variables", len(labels))
	}
	if q.HasCropFilter() {
		return fmt.Sprintf("%s for %s Fields near %s", varLabel, q.CropName, location)
	}
	return fmt.Sprintf("%s near %s", varLabel, location)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func longRecords(s models.Series) []map[string]interface{} {
	var out []map[string]interface{}
	for _, vs := range s {
		for _, p := range vs.Points {
			rec := map[string]interface{}{
				"datetime": p.Timestamp.Format(time.RFC3339),
				"variable": string(vs.Variable),
				"value":    p.Value,
			}
			if vs.CropName != "" {
				rec["crop"] = vs.CropName
			}
			out = append(out, rec)
		}
	}
	return out
}

func singleAxisSpec(q models.ResolvedQuery, s models.Series) map[string]interface{} {
	return map[string]interface{}{
		"$schema": vegaSchema,
		"title":   Title(q),
		"data":    map[string]interface{}{"values": longRecords(s)},
		"mark":    map[string]interface{}{"type": "line"},
		"encoding": map[string]interface{}{
			"x":     map[string]interface{}{"field": "datetime", "type": "temporal", "title": "Date"},
			"y":     map[string]interface{}{"field": "value", "type": "quantitative", "title": "Value"},
			"color": map[string]interface{}{"field": "variable", "type": "nominal", "title": "Variable"},
		},
	}
}

func dualAxisSpec(q models.ResolvedQuery, s models.Series, layout models.LayoutDecision) map[string]interface{} {
	layer := func(v models.VariableCode, secondary bool) map[string]interface{} {
		y := map[string]interface{}{
			"field": "value", "type": "quantitative", "title": Label(v),
		}
		if secondary {
			y["axis"] = map[string]interface{}{"orient": "right"}
		}
		return map[string]interface{}{
			"transform": []map[string]interface{}{
				{"filter": fmt.Sprintf("datum.variable == '%s'", v)},
			},
			"mark": map[string]interface{}{"type": "line"},
			"encoding": map[string]interface{}{
				"x": map[string]interface{}{"field": "datetime", "type": "temporal", "title": "Date"},
				"y": y,
				"color": map[string]interface{}{
					"field": "variable", "type": "nominal", "title": "Variable",
				},
			},
		}
	}
	return map[string]interface{}{
		"$schema": vegaSchema,
		"title":   Title(q),
		"data":    map[string]interface{}{"values": longRecords(s)},
		"resolve": map[string]interface{}{"scale": map[string]interface{}{"y": "independent"}},
		"layer": []map[string]interface{}{
			layer(layout.PrimaryAxis, false),
			layer(layout.SecondaryAxis, true),
		},
	}
}

func facetedSpec(q models.ResolvedQuery, s models.Series) map[string]interface{} {
	return map[string]interface{}{
		"$schema": vegaSchema,
		"title":   Title(q),
		"data":    map[string]interface{}{"values": longRecords(s)},
		"facet":   map[string]interface{}{"row": map[string]interface{}{"field": "variable", "type": "nominal"}},
		"spec": map[string]interface{}{
			"mark": map[string]interface{}{"type": "line"},
			"encoding": map[string]interface{}{
				"x": map[string]interface{}{"field": "datetime", "type": "temporal", "title": "Date"},
				"y": map[string]interface{}{"field": "value", "type": "quantitative", "title": "Value"},
			},
		},
		"resolve": map[string]interface{}{"scale": map[string]interface{}{"y": "independent"}},
	}
}

func barSpec(q models.ResolvedQuery, s models.Series) map[string]interface{} {
	var values []map[string]interface{}
	for _, vs := range s {
		total := 0.0
		for _, p := range vs.Points {
			total += p.Value
		}
		name := vs.CropName
		if name == "" {
			name = fmt.Sprintf("CDL %d", vs.CropCode)
		}
		values = append(values, map[string]interface{}{
			"crop":  name,
			"count": total,
		})
	}
	return map[string]interface{}{
		"$schema": vegaSchema,
		"title":   Title(q),
		"data":    map[string]interface{}{"values": values},
		"mark":    "bar",
		"encoding": map[string]interface{}{
			"y": map[string]interface{}{"field": "crop", "type": "nominal", "sort": "-x", "title": nil},
			"x": map[string]interface{}{"field": "count", "type": "quantitative", "title": "Number of Fields"},
		},
	}
}
