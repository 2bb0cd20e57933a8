package chart

import (
	"fmt"

	"agriwater-platform/internal/models"
)

// scaleRatioThreshold is the value-range ratio at which two variables are
// considered too differently scaled to share one axis.
const scaleRatioThreshold = 5.0

// SelectLayout picks a chart layout from the aggregated series shape.
// Pure and deterministic: the same query and series always produce the
// same decision.
//
// Rules, in order:
//   - crop-summary queries render as a bar chart sorted descending
//   - one variable → single axis
//   - two variables whose value-range ratio is >= 5 → dual axis, with the
//     larger-scale variable on the secondary axis
//   - two similarly scaled variables → single-axis multi-line
//   - three or more variables → faceted panels with a shared time axis
func SelectLayout(q models.ResolvedQuery, s models.Series) models.LayoutDecision {
	if q.Task == models.TaskCropSummary {
		return models.LayoutDecision{
			Kind:           models.LayoutBar,
			SortDescending: true,
			Reason:         "crop summary: one value per crop, sorted by field count",
		}
	}

	variables := s.Variables()
	switch {
	case len(variables) <= 1:
		return models.LayoutDecision{
			Kind:   models.LayoutSingleAxis,
			Reason: "one variable requested",
		}
	case len(variables) >= 3:
		return models.LayoutDecision{
			Kind:    models.LayoutFaceted,
			FacetBy: "variable",
			Reason:  fmt.Sprintf("%d variables: one panel each, shared time axis", len(variables)),
		}
	}

	ranges := make(map[models.VariableCode]float64, 2)
	for _, v := range variables {
		ranges[v] = valueRange(s, v)
	}

	larger, smaller := variables[0], variables[1]
	if ranges[smaller] > ranges[larger] {
		larger, smaller = smaller, larger
	}
	if ranges[smaller] == 0 {
		// A flat series has no scale to compare; multi-line is readable.
		return models.LayoutDecision{
			Kind:   models.LayoutSingleAxis,
			Reason: "one series is flat; sharing a single axis",
		}
	}

	ratio := ranges[larger] / ranges[smaller]
	if ratio >= scaleRatioThreshold {
		return models.LayoutDecision{
			Kind:          models.LayoutDualAxis,
			PrimaryAxis:   smaller,
			SecondaryAxis: larger,
			Reason:        fmt.Sprintf("scale ratio %.2f >= %.1f", ratio, scaleRatioThreshold),
		}
	}
	return models.LayoutDecision{
		Kind:   models.LayoutSingleAxis,
		Reason: fmt.Sprintf("two variables with similar scales (ratio %.2f)", ratio),
	}
}

// valueRange is max minus min over every point of every sub-series
// carrying the variable.
func valueRange(s models.Series, v models.VariableCode) float64 {
	first := true
	var min, max float64
	for _, vs := range s {
		if vs.Variable != v {
			continue
		}
		for _, p := range vs.Points {
			if first {
				min, max = p.Value, p.Value
				first = false
				continue
			}
			if p.Value < min {
				min = p.Value
			}
			if p.Value > max {
				max = p.Value
			}
		}
	}
	if first {
		return 0
	}
	return max - min
}
