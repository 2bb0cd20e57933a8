package validation

import (
	"fmt"
	"math"

	"agriwater-platform/internal/models"
)

// plausibleRanges holds loose physical bounds per variable. Values outside
// these are flagged as suspect, never dropped. Data quality is surfaced,
// not repaired.
var plausibleRanges = map[models.VariableCode][2]float64{
	models.VarMaxTemp:     {-40, 130},
	models.VarMinTemp:     {-60, 120},
	models.VarMeanTemp:    {-50, 125},
	models.VarPrecip:      {0, 500},
	models.VarSolar:       {0, 2000},
	models.VarWind:        {0, 150},
	models.VarET:          {0, 25},
	models.VarFieldPrecip: {0, 500},
}

// Validate builds a data-quality report for fetched rows: per-variable
// missing fraction against the expected bucket count, plausibility checks,
// and an all-zero flag (the known wind-speed gap shows up here). The
// report is attached to results and never alters resolution.
func Validate(q models.ResolvedQuery, rows []models.DataRow) *models.ValidationReport {
	report := &models.ValidationReport{
		RowCount:        len(rows),
		MissingFraction: make(map[models.VariableCode]float64),
		OK:              true,
	}
	if len(rows) == 0 {
		report.OK = false
		report.Warnings = append(report.Warnings, "no rows returned")
		return report
	}

	expected := expectedBuckets(q)
	counts := make(map[models.VariableCode]int)
	outliers := make(map[models.VariableCode]int)
	allZero := make(map[models.VariableCode]bool)
	for _, v := range q.Variables {
		allZero[v] = true
	}

	for _, row := range rows {
		counts[row.Variable]++
		if row.Value != 0 {
			allZero[row.Variable] = false
		}
		if bounds, ok := plausibleRanges[row.Variable]; ok {
			if row.Value < bounds[0] || row.Value > bounds[1] {
				outliers[row.Variable]++
			}
		}
		if math.IsNaN(row.Value) || math.IsInf(row.Value, 0) {
			outliers[row.Variable]++
		}
	}

	for _, v := range q.Variables {
		if expected > 0 {
			missing := 1 - float64(counts[v])/float64(expected)
			if missing < 0 {
				missing = 0
			}
			report.MissingFraction[v] = missing
			if missing > 0.5 {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("%s: %.0f%% of expected buckets have no data", v, missing*100))
			}
		}
		if n := outliers[v]; n > 0 {
			bounds := plausibleRanges[v]
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: %d values outside [%g,%g]", v, n, bounds[0], bounds[1]))
		}
		if counts[v] > 0 && allZero[v] {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: all values are zero; sensor or source data gap likely", v))
		}
	}

	report.OK = len(report.Warnings) == 0
	return report
}

// expectedBuckets estimates how many time buckets the resolved interval
// spans at the query granularity. Crop summaries have no time dimension.
func expectedBuckets(q models.ResolvedQuery) int {
	if q.Task == models.TaskCropSummary {
		return 0
	}
	days := int(q.End.Sub(q.Start).Hours()/24) + 1
	if q.Granularity == models.GranularityMonthly {
		months := (q.End.Year()-q.Start.Year())*12 + int(q.End.Month()-q.Start.Month()) + 1
		return months
	}
	return days
}
