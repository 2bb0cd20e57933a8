package aggregate

import (
	"sort"
	"time"

	"agriwater-platform/internal/catalog"
	"agriwater-platform/internal/models"
)

// Aggregator collapses raw fetched rows into ordered per-variable series.
// The aggregation function per variable (sum, mean, count) comes from the
// catalog's fixed policy table and is never user-chosen.
type Aggregator struct {
	catalog *catalog.Catalog
}

// NewAggregator creates an aggregator over the given catalog.
func NewAggregator(cat *catalog.Catalog) *Aggregator {
	return &Aggregator{catalog: cat}
}

type bucketKey struct {
	variable models.VariableCode
	crop     int
	ts       time.Time
}

type bucketAccum struct {
	sum      float64
	count    int
	entities map[string]bool
}

// Aggregate groups rows by (variable, bucket), and additionally by crop
// code when the query carries a crop filter, then applies the per-variable
// aggregation function. Missing entities within a bucket are simply absent
// from the mean or sum; no imputation. Returns a Series with variables in
// query order and strictly increasing timestamps per sub-series. An empty
// row set yields an empty Series; callers treat that as the EmptyResult
// terminal state, not an error.
func (a *Aggregator) Aggregate(q models.ResolvedQuery, rows []models.DataRow) models.Series {
	if len(rows) == 0 {
		return nil
	}

	byCrop := q.HasCropFilter() || q.Task == models.TaskCropSummary

	buckets := make(map[bucketKey]*bucketAccum)
	cropsSeen := make(map[models.VariableCode]map[int]bool)
	for _, row := range rows {
		key := bucketKey{
			variable: row.Variable,
			ts:       bucketTimestamp(row.Timestamp, q.Granularity),
		}
		if byCrop {
			key.crop = row.CropCode
		}
		acc, ok := buckets[key]
		if !ok {
			acc = &bucketAccum{entities: make(map[string]bool)}
			buckets[key] = acc
		}
		acc.sum += row.Value
		acc.count++
		acc.entities[row.EntityID] = true

		if cropsSeen[row.Variable] == nil {
			cropsSeen[row.Variable] = make(map[int]bool)
		}
		cropsSeen[row.Variable][key.crop] = true
	}

	var series models.Series
	for _, variable := range q.Variables {
		fn := a.catalog.AggregationFunc[variable]
		crops := sortedCrops(cropsSeen[variable])
		for _, crop := range crops {
			points := a.collectPoints(buckets, variable, crop, fn)
			if len(points) == 0 {
				continue
			}
			vs := models.VariableSeries{
				Variable: variable,
				Points:   points,
			}
			if byCrop {
				vs.CropCode = crop
				vs.CropName = a.catalog.Crops.Name(crop)
			}
			series = append(series, vs)
		}
	}
	return series
}

func (a *Aggregator) collectPoints(buckets map[bucketKey]*bucketAccum, variable models.VariableCode, crop int, fn string) []models.SeriesPoint {
	var points []models.SeriesPoint
	for key, acc := range buckets {
		if key.variable != variable || key.crop != crop {
			continue
		}
		var value float64
		switch fn {
		case "sum":
			value = acc.sum
		case "count":
			value = float64(len(acc.entities))
		default: // mean
			value = acc.sum / float64(acc.count)
		}
		points = append(points, models.SeriesPoint{Timestamp: key.ts, Value: value})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}

// bucketTimestamp truncates a row timestamp to the query's aggregation
// granularity: midnight of the day, or the first of the month.
func bucketTimestamp(ts time.Time, g models.Granularity) time.Time {
	ts = ts.UTC()
	if g == models.GranularityMonthly {
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedCrops(set map[int]bool) []int {
	if len(set) == 0 {
		return []int{0}
	}
	out := make([]int, 0, len(set))
	for crop := range set {
		out = append(out, crop)
	}
	sort.Ints(out)
	return out
}
