package models

import (
	"time"
)

// Dataset identifies one of the two backing datasets.
type Dataset string

const (
	// DatasetStationWeather is daily point observations from AgriMet weather stations.
	DatasetStationWeather Dataset = "station-weather"
	// DatasetFieldAgriculture is monthly polygon-level OpenET field records.
	DatasetFieldAgriculture Dataset = "field-agriculture"
)

// LocationType classifies how a location string should be resolved.
type LocationType string

const (
	LocationStation LocationType = "station"
	LocationCity    LocationType = "city"
	LocationCounty  LocationType = "county"
	// LocationUnknown means the normalizer could not classify the location;
	// the resolver decides (or rejects) based on the routed dataset.
	LocationUnknown LocationType = ""
)

// TaskKind is the high-level task the user asked for.
type TaskKind string

const (
	TaskTimeseries  TaskKind = "visualize_timeseries"
	TaskCropSummary TaskKind = "crop_summary"
)

// Granularity is the time bucket size for aggregation.
// Fixed per dataset, never user-chosen.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// VariableCode is a canonical dataset variable code (e.g. "MX", "ETa").
type VariableCode string

// Station-weather variable codes.
const (
	VarMaxTemp  VariableCode = "MX"
	VarMinTemp  VariableCode = "MN"
	VarMeanTemp VariableCode = "OBM"
	VarPrecip   VariableCode = "PC"
	VarSolar    VariableCode = "SR"
	VarWind     VariableCode = "WS"
	VarHumidity VariableCode = "TU"
)

// Field-agriculture variable codes.
const (
	VarET            VariableCode = "ETa"
	VarFieldPrecip   VariableCode = "PPT"
	VarAppliedWater  VariableCode = "AW"
	VarNetIrrigation VariableCode = "NIWR"
	VarWaterStress   VariableCode = "WS_C"
	// VarCropDist is the pseudo-variable used by crop-summary queries:
	// one count of fields per crop code, no time dimension.
	VarCropDist VariableCode = "CROP"
)

// Intent is the raw, best-effort structured guess produced by the language
// model. Fields may be missing, misspelled, or self-contradictory; nothing
// here is trusted until the resolver has validated it.
type Intent struct {
	Task         string   `json:"task"`
	DatasetHint  string   `json:"dataset,omitempty"`
	Location     string   `json:"location,omitempty"`
	LocationType string   `json:"location_type,omitempty"`
	Crop         string   `json:"crop,omitempty"`
	Variables    []string `json:"variables,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	ChartType    string   `json:"chart_type,omitempty"`

	// RawQuery is the original user question, kept for keyword fallbacks
	// and diagnostics. Never parsed by the core beyond synonym matching.
	RawQuery string `json:"raw_query,omitempty"`
}

// NormalizedIntent is the cleaned form of an Intent: lower-cased, synonyms
// mapped to canonical family tokens, location type structurally inferred.
// Normalization never rejects; invalid tokens survive and fail resolution.
type NormalizedIntent struct {
	Task         TaskKind
	DatasetHint  string // "agrimet", "openet", or ""
	Location     string
	LocationType LocationType
	Crop         string
	// Variables holds canonical family tokens (e.g. "precipitation",
	// "evapotranspiration") or unrecognized tokens passed through unchanged.
	Variables []string
	StartDate string
	EndDate   string
	ChartType string
	RawQuery  string
}

// GeoScope is the fully resolved geographic scope of a query.
// Exactly one interpretation applies, indicated by Type.
type GeoScope struct {
	Type LocationType `json:"type"`
	Name string       `json:"name"`
}

// ResolvedQuery is a fully bound, validated query. Every field carries a
// concrete value once a ResolvedQuery exists; it is never mutated after the
// resolver returns it.
type ResolvedQuery struct {
	Task        TaskKind       `json:"task"`
	Dataset     Dataset        `json:"dataset"`
	Geography   GeoScope       `json:"geography"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Variables   []VariableCode `json:"variables"`           // non-empty, insertion order preserved
	CropCode    int            `json:"crop_code,omitempty"` // 0 = no crop filter
	CropName    string         `json:"crop_name,omitempty"`
	Granularity Granularity    `json:"granularity"`
	// Warnings records non-fatal conditions found during resolution,
	// currently only partial-coverage clipping.
	Warnings []string `json:"warnings,omitempty"`
}

// HasCropFilter reports whether the query filters by crop.
func (q ResolvedQuery) HasCropFilter() bool {
	return q.CropCode != 0
}

// DataRow is a single raw row handed back by a data fetcher.
type DataRow struct {
	EntityID  string
	Timestamp time.Time
	Variable  VariableCode
	Value     float64
	// CropCode is 0 for station rows and for field rows without crop data.
	CropCode int
}

// SeriesPoint is one aggregated (timestamp, value) pair.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// VariableSeries is the ordered aggregate for one variable, optionally
// scoped to one crop when the query carried a crop breakdown.
type VariableSeries struct {
	Variable VariableCode  `json:"variable"`
	CropCode int           `json:"crop_code,omitempty"`
	CropName string        `json:"crop_name,omitempty"`
	Points   []SeriesPoint `json:"points"`
}

// Series is the aggregator output: one VariableSeries per (variable, crop)
// pair, variables in query order, timestamps strictly increasing within
// each sub-series.
type Series []VariableSeries

// Variables returns the distinct variable codes in first-seen order.
func (s Series) Variables() []VariableCode {
	seen := make(map[VariableCode]bool)
	var out []VariableCode
	for _, vs := range s {
		if !seen[vs.Variable] {
			seen[vs.Variable] = true
			out = append(out, vs.Variable)
		}
	}
	return out
}

// LayoutKind enumerates the chart layouts the selector can pick.
type LayoutKind string

const (
	LayoutSingleAxis LayoutKind = "single-axis"
	LayoutDualAxis   LayoutKind = "dual-axis"
	LayoutFaceted    LayoutKind = "faceted"
	LayoutBar        LayoutKind = "bar"
)

// LayoutDecision is the deterministic chart-shape choice derived from the
// series structure. Axis fields are set only for dual-axis; FacetBy only
// for faceted layouts.
type LayoutDecision struct {
	Kind           LayoutKind     `json:"kind"`
	PrimaryAxis    VariableCode   `json:"primary_axis,omitempty"`
	SecondaryAxis  VariableCode   `json:"secondary_axis,omitempty"`
	FacetBy        string         `json:"facet_by,omitempty"`
	SortDescending bool           `json:"sort_descending,omitempty"`
	Reason         string         `json:"reason,omitempty"`
}

// QueryResult is the terminal output of the query pipeline. Empty marks the
// well-formed-but-zero-rows outcome; it is not an error.
type QueryResult struct {
	Query    ResolvedQuery     `json:"query"`
	Series   Series            `json:"series,omitempty"`
	Layout   *LayoutDecision   `json:"layout,omitempty"`
	Empty    bool              `json:"empty"`
	Warnings []string          `json:"warnings,omitempty"`
	Report   *ValidationReport `json:"validation,omitempty"`
}

// ValidationReport summarizes data quality for fetched rows. It is attached
// to results for display and never alters resolution.
type ValidationReport struct {
	RowCount        int                      `json:"row_count"`
	MissingFraction map[VariableCode]float64 `json:"missing_fraction,omitempty"`
	Warnings        []string                 `json:"warnings,omitempty"`
	OK              bool                     `json:"ok"`
}
