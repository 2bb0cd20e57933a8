package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"agriwater-platform/internal/models"
	"agriwater-platform/pkg/database"
	"agriwater-platform/pkg/logging"
	"agriwater-platform/pkg/metrics"
)

// DataRepository provides read access to the two backing datasets. Fetchers
// return raw long-format rows; aggregation happens upstream. Zero rows is a
// valid result, never an error.
type DataRepository interface {
	// FetchStationRows returns daily station observations for the given
	// variables inside [start, end].
	FetchStationRows(ctx context.Context, station string, vars []models.VariableCode, start, end time.Time) ([]models.DataRow, error)

	// FetchFieldRows returns monthly field records scoped to a city or
	// county. cropCode 0 means no crop filter.
	FetchFieldRows(ctx context.Context, geo models.GeoScope, vars []models.VariableCode, start, end time.Time, cropCode int) ([]models.DataRow, error)

	// FetchCropCounts returns one row per (field, crop) pair in scope for
	// the given year, for crop distribution summaries.
	FetchCropCounts(ctx context.Context, geo models.GeoScope, year int) ([]models.DataRow, error)

	HealthCheck(ctx context.Context) error
}

// dataRepository implements DataRepository against PostgreSQL
type dataRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDataRepository creates a new data repository
func NewDataRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) DataRepository {
	return &dataRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

type stationRow struct {
	StationID       string    `db:"station_id"`
	ObservationDate time.Time `db:"observation_date"`
	Variable        string    `db:"variable"`
	Value           float64   `db:"value"`
}

type fieldRow struct {
	FieldID     string    `db:"field_id"`
	RecordMonth time.Time `db:"record_month"`
	Variable    string    `db:"variable"`
	Value       float64   `db:"value"`
	CropCode    int       `db:"crop_code"`
}

type cropRow struct {
	FieldID  string `db:"field_id"`
	CropCode int    `db:"crop_code"`
}

// FetchStationRows retrieves daily station observations
func (r *dataRepository) FetchStationRows(ctx context.Context, station string, vars []models.VariableCode, start, end time.Time) ([]models.DataRow, error) {
	query := `
		SELECT station_id, observation_date, variable, value
		FROM station_observations
		WHERE station_id = $1
		  AND variable = ANY($2)
		  AND observation_date BETWEEN $3 AND $4
		ORDER BY observation_date, variable
	`

	var rows []stationRow
	err := r.db.SelectContext(ctx, "fetch_station_rows", &rows, query,
		station, pq.Array(variableStrings(vars)), start, end)
	if err != nil {
		return nil, &DataUnavailableError{Dataset: models.DatasetStationWeather, Err: err}
	}

	out := make([]models.DataRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.DataRow{
			EntityID:  row.StationID,
			Timestamp: row.ObservationDate,
			Variable:  models.VariableCode(row.Variable),
			Value:     row.Value,
		})
	}

	r.logger.Debug(ctx, "[REPO_FETCH_STATION] Station rows fetched", logging.Fields{
		"station":   station,
		"variables": vars,
		"rows":      len(out),
	})

	return out, nil
}

// FetchFieldRows retrieves monthly field records scoped by city or county
func (r *dataRepository) FetchFieldRows(ctx context.Context, geo models.GeoScope, vars []models.VariableCode, start, end time.Time, cropCode int) ([]models.DataRow, error) {
	geoColumn, err := fieldGeoColumn(geo)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT r.field_id, r.record_month, r.variable, r.value,
		       COALESCE(fc.crop_code, 0) AS crop_code
		FROM field_records r
		JOIN fields f ON f.field_id = r.field_id
		LEFT JOIN field_crops fc
		  ON fc.field_id = r.field_id
		 AND fc.year = EXTRACT(YEAR FROM r.record_month)
		WHERE f.%s = $1
		  AND r.variable = ANY($2)
		  AND r.record_month BETWEEN $3 AND $4
	`, geoColumn)

	args := []interface{}{geo.Name, pq.Array(variableStrings(vars)), start, end}
	if cropCode != 0 {
		query += " AND fc.crop_code = $5"
		args = append(args, cropCode)
	}
	query += " ORDER BY r.record_month, r.variable, r.field_id"

	var rows []fieldRow
	if err := r.db.SelectContext(ctx, "fetch_field_rows", &rows, query, args...); err != nil {
		return nil, &DataUnavailableError{Dataset: models.DatasetFieldAgriculture, Err: err}
	}

	out := make([]models.DataRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.DataRow{
			EntityID:  row.FieldID,
			Timestamp: row.RecordMonth,
			Variable:  models.VariableCode(row.Variable),
			Value:     row.Value,
			CropCode:  row.CropCode,
		})
	}

	r.logger.Debug(ctx, "[REPO_FETCH_FIELD] Field rows fetched", logging.Fields{
		"location":  geo.Name,
		"geo_type":  string(geo.Type),
		"crop_code": cropCode,
		"rows":      len(out),
	})

	return out, nil
}

// FetchCropCounts retrieves (field, crop) pairs for distribution summaries
func (r *dataRepository) FetchCropCounts(ctx context.Context, geo models.GeoScope, year int) ([]models.DataRow, error) {
	geoColumn, err := fieldGeoColumn(geo)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT fc.field_id, fc.crop_code
		FROM field_crops fc
		JOIN fields f ON f.field_id = fc.field_id
		WHERE f.%s = $1
		  AND fc.year = $2
		ORDER BY fc.crop_code, fc.field_id
	`, geoColumn)

	var rows []cropRow
	if err := r.db.SelectContext(ctx, "fetch_crop_counts", &rows, query, geo.Name, year); err != nil {
		return nil, &DataUnavailableError{Dataset: models.DatasetFieldAgriculture, Err: err}
	}

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.DataRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.DataRow{
			EntityID:  row.FieldID,
			Timestamp: yearStart,
			Variable:  models.VarCropDist,
			Value:     1,
			CropCode:  row.CropCode,
		})
	}

	r.logger.Debug(ctx, "[REPO_FETCH_CROPS] Crop pairs fetched", logging.Fields{
		"location": geo.Name,
		"year":     year,
		"rows":     len(out),
	})

	return out, nil
}

// HealthCheck performs a repository health check
func (r *dataRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// fieldGeoColumn maps a resolved geography to the fields table column it
// filters on. Station scopes never reach the field fetchers.
func fieldGeoColumn(geo models.GeoScope) (string, error) {
	switch geo.Type {
	case models.LocationCity:
		return "city", nil
	case models.LocationCounty:
		return "county", nil
	default:
		return "", fmt.Errorf("unsupported geography type for field data: %q", geo.Type)
	}
}

func variableStrings(vars []models.VariableCode) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = string(v)
	}
	return out
}

// DataUnavailableError means the backing store could not serve a fetch.
// Transient: the query itself may be fine on retry.
type DataUnavailableError struct {
	Dataset models.Dataset
	Err     error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable for %s: %v", e.Dataset, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

func (e *DataUnavailableError) IsTransient() bool {
	return true
}
