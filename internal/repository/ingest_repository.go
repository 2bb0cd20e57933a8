package repository

import (
	"context"
	"fmt"
	"time"

	"agriwater-platform/internal/models"
	"agriwater-platform/pkg/database"
	"agriwater-platform/pkg/logging"
	"agriwater-platform/pkg/metrics"
)

// IngestRepository provides batched write access used by the ingester.
// Inserts are idempotent upserts keyed on the natural primary keys, so
// re-running an ingest over the same files is safe.
type IngestRepository interface {
	InsertStationObservations(ctx context.Context, observations []models.StationObservation) error
	UpsertFields(ctx context.Context, fields []models.Field) error
	InsertFieldRecords(ctx context.Context, records []models.FieldRecord) error
	InsertFieldCrops(ctx context.Context, crops []models.FieldCrop) error
}

// NewIngestRepository creates an ingest repository backed by PostgreSQL
func NewIngestRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) IngestRepository {
	return &dataRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// InsertStationObservations upserts a batch of daily station values
func (r *dataRepository) InsertStationObservations(ctx context.Context, observations []models.StationObservation) error {
	if len(observations) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(observations)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Station batch inserted", logging.Fields{
			"count":       len(observations),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO station_observations (station_id, observation_date, variable, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (station_id, observation_date, variable) DO UPDATE SET
			value = EXCLUDED.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, obs := range observations {
		if _, err := stmt.ExecContext(ctx, obs.StationID, obs.ObservationDate, string(obs.Variable), obs.Value); err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(observations)))
	return nil
}

// UpsertFields upserts field metadata
func (r *dataRepository) UpsertFields(ctx context.Context, fields []models.Field) error {
	if len(fields) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fields (field_id, city, county)
		VALUES ($1, $2, $3)
		ON CONFLICT (field_id) DO UPDATE SET
			city = EXCLUDED.city,
			county = EXCLUDED.county
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range fields {
		if _, err := stmt.ExecContext(ctx, f.FieldID, f.City, f.County); err != nil {
			return fmt.Errorf("failed to upsert field %s: %w", f.FieldID, err)
		}
	}

	return tx.Commit()
}

// InsertFieldRecords upserts a batch of monthly field values
func (r *dataRepository) InsertFieldRecords(ctx context.Context, records []models.FieldRecord) error {
	if len(records) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Field batch inserted", logging.Fields{
			"count":       len(records),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO field_records (field_id, record_month, variable, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (field_id, record_month, variable) DO UPDATE SET
			value = EXCLUDED.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.FieldID, rec.RecordMonth, string(rec.Variable), rec.Value); err != nil {
			return fmt.Errorf("failed to insert field record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(records)))
	return nil
}

// InsertFieldCrops upserts crop assignments per field and year
func (r *dataRepository) InsertFieldCrops(ctx context.Context, crops []models.FieldCrop) error {
	if len(crops) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO field_crops (field_id, year, crop_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (field_id, year) DO UPDATE SET
			crop_code = EXCLUDED.crop_code
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, fc := range crops {
		if _, err := stmt.ExecContext(ctx, fc.FieldID, fc.Year, fc.CropCode); err != nil {
			return fmt.Errorf("failed to insert field crop: %w", err)
		}
	}

	return tx.Commit()
}
