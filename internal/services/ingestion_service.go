package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"agriwater-platform/internal/models"
	"agriwater-platform/internal/repository"
	"agriwater-platform/pkg/logging"
	"agriwater-platform/pkg/metrics"
)

const inchesToMillimeters = 25.4

// IngestionService loads the source CSV exports into PostgreSQL: one file
// per weather station, plus long-format field records and per-year crop
// assignments.
type IngestionService struct {
	repo    repository.IngestRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.IngestRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestStationDirectory ingests every station CSV in a directory. The file
// name (minus extension) is the station name. Expected header:
// date,MX,MN,PC,SR,WS,TU with dates as YYYY-MM-DD and precipitation in
// inches.
func (s *IngestionService) IngestStationDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting station ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
	})

	result := &IngestionResult{Errors: make([]string, 0)}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no station files found in %s", dataDir)
	}
	result.TotalFiles = len(files)

	for _, filePath := range files {
		fileResult, err := s.ingestStationFile(ctx, filePath, batchSize)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to ingest %s: %v", filePath, err))
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] Station file failed", logging.Fields{
				"file_path": filePath,
			}, err)
			s.metrics.RecordIngestionError("file_error")
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.FailedRecords += fileResult.FailedRecords

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] Station file ingested", logging.Fields{
			"file_path":          filePath,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"failed_records":     fileResult.FailedRecords,
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Station ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
	})

	return result, nil
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
}

// stationColumns maps CSV header names to canonical variable codes. The
// source exports use either the short codes or descriptive column names.
var stationColumns = map[string]models.VariableCode{
	"MX":              models.VarMaxTemp,
	"MN":              models.VarMinTemp,
	"PC":              models.VarPrecip,
	"SR":              models.VarSolar,
	"WS":              models.VarWind,
	"TU":              models.VarHumidity,
	"MAX_TEMP_F":      models.VarMaxTemp,
	"MIN_TEMP_F":      models.VarMinTemp,
	"DAILY_PRECIP_IN": models.VarPrecip,
	"SOLAR_LANGLEY":   models.VarSolar,
	"WIND_SPEED_MPH":  models.VarWind,
	"HUMIDITY_PCT":    models.VarHumidity,
}

// ingestStationFile converts one wide-format station CSV to long rows.
// A mean temperature (OBM) row is derived from MX and MN when both are
// present; PC is converted from inches to millimeters.
func (s *IngestionService) ingestStationFile(ctx context.Context, filePath string, batchSize int) (*FileIngestionResult, error) {
	station := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[int]models.VariableCode)
	dateCol := -1
	for i, name := range header {
		name = strings.TrimSpace(name)
		if strings.EqualFold(name, "date") || strings.EqualFold(name, "datetime") {
			dateCol = i
			continue
		}
		if code, ok := stationColumns[strings.ToUpper(name)]; ok {
			columns[i] = code
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("no date column in header %v", header)
	}

	result := &FileIngestionResult{}
	batch := make([]models.StationObservation, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.InsertStationObservations(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			continue
		}
		result.TotalRecords++

		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[dateCol]))
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("date_error")
			continue
		}

		var maxTemp, minTemp *float64
		for col, code := range columns {
			if col >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[col])
			if cell == "" {
				continue
			}
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				result.FailedRecords++
				s.metrics.RecordIngestionError("value_error")
				continue
			}
			if code == models.VarPrecip {
				value *= inchesToMillimeters
			}
			switch code {
			case models.VarMaxTemp:
				v := value
				maxTemp = &v
			case models.VarMinTemp:
				v := value
				minTemp = &v
			}
			batch = append(batch, models.StationObservation{
				StationID:       station,
				ObservationDate: date,
				Variable:        code,
				Value:           value,
			})
		}

		if maxTemp != nil && minTemp != nil {
			batch = append(batch, models.StationObservation{
				StationID:       station,
				ObservationDate: date,
				Variable:        models.VarMeanTemp,
				Value:           (*maxTemp + *minTemp) / 2,
			})
		}

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return result, nil
}

// IngestFieldRecords ingests the long-format field export. Expected header:
// field_id,city,county,month,variable,value with months as YYYY-MM.
func (s *IngestionService) IngestFieldRecords(ctx context.Context, filePath string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting field record ingestion", logging.Fields{
		"file_path":  filePath,
		"batch_size": batchSize,
	})

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	result := &IngestionResult{TotalFiles: 1, Errors: make([]string, 0)}
	seenFields := make(map[string]bool)
	pendingFields := make([]models.Field, 0, batchSize)
	batch := make([]models.FieldRecord, 0, batchSize)

	// Field metadata goes in ahead of the records that reference it within
	// every flush, so record inserts satisfy the foreign key on fresh
	// databases no matter how the file size relates to the batch size.
	flush := func() error {
		if len(pendingFields) > 0 {
			if err := s.repo.UpsertFields(ctx, pendingFields); err != nil {
				return fmt.Errorf("failed to upsert fields: %w", err)
			}
			pendingFields = pendingFields[:0]
		}
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.InsertFieldRecords(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(record) < 6 {
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			continue
		}
		result.TotalRecords++

		fieldID := strings.TrimSpace(record[0])
		month, err := time.Parse("2006-01", strings.TrimSpace(record[3]))
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("date_error")
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("value_error")
			continue
		}

		if !seenFields[fieldID] {
			seenFields[fieldID] = true
			pendingFields = append(pendingFields, models.Field{
				FieldID: fieldID,
				City:    strings.ToLower(strings.TrimSpace(record[1])),
				County:  strings.ToLower(strings.TrimSpace(record[2])),
			})
		}
		batch = append(batch, models.FieldRecord{
			FieldID:     fieldID,
			RecordMonth: month,
			Variable:    models.VariableCode(strings.TrimSpace(record[4])),
			Value:       value,
		})

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Field record ingestion completed", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"fields":             len(seenFields),
		"duration_seconds":   result.Duration.Seconds(),
	})

	return result, nil
}

// IngestFieldCrops ingests per-year crop assignments. Expected header:
// field_id,year,crop_code.
func (s *IngestionService) IngestFieldCrops(ctx context.Context, filePath string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	result := &IngestionResult{TotalFiles: 1, Errors: make([]string, 0)}
	batch := make([]models.FieldCrop, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.InsertFieldCrops(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(record) < 3 {
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			continue
		}
		result.TotalRecords++

		year, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("value_error")
			continue
		}
		cropCode, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("value_error")
			continue
		}

		batch = append(batch, models.FieldCrop{
			FieldID:  strings.TrimSpace(record[0]),
			Year:     year,
			CropCode: cropCode,
		})

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[INGEST_COMPLETE] Crop ingestion completed", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
	})

	return result, nil
}
