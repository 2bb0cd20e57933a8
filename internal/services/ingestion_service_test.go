package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"agriwater-platform/internal/models"
	"agriwater-platform/pkg/logging"
)

// captureIngestRepo records every batch handed to it. It rejects field
// records whose field has not been upserted yet, mirroring the schema's
// foreign key on field_records.field_id.
type captureIngestRepo struct {
	observations []models.StationObservation
	fields       []models.Field
	records      []models.FieldRecord
	crops        []models.FieldCrop
	batchSizes   []int
	calls        []string
	knownFields  map[string]bool
}

func (c *captureIngestRepo) InsertStationObservations(_ context.Context, obs []models.StationObservation) error {
	c.observations = append(c.observations, obs...)
	c.batchSizes = append(c.batchSizes, len(obs))
	return nil
}

func (c *captureIngestRepo) UpsertFields(_ context.Context, fields []models.Field) error {
	if c.knownFields == nil {
		c.knownFields = make(map[string]bool)
	}
	for _, f := range fields {
		c.knownFields[f.FieldID] = true
	}
	c.fields = append(c.fields, fields...)
	c.calls = append(c.calls, "fields")
	return nil
}

func (c *captureIngestRepo) InsertFieldRecords(_ context.Context, records []models.FieldRecord) error {
	for _, r := range records {
		if !c.knownFields[r.FieldID] {
			return fmt.Errorf("foreign key violation: field %q not in fields", r.FieldID)
		}
	}
	c.records = append(c.records, records...)
	c.calls = append(c.calls, "records")
	return nil
}

func (c *captureIngestRepo) InsertFieldCrops(_ context.Context, crops []models.FieldCrop) error {
	c.crops = append(c.crops, crops...)
	return nil
}

func newIngestTest(t *testing.T) (*IngestionService, *captureIngestRepo) {
	t.Helper()
	repo := &captureIngestRepo{}
	logger := logging.NewStructuredLogger("ingest-test", "test", logging.ErrorLevel)
	return NewIngestionService(repo, logger, testCollector()), repo
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func findObservation(obs []models.StationObservation, variable models.VariableCode) (models.StationObservation, bool) {
	for _, o := range obs {
		if o.Variable == variable {
			return o, true
		}
	}
	return models.StationObservation{}, false
}

func TestIngestStationDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "corvallis.csv",
		"date,MX,MN,PC,SR,WS,TU\n"+
			"2023-06-01,82.1,51.3,0.25,612,4.2,61\n"+
			"2023-06-02,85.0,,0,640,3.8,55\n")

	svc, repo := newIngestTest(t)
	result, err := svc.IngestStationDirectory(context.Background(), dir, 100)
	if err != nil {
		t.Fatalf("IngestStationDirectory: %v", err)
	}

	if result.TotalRecords != 2 || result.FailedRecords != 0 {
		t.Errorf("result = %+v, want 2 clean records", result)
	}
	for _, o := range repo.observations {
		if o.StationID != "corvallis" {
			t.Fatalf("StationID = %q, want the file name", o.StationID)
		}
	}

	// Precipitation arrives in inches and is stored in millimeters.
	pc, ok := findObservation(repo.observations, models.VarPrecip)
	if !ok {
		t.Fatal("no precipitation observation captured")
	}
	if pc.Value != 0.25*25.4 {
		t.Errorf("PC = %v, want %v mm", pc.Value, 0.25*25.4)
	}

	// Mean temperature is derived only when both MX and MN are present,
	// so the second row (missing MN) contributes none.
	var meanCount int
	for _, o := range repo.observations {
		if o.Variable == models.VarMeanTemp {
			meanCount++
			if o.Value != (82.1+51.3)/2 {
				t.Errorf("OBM = %v, want %v", o.Value, (82.1+51.3)/2)
			}
		}
	}
	if meanCount != 1 {
		t.Errorf("got %d derived mean rows, want 1", meanCount)
	}
}

func TestIngestStationDirectoryLongHeaderNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hood river.csv",
		"date,max_temp_f,min_temp_f,daily_precip_in\n"+
			"2023-06-01,78.5,49.0,0.1\n")

	svc, repo := newIngestTest(t)
	if _, err := svc.IngestStationDirectory(context.Background(), dir, 100); err != nil {
		t.Fatalf("IngestStationDirectory: %v", err)
	}

	if _, ok := findObservation(repo.observations, models.VarMaxTemp); !ok {
		t.Error("descriptive header names should map to the same variables")
	}
	pc, ok := findObservation(repo.observations, models.VarPrecip)
	if !ok || pc.Value != 0.1*25.4 {
		t.Errorf("PC = %+v, want converted to mm", pc)
	}
}

func TestIngestStationDirectorySkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pendleton.csv",
		"date,MX,MN\n"+
			"not-a-date,80,50\n"+
			"2023-06-01,81,52\n")

	svc, repo := newIngestTest(t)
	result, err := svc.IngestStationDirectory(context.Background(), dir, 100)
	if err != nil {
		t.Fatalf("IngestStationDirectory: %v", err)
	}

	if result.FailedRecords != 1 {
		t.Errorf("FailedRecords = %d, want 1", result.FailedRecords)
	}
	if _, ok := findObservation(repo.observations, models.VarMaxTemp); !ok {
		t.Error("valid row should still be ingested")
	}
}

func TestIngestStationDirectoryBatching(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ontario.csv",
		"date,MX\n"+
			"2023-06-01,90\n"+
			"2023-06-02,91\n"+
			"2023-06-03,92\n")

	svc, repo := newIngestTest(t)
	if _, err := svc.IngestStationDirectory(context.Background(), dir, 2); err != nil {
		t.Fatalf("IngestStationDirectory: %v", err)
	}

	if len(repo.batchSizes) != 2 || repo.batchSizes[0] != 2 || repo.batchSizes[1] != 1 {
		t.Errorf("batch sizes = %v, want [2 1]", repo.batchSizes)
	}
}

func TestIngestStationDirectoryEmptyDirFails(t *testing.T) {
	svc, _ := newIngestTest(t)
	if _, err := svc.IngestStationDirectory(context.Background(), t.TempDir(), 100); err == nil {
		t.Fatal("empty directory should be an error")
	}
}

func TestIngestFieldRecords(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fields.csv",
		"field_id,city,county,month,variable,value\n"+
			"f-100,Hermiston,Umatilla,2023-07,AW,3.4\n"+
			"f-100,Hermiston,Umatilla,2023-08,AW,2.9\n"+
			"f-200,Corvallis,Benton,2023-07,ETa,5.1\n")

	svc, repo := newIngestTest(t)
	result, err := svc.IngestFieldRecords(context.Background(), path, 100)
	if err != nil {
		t.Fatalf("IngestFieldRecords: %v", err)
	}

	if result.SuccessfulRecords != 3 {
		t.Errorf("SuccessfulRecords = %d, want 3", result.SuccessfulRecords)
	}
	// One field row per distinct field, geography lowercased.
	if len(repo.fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(repo.fields))
	}
	for _, f := range repo.fields {
		if f.FieldID == "f-100" && (f.City != "hermiston" || f.County != "umatilla") {
			t.Errorf("field metadata = %+v, want lowercased geography", f)
		}
	}
	want := time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)
	if !repo.records[0].RecordMonth.Equal(want) {
		t.Errorf("RecordMonth = %s, want %s", repo.records[0].RecordMonth, want)
	}
}

func TestIngestFieldRecordsUpsertsFieldsBeforeEachBatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fields.csv",
		"field_id,city,county,month,variable,value\n"+
			"f-100,Hermiston,Umatilla,2023-07,AW,3.4\n"+
			"f-100,Hermiston,Umatilla,2023-08,AW,2.9\n"+
			"f-200,Corvallis,Benton,2023-07,ETa,5.1\n")

	svc, repo := newIngestTest(t)
	// Batch size one forces a record flush per row, so the field metadata
	// must land inside the same flush or the foreign key breaks.
	result, err := svc.IngestFieldRecords(context.Background(), path, 1)
	if err != nil {
		t.Fatalf("IngestFieldRecords: %v", err)
	}

	if result.SuccessfulRecords != 3 {
		t.Errorf("SuccessfulRecords = %d, want 3", result.SuccessfulRecords)
	}
	if len(repo.calls) == 0 || repo.calls[0] != "fields" {
		t.Errorf("call order = %v, want fields before any record insert", repo.calls)
	}
	if len(repo.fields) != 2 {
		t.Errorf("got %d field upserts, want 2 distinct fields", len(repo.fields))
	}
}

func TestIngestFieldCrops(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "crops.csv",
		"field_id,year,crop_code\n"+
			"f-100,2023,43\n"+
			"f-100,bad-year,43\n"+
			"f-200,2023,36\n")

	svc, repo := newIngestTest(t)
	result, err := svc.IngestFieldCrops(context.Background(), path, 100)
	if err != nil {
		t.Fatalf("IngestFieldCrops: %v", err)
	}

	if result.FailedRecords != 1 {
		t.Errorf("FailedRecords = %d, want 1", result.FailedRecords)
	}
	if len(repo.crops) != 2 {
		t.Fatalf("got %d crop rows, want 2", len(repo.crops))
	}
	if repo.crops[0].CropCode != 43 || repo.crops[0].Year != 2023 {
		t.Errorf("first crop row = %+v", repo.crops[0])
	}
}
