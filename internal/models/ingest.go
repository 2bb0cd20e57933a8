package models

import "time"

// Field is one irrigated field polygon's metadata.
type Field struct {
	FieldID string `db:"field_id"`
	City    string `db:"city"`
	County  string `db:"county"`
}

// FieldCrop records the crop grown on a field in a given year.
type FieldCrop struct {
	FieldID  string `db:"field_id"`
	Year     int    `db:"year"`
	CropCode int    `db:"crop_code"`
}

// StationObservation is one daily value for one station variable.
type StationObservation struct {
	StationID       string       `db:"station_id"`
	ObservationDate time.Time    `db:"observation_date"`
	Variable        VariableCode `db:"variable"`
	Value           float64      `db:"value"`
}

// FieldRecord is one monthly value for one field variable.
type FieldRecord struct {
	FieldID     string       `db:"field_id"`
	RecordMonth time.Time    `db:"record_month"`
	Variable    VariableCode `db:"variable"`
	Value       float64      `db:"value"`
}
