package query

import (
	"fmt"
	"strings"
	"time"

	"agriwater-platform/internal/models"
)

// Resolution errors are data: each carries enough context for a caller to
// render a helpful message and branch on kind. None of them is transient.

// ErrorKind labels a resolution failure for API callers.
type ErrorKind string

const (
	KindRoutingConflict    ErrorKind = "routing_conflict"
	KindLocationNotFound   ErrorKind = "location_not_found"
	KindDateRangeInvalid   ErrorKind = "date_range_invalid"
	KindUnknownVariable    ErrorKind = "unknown_variable"
	KindUnknownCrop        ErrorKind = "unknown_crop"
	KindIncompatibleFilter ErrorKind = "incompatible_filter"
)

// ResolutionError is implemented by every typed failure the core produces.
type ResolutionError interface {
	error
	Kind() ErrorKind
	IsTransient() bool
}

// RoutingConflictError means the requested variables span both datasets and
// no hint disambiguates them.
type RoutingConflictError struct {
	StationFamilies []string
	FieldFamilies   []string
}

func (e *RoutingConflictError) Error() string {
	return fmt.Sprintf(
		"variables span both datasets: %s (station) vs %s (field); add a dataset qualifier",
		strings.Join(e.StationFamilies, ", "), strings.Join(e.FieldFamilies, ", "))
}

func (e *RoutingConflictError) Kind() ErrorKind   { return KindRoutingConflict }
func (e *RoutingConflictError) IsTransient() bool { return false }

// LocationNotFoundError carries the valid-location list for the routed
// dataset so the caller can suggest alternatives.
type LocationNotFoundError struct {
	Dataset  models.Dataset
	Location string
	Valid    []string
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("unknown location %q for dataset %s (valid: %s)",
		e.Location, e.Dataset, strings.Join(e.Valid, ", "))
}

func (e *LocationNotFoundError) Kind() ErrorKind   { return KindLocationNotFound }
func (e *LocationNotFoundError) IsTransient() bool { return false }

// DateRangeInvalidError means the range is inverted, unparseable, or falls
// entirely outside the dataset's coverage.
type DateRangeInvalidError struct {
	Start  time.Time
	End    time.Time
	Reason string
}

func (e *DateRangeInvalidError) Error() string {
	if e.Start.IsZero() && e.End.IsZero() {
		return fmt.Sprintf("invalid date range: %s", e.Reason)
	}
	return fmt.Sprintf("invalid date range %s..%s: %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"), e.Reason)
}

func (e *DateRangeInvalidError) Kind() ErrorKind   { return KindDateRangeInvalid }
func (e *DateRangeInvalidError) IsTransient() bool { return false }

// UnknownVariableError names the exact offending token.
type UnknownVariableError struct {
	Token   string
	Dataset models.Dataset
}

func (e *UnknownVariableError) Error() string {
	if e.Dataset == "" {
		return fmt.Sprintf("unknown variable %q", e.Token)
	}
	return fmt.Sprintf("unknown variable %q for dataset %s", e.Token, e.Dataset)
}

func (e *UnknownVariableError) Kind() ErrorKind   { return KindUnknownVariable }
func (e *UnknownVariableError) IsTransient() bool { return false }

// UnknownCropError names the exact offending token.
type UnknownCropError struct {
	Token string
}

func (e *UnknownCropError) Error() string {
	return fmt.Sprintf("unknown crop %q", e.Token)
}

func (e *UnknownCropError) Kind() ErrorKind   { return KindUnknownCrop }
func (e *UnknownCropError) IsTransient() bool { return false }

// IncompatibleFilterError is the contract violation of filtering a dataset
// by a dimension it does not carry (crop filter on station weather).
type IncompatibleFilterError struct {
	Dataset models.Dataset
	Crop    string
}

func (e *IncompatibleFilterError) Error() string {
	return fmt.Sprintf("crop filter %q is not supported by dataset %s", e.Crop, e.Dataset)
}

func (e *IncompatibleFilterError) Kind() ErrorKind   { return KindIncompatibleFilter }
func (e *IncompatibleFilterError) IsTransient() bool { return false }
