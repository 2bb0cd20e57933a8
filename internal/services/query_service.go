package services

import (
	"context"
	"errors"
	"time"

	"agriwater-platform/internal/aggregate"
	"agriwater-platform/internal/chart"
	"agriwater-platform/internal/interpreter"
	"agriwater-platform/internal/models"
	"agriwater-platform/internal/query"
	"agriwater-platform/internal/repository"
	"agriwater-platform/internal/validation"
	"agriwater-platform/pkg/logging"
	"agriwater-platform/pkg/metrics"
)

// QueryService runs the full pipeline: free-text question to chart-ready
// result. The language model only ever appears at the front; everything
// after normalization is deterministic.
type QueryService struct {
	interp     interpreter.Interpreter
	normalizer *query.Normalizer
	router     *query.Router
	resolver   *query.Resolver
	aggregator *aggregate.Aggregator
	repo       repository.DataRepository
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewQueryService creates a new query service
func NewQueryService(
	interp interpreter.Interpreter,
	normalizer *query.Normalizer,
	router *query.Router,
	resolver *query.Resolver,
	aggregator *aggregate.Aggregator,
	repo repository.DataRepository,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *QueryService {
	return &QueryService{
		interp:     interp,
		normalizer: normalizer,
		router:     router,
		resolver:   resolver,
		aggregator: aggregator,
		repo:       repo,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// Ask interprets a free-text question and runs the resulting intent.
func (s *QueryService) Ask(ctx context.Context, question string) (*models.QueryResult, error) {
	intent, err := s.interp.Interpret(ctx, question)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, *intent)
}

// Resolve runs normalization, routing, and resolution without fetching
// data. Used by callers that want to preview or debug how an intent binds.
func (s *QueryService) Resolve(ctx context.Context, intent models.Intent) (*models.ResolvedQuery, error) {
	ni := s.normalizer.Normalize(intent)

	ds, err := s.router.Route(ni)
	if err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}
	s.metrics.RecordRoutingDecision(string(ds), routingReason(ni))

	resolved, err := s.resolver.Resolve(ni, ds)
	if err != nil {
		s.recordRejection(ctx, err)
		return nil, err
	}
	return resolved, nil
}

// Run executes a structured intent end to end.
func (s *QueryService) Run(ctx context.Context, intent models.Intent) (*models.QueryResult, error) {
	startTime := time.Now()
	defer func() {
		s.metrics.QueryDuration.Observe(time.Since(startTime).Seconds())
	}()

	s.logger.Info(ctx, "[QUERY_START] Processing intent", logging.Fields{
		"task":      intent.Task,
		"location":  intent.Location,
		"variables": intent.Variables,
	})

	resolved, err := s.Resolve(ctx, intent)
	if err != nil {
		s.metrics.RecordQuery(intent.Task, "rejected")
		return nil, err
	}

	s.logger.Info(ctx, "[RESOLVE_COMPLETE] Query bound", logging.Fields{
		"dataset":   string(resolved.Dataset),
		"geography": resolved.Geography.Name,
		"geo_type":  string(resolved.Geography.Type),
		"variables": resolved.Variables,
		"start":     resolved.Start.Format("2006-01-02"),
		"end":       resolved.End.Format("2006-01-02"),
		"crop_code": resolved.CropCode,
	})

	rows, err := s.fetch(ctx, *resolved)
	if err != nil {
		s.metrics.RecordQuery(string(resolved.Task), "data_error")
		s.logger.Error(ctx, "[FETCH_ERROR] Data fetch failed", logging.Fields{
			"dataset": string(resolved.Dataset),
		}, err)
		return nil, err
	}

	result := &models.QueryResult{
		Query:    *resolved,
		Warnings: resolved.Warnings,
	}

	if len(rows) == 0 {
		// Well-formed query, zero matching rows. Terminal state, not an
		// error.
		result.Empty = true
		s.metrics.EmptyResultsTotal.Inc()
		s.metrics.RecordQuery(string(resolved.Task), "empty")
		s.logger.Info(ctx, "[QUERY_EMPTY] No rows matched", logging.Fields{
			"dataset":   string(resolved.Dataset),
			"geography": resolved.Geography.Name,
		})
		return result, nil
	}

	result.Series = s.aggregator.Aggregate(*resolved, rows)
	result.Report = validation.Validate(*resolved, rows)
	result.Warnings = append(result.Warnings, result.Report.Warnings...)

	layout := chart.SelectLayout(*resolved, result.Series)
	result.Layout = &layout
	s.metrics.RecordLayoutDecision(string(layout.Kind))

	s.metrics.RecordQuery(string(resolved.Task), "ok")
	s.logger.Info(ctx, "[QUERY_COMPLETE] Query finished", logging.Fields{
		"rows":        len(rows),
		"series":      len(result.Series),
		"layout":      string(layout.Kind),
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	return result, nil
}

// fetch dispatches to the fetcher for the resolved dataset and task.
func (s *QueryService) fetch(ctx context.Context, q models.ResolvedQuery) ([]models.DataRow, error) {
	if q.Task == models.TaskCropSummary {
		return s.repo.FetchCropCounts(ctx, q.Geography, q.Start.Year())
	}
	switch q.Dataset {
	case models.DatasetStationWeather:
		return s.repo.FetchStationRows(ctx, q.Geography.Name, q.Variables, q.Start, q.End)
	default:
		return s.repo.FetchFieldRows(ctx, q.Geography, q.Variables, q.Start, q.End, q.CropCode)
	}
}

// recordRejection logs a typed resolution failure and counts it by kind.
func (s *QueryService) recordRejection(ctx context.Context, err error) {
	var resErr query.ResolutionError
	if errors.As(err, &resErr) {
		s.metrics.RecordResolutionError(string(resErr.Kind()))
		s.logger.Warn(ctx, "[QUERY_REJECTED] Query failed resolution", logging.Fields{
			"kind":   string(resErr.Kind()),
			"reason": resErr.Error(),
		})
		return
	}
	s.logger.Error(ctx, "[QUERY_REJECTED] Query failed resolution", logging.Fields{}, err)
}

func routingReason(ni models.NormalizedIntent) string {
	switch {
	case ni.DatasetHint != "":
		return "hint"
	case ni.Task == models.TaskCropSummary:
		return "crop_summary"
	default:
		return "variables"
	}
}
