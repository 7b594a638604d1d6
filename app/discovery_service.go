package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/domain/run"
	"gocausal/internal"
	"gocausal/internal/causal/fci"
	"gocausal/internal/profiling"
	"gocausal/ports"
)

// DiscoveryService runs discovery on a data matrix and records the result
type DiscoveryService struct {
	reader   ports.MatrixReader
	runs     ports.RunRepository
	events   ports.RunEvents
	profiler *profiling.DataProfiler
	logger   *internal.Logger
}

// NewDiscoveryService creates a discovery service. reader may be nil when every run is
// given an in-memory matrix.
func NewDiscoveryService(reader ports.MatrixReader, runs ports.RunRepository, logger *internal.Logger) *DiscoveryService {
	return &DiscoveryService{
		reader:   reader,
		runs:     runs,
		profiler: profiling.NewDataProfiler(),
		logger:   internal.OrDefault(logger).With("discovery"),
	}
}

// WithEvents publishes run progress to events
func (s *DiscoveryService) WithEvents(events ports.RunEvents) *DiscoveryService {
	s.events = events
	return s
}

func (s *DiscoveryService) publish(dataset, eventType string, id core.RunID, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(run.Event{
		Dataset:   dataset,
		EventType: eventType,
		RunID:     id,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// DiscoveryRequest defines the inputs for one run
type DiscoveryRequest struct {
	Dataset  string // label stored with the run
	Matrix   *dataset.Matrix
	Params   causal.Params
	Warnings []string // raised while loading the matrix
}

// DiscoverFile loads source through the matrix reader and runs discovery on it
func (s *DiscoveryService) DiscoverFile(ctx context.Context, source string, params causal.Params) (*run.Record, error) {
	if s.reader == nil {
		return nil, fmt.Errorf("no matrix reader configured")
	}
	load, err := s.reader.ReadMatrix(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", source, err)
	}
	return s.Discover(ctx, DiscoveryRequest{
		Dataset:  filepath.Base(source),
		Matrix:   load.Matrix,
		Params:   params,
		Warnings: load.Warnings,
	})
}

// Discover profiles the matrix, runs the pipeline and saves the run record
func (s *DiscoveryService) Discover(ctx context.Context, req DiscoveryRequest) (*run.Record, error) {
	if req.Matrix == nil {
		return nil, fmt.Errorf("%w: no data matrix", core.ErrInsufficientData)
	}
	if err := req.Matrix.Validate(); err != nil {
		return nil, err
	}

	warnings := append([]string(nil), req.Warnings...)
	profile, err := s.profiler.ProfileMatrix(req.Matrix)
	if err != nil {
		// Profiling never blocks a run.
		s.logger.Warn("profiling %s: %v", req.Dataset, err)
	} else {
		warnings = append(warnings, profile.Warnings...)
	}
	for _, w := range warnings {
		s.logger.Warn("%s: %s", req.Dataset, w)
	}

	rows, cols := req.Matrix.Dims()
	s.publish(req.Dataset, run.EventStarted, "", map[string]interface{}{"observations": rows, "variables": cols})

	result, err := fci.Discover(ctx, req.Matrix, req.Params, s.logger)
	if err != nil {
		s.publish(req.Dataset, run.EventFailed, "", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	record, err := NewRecord(req, result, warnings)
	if err != nil {
		return nil, err
	}
	if err := s.runs.Save(ctx, record); err != nil {
		s.publish(req.Dataset, run.EventFailed, record.ID, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("saving run %s: %w", record.ID, err)
	}
	s.publish(req.Dataset, run.EventCompleted, record.ID, map[string]interface{}{
		"edges":       len(record.PAG.Edges),
		"fingerprint": record.Fingerprint.Fingerprint.String(),
	})
	s.logger.Info("run %s saved: %d edges, fingerprint %s", record.ID, len(record.PAG.Edges), record.Fingerprint.Fingerprint.Short())
	return record, nil
}

// NewRecord builds the run record for a finished pipeline result
func NewRecord(req DiscoveryRequest, result *fci.Result, warnings []string) (*run.Record, error) {
	fingerprint, err := run.NewRunFingerprint(req.Matrix.Fingerprint(), req.Params, result.PAG)
	if err != nil {
		return nil, err
	}
	rows, cols := req.Matrix.Dims()
	return &run.Record{
		ID:           core.NewRunID(),
		Dataset:      req.Dataset,
		Observations: rows,
		Variables:    cols,
		Params:       req.Params,
		PAG:          result.PAG,
		Warnings:     warnings,
		Timings: run.Timings{
			SkeletonMS:    milliseconds(result.Timings.Skeleton),
			OrientationMS: milliseconds(result.Timings.Orientation),
			TotalMS:       milliseconds(result.Timings.Total),
		},
		Fingerprint: fingerprint,
		CreatedAt:   core.Now(),
	}, nil
}

// GetRun returns a stored run
func (s *DiscoveryService) GetRun(ctx context.Context, id core.RunID) (*run.Record, error) {
	return s.runs.Get(ctx, id)
}

// ListRuns returns stored runs, newest first
func (s *DiscoveryService) ListRuns(ctx context.Context, filters ports.RunFilters) ([]run.Summary, error) {
	return s.runs.List(ctx, filters)
}

// Edges returns a run's edges, optionally narrowed to one variable of interest. The
// variable must be one of the run's nodes.
func (s *DiscoveryService) Edges(ctx context.Context, id core.RunID, filter ports.EdgeFilter) ([]causal.ProjectedEdge, error) {
	if filter.Variable != "" {
		record, err := s.runs.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !hasNode(record.PAG, filter.Variable) {
			return nil, fmt.Errorf("%w: %q in run %s", core.ErrVariableNotFound, filter.Variable, id)
		}
	}
	return s.runs.Edges(ctx, id, filter)
}

func hasNode(pag *causal.PAG, name string) bool {
	for _, n := range pag.Nodes {
		if n.Name == name {
			return true
		}
	}
	return false
}

func milliseconds(d time.Duration) int64 {
	return d.Milliseconds()
}
