package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"pdbench/internal/domain"
	"pdbench/internal/logging"
	"pdbench/internal/ports"
	"pdbench/internal/repository"
)

// RunService creates, threads, and removes analysis runs within the current
// session. Runs are append-only: a completed solver invocation is recorded
// immutably, a failed one leaves no trace.
type RunService struct {
	sessions *repository.Sessions
	solver   ports.Solver
	loading  atomic.Bool
}

// NewRunService creates a new RunService.
func NewRunService(sessions *repository.Sessions, solver ports.Solver) *RunService {
	return &RunService{
		sessions: sessions,
		solver:   solver,
	}
}

// IsLoading reports whether an analysis is in flight. UIs disable the run
// action while true; a second RunAnalysis call during that window is a
// caller error and is rejected.
func (r *RunService) IsLoading() bool {
	return r.loading.Load()
}

// RunAnalysis invokes the solver with the current session's images, config,
// and the given flags. On success it appends an immutable AnalysisRun
// (copied config and flags, solver response, lineage via parentRunID) and
// persists the session. Preconditions are checked before any I/O.
func (r *RunService) RunAnalysis(ctx context.Context, flags domain.SearchFlags, parentRunID *string) (*domain.AnalysisRun, error) {
	if !r.loading.CompareAndSwap(false, true) {
		return nil, domain.ErrAnalysisInFlight
	}
	defer r.loading.Store(false)

	sess, ok := r.sessions.Current()
	if !ok {
		return nil, domain.ErrNoCurrentSession
	}
	if sess.Images == nil {
		return nil, domain.ErrNoImages
	}
	if sess.CurrentConfig == nil {
		return nil, domain.ErrNoConfig
	}

	cfg := sess.CurrentConfig.Clone()
	logging.Logger.Info("running analysis",
		"session", sess.ID,
		"images", sess.Images.Count(),
		"continued", cfg.HasInitials())

	resp, err := r.solver.RunSearch(ctx, sess.Images.Images, cfg, flags)
	if err != nil {
		// No run record for a failed analysis
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	var parent *string
	if parentRunID != nil {
		id := *parentRunID
		parent = &id
	}
	run := domain.AnalysisRun{
		ID:          repository.NewID(),
		Timestamp:   time.Now(),
		ParentRunID: parent,
		Config:      cfg,
		Flags:       flags,
		Response:    *resp,
	}

	// The session may have been deleted while the solver ran; in that case
	// the commit target is gone and the result is discarded.
	latest, ok := r.sessions.Get(sess.ID)
	if !ok {
		logging.Logger.Info("session deleted during analysis, result discarded", "session", sess.ID)
		return nil, domain.ErrSessionNotFound
	}

	next := latest.Clone()
	next.Runs = append(next.Runs, run)
	next.UpdatedAt = time.Now()
	if err := r.sessions.Put(ctx, next); err != nil {
		return nil, err
	}

	logging.Logger.Info("analysis recorded",
		"session", sess.ID,
		"run", run.ID,
		"duration_ms", resp.DurationMs,
		"runs_total", len(next.Runs))
	return &run, nil
}

// ContinueFromRun overlays the fitted results of an earlier run onto the
// current config's continuation seeds and commits it as the session's
// configuration. It does not create a run; the next RunAnalysis call records
// the lineage via its parentRunID argument.
func (r *RunService) ContinueFromRun(ctx context.Context, runID string) error {
	sess, ok := r.sessions.Current()
	if !ok {
		return domain.ErrNoCurrentSession
	}
	// Cross-session continuation is not supported; lookup is scoped to the
	// current session only.
	run, ok := sess.FindRun(runID)
	if !ok {
		return domain.ErrRunNotFound
	}
	if sess.CurrentConfig == nil {
		return domain.ErrNoConfig
	}

	res := run.Response.Results
	cfg := sess.CurrentConfig.Clone()
	cfg.InitialPhase = append([]float64(nil), res.Phase...)
	cfg.InitialIllum = append([]float64(nil), res.Illum...)
	cfg.InitialDefocZ = append([]float64(nil), res.DefocZ...)
	cfg.InitialOptaxX = append([]float64(nil), res.OptaxX...)
	cfg.InitialOptaxY = append([]float64(nil), res.OptaxY...)
	focScale := res.FocScale
	cfg.InitialFocScale = &focScale
	objFWHM := res.ObjectFWHMPix
	cfg.InitialObjectFWHMPix = &objFWHM
	cfg.InitialAmplitude = append([]float64(nil), res.Amplitude...)
	cfg.InitialBackground = append([]float64(nil), res.Background...)

	next := sess.Clone()
	next.CurrentConfig = &cfg
	next.UpdatedAt = time.Now()
	if err := r.sessions.Put(ctx, next); err != nil {
		return err
	}

	logging.Logger.Info("continuation primed", "session", sess.ID, "from_run", runID)
	return nil
}

// ResetToInitialConfig clears all continuation seeds from the current
// config, reverting to a fresh starting point. Run history is untouched.
func (r *RunService) ResetToInitialConfig(ctx context.Context) error {
	sess, ok := r.sessions.Current()
	if !ok {
		return domain.ErrNoCurrentSession
	}
	if sess.CurrentConfig == nil {
		return domain.ErrNoConfig
	}

	cfg := sess.CurrentConfig.Clone()
	cfg.ClearInitials()

	next := sess.Clone()
	next.CurrentConfig = &cfg
	next.UpdatedAt = time.Now()
	return r.sessions.Put(ctx, next)
}

// DeleteRun removes a run from the current session's history. Children
// referencing it as parent are neither reparented nor deleted: an unresolved
// parent_run_id is tolerated and simply fails to resolve at read time.
func (r *RunService) DeleteRun(ctx context.Context, runID string) error {
	sess, ok := r.sessions.Current()
	if !ok {
		return domain.ErrNoCurrentSession
	}
	if _, ok := sess.FindRun(runID); !ok {
		return domain.ErrRunNotFound
	}

	next := sess.Clone()
	runs := next.Runs[:0]
	for _, run := range next.Runs {
		if run.ID != runID {
			runs = append(runs, run)
		}
	}
	next.Runs = runs
	next.UpdatedAt = time.Now()
	if err := r.sessions.Put(ctx, next); err != nil {
		return err
	}

	logging.Logger.Info("run deleted", "session", sess.ID, "run", runID)
	return nil
}
