package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pdbench/internal/domain"
	"pdbench/internal/logging"
	"pdbench/internal/ports"
	"pdbench/internal/repository"
)

// PreviewService keeps the expensive pupil/illumination preview coherent
// with configuration edits. A cached preview is served as long as the
// geometry-affecting subset of the configuration is unchanged; anything else
// (object shape, continuation seeds) never invalidates it.
type PreviewService struct {
	sessions *repository.Sessions
	solver   ports.Solver
	group    singleflight.Group
}

// NewPreviewService creates a new PreviewService.
func NewPreviewService(sessions *repository.Sessions, solver ports.Solver) *PreviewService {
	return &PreviewService{
		sessions: sessions,
		solver:   solver,
	}
}

// IsStale reports whether the session's cached preview no longer matches its
// live configuration. A session without a preview or config counts as stale.
func (p *PreviewService) IsStale(sess domain.Session) bool {
	if sess.CurrentConfig == nil || sess.LastPreview == nil {
		return true
	}
	return sess.LastPreview.Stale(*sess.CurrentConfig)
}

// Preview returns the pupil/illumination preview for the session. On a cache
// hit the stored artifact is returned with no remote call. On a miss it asks
// the solver, stores the result against the exact config that produced it,
// and persists the session. Concurrent misses for the same signature
// collapse into one remote call.
func (p *PreviewService) Preview(ctx context.Context, sessionID string) (*domain.CachedPreview, error) {
	sess, ok := p.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if sess.Images == nil {
		return nil, domain.ErrNoImages
	}
	if sess.CurrentConfig == nil {
		return nil, domain.ErrNoConfig
	}

	sig, err := sess.CurrentConfig.GeometrySignature()
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint config: %w", err)
	}

	if sess.LastPreview != nil && sess.LastPreview.Signature == sig {
		logging.Logger.Debug("preview cache hit", "session", sessionID, "signature", sig)
		return sess.LastPreview, nil
	}

	key := sessionID + ":" + strconv.FormatUint(sig, 10)
	result, err, _ := p.group.Do(key, func() (any, error) {
		return p.refresh(ctx, sessionID, sig)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.CachedPreview), nil
}

func (p *PreviewService) refresh(ctx context.Context, sessionID string, sig uint64) (*domain.CachedPreview, error) {
	// Re-read so the request reflects the latest committed config
	sess, ok := p.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cfg := sess.CurrentConfig.Clone()

	resp, err := p.solver.PreviewConfig(ctx, sess.Images.Images, cfg)
	if err != nil {
		return nil, fmt.Errorf("preview failed: %w", err)
	}

	cached := &domain.CachedPreview{
		Config:      cfg,
		Signature:   sig,
		Preview:     *resp,
		GeneratedAt: time.Now(),
	}

	// The session may have moved on while the solver ran; derive the next
	// state from the latest committed one.
	latest, ok := p.sessions.Get(sessionID)
	if !ok {
		logging.Logger.Info("session deleted during preview, result discarded", "session", sessionID)
		return cached, nil
	}
	next := latest.Clone()
	next.LastPreview = cached
	next.UpdatedAt = time.Now()
	if err := p.sessions.Put(ctx, next); err != nil {
		return nil, err
	}
	return cached, nil
}

// Debouncer coalesces bursts of calls into one, fired after a quiet period.
// Used by UIs so config keystrokes don't flood the solver with preview
// requests. A pending call is discarded by the next Trigger or by Cancel.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the quiet period, replacing any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel discards the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
