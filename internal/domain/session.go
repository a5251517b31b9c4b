package domain

import (
	"time"
)

// Session is the unit of work scoping one uploaded dataset: the images, the
// configuration for the next run, the cached preview, and the run history.
// A session exclusively owns its images, runs, and preview; they are never
// shared across sessions.
type Session struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Images        *ParsedImages  `json:"images,omitempty"`
	CurrentConfig *OpticalConfig `json:"currentConfig,omitempty"`
	LastPreview   *CachedPreview `json:"lastPreview,omitempty"`
	Runs          []AnalysisRun  `json:"runs"`
}

// Valid reports whether the session is worth keeping. A session that never
// had images attached and never ran anything is pruned at load time.
func (s Session) Valid() bool {
	return s.Images != nil || len(s.Runs) > 0
}

// FindRun returns the run with the given id, or false when it is not part of
// this session. A run whose ParentRunID no longer resolves is tolerated; the
// lookup simply fails for that parent.
func (s Session) FindRun(id string) (AnalysisRun, bool) {
	for _, r := range s.Runs {
		if r.ID == id {
			return r, true
		}
	}
	return AnalysisRun{}, false
}

// Clone returns a deep copy of the session. Mutations always derive a new
// session from the latest committed one, never patch a shared reference.
func (s Session) Clone() Session {
	out := s
	if s.Images != nil {
		img := s.Images.Clone()
		out.Images = &img
	}
	if s.CurrentConfig != nil {
		cfg := s.CurrentConfig.Clone()
		out.CurrentConfig = &cfg
	}
	if s.LastPreview != nil {
		pv := *s.LastPreview
		pv.Config = s.LastPreview.Config.Clone()
		out.LastPreview = &pv
	}
	if s.Runs != nil {
		out.Runs = make([]AnalysisRun, len(s.Runs))
		copy(out.Runs, s.Runs)
	}
	return out
}

// ParsedImages is an attached dataset as returned by the compute API's image
// parser: raw pixel planes, per-image thumbnails, and summary statistics.
type ParsedImages struct {
	Images        [][][]float64 `json:"images"`
	Thumbnails    []string      `json:"thumbnails"`
	Stats         ImageStats    `json:"stats"`
	OriginalDtype string        `json:"original_dtype"`
}

// Count returns the number of images in the dataset.
func (p ParsedImages) Count() int {
	return len(p.Images)
}

// Clone returns a copy that shares no mutable state with the original. The
// pixel planes are copied per row.
func (p ParsedImages) Clone() ParsedImages {
	out := p
	if p.Images != nil {
		out.Images = make([][][]float64, len(p.Images))
		for i, plane := range p.Images {
			out.Images[i] = make([][]float64, len(plane))
			for j, row := range plane {
				out.Images[i][j] = cloneFloats(row)
			}
		}
	}
	if p.Thumbnails != nil {
		out.Thumbnails = make([]string, len(p.Thumbnails))
		copy(out.Thumbnails, p.Thumbnails)
	}
	out.Stats.Shape = append([]int(nil), p.Stats.Shape...)
	return out
}

// ImageStats summarizes an attached dataset.
type ImageStats struct {
	Shape []int   `json:"shape"`
	Dtype string  `json:"dtype"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// AnalysisRun is the immutable record of one completed solver invocation.
// Config and Flags are copies taken at invocation time; they never alias the
// session's live configuration.
type AnalysisRun struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	ParentRunID *string        `json:"parent_run_id,omitempty"`
	Config      OpticalConfig  `json:"config"`
	Flags       SearchFlags    `json:"flags"`
	Response    SearchResponse `json:"response"`
}

// FavoriteConfig is a named, session-independent configuration snapshot.
// ImageCount is the image count the config was authored for; it is a
// compatibility hint only and is never enforced.
type FavoriteConfig struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Config      OpticalConfig `json:"config"`
	ImageCount  int           `json:"imageCount"`
	CreatedAt   time.Time     `json:"created_at"`
}

// CachedPreview pairs a preview artifact with the exact configuration (and
// its geometry signature) that produced it. Staleness is decided by
// structural comparison of signatures, never by timestamps.
type CachedPreview struct {
	Config      OpticalConfig   `json:"config"`
	Signature   uint64          `json:"signature"`
	Preview     PreviewResponse `json:"preview"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Stale reports whether the cached artifact no longer matches cfg's pupil
// geometry.
func (p CachedPreview) Stale(cfg OpticalConfig) bool {
	sig, err := cfg.GeometrySignature()
	if err != nil {
		return true
	}
	return sig != p.Signature
}
