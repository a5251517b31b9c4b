package ports

import (
	"context"

	"pdbench/internal/domain"
)

// UploadFile is one raw dataset file (FITS or NPY) to be parsed remotely.
type UploadFile struct {
	Name string
	Data []byte
}

// Solver is the remote stateless compute API. Every call is a pure function
// of its inputs; no server-side session state persists between calls. Calls
// are never retried automatically — retry is always a deliberate user action.
type Solver interface {
	// ParseImages uploads raw files and returns the parsed dataset.
	ParseImages(ctx context.Context, files []UploadFile) (*domain.ParsedImages, error)

	// PreviewConfig renders the pupil/illumination preview for a config
	// without running a search.
	PreviewConfig(ctx context.Context, images [][][]float64, cfg domain.OpticalConfig) (*domain.PreviewResponse, error)

	// RunSearch runs a full phase diversity search.
	RunSearch(ctx context.Context, images [][][]float64, cfg domain.OpticalConfig, flags domain.SearchFlags) (*domain.SearchResponse, error)
}
