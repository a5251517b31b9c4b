package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdbench/internal/adapters/storage"
	"pdbench/internal/domain"
	"pdbench/internal/ports"
	"pdbench/internal/repository"
)

// mockSolver is a testify mock for the compute API client.
type mockSolver struct {
	mock.Mock
}

var _ ports.Solver = (*mockSolver)(nil)

func (m *mockSolver) ParseImages(ctx context.Context, files []ports.UploadFile) (*domain.ParsedImages, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParsedImages), args.Error(1)
}

func (m *mockSolver) PreviewConfig(ctx context.Context, images [][][]float64, cfg domain.OpticalConfig) (*domain.PreviewResponse, error) {
	args := m.Called(ctx, images, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PreviewResponse), args.Error(1)
}

func (m *mockSolver) RunSearch(ctx context.Context, images [][][]float64, cfg domain.OpticalConfig, flags domain.SearchFlags) (*domain.SearchResponse, error) {
	args := m.Called(ctx, images, cfg, flags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchResponse), args.Error(1)
}

// newTestRepos builds real repositories over a file store in a temp dir.
func newTestRepos(t *testing.T) (*repository.Sessions, *repository.Favorites) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "store.json"), 0)
	require.NoError(t, err)

	sessions, err := repository.LoadSessions(context.Background(), store)
	require.NoError(t, err)
	favorites, err := repository.LoadFavorites(context.Background(), store)
	require.NoError(t, err)
	return sessions, favorites
}

// sampleImages is a tiny two-image dataset.
func sampleImages() domain.ParsedImages {
	return domain.ParsedImages{
		Images: [][][]float64{
			{{1, 2}, {3, 4}},
			{{5, 6}, {7, 8}},
		},
		Thumbnails:    []string{"a", "b"},
		Stats:         domain.ImageStats{Shape: []int{2, 2, 2}, Dtype: "float64"},
		OriginalDtype: "uint16",
	}
}

// seedCurrentSession creates a session with images and a default config and
// makes it current.
func seedCurrentSession(t *testing.T, sessions *repository.Sessions) domain.Session {
	t.Helper()
	ctx := context.Background()
	images := sampleImages()
	cfg := domain.DefaultOpticalConfig(images.Count())
	sess := domain.Session{
		ID:            repository.NewID(),
		Name:          "bench",
		Images:        &images,
		CurrentConfig: &cfg,
		Runs:          []domain.AnalysisRun{},
	}
	require.NoError(t, sessions.Put(ctx, sess))
	require.NoError(t, sessions.SetCurrent(ctx, sess.ID))
	return sess
}
