package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdbench/internal/adapters/storage"
	"pdbench/internal/domain"
	"pdbench/internal/ports"
	"pdbench/internal/repository"
)

// Full lifecycle over a real file store: create, attach, preview, analyze,
// continue, favorite, export/import, and the load-time integrity pass.
func TestWorkflow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	storePath := filepath.Join(t.TempDir(), "store.json")

	store, err := storage.NewFileStore(storePath, 0)
	require.NoError(t, err)
	sessions, err := repository.LoadSessions(ctx, store)
	require.NoError(t, err)
	favorites, err := repository.LoadFavorites(ctx, store)
	require.NoError(t, err)

	solver := &mockSolver{}
	sessionSvc := NewSessionService(sessions, favorites, solver)
	runSvc := NewRunService(sessions, solver)
	previewSvc := NewPreviewService(sessions, solver)

	// Create a session and one that stays empty.
	sess, err := sessionSvc.CreateSession(ctx, "experiment A")
	require.NoError(t, err)
	empty, err := sessionSvc.CreateSession(ctx, "scratch")
	require.NoError(t, err)
	require.NoError(t, sessions.SetCurrent(ctx, sess.ID))

	// Attach a dataset.
	parsed := sampleImages()
	solver.On("ParseImages", mock.Anything, mock.Anything).Return(&parsed, nil).Once()
	_, err = sessionSvc.AttachImages(ctx, []ports.UploadFile{{Name: "d.fits", Data: []byte{1}}})
	require.NoError(t, err)

	// Preview, then verify the cache short-circuits.
	solver.On("PreviewConfig", mock.Anything, mock.Anything, mock.Anything).
		Return(samplePreviewResponse(), nil).Once()
	_, err = previewSvc.Preview(ctx, sess.ID)
	require.NoError(t, err)
	_, err = previewSvc.Preview(ctx, sess.ID)
	require.NoError(t, err)
	solver.AssertNumberOfCalls(t, "PreviewConfig", 1)

	// First analysis, then a continued one threaded to it.
	solver.On("RunSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(sampleSearchResponse(), nil)
	first, err := runSvc.RunAnalysis(ctx, domain.DefaultSearchFlags(), nil)
	require.NoError(t, err)
	require.NoError(t, runSvc.ContinueFromRun(ctx, first.ID))

	current, _ := sessionSvc.CurrentSession()
	assert.True(t, current.CurrentConfig.HasInitials())

	second, err := runSvc.RunAnalysis(ctx, domain.DefaultSearchFlags(), &first.ID)
	require.NoError(t, err)
	require.NotNil(t, second.ParentRunID)
	assert.Equal(t, first.ID, *second.ParentRunID)

	// Continuation must not stale the preview: seeds are outside geometry.
	current, _ = sessionSvc.CurrentSession()
	assert.False(t, previewSvc.IsStale(current))

	// Snapshot the config, export the session, import it back.
	fav, err := sessionSvc.SaveFavoriteConfig(ctx, "converged", "after 2 runs")
	require.NoError(t, err)

	data, err := sessionSvc.ExportSession(sess.ID)
	require.NoError(t, err)
	imported, err := sessionSvc.ImportSession(ctx, data)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, imported.ID)
	assert.Len(t, imported.Runs, 2)

	// Reopen the store: the empty session is pruned, everything else kept.
	reloadedSessions, err := repository.LoadSessions(ctx, store)
	require.NoError(t, err)
	reloadedFavorites, err := repository.LoadFavorites(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, 2, reloadedSessions.Count())
	_, ok := reloadedSessions.Get(empty.ID)
	assert.False(t, ok, "never-used session is pruned at load")

	kept, ok := reloadedSessions.Get(sess.ID)
	require.True(t, ok)
	assert.Len(t, kept.Runs, 2)
	assert.NotNil(t, kept.LastPreview)

	_, ok = reloadedFavorites.Get(fav.ID)
	assert.True(t, ok)
}
