package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdbench/internal/domain"
)

func sampleSearchResponse() *domain.SearchResponse {
	return &domain.SearchResponse{
		Success:    true,
		DurationMs: 1200,
		Results: domain.SearchResults{
			Phase:         []float64{0.1, 0.2, 0.3},
			Illum:         []float64{1.0, 0.98},
			DefocZ:        []float64{0, 1e-3},
			OptaxX:        []float64{0.1, 0.2},
			OptaxY:        []float64{-0.1, -0.2},
			FocScale:      1.01,
			Amplitude:     []float64{0.9, 1.1},
			Background:    []float64{10, 11},
			ObjectFWHMPix: 2.2,
		},
	}
}

func TestRunAnalysis_RecordsImmutableRun(t *testing.T) {
	sessions, _ := newTestRepos(t)
	solver := &mockSolver{}
	service := NewRunService(sessions, solver)
	sess := seedCurrentSession(t, sessions)

	solver.On("RunSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(sampleSearchResponse(), nil)

	flags := domain.DefaultSearchFlags()
	run, err := service.RunAnalysis(context.Background(), flags, nil)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Nil(t, run.ParentRunID)
	assert.Equal(t, flags, run.Flags)

	stored, ok := sessions.Get(sess.ID)
	require.True(t, ok)
	require.Len(t, stored.Runs, 1)
	assert.Equal(t, run.ID, stored.Runs[0].ID)

	// The recorded config must not alias the session's live config.
	cfg := stored.CurrentConfig.Clone()
	cfg.Obscuration = 0.7
	next := stored.Clone()
	next.CurrentConfig = &cfg
	require.NoError(t, sessions.Put(context.Background(), next))

	after, _ := sessions.Get(sess.ID)
	assert.Equal(t, 0.0, after.Runs[0].Config.Obscuration)
}

func TestRunAnalysis_LineageViaParentRunID(t *testing.T) {
	sessions, _ := newTestRepos(t)
	solver := &mockSolver{}
	service := NewRunService(sessions, solver)
	sess := seedCurrentSession(t, sessions)

	solver.On("RunSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(sampleSearchResponse(), nil)

	first, err := service.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), nil)
	require.NoError(t, err)

	second, err := service.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), &first.ID)
	require.NoError(t, err)
	require.NotNil(t, second.ParentRunID)
	assert.Equal(t, first.ID, *second.ParentRunID)

	stored, _ := sessions.Get(sess.ID)
	assert.Len(t, stored.Runs, 2)
}

func TestRunAnalysis_PreconditionsBeforeIO(t *testing.T) {
	ctx := context.Background()

	t.Run("no current session", func(t *testing.T) {
		sessions, _ := newTestRepos(t)
		solver := &mockSolver{}
		service := NewRunService(sessions, solver)

		_, err := service.RunAnalysis(ctx, domain.DefaultSearchFlags(), nil)
		assert.ErrorIs(t, err, domain.ErrNoCurrentSession)
		solver.AssertNotCalled(t, "RunSearch")
	})

	t.Run("no images", func(t *testing.T) {
		sessions, _ := newTestRepos(t)
		solver := &mockSolver{}
		service := NewRunService(sessions, solver)

		cfg := domain.DefaultOpticalConfig(0)
		sess := domain.Session{
			ID:            "s1",
			CurrentConfig: &cfg,
			Runs:          []domain.AnalysisRun{{ID: "keeps-it-valid"}},
		}
		require.NoError(t, sessions.Put(ctx, sess))
		require.NoError(t, sessions.SetCurrent(ctx, sess.ID))

		_, err := service.RunAnalysis(ctx, domain.DefaultSearchFlags(), nil)
		assert.ErrorIs(t, err, domain.ErrNoImages)
		solver.AssertNotCalled(t, "RunSearch")
	})
}

func TestRunAnalysis_FailedSolverLeavesNoTrace(t *testing.T) {
	sessions, _ := newTestRepos(t)
	solver := &mockSolver{}
	service := NewRunService(sessions, solver)
	sess := seedCurrentSession(t, sessions)

	solver.On("RunSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("solver blew up"))

	_, err := service.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), nil)
	require.Error(t, err)

	stored, _ := sessions.Get(sess.ID)
	assert.Empty(t, stored.Runs, "a failed analysis records nothing")
}

func TestRunAnalysis_RejectsConcurrentCalls(t *testing.T) {
	sessions, _ := newTestRepos(t)
	solver := &mockSolver{}
	service := NewRunService(sessions, solver)
	seedCurrentSession(t, sessions)

	started := make(chan struct{})
	release := make(chan struct{})
	solver.On("RunSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return(sampleSearchResponse(), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := service.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), nil)
		assert.NoError(t, err)
	}()

	<-started
	assert.True(t, service.IsLoading())
	_, err := service.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), nil)
	assert.ErrorIs(t, err, domain.ErrAnalysisInFlight)

	close(release)
	wg.Wait()
	assert.False(t, service.IsLoading())
}

func TestRunAnalysis_SessionDeletedMidFlight(t *testing.T) {
	sessions, _ := newTestRepos(t)
	solver := &mockSolver{}
	service := NewRunService(sessions, solver)
	sess := seedCurrentSession(t, sessions)

	solver.On("RunSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, sessions.Delete(context.Background(), sess.ID))
		}).
		Return(sampleSearchResponse(), nil)

	_, err := service.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestContinueFromRun_OverlaysFittedResults(t *testing.T) {
	sessions, _ := newTestRepos(t)
	solver := &mockSolver{}
	service := NewRunService(sessions, solver)
	sess := seedCurrentSession(t, sessions)

	solver.On("RunSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(sampleSearchResponse(), nil)

	run, err := service.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), nil)
	require.NoError(t, err)

	require.NoError(t, service.ContinueFromRun(context.Background(), run.ID))

	stored, _ := sessions.Get(sess.ID)
	cfg := stored.CurrentConfig
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, cfg.InitialPhase)
	assert.Equal(t, []float64{1.0, 0.98}, cfg.InitialIllum)
	assert.Equal(t, []float64{0, 1e-3}, cfg.InitialDefocZ)
	assert.Equal(t, []float64{0.1, 0.2}, cfg.InitialOptaxX)
	assert.Equal(t, []float64{-0.1, -0.2}, cfg.InitialOptaxY)
	require.NotNil(t, cfg.InitialFocScale)
	assert.Equal(t, 1.01, *cfg.InitialFocScale)
	require.NotNil(t, cfg.InitialObjectFWHMPix)
	assert.Equal(t, 2.2, *cfg.InitialObjectFWHMPix)
	assert.Equal(t, []float64{0.9, 1.1}, cfg.InitialAmplitude)
	assert.Equal(t, []float64{10, 11}, cfg.InitialBackground)

	// Non-seed fields are untouched.
	assert.Equal(t, 55, cfg.JMax)
}

func TestContinueFromRun_UnknownRun(t *testing.T) {
	sessions, _ := newTestRepos(t)
	service := NewRunService(sessions, &mockSolver{})
	seedCurrentSession(t, sessions)

	err := service.ContinueFromRun(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestResetToInitialConfig_ClearsSeedsKeepsHistory(t *testing.T) {
	sessions, _ := newTestRepos(t)
	solver := &mockSolver{}
	service := NewRunService(sessions, solver)
	sess := seedCurrentSession(t, sessions)

	solver.On("RunSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(sampleSearchResponse(), nil)

	run, err := service.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), nil)
	require.NoError(t, err)
	require.NoError(t, service.ContinueFromRun(context.Background(), run.ID))

	require.NoError(t, service.ResetToInitialConfig(context.Background()))

	stored, _ := sessions.Get(sess.ID)
	assert.False(t, stored.CurrentConfig.HasInitials())
	assert.Len(t, stored.Runs, 1, "run history is untouched")
}

func TestDeleteRun_ToleratesDanglingParent(t *testing.T) {
	sessions, _ := newTestRepos(t)
	solver := &mockSolver{}
	service := NewRunService(sessions, solver)
	sess := seedCurrentSession(t, sessions)

	solver.On("RunSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(sampleSearchResponse(), nil)

	parent, err := service.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), nil)
	require.NoError(t, err)
	child, err := service.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), &parent.ID)
	require.NoError(t, err)

	// Deleting the parent neither cascades nor reparents.
	require.NoError(t, service.DeleteRun(context.Background(), parent.ID))

	stored, _ := sessions.Get(sess.ID)
	require.Len(t, stored.Runs, 1)
	kept := stored.Runs[0]
	assert.Equal(t, child.ID, kept.ID)
	require.NotNil(t, kept.ParentRunID)
	assert.Equal(t, parent.ID, *kept.ParentRunID)

	// The dangling parent simply fails to resolve.
	_, ok := stored.FindRun(*kept.ParentRunID)
	assert.False(t, ok)
}

func TestDeleteRun_UnknownRun(t *testing.T) {
	sessions, _ := newTestRepos(t)
	service := NewRunService(sessions, &mockSolver{})
	seedCurrentSession(t, sessions)

	err := service.DeleteRun(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
