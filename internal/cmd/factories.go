package cmd

import (
	"context"
	"fmt"

	"pdbench/internal/adapters/logstream"
	adaptersolver "pdbench/internal/adapters/solver"
	adapterstorage "pdbench/internal/adapters/storage"
	"pdbench/internal/config"
	"pdbench/internal/ports"
	"pdbench/internal/repository"
	"pdbench/internal/services"
)

// Container holds all dependencies for the application
type Container struct {
	SessionService *services.SessionService
	RunService     *services.RunService
	PreviewService *services.PreviewService
	LogChannel     *logstream.Channel

	// Internal - for cleanup only
	store ports.Store
}

// NewContainer creates a new Container with all dependencies wired. The
// storage backend is selected here; everything downstream sees only the
// Store interface.
func NewContainer(settings *config.Settings) (*Container, error) {
	store, err := newStore(settings)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	sessions, err := repository.LoadSessions(ctx, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	favorites, err := repository.LoadFavorites(ctx, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	solver := adaptersolver.NewClient(settings.APIBaseURL)

	return &Container{
		SessionService: services.NewSessionService(sessions, favorites, solver),
		RunService:     services.NewRunService(sessions, solver),
		PreviewService: services.NewPreviewService(sessions, solver),
		LogChannel:     logstream.New(settings.LogStreamURL),
		store:          store,
	}, nil
}

func newStore(settings *config.Settings) (ports.Store, error) {
	switch settings.Backend {
	case config.BackendSQLite:
		return adapterstorage.NewSQLiteStore(settings.StorePath())
	case config.BackendFile:
		return adapterstorage.NewFileStore(settings.StorePath(), settings.QuotaBytes)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", settings.Backend)
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.LogChannel != nil {
		c.LogChannel.Close()
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
