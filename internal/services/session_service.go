package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"pdbench/internal/domain"
	"pdbench/internal/logging"
	"pdbench/internal/ports"
	"pdbench/internal/repository"
)

// SessionService is the façade over sessions and favorites: selection,
// config and image mutation, favorites, import/export. Every mutation reads
// the latest committed session, derives the next state, persists it, and
// only then publishes it — never patching a stale captured reference.
type SessionService struct {
	sessions  *repository.Sessions
	favorites *repository.Favorites
	solver    ports.Solver
	validate  *validator.Validate
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessions *repository.Sessions, favorites *repository.Favorites, solver ports.Solver) *SessionService {
	return &SessionService{
		sessions:  sessions,
		favorites: favorites,
		solver:    solver,
		validate:  validator.New(),
	}
}

// Sessions exposes the underlying collection for read-side consumers.
func (s *SessionService) Sessions() *repository.Sessions { return s.sessions }

// Favorites exposes the favorites collection for read-side consumers.
func (s *SessionService) Favorites() *repository.Favorites { return s.favorites }

// CreateSession creates a fresh, empty session and makes it current. An
// empty name gets a timestamp-based default. Note that a session that never
// gets images or runs is pruned at the next load.
func (s *SessionService) CreateSession(ctx context.Context, name string) (domain.Session, error) {
	now := time.Now()
	if name == "" {
		name = "Session " + now.Format("2006-01-02 15:04")
	}

	sess := domain.Session{
		ID:        repository.NewID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Runs:      []domain.AnalysisRun{},
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	if err := s.sessions.SetCurrent(ctx, sess.ID); err != nil {
		return domain.Session{}, err
	}

	logging.Logger.Info("session created", "session", sess.ID, "name", name)
	return sess, nil
}

// LoadSession makes an existing session current.
func (s *SessionService) LoadSession(ctx context.Context, id string) (domain.Session, error) {
	if err := s.sessions.SetCurrent(ctx, id); err != nil {
		return domain.Session{}, err
	}
	sess, _ := s.sessions.Get(id)
	return sess, nil
}

// CurrentSession returns the currently selected session.
func (s *SessionService) CurrentSession() (domain.Session, bool) {
	return s.sessions.Current()
}

// DeleteSession removes a session. When it was the current one the selection
// is cleared; no replacement is auto-selected.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	logging.Logger.Info("session deleted", "session", id)
	return nil
}

// UpdateSessionConfig commits a new configuration for the next run. The
// value is copied into the session, never aliased.
func (s *SessionService) UpdateSessionConfig(ctx context.Context, cfg domain.OpticalConfig) error {
	sess, ok := s.sessions.Current()
	if !ok {
		return domain.ErrNoCurrentSession
	}

	next := sess.Clone()
	copied := cfg.Clone()
	next.CurrentConfig = &copied
	next.UpdatedAt = time.Now()
	return s.sessions.Put(ctx, next)
}

// UpdateSessionImages attaches a parsed dataset to the current session. A
// session getting images for the first time also gets a default
// configuration sized for the dataset.
func (s *SessionService) UpdateSessionImages(ctx context.Context, images domain.ParsedImages) error {
	sess, ok := s.sessions.Current()
	if !ok {
		return domain.ErrNoCurrentSession
	}

	next := sess.Clone()
	copied := images.Clone()
	next.Images = &copied
	if next.CurrentConfig == nil {
		cfg := domain.DefaultOpticalConfig(images.Count())
		next.CurrentConfig = &cfg
	}
	next.UpdatedAt = time.Now()
	if err := s.sessions.Put(ctx, next); err != nil {
		return err
	}

	logging.Logger.Info("images attached",
		"session", sess.ID,
		"count", images.Count(),
		"shape", images.Stats.Shape)
	return nil
}

// AttachImages uploads raw dataset files to the compute API's parser and
// attaches the result to the current session.
func (s *SessionService) AttachImages(ctx context.Context, files []ports.UploadFile) (*domain.ParsedImages, error) {
	if _, ok := s.sessions.Current(); !ok {
		return nil, domain.ErrNoCurrentSession
	}

	parsed, err := s.solver.ParseImages(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("failed to parse images: %w", err)
	}
	if err := s.UpdateSessionImages(ctx, *parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// SaveFavoriteConfig snapshots the current session's configuration under a
// name. The snapshot is a copy; later session edits don't touch it.
func (s *SessionService) SaveFavoriteConfig(ctx context.Context, name, description string) (domain.FavoriteConfig, error) {
	sess, ok := s.sessions.Current()
	if !ok {
		return domain.FavoriteConfig{}, domain.ErrNoCurrentSession
	}
	if sess.CurrentConfig == nil {
		return domain.FavoriteConfig{}, domain.ErrNoConfig
	}

	imageCount := 0
	if sess.Images != nil {
		imageCount = sess.Images.Count()
	}
	fav := domain.FavoriteConfig{
		ID:          repository.NewID(),
		Name:        name,
		Description: description,
		Config:      sess.CurrentConfig.Clone(),
		ImageCount:  imageCount,
		CreatedAt:   time.Now(),
	}
	if err := s.favorites.Put(ctx, fav); err != nil {
		return domain.FavoriteConfig{}, err
	}

	logging.Logger.Info("favorite saved", "favorite", fav.ID, "name", name)
	return fav, nil
}

// LoadFavoriteConfig overwrites the current session's configuration with a
// copy of the favorite's. ImageCount is a hint only; mismatches are allowed.
func (s *SessionService) LoadFavoriteConfig(ctx context.Context, id string) error {
	fav, ok := s.favorites.Get(id)
	if !ok {
		return domain.ErrFavoriteNotFound
	}
	return s.UpdateSessionConfig(ctx, fav.Config)
}

// DeleteFavoriteConfig removes a favorite.
func (s *SessionService) DeleteFavoriteConfig(ctx context.Context, id string) error {
	return s.favorites.Delete(ctx, id)
}

// ListFavorites returns all favorites, oldest first.
func (s *SessionService) ListFavorites() []domain.FavoriteConfig {
	return s.favorites.List()
}

// exportDocument is the whole-library export file shape.
type exportDocument struct {
	Sessions        []domain.Session        `json:"sessions"`
	FavoriteConfigs []domain.FavoriteConfig `json:"favoriteConfigs"`
}

// ExportSession serializes one session to a self-contained JSON document.
func (s *SessionService) ExportSession(id string) ([]byte, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return json.MarshalIndent(sess, "", "  ")
}

// ExportAllSessions serializes the entire collection plus the favorites.
func (s *SessionService) ExportAllSessions() ([]byte, error) {
	doc := exportDocument{
		Sessions:        s.sessions.List(),
		FavoriteConfigs: s.favorites.List(),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// importDocument carries only the fields import validation cares about.
type importDocument struct {
	ID            string                `json:"id" validate:"required"`
	Images        *domain.ParsedImages  `json:"images" validate:"required"`
	CurrentConfig *domain.OpticalConfig `json:"currentConfig" validate:"required"`
}

// ImportSession imports a previously exported session document. The session
// gets a fresh id, import-time timestamps, and a name suffix, so imported
// data can never collide with or overwrite existing local records. A
// malformed document is rejected before any mutation.
func (s *SessionService) ImportSession(ctx context.Context, data []byte) (domain.Session, error) {
	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Session{}, fmt.Errorf("%w: not valid JSON: %v", domain.ErrInvalidImport, err)
	}
	if err := s.validate.Struct(doc); err != nil {
		return domain.Session{}, fmt.Errorf("%w: missing id, images, or currentConfig", domain.ErrInvalidImport)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrInvalidImport, err)
	}

	now := time.Now()
	sess.ID = repository.NewID()
	sess.Name = sess.Name + " (imported)"
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if sess.Runs == nil {
		sess.Runs = []domain.AnalysisRun{}
	}

	if err := s.sessions.Put(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	if err := s.sessions.SetCurrent(ctx, sess.ID); err != nil {
		return domain.Session{}, err
	}

	logging.Logger.Info("session imported", "session", sess.ID, "name", sess.Name, "runs", len(sess.Runs))
	return sess, nil
}
