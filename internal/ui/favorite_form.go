package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"pdbench/internal/logging"
	"pdbench/internal/services"
)

// FavoriteFormResult contains the result of the favorite save operation
type FavoriteFormResult struct {
	Cancelled   bool
	Error       error
	Name        string
	Description string
}

// FavoriteForm is a Bubble Tea component for saving the current session's
// configuration as a named favorite
type FavoriteForm struct {
	Completed      bool
	form           *huh.Form
	result         FavoriteFormResult
	sessionService *services.SessionService
}

// NewFavoriteForm creates a new favorite save form
func NewFavoriteForm(sessionService *services.SessionService, defaultName string) *FavoriteForm {
	ff := &FavoriteForm{
		sessionService: sessionService,
		result: FavoriteFormResult{
			Name: defaultName,
		},
	}

	ff.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Favorite name").
				Value(&ff.result.Name).
				CharLimit(80).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Description("Optional notes about this configuration").
				Value(&ff.result.Description).
				CharLimit(500),
		),
	)

	return ff
}

func (ff *FavoriteForm) Init() tea.Cmd {
	return ff.form.Init()
}

func (ff *FavoriteForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "esc" || keyMsg.String() == "ctrl+c" {
			ff.result.Cancelled = true
			ff.Completed = true
			return ff, nil
		}
	}

	form, cmd := ff.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		ff.form = f
	}

	if ff.form.State == huh.StateCompleted {
		ff.Completed = true
		if err := ff.saveFavorite(); err != nil {
			logging.Logger.Error("Failed to save favorite", "error", err)
			ff.result.Error = err
		}
		return ff, nil
	}

	return ff, cmd
}

func (ff *FavoriteForm) View() string {
	if ff.form != nil {
		return ff.form.View()
	}
	return ""
}

// Result returns the form result
func (ff *FavoriteForm) Result() FavoriteFormResult {
	return ff.result
}

func (ff *FavoriteForm) saveFavorite() error {
	name := strings.TrimSpace(ff.result.Name)
	description := strings.TrimSpace(ff.result.Description)

	fav, err := ff.sessionService.SaveFavoriteConfig(context.Background(), name, description)
	if err != nil {
		return fmt.Errorf("failed to save favorite: %w", err)
	}

	logging.Logger.Info("Favorite saved", "favorite_id", fav.ID, "name", fav.Name)
	return nil
}
