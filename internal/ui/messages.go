package ui

import (
	"pdbench/internal/adapters/logstream"
	"pdbench/internal/domain"
)

// Action messages emitted by components. Model handles these in Update.

// QuitMsg requests quitting the application
type QuitMsg struct{}

// ShowHelpMsg requests showing the help screen
type ShowHelpMsg struct{}

// SelectSessionMsg requests making a session current
type SelectSessionMsg struct {
	SessionID string
}

// NewSessionMsg requests creating a fresh session
type NewSessionMsg struct{}

// DeleteSessionMsg requests the delete confirmation for a session
type DeleteSessionMsg struct {
	SessionID string
	Name      string
}

// SaveFavoriteMsg requests the favorite save dialog for the current session
type SaveFavoriteMsg struct{}

// ToggleLogsMsg requests toggling the live log panel
type ToggleLogsMsg struct{}

// Async result messages.

// sessionsRefreshedMsg carries the rebuilt item list after a mutation
type sessionsRefreshedMsg struct{}

// previewReadyMsg carries a generated (or cached) preview
type previewReadyMsg struct {
	Preview *domain.CachedPreview
}

// runFinishedMsg carries the outcome of an analysis run
type runFinishedMsg struct {
	Run *domain.AnalysisRun
	Err error
}

// logReceivedMsg carries one frame from the live-log channel
type logReceivedMsg struct {
	Message logstream.Message
	OK      bool
}

// errMsg wraps a failed operation for display
type errMsg struct {
	Err error
}
