package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"pdbench/internal/logging"
	"pdbench/internal/ui"
)

// RunCmd starts the interactive session browser
type RunCmd struct{}

// Run executes the TUI
func (r *RunCmd) Run(container *Container) error {
	logPanel := ui.NewLogPanel(container.LogChannel)

	logging.Logger.Debug("Initializing Bubble Tea program")
	p := tea.NewProgram(
		ui.NewModel(
			container.SessionService,
			container.RunService,
			container.PreviewService,
			logPanel,
		),
		tea.WithAltScreen(),
	)

	logging.Logger.Info("Starting TUI program")
	if _, err := p.Run(); err != nil {
		logging.Logger.Error("TUI program error", "error", err)
		return fmt.Errorf("error running program: %w", err)
	}

	logging.Logger.Info("TUI program exited normally")
	return nil
}
