package cmd

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"pdbench/internal/config"
	"pdbench/internal/logging"
)

// CLI is the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`
	Backend     string           `help:"Storage backend (file or sqlite)" enum:",file,sqlite" default:""`
	DataDir     string           `help:"Data directory for the local store"`
	APIURL      string           `help:"Base URL of the compute API" name:"api-url"`

	Run       RunCmd       `cmd:"" help:"Start the pdbench TUI (default)" default:"1"`
	Sessions  SessionsCmd  `cmd:"sessions" help:"Manage sessions (list, view, del, export, import, prune)"`
	Favorites FavoritesCmd `cmd:"favorites" help:"Manage favorite configurations"`
	Attach    AttachCmd    `cmd:"attach" help:"Attach dataset files to the current session"`
	Analyze   AnalyzeCmd   `cmd:"analyze" help:"Run a phase diversity analysis on the current session"`
	Logs      LogsCmd      `cmd:"logs" help:"Stream compute backend logs"`

	// Internal fields (not flags)
	Container *Container       `kong:"-"`
	settings  *config.Settings `kong:"-"`
}

// AfterApply initializes logging and wires dependencies after CLI parsing
func (c *CLI) AfterApply() error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	// Flags win over everything the settings file and env resolved
	if c.Backend != "" {
		settings.Backend = c.Backend
	}
	if c.DataDir != "" {
		settings.DataDir = config.ExpandPath(c.DataDir)
	}
	if c.APIURL != "" {
		settings.APIBaseURL = c.APIURL
	}
	if c.Debug {
		settings.Debug = true
	}
	if c.MaxLogFiles != 1000 {
		settings.MaxLogFiles = c.MaxLogFiles
	}
	c.settings = settings

	logFilePath, err := logging.Initialize(settings.Debug, c.DebugFile, settings.MaxLogFiles)
	if err != nil {
		return err
	}
	if settings.Debug || c.DebugFile != "" {
		os.Setenv("PDBENCH_DEBUG", "1")
		if logFilePath != "" {
			os.Setenv("PDBENCH_DEBUG_FILE", logFilePath)
		}
	}

	// Create the container after logging is initialized so the storage
	// logger bridge has somewhere to write
	container, err := NewContainer(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	c.Container = container

	return nil
}

// Close closes all resources held by the CLI
func (c *CLI) Close() error {
	if c.Container != nil {
		return c.Container.Close()
	}
	return nil
}

// Settings returns the resolved settings.
func (c *CLI) Settings() *config.Settings {
	return c.settings
}
