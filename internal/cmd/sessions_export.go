package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"pdbench/internal/domain"
)

// SessionsExportCmd exports one session to a JSON document
type SessionsExportCmd struct {
	ID     string `arg:"" help:"ID of the session to export"`
	Output string `help:"Output file (default: <id>.json)" short:"o"`
}

// Run executes the export command
func (s *SessionsExportCmd) Run(container *Container) error {
	data, err := container.SessionService.ExportSession(s.ID)
	if err != nil {
		return err
	}

	out := s.Output
	if out == "" {
		out = s.ID + ".json"
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	fmt.Printf("Exported session to %s (%d bytes)\n", out, len(data))
	return nil
}

// SessionsExportAllCmd exports the whole library
type SessionsExportAllCmd struct {
	Output string `help:"Output file" short:"o" default:"pdbench-export.json"`
}

// Run executes the export-all command
func (s *SessionsExportAllCmd) Run(container *Container) error {
	data, err := container.SessionService.ExportAllSessions()
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Output, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	fmt.Printf("Exported all sessions to %s (%d bytes)\n", s.Output, len(data))
	return nil
}

// SessionsImportCmd imports a previously exported session
type SessionsImportCmd struct {
	File string `arg:"" help:"Export file to import" type:"existingfile"`
}

// Run executes the import command
func (s *SessionsImportCmd) Run(container *Container) error {
	data, err := os.ReadFile(s.File)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	sess, err := container.SessionService.ImportSession(context.Background(), data)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidImport) {
			return fmt.Errorf("%s is not a valid session export: %w", s.File, err)
		}
		return err
	}
	fmt.Printf("Imported session '%s' (%s)\n", sess.Name, sess.ID)
	return nil
}

// SessionsPruneCmd reports what the load-time integrity pass did. The pass
// itself runs on every startup; this command just makes it visible.
type SessionsPruneCmd struct{}

// Run executes the prune command
func (s *SessionsPruneCmd) Run(container *Container) error {
	count := container.SessionService.Sessions().Count()
	fmt.Printf("%d valid session(s) after integrity pass\n", count)
	fmt.Println("Sessions without images and runs are removed automatically at load.")
	return nil
}
