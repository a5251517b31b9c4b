package cmd

import (
	"context"
	"fmt"

	"pdbench/internal/domain"
	"pdbench/internal/logging"
)

// SessionsDelCmd deletes a session
type SessionsDelCmd struct {
	Force bool   `help:"Force deletion without confirmation" short:"f"`
	ID    string `arg:"" help:"ID of the session to delete"`
}

// Run executes the del command
func (s *SessionsDelCmd) Run(container *Container) error {
	sess, ok := container.SessionService.Sessions().Get(s.ID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	if !s.Force {
		fmt.Printf("WARNING: this will delete session '%s' with %d run(s)\n", sess.Name, len(sess.Runs))
		fmt.Print("Continue? (y/N): ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := container.SessionService.DeleteSession(context.Background(), s.ID); err != nil {
		logging.Logger.Error("Failed to delete session", "session", s.ID, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Printf("Session '%s' deleted\n", sess.Name)
	return nil
}

// SessionsNewCmd creates a new session
type SessionsNewCmd struct {
	Name string `arg:"" optional:"" help:"Session name"`
}

// Run executes the new command
func (s *SessionsNewCmd) Run(container *Container) error {
	sess, err := container.SessionService.CreateSession(context.Background(), s.Name)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	fmt.Printf("Created session '%s' (%s)\n", sess.Name, sess.ID)
	return nil
}

// SessionsSelectCmd selects the current session
type SessionsSelectCmd struct {
	ID string `arg:"" help:"ID of the session to select"`
}

// Run executes the select command
func (s *SessionsSelectCmd) Run(container *Container) error {
	sess, err := container.SessionService.LoadSession(context.Background(), s.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Selected session '%s'\n", sess.Name)
	return nil
}
