package cmd

import (
	"fmt"

	"pdbench/internal/domain"
)

// SessionsViewCmd shows one session in detail
type SessionsViewCmd struct {
	ID string `arg:"" help:"ID of the session to view"`
}

// Run executes the view command
func (s *SessionsViewCmd) Run(container *Container) error {
	sess, ok := container.SessionService.Sessions().Get(s.ID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	fmt.Printf("Session: %s\n", sess.Name)
	fmt.Printf("  id:         %s\n", sess.ID)
	fmt.Printf("  created:    %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  updated:    %s\n", sess.UpdatedAt.Format("2006-01-02 15:04:05"))
	if sess.Images != nil {
		fmt.Printf("  images:     %d (%s, mean %.3g, std %.3g)\n",
			sess.Images.Count(), sess.Images.Stats.Dtype,
			sess.Images.Stats.Mean, sess.Images.Stats.Std)
	} else {
		fmt.Println("  images:     none")
	}
	if sess.CurrentConfig != nil {
		cfg := sess.CurrentConfig
		fmt.Printf("  config:     wvl=%.3g fratio=%.3g pixel=%.3g basis=%s jmax=%d\n",
			cfg.Wvl, cfg.FRatio, cfg.PixelSize, cfg.Basis, cfg.JMax)
		if cfg.HasInitials() {
			fmt.Println("              (continuation seeds set)")
		}
	}
	if sess.LastPreview != nil {
		fmt.Printf("  preview:    generated %s",
			sess.LastPreview.GeneratedAt.Format("2006-01-02 15:04:05"))
		if sess.CurrentConfig != nil && sess.LastPreview.Stale(*sess.CurrentConfig) {
			fmt.Print(" (stale)")
		}
		fmt.Println()
	}

	fmt.Printf("  runs:       %d\n", len(sess.Runs))
	for i, run := range sess.Runs {
		parent := "-"
		if run.ParentRunID != nil {
			parent = *run.ParentRunID
			if _, ok := sess.FindRun(parent); !ok {
				// Unresolved parents are tolerated, not repaired
				parent += " (unresolved)"
			}
		}
		fmt.Printf("    [%d] %s  %s  parent:%s  %dms\n",
			i, run.ID, run.Timestamp.Format("2006-01-02 15:04:05"),
			parent, run.Response.DurationMs)
	}
	return nil
}
