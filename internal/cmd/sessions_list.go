package cmd

import (
	"fmt"
)

// SessionsListCmd lists all sessions
type SessionsListCmd struct{}

// Run executes the list command
func (s *SessionsListCmd) Run(container *Container) error {
	sessions := container.SessionService.Sessions().List()
	if len(sessions) == 0 {
		fmt.Println("No sessions")
		return nil
	}

	currentID := container.SessionService.Sessions().CurrentID()
	for _, sess := range sessions {
		marker := " "
		if sess.ID == currentID {
			marker = "*"
		}
		images := "-"
		if sess.Images != nil {
			images = fmt.Sprintf("%d", sess.Images.Count())
		}
		fmt.Printf("%s %-36s  %-30s  images:%-3s  runs:%-3d  %s\n",
			marker, sess.ID, sess.Name, images, len(sess.Runs),
			sess.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
