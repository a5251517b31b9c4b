package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// LogsCmd streams solver log messages to stdout until interrupted
type LogsCmd struct{}

// Run executes the logs command
func (l *LogsCmd) Run(container *Container) error {
	container.LogChannel.SetViewOpen(true)
	container.LogChannel.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case msg, ok := <-container.LogChannel.Messages():
			if !ok {
				return nil
			}
			fmt.Printf("%s %s\n", msg.Timestamp.Format("15:04:05"), msg.Text)
		case <-sigCh:
			return nil
		}
	}
}
