package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pdbench/internal/ports"
)

// AttachCmd uploads image files and attaches them to the current session
type AttachCmd struct {
	Files []string `arg:"" help:"Image files to parse and attach" type:"existingfile"`
}

// Run executes the attach command
func (a *AttachCmd) Run(container *Container) error {
	uploads := make([]ports.UploadFile, 0, len(a.Files))
	for _, path := range a.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		uploads = append(uploads, ports.UploadFile{
			Name: filepath.Base(path),
			Data: data,
		})
	}

	images, err := container.SessionService.AttachImages(context.Background(), uploads)
	if err != nil {
		return err
	}

	fmt.Printf("Attached %d image(s) to current session\n", images.Count())
	return nil
}
