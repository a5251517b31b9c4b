package cmd

import (
	"context"
	"errors"
	"fmt"

	"pdbench/internal/domain"
)

// AnalyzeCmd runs a phase diversity search on the current session
type AnalyzeCmd struct {
	Parent       string  `help:"Run ID to record as the parent of this run"`
	ContinueFrom string  `help:"Overlay fitted results from this run into the config before searching" name:"continue-from"`
	Reset        bool    `help:"Clear initial estimates before searching"`
	DefocZ       bool    `help:"Fit defocus distances" name:"defoc-z"`
	FocScale     bool    `help:"Fit the focal scale" name:"foc-scale"`
	Optax        bool    `help:"Fit the optical axis"`
	NoAmplitude  bool    `help:"Do not fit amplitude" name:"no-amplitude"`
	Background   bool    `help:"Fit per-image backgrounds"`
	NoPhase      bool    `help:"Do not fit the phase" name:"no-phase"`
	Illum        bool    `help:"Fit illumination coefficients"`
	Objsize      bool    `help:"Fit the object size"`
	EstimateSNR  bool    `help:"Estimate signal to noise" name:"estimate-snr"`
	Quiet        bool    `help:"Suppress solver progress output" short:"q"`
	Tolerance    float64 `help:"Convergence tolerance" default:"1e-5"`
}

// Run executes the analyze command
func (a *AnalyzeCmd) Run(container *Container) error {
	ctx := context.Background()

	if a.Reset {
		if err := container.RunService.ResetToInitialConfig(ctx); err != nil {
			return err
		}
	}
	if a.ContinueFrom != "" {
		if err := container.RunService.ContinueFromRun(ctx, a.ContinueFrom); err != nil {
			return err
		}
	}

	flags := domain.DefaultSearchFlags()
	flags.DefocZFlag = a.DefocZ
	flags.FocScaleFlag = a.FocScale
	flags.OptaxFlag = a.Optax
	flags.AmplitudeFlag = !a.NoAmplitude
	flags.BackgroundFlag = a.Background
	flags.PhaseFlag = !a.NoPhase
	flags.IllumFlag = a.Illum
	flags.ObjsizeFlag = a.Objsize
	flags.EstimateSNR = a.EstimateSNR
	flags.Verbose = !a.Quiet
	flags.Tolerance = a.Tolerance

	var parent *string
	if a.Parent != "" {
		parent = &a.Parent
	}

	run, err := container.RunService.RunAnalysis(ctx, flags, parent)
	if err != nil {
		if errors.Is(err, domain.ErrNoImages) {
			return errors.New("current session has no images, attach some first")
		}
		return err
	}

	fmt.Printf("Run %s completed in %dms\n", run.ID, run.Response.DurationMs)
	if len(run.Response.Warnings) > 0 {
		for _, w := range run.Response.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}
	stats := run.Response.Results.RMSStats
	fmt.Printf("  RMS raw=%.2fnm no-tilt=%.2fnm no-tilt-defocus=%.2fnm\n",
		stats.Raw, stats.RawNoTilt, stats.RawNoTiltDef)
	return nil
}
