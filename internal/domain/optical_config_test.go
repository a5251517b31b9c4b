package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometrySignature_StableForEqualConfigs(t *testing.T) {
	a := DefaultOpticalConfig(3)
	b := DefaultOpticalConfig(3)

	sigA, err := a.GeometrySignature()
	require.NoError(t, err)
	sigB, err := b.GeometrySignature()
	require.NoError(t, err)

	assert.Equal(t, sigA, sigB)
}

func TestGeometrySignature_ChangesOnGeometryFields(t *testing.T) {
	base := DefaultOpticalConfig(3)
	baseSig, err := base.GeometrySignature()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *OpticalConfig)
	}{
		{"obscuration", func(c *OpticalConfig) { c.Obscuration = 0.3 }},
		{"pupil type", func(c *OpticalConfig) { c.PupilType = 1 }},
		{"flattening", func(c *OpticalConfig) { c.Flattening = 0.9 }},
		{"angle", func(c *OpticalConfig) { c.Angle = 15.0 }},
		{"nedges", func(c *OpticalConfig) { c.NEdges = 6 }},
		{"spider arms", func(c *OpticalConfig) { c.SpiderArms = []float64{0.05} }},
		{"edgeblur", func(c *OpticalConfig) { c.EdgeblurPercent = 5.0 }},
		{"wavelength", func(c *OpticalConfig) { c.Wvl = 650e-9 }},
		{"f-ratio", func(c *OpticalConfig) { c.FRatio = 20.0 }},
		{"pixel size", func(c *OpticalConfig) { c.PixelSize = 5e-6 }},
		{"grid size", func(c *OpticalConfig) { n := 256; c.N = &n }},
		{"illum weights", func(c *OpticalConfig) { c.Illum[0] = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base.Clone()
			tt.mutate(&cfg)
			sig, err := cfg.GeometrySignature()
			require.NoError(t, err)
			assert.NotEqual(t, baseSig, sig, "mutation should change the signature")
		})
	}
}

func TestGeometrySignature_IgnoresNonGeometryFields(t *testing.T) {
	base := DefaultOpticalConfig(3)
	baseSig, err := base.GeometrySignature()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *OpticalConfig)
	}{
		{"crop center", func(c *OpticalConfig) { x := 128; c.XC = &x }},
		{"defocus distances", func(c *OpticalConfig) { c.DefocZ[0] = 1e-3 }},
		{"object fwhm", func(c *OpticalConfig) { c.ObjectFWHMPix = 2.5 }},
		{"object shape", func(c *OpticalConfig) { c.ObjectShape = "disk" }},
		{"basis", func(c *OpticalConfig) { c.Basis = "zernike" }},
		{"jmax", func(c *OpticalConfig) { c.JMax = 100 }},
		{"initial phase", func(c *OpticalConfig) { c.InitialPhase = []float64{0.1, 0.2} }},
		{"initial focscale", func(c *OpticalConfig) { f := 1.01; c.InitialFocScale = &f }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base.Clone()
			tt.mutate(&cfg)
			sig, err := cfg.GeometrySignature()
			require.NoError(t, err)
			assert.Equal(t, baseSig, sig, "mutation must not invalidate the preview")
		})
	}
}

func TestClone_DeepCopiesSlicesAndPointers(t *testing.T) {
	n := 128
	foc := 1.02
	orig := DefaultOpticalConfig(2)
	orig.N = &n
	orig.InitialPhase = []float64{0.1, 0.2}
	orig.InitialFocScale = &foc

	clone := orig.Clone()
	clone.Illum[0] = 99.0
	clone.InitialPhase[0] = 99.0
	*clone.N = 512
	*clone.InitialFocScale = 2.0

	assert.Equal(t, 1.0, orig.Illum[0])
	assert.Equal(t, 0.1, orig.InitialPhase[0])
	assert.Equal(t, 128, *orig.N)
	assert.Equal(t, 1.02, *orig.InitialFocScale)
}

func TestClearInitials(t *testing.T) {
	foc := 1.01
	cfg := DefaultOpticalConfig(2)
	cfg.InitialPhase = []float64{0.1}
	cfg.InitialIllum = []float64{1.0}
	cfg.InitialFocScale = &foc
	require.True(t, cfg.HasInitials())

	cfg.ClearInitials()

	assert.False(t, cfg.HasInitials())
	assert.Nil(t, cfg.InitialPhase)
	assert.Nil(t, cfg.InitialFocScale)
}

func TestDefaultOpticalConfig_SizesFollowImageCount(t *testing.T) {
	cfg := DefaultOpticalConfig(4)

	assert.Len(t, cfg.Illum, 4)
	assert.Len(t, cfg.DefocZ, 4)
	for _, w := range cfg.Illum {
		assert.Equal(t, 1.0, w)
	}
	assert.Equal(t, "eigen", cfg.Basis)
	assert.Equal(t, 55, cfg.JMax)
}
