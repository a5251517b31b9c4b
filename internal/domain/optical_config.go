package domain

import (
	"github.com/mitchellh/hashstructure/v2"
)

// OpticalConfig holds the physical and numerical parameters of one optical
// setup. It is a value type: comparisons are structural, and every consumer
// that stores one must store a copy (see Clone).
//
// JSON field names match the compute API request model so the same struct is
// used for persistence, export files, and the wire.
type OpticalConfig struct {
	XC     *int      `json:"xc"`
	YC     *int      `json:"yc"`
	N      *int      `json:"N"`
	DefocZ []float64 `json:"defoc_z"`

	PupilType       int       `json:"pupilType"` // 0: disk, 1: polygon, 2: ELT
	Flattening      float64   `json:"flattening"`
	Obscuration     float64   `json:"obscuration"`
	Angle           float64   `json:"angle"`
	NEdges          int       `json:"nedges"`
	SpiderAngle     float64   `json:"spiderAngle"`
	SpiderArms      []float64 `json:"spiderArms"`
	SpiderOffset    []float64 `json:"spiderOffset"`
	Illum           []float64 `json:"illum"`
	Wvl             float64   `json:"wvl"`
	FRatio          float64   `json:"fratio"`
	PixelSize       float64   `json:"pixelSize"`
	EdgeblurPercent float64   `json:"edgeblur_percent"`

	ObjectFWHMPix float64 `json:"object_fwhm_pix"`
	ObjectShape   string  `json:"object_shape"`
	Basis         string  `json:"basis"` // eigen, eigenfull, zernike, zonal
	JMax          int     `json:"Jmax"`

	// Continuation seeds, overlaid from a prior run's fitted results.
	InitialPhase         []float64 `json:"initial_phase,omitempty"`
	InitialIllum         []float64 `json:"initial_illum,omitempty"`
	InitialDefocZ        []float64 `json:"initial_defoc_z,omitempty"`
	InitialOptaxX        []float64 `json:"initial_optax_x,omitempty"`
	InitialOptaxY        []float64 `json:"initial_optax_y,omitempty"`
	InitialFocScale      *float64  `json:"initial_focscale,omitempty"`
	InitialObjectFWHMPix *float64  `json:"initial_object_fwhm_pix,omitempty"`
	InitialAmplitude     []float64 `json:"initial_amplitude,omitempty"`
	InitialBackground    []float64 `json:"initial_background,omitempty"`
}

// DefaultOpticalConfig returns the configuration the UI starts from for a
// freshly attached dataset of imageCount images.
func DefaultOpticalConfig(imageCount int) OpticalConfig {
	illum := make([]float64, imageCount)
	defocZ := make([]float64, imageCount)
	for i := range illum {
		illum[i] = 1.0
	}
	return OpticalConfig{
		DefocZ:          defocZ,
		Flattening:      1.0,
		Illum:           illum,
		Wvl:             550e-9,
		FRatio:          18.0,
		PixelSize:       7.4e-6,
		EdgeblurPercent: 3.0,
		ObjectShape:     "gaussian",
		Basis:           "eigen",
		JMax:            55,
	}
}

// Clone returns a deep copy. Slices and pointer fields are duplicated so the
// copy can be mutated without aliasing the original.
func (c OpticalConfig) Clone() OpticalConfig {
	out := c
	out.XC = cloneIntPtr(c.XC)
	out.YC = cloneIntPtr(c.YC)
	out.N = cloneIntPtr(c.N)
	out.DefocZ = cloneFloats(c.DefocZ)
	out.SpiderArms = cloneFloats(c.SpiderArms)
	out.SpiderOffset = cloneFloats(c.SpiderOffset)
	out.Illum = cloneFloats(c.Illum)
	out.InitialPhase = cloneFloats(c.InitialPhase)
	out.InitialIllum = cloneFloats(c.InitialIllum)
	out.InitialDefocZ = cloneFloats(c.InitialDefocZ)
	out.InitialOptaxX = cloneFloats(c.InitialOptaxX)
	out.InitialOptaxY = cloneFloats(c.InitialOptaxY)
	out.InitialFocScale = cloneFloatPtr(c.InitialFocScale)
	out.InitialObjectFWHMPix = cloneFloatPtr(c.InitialObjectFWHMPix)
	out.InitialAmplitude = cloneFloats(c.InitialAmplitude)
	out.InitialBackground = cloneFloats(c.InitialBackground)
	return out
}

// ClearInitials removes all continuation seeds, reverting the configuration
// to a fresh, non-continued starting point.
func (c *OpticalConfig) ClearInitials() {
	c.InitialPhase = nil
	c.InitialIllum = nil
	c.InitialDefocZ = nil
	c.InitialOptaxX = nil
	c.InitialOptaxY = nil
	c.InitialFocScale = nil
	c.InitialObjectFWHMPix = nil
	c.InitialAmplitude = nil
	c.InitialBackground = nil
}

// HasInitials reports whether any continuation seed is set.
func (c OpticalConfig) HasInitials() bool {
	return c.InitialPhase != nil || c.InitialIllum != nil ||
		c.InitialDefocZ != nil || c.InitialOptaxX != nil ||
		c.InitialOptaxY != nil || c.InitialFocScale != nil ||
		c.InitialObjectFWHMPix != nil || c.InitialAmplitude != nil ||
		c.InitialBackground != nil
}

// geometryFields is the explicit allowlist of fields that affect the pupil
// and illumination preview. Anything outside this struct must never
// invalidate a cached preview. Slice fields hash element-wise in order.
type geometryFields struct {
	PupilType       int
	Flattening      float64
	Obscuration     float64
	Angle           float64
	NEdges          int
	SpiderAngle     float64
	SpiderArms      []float64
	SpiderOffset    []float64
	EdgeblurPercent float64
	N               *int
	Wvl             float64
	FRatio          float64
	PixelSize       float64
	Illum           []float64
}

// GeometrySignature returns a fingerprint over the subset of fields that
// determine pupil geometry. Two configs with equal signatures produce the
// same preview.
func (c OpticalConfig) GeometrySignature() (uint64, error) {
	return hashstructure.Hash(geometryFields{
		PupilType:       c.PupilType,
		Flattening:      c.Flattening,
		Obscuration:     c.Obscuration,
		Angle:           c.Angle,
		NEdges:          c.NEdges,
		SpiderAngle:     c.SpiderAngle,
		SpiderArms:      c.SpiderArms,
		SpiderOffset:    c.SpiderOffset,
		EdgeblurPercent: c.EdgeblurPercent,
		N:               c.N,
		Wvl:             c.Wvl,
		FRatio:          c.FRatio,
		PixelSize:       c.PixelSize,
		Illum:           c.Illum,
	}, hashstructure.FormatV2, nil)
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

func cloneIntPtr(in *int) *int {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func cloneFloatPtr(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
