package domain

// SearchFlags selects which parameter groups the solver fits during a phase
// search. Defaults match the compute API's request model.
type SearchFlags struct {
	DefocZFlag     bool    `json:"defoc_z_flag"`
	FocScaleFlag   bool    `json:"focscale_flag"`
	OptaxFlag      bool    `json:"optax_flag"`
	AmplitudeFlag  bool    `json:"amplitude_flag"`
	BackgroundFlag bool    `json:"background_flag"`
	PhaseFlag      bool    `json:"phase_flag"`
	IllumFlag      bool    `json:"illum_flag"`
	ObjsizeFlag    bool    `json:"objsize_flag"`
	EstimateSNR    bool    `json:"estimate_snr"`
	Verbose        bool    `json:"verbose"`
	Tolerance      float64 `json:"tolerance"`
}

// DefaultSearchFlags returns the standard search: fit phase and amplitude.
func DefaultSearchFlags() SearchFlags {
	return SearchFlags{
		AmplitudeFlag: true,
		PhaseFlag:     true,
		Verbose:       true,
		Tolerance:     1e-5,
	}
}

// ConfigInfo describes the setup the solver derived from a configuration.
type ConfigInfo struct {
	PDiam             float64 `json:"pdiam"`
	NPhi              int     `json:"nphi"`
	SamplingFactor    float64 `json:"sampling_factor"`
	ComputationFormat string  `json:"computation_format"`
	DataFormat        string  `json:"data_format"`
	BasisType         string  `json:"basis_type"`
	PhaseModes        int     `json:"phase_modes"`
}

// PreviewResponse is the cheap, stateless pupil/illumination render.
type PreviewResponse struct {
	Success           bool       `json:"success"`
	ConfigInfo        ConfigInfo `json:"config_info"`
	PupilImage        string     `json:"pupil_image"`
	IlluminationImage string     `json:"illumination_image"`
	Warnings          []string   `json:"warnings"`
}

// SearchResponse is the complete output of one phase diversity search.
type SearchResponse struct {
	Success           bool          `json:"success"`
	ConfigInfo        ConfigInfo    `json:"config_info"`
	PupilImage        string        `json:"pupil_image"`
	IlluminationImage string        `json:"illumination_image"`
	Results           SearchResults `json:"results"`
	DurationMs        int           `json:"duration_ms"`
	Warnings          []string      `json:"warnings"`
}

// SearchResults carries the fitted parameters and derived maps.
type SearchResults struct {
	Phase              []float64     `json:"phase"`
	PhaseMap           [][]float64   `json:"phase_map"`
	PhaseMapNoTilt     [][]float64   `json:"phase_map_notilt"`
	PhaseMapNoTiltDef  [][]float64   `json:"phase_map_notiltdef"`
	PupilMap           [][]float64   `json:"pupilmap"`
	PupilLum           [][]float64   `json:"pupillum"`
	DefocZ             []float64     `json:"defoc_z"`
	FocScale           float64       `json:"focscale"`
	OptaxX             []float64     `json:"optax_x"`
	OptaxY             []float64     `json:"optax_y"`
	OptaxPixels        OptaxPixels   `json:"optax_pixels"`
	Amplitude          []float64     `json:"amplitude"`
	Background         []float64     `json:"background"`
	Illum              []float64     `json:"illum"`
	ObjectFWHMPix      float64       `json:"object_fwhm_pix"`
	ModelImages        [][][]float64 `json:"model_images"`
	ImageDifferences   [][][]float64 `json:"image_differences"`
	RMSStats           RMSStats      `json:"rms_stats"`
	TipTiltDefocusStats TipTiltDefocusStats `json:"tiptilt_defocus_stats"`
}

// OptaxPixels is the optical axis position in detector pixels per image.
type OptaxPixels struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// RMSStats are phase RMS values in nm, raw and illumination-weighted.
type RMSStats struct {
	Raw               float64 `json:"raw"`
	Weighted          float64 `json:"weighted"`
	RawNoTilt         float64 `json:"raw_notilt"`
	WeightedNoTilt    float64 `json:"weighted_notilt"`
	RawNoTiltDef      float64 `json:"raw_notiltdef"`
	WeightedNoTiltDef float64 `json:"weighted_notiltdef"`
}

// TipTiltDefocusStats express the first three modes in physical units.
type TipTiltDefocusStats struct {
	Tip     ModeStats `json:"tip"`
	Tilt    ModeStats `json:"tilt"`
	Defocus ModeStats `json:"defocus"`
}

// ModeStats is one low-order mode in several unit systems. LambdaD is zero
// for defocus, which the API reports without a lambda/D value.
type ModeStats struct {
	NmRMS   float64 `json:"nm_rms"`
	LambdaD float64 `json:"lambda_D,omitempty"`
	Pixels  float64 `json:"pixels"`
	Mm      float64 `json:"mm"`
}
