package solver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdbench/internal/domain"
	"pdbench/internal/ports"
)

func TestParseImages_MultipartUpload(t *testing.T) {
	var gotFiles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/parse-images", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		for _, fh := range r.MultipartForm.File["files"] {
			gotFiles = append(gotFiles, fh.Filename)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"images":         [][][]float64{{{1, 2}, {3, 4}}},
			"thumbnails":     []string{"thumb"},
			"stats":          map[string]any{"shape": []int{1, 2, 2}, "dtype": "float64"},
			"original_dtype": "uint16",
			"message":        "parsed 1 image",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	parsed, err := c.ParseImages(context.Background(), []ports.UploadFile{
		{Name: "frame0.fits", Data: []byte{0x1}},
		{Name: "frame1.fits", Data: []byte{0x2}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"frame0.fits", "frame1.fits"}, gotFiles)
	assert.Equal(t, 1, parsed.Count())
	assert.Equal(t, "uint16", parsed.OriginalDtype)
	assert.Equal(t, []int{1, 2, 2}, parsed.Stats.Shape)
}

func TestRunSearch_FlattensFlagsIntoRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search-phase", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(domain.SearchResponse{Success: true, DurationMs: 10})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	flags := domain.DefaultSearchFlags()
	flags.OptaxFlag = true

	_, err := c.RunSearch(context.Background(), [][][]float64{{{1}}}, domain.DefaultOpticalConfig(1), flags)
	require.NoError(t, err)

	// Flags sit at the top level of the request, next to images and config.
	assert.Equal(t, true, got["phase_flag"])
	assert.Equal(t, true, got["optax_flag"])
	assert.Equal(t, false, got["defoc_z_flag"])
	assert.Equal(t, 1e-5, got["tolerance"])
	assert.Contains(t, got, "images")
	assert.Contains(t, got, "config")

	cfg, ok := got["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "eigen", cfg["basis"])
	assert.Equal(t, float64(55), cfg["Jmax"])
}

func TestPreviewConfig_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/preview-config", r.URL.Path)
		json.NewEncoder(w).Encode(domain.PreviewResponse{
			Success:           true,
			PupilImage:        "pupil",
			IlluminationImage: "illum",
			Warnings:          []string{"sampling is marginal"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	out, err := c.PreviewConfig(context.Background(), [][][]float64{{{1}}}, domain.DefaultOpticalConfig(1))
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, "pupil", out.PupilImage)
	assert.Equal(t, []string{"sampling is marginal"}, out.Warnings)
}

func TestAPIError_ExtractsDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "N must be a power of two"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.PreviewConfig(context.Background(), nil, domain.OpticalConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "N must be a power of two")
}

func TestAPIError_FallsBackToRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream gone"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.PreviewConfig(context.Background(), nil, domain.OpticalConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream gone")
}
