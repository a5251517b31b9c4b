// Package solver is the HTTP client for the stateless phase diversity
// compute API. The API holds no session state: every call carries the full
// images and configuration.
package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"pdbench/internal/domain"
	"pdbench/internal/logging"
	"pdbench/internal/ports"
)

// Client talks to the compute API. Search calls carry no client-side
// timeout: a search legitimately runs for minutes, and cancellation is only
// by abandonment via the context.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.Solver = (*Client)(nil)

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

type searchRequest struct {
	Images [][][]float64        `json:"images"`
	Config domain.OpticalConfig `json:"config"`
	domain.SearchFlags
}

type previewRequest struct {
	Images [][][]float64        `json:"images"`
	Config domain.OpticalConfig `json:"config"`
}

type parseImagesResponse struct {
	Images        [][][]float64     `json:"images"`
	Thumbnails    []string          `json:"thumbnails"`
	Stats         domain.ImageStats `json:"stats"`
	OriginalDtype string            `json:"original_dtype"`
	Message       string            `json:"message"`
}

func (c *Client) ParseImages(ctx context.Context, files []ports.UploadFile) (*domain.ParsedImages, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := writer.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to build upload request: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to build upload request: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/parse-images", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var parsed parseImagesResponse
	if err := c.do(req, &parsed); err != nil {
		return nil, err
	}

	return &domain.ParsedImages{
		Images:        parsed.Images,
		Thumbnails:    parsed.Thumbnails,
		Stats:         parsed.Stats,
		OriginalDtype: parsed.OriginalDtype,
	}, nil
}

func (c *Client) PreviewConfig(ctx context.Context, images [][][]float64, cfg domain.OpticalConfig) (*domain.PreviewResponse, error) {
	var out domain.PreviewResponse
	err := c.postJSON(ctx, "/api/preview-config", previewRequest{Images: images, Config: cfg}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RunSearch(ctx context.Context, images [][][]float64, cfg domain.OpticalConfig, flags domain.SearchFlags) (*domain.SearchResponse, error) {
	start := time.Now()
	logging.Logger.Info("starting phase search", "images", len(images))

	var out domain.SearchResponse
	err := c.postJSON(ctx, "/api/search-phase", searchRequest{
		Images:      images,
		Config:      cfg,
		SearchFlags: flags,
	}, &out)
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("phase search complete",
		"duration", time.Since(start),
		"reported_ms", out.DurationMs,
		"warnings", len(out.Warnings))
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("compute API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode compute API response: %w", err)
	}
	return nil
}

// apiError extracts FastAPI's {"detail": "..."} error body.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return fmt.Errorf("compute API error (%d): %s", resp.StatusCode, detail.Detail)
	}
	return fmt.Errorf("compute API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
