package huggingface

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api-inference.huggingface.co"
	defaultModel   = "Kolors/Kolors-Virtual-Try-On"
)

// Client calls the hosted virtual try-on model. The call is stateless with
// respect to its inputs: failures need no compensation, only a retry by a
// later job run.
type Client struct {
	log     *slog.Logger
	http    *http.Client
	baseURL string
	model   string
	token   string
}

func New(log *slog.Logger, token string) *Client {
	return &Client{
		log:     log,
		http:    &http.Client{Timeout: 2 * time.Minute},
		baseURL: defaultBaseURL,
		model:   defaultModel,
		token:   token,
	}
}

func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

type generateRequest struct {
	Inputs     generateInputs `json:"inputs"`
	Parameters generateParams `json:"parameters"`
}

type generateInputs struct {
	PersonImage  string `json:"person_image"`
	GarmentImage string `json:"garment_image"`
}

type generateParams struct {
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

// Generate downloads both images, posts them to the model, and returns the
// synthesized image bytes. The caller bounds the whole call with its context.
func (c *Client) Generate(ctx context.Context, personImageURL, garmentImageURL string) ([]byte, error) {
	person, err := c.fetch(ctx, personImageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch person image: %w", err)
	}
	garment, err := c.fetch(ctx, garmentImageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch garment image: %w", err)
	}

	body, err := json.Marshal(generateRequest{
		Inputs: generateInputs{
			PersonImage:  base64.StdEncoding.EncodeToString(person),
			GarmentImage: base64.StdEncoding.EncodeToString(garment),
		},
		Parameters: generateParams{NumInferenceSteps: 30, GuidanceScale: 2.0},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/"+c.model, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("synthesis service returned %d: %s", resp.StatusCode, excerpt)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
