package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/usawrapco/wrapforge/internal/secrets"
)

const ideogramDefaultBaseURL = "https://api.ideogram.ai"

// IdeogramAdapter calls Ideogram's synchronous generate endpoint.
type IdeogramAdapter struct {
	secrets secrets.Resolver
	client  *http.Client
	baseURL string
}

func NewIdeogramAdapter(resolver secrets.Resolver, client *http.Client) *IdeogramAdapter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &IdeogramAdapter{secrets: resolver, client: client, baseURL: ideogramDefaultBaseURL}
}

// WithBaseURL overrides the API endpoint. Used in tests.
func (a *IdeogramAdapter) WithBaseURL(u string) *IdeogramAdapter {
	a.baseURL = u
	return a
}

type ideogramResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error string `json:"error"`
}

func (a *IdeogramAdapter) Invoke(ctx context.Context, orgID string, model ModelRef, in Input) (Result, error) {
	key, ok := a.secrets.Resolve(ctx, orgID, "ideogram_api_key")
	if !ok {
		return Result{}, credentialMissing("ideogram_api_key")
	}

	version := "V_2"
	if model.Key == "ideogram-v2-turbo" {
		version = "V_2_TURBO"
	}

	aspect := in.AspectRatio
	if aspect == "" {
		aspect = "ASPECT_16_9"
	}
	negative := in.NegativePrompt
	if negative == "" {
		negative = "cartoon, blurry, distorted text"
	}
	numImages := in.NumOutputs
	if numImages == 0 {
		numImages = 4
	}

	body, err := json.Marshal(map[string]any{
		"image_request": map[string]any{
			"prompt":          in.Prompt,
			"model":           version,
			"aspect_ratio":    aspect,
			"style_type":      "REALISTIC",
			"negative_prompt": negative,
			"num_images":      numImages,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("ideogram request encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Api-Key", key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("ideogram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("ideogram API error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("ideogram response read: %w", err)
	}

	var parsed ideogramResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, fmt.Errorf("ideogram response decode: %w", err)
	}
	if parsed.Error != "" {
		return Result{}, fmt.Errorf("ideogram: %s", parsed.Error)
	}

	refs := make([]string, 0, len(parsed.Data))
	for _, img := range parsed.Data {
		refs = append(refs, img.URL)
	}
	return Result{Refs: refs}, nil
}
