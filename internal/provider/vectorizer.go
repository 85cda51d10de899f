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

const vectorizerDefaultBaseURL = "https://vectorizer.ai"

// VectorizerAdapter converts raster graphics to SVG through vectorizer.ai.
type VectorizerAdapter struct {
	secrets secrets.Resolver
	client  *http.Client
	baseURL string
}

func NewVectorizerAdapter(resolver secrets.Resolver, client *http.Client) *VectorizerAdapter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &VectorizerAdapter{secrets: resolver, client: client, baseURL: vectorizerDefaultBaseURL}
}

// WithBaseURL overrides the API endpoint. Used in tests.
func (a *VectorizerAdapter) WithBaseURL(u string) *VectorizerAdapter {
	a.baseURL = u
	return a
}

func (a *VectorizerAdapter) Invoke(ctx context.Context, orgID string, model ModelRef, in Input) (Result, error) {
	key, ok := a.secrets.Resolve(ctx, orgID, "vectorizer_api_key")
	if !ok {
		return Result{}, credentialMissing("vectorizer_api_key")
	}

	body, err := json.Marshal(map[string]any{
		"image_url":     in.ImageURL,
		"output_format": "svg",
	})
	if err != nil {
		return Result{}, fmt.Errorf("vectorizer request encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/v1/vectorize", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("vectorizer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("vectorizer API error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("vectorizer response read: %w", err)
	}

	var parsed struct {
		SVGURL string `json:"svg_url"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, fmt.Errorf("vectorizer response decode: %w", err)
	}
	if parsed.Error != "" {
		return Result{}, fmt.Errorf("vectorizer: %s", parsed.Error)
	}

	return Result{Refs: []string{parsed.SVGURL}}, nil
}
