package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/usawrapco/wrapforge/internal/secrets"
)

const removeBgDefaultBaseURL = "https://api.remove.bg"

// RemoveBgAdapter calls remove.bg, which answers with the processed image
// bytes directly. The adapter lands the bytes under mediaDir and returns
// the file path as the result reference.
type RemoveBgAdapter struct {
	secrets  secrets.Resolver
	client   *http.Client
	baseURL  string
	mediaDir string
}

func NewRemoveBgAdapter(resolver secrets.Resolver, client *http.Client, mediaDir string) *RemoveBgAdapter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if mediaDir == "" {
		mediaDir = os.TempDir()
	}
	return &RemoveBgAdapter{secrets: resolver, client: client, baseURL: removeBgDefaultBaseURL, mediaDir: mediaDir}
}

// WithBaseURL overrides the API endpoint. Used in tests.
func (a *RemoveBgAdapter) WithBaseURL(u string) *RemoveBgAdapter {
	a.baseURL = u
	return a
}

func (a *RemoveBgAdapter) Invoke(ctx context.Context, orgID string, model ModelRef, in Input) (Result, error) {
	key, ok := a.secrets.Resolve(ctx, orgID, "removebg_api_key")
	if !ok {
		return Result{}, credentialMissing("removebg_api_key")
	}

	body, err := json.Marshal(map[string]any{
		"image_url": in.ImageURL,
		"size":      "auto",
		"format":    "png",
	})
	if err != nil {
		return Result{}, fmt.Errorf("removebg request encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1.0/removebg", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("X-Api-Key", key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("removebg request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("remove.bg API error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("removebg response read: %w", err)
	}

	path := filepath.Join(a.mediaDir, "removebg-"+uuid.NewString()+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Result{}, fmt.Errorf("removebg result write: %w", err)
	}

	return Result{Refs: []string{path}}, nil
}
