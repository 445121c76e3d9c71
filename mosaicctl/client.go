package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mosaic-labs/mosaic-go/internal/domain"
)

// apiClient is a thin wrapper over the mfe-registry HTTP surface.
type apiClient struct {
	baseURL string
	actor   string
	http    *http.Client
}

func newAPIClient(baseURL, actor string, timeout time.Duration) (*apiClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &apiClient{
		baseURL: baseURL,
		actor:   actor,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type moduleEntry struct {
	Source      string           `json:"source"`
	Integrity   string           `json:"integrity,omitempty"`
	Version     string           `json:"version,omitempty"`
	Variables   domain.Variables `json:"variables"`
	Description string           `json:"description,omitempty"`
}

type releaseInfo struct {
	ID          string                   `json:"id"`
	Version     string                   `json:"version"`
	Description string                   `json:"description,omitempty"`
	Artifacts   []domain.ReleaseArtifact `json:"artifacts"`
	Status      string                   `json:"status"`
	CreatedAt   time.Time                `json:"createdAt"`
}

type publishResult struct {
	Route      string `json:"route"`
	ModulePath string `json:"modulePath"`
	PreviewURL string `json:"previewUrl"`
	Integrity  string `json:"integrity"`
}

type healthReport struct {
	Status  string `json:"status"`
	Modules []struct {
		Name    string `json:"name"`
		Status  string `json:"status"`
		Version string `json:"version,omitempty"`
		Source  string `json:"source,omitempty"`
	} `json:"modules"`
}

// apiError carries the server's error code and optional message.
type apiError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message,omitempty"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s (%s)", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Code)
}

func (c *apiClient) getRegistry(ctx context.Context, name string) (map[string]moduleEntry, error) {
	path := "/registry"
	if name != "" {
		path += "?name=" + url.QueryEscape(name)
	}
	var out map[string]moduleEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) setActive(ctx context.Context, name string, active bool) error {
	body := map[string]any{"name": name, "active": active}
	return c.do(ctx, http.MethodPost, "/registry", body, nil)
}

func (c *apiClient) createRelease(ctx context.Context, m releaseManifest) (releaseInfo, error) {
	body := map[string]any{
		"version":     m.Version,
		"description": m.Description,
		"artifacts":   m.Artifacts,
	}
	var out releaseInfo
	if err := c.do(ctx, http.MethodPost, "/releases", body, &out); err != nil {
		return releaseInfo{}, err
	}
	return out, nil
}

func (c *apiClient) listReleases(ctx context.Context) ([]releaseInfo, error) {
	var out []releaseInfo
	if err := c.do(ctx, http.MethodGet, "/releases", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) deployRelease(ctx context.Context, id string) (releaseInfo, error) {
	body := map[string]any{"id": id}
	var out struct {
		Message string      `json:"message"`
		Release releaseInfo `json:"release"`
	}
	if err := c.do(ctx, http.MethodPost, "/releases?action=deploy", body, &out); err != nil {
		return releaseInfo{}, err
	}
	return out.Release, nil
}

func (c *apiClient) publish(ctx context.Context, name, code, route, version, description string, variables domain.Variables) (publishResult, error) {
	body := map[string]any{
		"name":        name,
		"code":        code,
		"route":       route,
		"version":     version,
		"description": description,
	}
	if len(variables) > 0 {
		body["variables"] = variables
	}
	var out publishResult
	if err := c.do(ctx, http.MethodPost, "/publish", body, &out); err != nil {
		return publishResult{}, err
	}
	return out, nil
}

func (c *apiClient) health(ctx context.Context, name string) (healthReport, error) {
	path := "/health"
	if name != "" {
		path += "?mfe=" + url.QueryEscape(name)
	}
	var out healthReport
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		// A degraded registry answers 503 with a full report body.
		if aErr, ok := err.(*apiError); ok && aErr.StatusCode == http.StatusServiceUnavailable && out.Status != "" {
			return out, nil
		}
		return healthReport{}, err
	}
	return out, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.actor != "" {
		req.Header.Set("X-Actor", c.actor)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		aErr := &apiError{StatusCode: resp.StatusCode, Code: "unknown"}
		_ = json.Unmarshal(raw, aErr)
		// Health reports degrade with a body worth surfacing.
		if out != nil {
			_ = json.Unmarshal(raw, out)
		}
		return aErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
