// Package fetcher provides an HTTP client for the external page-render
// worker (a headless browser service) and extracts the hidden JSON datasets
// from the HTML it returns.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/threadscope/threadscope/pkg/fn"
)

// Client implements thread.Fetcher against a render worker exposing
// POST /render.
type Client struct {
	baseURL string
	client  *http.Client
	retry   fn.RetryOpts
}

// New creates a fetcher client for the render worker at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		retry: fn.RetryOpts{
			MaxAttempts: 2,
			InitialWait: 3 * time.Second,
			MaxWait:     15 * time.Second,
			Jitter:      true,
		},
	}
}

type renderRequest struct {
	URL             string `json:"url"`
	WaitForSelector string `json:"wait_for_selector,omitempty"`
}

type renderResponse struct {
	HTML     string `json:"html"`
	FinalURL string `json:"final_url,omitempty"`
}

// FetchBlobs renders url and returns the text of every hidden JSON dataset
// script tag on the loaded page. The worker is told to wait for an anchor
// referencing postCode, so the post's data island is present before the
// HTML is captured.
func (c *Client) FetchBlobs(ctx context.Context, url, postCode string) ([]string, error) {
	req := renderRequest{
		URL:             url,
		WaitForSelector: fmt.Sprintf(`a[href*="%s"]`, postCode),
	}

	result := fn.Retry(ctx, c.retry, func(ctx context.Context) fn.Result[string] {
		return c.render(ctx, req)
	})
	html, err := result.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	return HiddenDatasets(html)
}

func (c *Client) render(ctx context.Context, r renderRequest) fn.Result[string] {
	body, _ := json.Marshal(r)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return fn.Err[string](err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fn.Err[string](err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fn.Errf[string]("render worker: status %d", resp.StatusCode)
	}

	var result renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fn.Errf[string]("render worker decode: %w", err)
	}
	return fn.Ok(result.HTML)
}
