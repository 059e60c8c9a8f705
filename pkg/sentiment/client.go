// Package sentiment provides an HTTP client for the external text-classifier
// worker. The worker owns tokenization, input truncation, and the model
// itself; this client only ships text and maps failures.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/threadscope/threadscope/engine/thread"
	"github.com/threadscope/threadscope/pkg/resilience"
)

// Opts configures a Client.
type Opts struct {
	// RatePerSec caps classify calls per second; 0 disables limiting.
	RatePerSec float64
	// Burst is the limiter burst size, minimum 1.
	Burst int
	// Breaker protects a down worker; nil disables it.
	Breaker *resilience.Breaker
}

// Client calls the classifier worker's POST /classify endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// New creates a classifier client for the worker at baseURL.
func New(baseURL string, opts Opts) *Client {
	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
		breaker: opts.Breaker,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify implements thread.Classifier. The per-call deadline is the
// caller's; cancellation interrupts both the limiter wait and the request.
func (c *Client) Classify(ctx context.Context, text string) (thread.Sentiment, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return thread.Sentiment{}, err
		}
	}

	var out thread.Sentiment
	call := func(ctx context.Context) error {
		s, err := c.classify(ctx, text)
		if err != nil {
			return err
		}
		out = s
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Call(ctx, call)
	} else {
		err = call(ctx)
	}
	return out, err
}

func (c *Client) classify(ctx context.Context, text string) (thread.Sentiment, error) {
	body, _ := json.Marshal(classifyRequest{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return thread.Sentiment{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return thread.Sentiment{}, fmt.Errorf("classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return thread.Sentiment{}, fmt.Errorf("classifier: status %d", resp.StatusCode)
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return thread.Sentiment{}, fmt.Errorf("classifier decode: %w", err)
	}
	return thread.Sentiment{Label: result.Label, Score: result.Score}, nil
}
