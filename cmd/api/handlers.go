package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/threadscope/threadscope/engine/thread"
	"github.com/threadscope/threadscope/pkg/cache"
	"github.com/threadscope/threadscope/pkg/natsutil"
)

// proxyUserAgent is sent when fetching images so the CDN treats the proxy
// like a browser.
const proxyUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// extractor is the engine surface the gateway needs; satisfied by
// *thread.Extractor and by test fakes.
type extractor interface {
	ExtractThread(ctx context.Context, postURL string) (thread.ThreadResult, error)
}

type server struct {
	extractor extractor
	cache     *cache.ThreadCache
	nats      *nats.Conn
	subject   string
	log       *slog.Logger
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AnalyzeRequest is the JSON body for POST /api/analyze.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	code, err := thread.PostCodeFromURL(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not extract a post code from url")
		return
	}

	if result, hit, err := s.cache.Get(r.Context(), code); err != nil {
		s.log.Warn("cache read failed", "code", code, "err", err)
	} else if hit {
		writeJSON(w, http.StatusOK, result)
		return
	}

	result, err := s.extractor.ExtractThread(r.Context(), req.URL)
	if err != nil {
		s.writeExtractError(w, code, err)
		return
	}

	if err := s.cache.Set(r.Context(), code, result); err != nil {
		s.log.Warn("cache write failed", "code", code, "err", err)
	}
	if s.nats != nil {
		if err := natsutil.Publish(r.Context(), s.nats, s.subject, result); err != nil {
			s.log.Warn("nats publish failed", "code", code, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// writeExtractError maps engine outcomes onto transport responses, keeping
// the two not-found conditions distinguishable for clients and logs.
func (s *server) writeExtractError(w http.ResponseWriter, code string, err error) {
	var ee *thread.ExtractError
	switch {
	case errors.Is(err, thread.ErrPayloadNotFound):
		writeError(w, http.StatusNotFound, "no data blob contained the post; the page may not have finished loading")
	case errors.Is(err, thread.ErrThreadNotFound):
		writeError(w, http.StatusNotFound, "a data blob matched but the post was not among its items")
	case errors.As(err, &ee) && ee.Stage == "fetch":
		writeError(w, http.StatusBadGateway, "page fetch failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
	s.log.Error("analyze failed", "code", code, "err", err)
}

// handleImageProxy streams a remote image through the gateway so browser
// clients can load CDN images without CORS trouble.
func (s *server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	imageURL := r.URL.Query().Get("url")
	if imageURL == "" {
		writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image url")
		return
	}
	req.Header.Set("User-Agent", proxyUserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.log.Warn("image proxy fetch failed", "url", imageURL, "err", err)
		writeError(w, http.StatusBadGateway, "could not fetch image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		writeError(w, http.StatusBadGateway, "could not fetch image")
		return
	}

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
