package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/threadscope/threadscope/engine/thread"
	"github.com/threadscope/threadscope/pkg/cache"
)

type fakeExtractor struct {
	result thread.ThreadResult
	err    error
	calls  int
}

func (f *fakeExtractor) ExtractThread(_ context.Context, _ string) (thread.ThreadResult, error) {
	f.calls++
	return f.result, f.err
}

func newTestServer(ex extractor) *server {
	return &server{
		extractor: ex,
		cache:     cache.New("", "", time.Minute), // disabled
		log:       slog.Default(),
	}
}

func postAnalyze(t *testing.T, s *server, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	s.handleAnalyze(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestHandleAnalyze(t *testing.T) {
	fake := &fakeExtractor{result: thread.ThreadResult{
		Thread: thread.PostRecord{Code: "C1", Username: "alice"},
	}}
	s := newTestServer(fake)

	rec := postAnalyze(t, s, `{"url":"https://www.threads.net/@alice/post/C1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var result thread.ThreadResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Thread.Code != "C1" {
		t.Errorf("wrong thread: %+v", result.Thread)
	}
	if fake.calls != 1 {
		t.Errorf("extractor calls: %d", fake.calls)
	}
}

func TestHandleAnalyzeBadRequests(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing url", `{}`},
		{"unparseable url", `{"url":"https://"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeExtractor{}
			rec := postAnalyze(t, newTestServer(fake), tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
			}
			if fake.calls != 0 {
				t.Error("extractor must not run on a bad request")
			}
		})
	}
}

func TestHandleAnalyzeErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantHint   string
	}{
		{
			"payload not found",
			&thread.ExtractError{Stage: "locate", Code: "C1", Wrapped: thread.ErrPayloadNotFound},
			http.StatusNotFound,
			"no data blob",
		},
		{
			"thread not found",
			&thread.ExtractError{Stage: "assemble", Code: "C1", Wrapped: thread.ErrThreadNotFound},
			http.StatusNotFound,
			"not among its items",
		},
		{
			"fetch failure",
			&thread.ExtractError{Stage: "fetch", Code: "C1", Wrapped: context.DeadlineExceeded},
			http.StatusBadGateway,
			"fetch failed",
		},
		{
			"unknown failure",
			context.DeadlineExceeded,
			http.StatusInternalServerError,
			"internal",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&fakeExtractor{err: tc.err})
			rec := postAnalyze(t, s, `{"url":"https://www.threads.net/@alice/post/C1"}`)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.wantHint) {
				t.Errorf("body %q should mention %q", rec.Body.String(), tc.wantHint)
			}
		})
	}
}

func TestHandleImageProxy(t *testing.T) {
	var gotUA string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegbytes"))
	}))
	defer origin.Close()

	s := newTestServer(&fakeExtractor{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/image-proxy?url="+origin.URL+"/pic.jpg", nil)
	s.handleImageProxy(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "image/jpeg" {
		t.Errorf("content type: %q", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "jpegbytes" {
		t.Errorf("body: %q", rec.Body.String())
	}
	if gotUA != proxyUserAgent {
		t.Errorf("user agent: %q", gotUA)
	}
}

func TestHandleImageProxyMissingURL(t *testing.T) {
	s := newTestServer(&fakeExtractor{})
	rec := httptest.NewRecorder()
	s.handleImageProxy(rec, httptest.NewRequest(http.MethodGet, "/api/image-proxy", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestHandleImageProxyUpstreamError(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer origin.Close()

	s := newTestServer(&fakeExtractor{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/image-proxy?url="+origin.URL+"/gone.jpg", nil)
	s.handleImageProxy(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
}
