package thread

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"

	"github.com/threadscope/threadscope/pkg/fn"
	"github.com/threadscope/threadscope/pkg/metrics"
)

const (
	// DefaultWorkers bounds concurrent record projection + enrichment.
	DefaultWorkers = 4
	// DefaultClassifyTimeout caps each per-record classifier call.
	DefaultClassifyTimeout = 10 * time.Second
)

// Options tunes an Extractor. Zero values fall back to defaults.
type Options struct {
	Workers         int
	ClassifyTimeout time.Duration
}

// Extractor runs the full extraction pipeline: fetch blobs, locate the
// payload, pull out the nested item collections, project and enrich every
// record, and assemble the thread. It holds no mutable state: one value may
// serve concurrent extractions.
type Extractor struct {
	fetcher    Fetcher
	classifier Classifier
	opts       Options
	log        *slog.Logger

	extractions    *metrics.Counter
	extractErrors  *metrics.Counter
	classifyErrors *metrics.Counter
	duration       *metrics.Histogram
}

// New creates an Extractor. reg may be nil to disable metrics.
func New(fetcher Fetcher, classifier Classifier, opts Options, log *slog.Logger, reg *metrics.Registry) *Extractor {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.ClassifyTimeout <= 0 {
		opts.ClassifyTimeout = DefaultClassifyTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		reg = metrics.New()
	}
	return &Extractor{
		fetcher:        fetcher,
		classifier:     classifier,
		opts:           opts,
		log:            log,
		extractions:    reg.Counter("thread_extractions_total", "Completed thread extractions."),
		extractErrors:  reg.Counter("thread_extract_errors_total", "Failed thread extractions."),
		classifyErrors: reg.Counter("thread_classify_errors_total", "Classifier calls that failed or timed out."),
		duration:       reg.Histogram("thread_extract_seconds", "Thread extraction duration.", nil),
	}
}

// PostCodeFromURL pulls the post identifier out of a post URL: the final
// path segment, with any query string stripped.
func PostCodeFromURL(rawURL string) (string, error) {
	trimmed := strings.TrimRight(rawURL, "/")
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	code := trimmed[strings.LastIndexByte(trimmed, '/')+1:]
	if code == "" || strings.Contains(code, ":") {
		return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}
	if _, err := url.Parse(rawURL); err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}
	return code, nil
}

// ExtractThread fetches the page behind postURL and returns its thread.
func (e *Extractor) ExtractThread(ctx context.Context, postURL string) (ThreadResult, error) {
	ctx, span := otel.Tracer("engine/thread").Start(ctx, "thread.extract")
	defer span.End()
	start := time.Now()

	code, err := PostCodeFromURL(postURL)
	if err != nil {
		e.extractErrors.Inc()
		return ThreadResult{}, err
	}

	blobs, err := e.fetcher.FetchBlobs(ctx, postURL, code)
	if err != nil {
		e.extractErrors.Inc()
		return ThreadResult{}, extractError("fetch", code, err)
	}

	result, err := e.ExtractFromBlobs(ctx, blobs, code)
	if err != nil {
		e.extractErrors.Inc()
		return ThreadResult{}, err
	}

	e.extractions.Inc()
	e.duration.Since(start)
	return result, nil
}

// ExtractFromBlobs runs the extraction over already-fetched blobs. Split out
// so the gateway can serve pre-captured pages and tests can skip fetching.
func (e *Extractor) ExtractFromBlobs(ctx context.Context, blobs []string, postCode string) (ThreadResult, error) {
	blob, err := Locate(blobs, postCode)
	if err != nil {
		return ThreadResult{}, extractError("locate", postCode, err)
	}

	nodes := collectItems(blob)
	if len(nodes) == 0 {
		e.log.Warn("blob matched but held no thread items", "code", postCode, "marker", itemsMarker)
		return ThreadResult{}, extractError("collect", postCode, ErrThreadNotFound)
	}

	records := fn.ParMap(nodes, e.opts.Workers, func(node gjson.Result) PostRecord {
		rec := Project(node)
		e.enrich(ctx, &rec)
		return rec
	})

	result, err := Assemble(records, postCode)
	if err != nil {
		e.log.Warn("located blob did not contain the requested post",
			"code", postCode, "records", len(records), "marker", itemsMarker)
		return ThreadResult{}, extractError("assemble", postCode, err)
	}

	e.log.Info("thread extracted", "code", postCode, "replies", len(result.Replies))
	return result, nil
}

// collectItems parses a blob and flattens every thread_items collection
// (each a sequence of small item groups) into one node list, in payload
// order.
func collectItems(blob string) []gjson.Result {
	root := gjson.Parse(blob)
	return fn.FlatMap(FindAll(root, itemsMarker), func(group gjson.Result) []gjson.Result {
		return group.Array()
	})
}

// enrich attaches a sentiment to rec. Empty text gets none; a classifier
// failure marks the sentiment unavailable without failing the record.
func (e *Extractor) enrich(ctx context.Context, rec *PostRecord) {
	if rec.Text == "" || e.classifier == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, e.opts.ClassifyTimeout)
	defer cancel()

	s, err := e.classifier.Classify(cctx, rec.Text)
	if err != nil {
		e.classifyErrors.Inc()
		e.log.Warn("classifier failed for record",
			"code", rec.Code, "error", fmt.Errorf("%w: %w", ErrEnrichmentUnavailable, err))
		rec.Sentiment = &Sentiment{Unavailable: true}
		return
	}
	rec.Sentiment = &s
}
