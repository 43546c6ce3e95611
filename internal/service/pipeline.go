package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/config"
	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/loader"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/output"
)

var (
	// ErrBatchFailed is returned when the single batch call of a run fails.
	ErrBatchFailed = errors.New("batch request failed")
	// ErrInterrupted is returned when the run context is cancelled before the output is written.
	ErrInterrupted = errors.New("run interrupted")
)

// Row statuses used in logs and metrics.
const (
	statusCollected = "collected"
	statusSkipped   = "skipped"
	statusFailed    = "failed"
)

// SearchAPI is the set of TomTom calls the pipeline depends on.
type SearchAPI interface {
	Geocode(ctx context.Context, address string, opts geocoding.GeocodeOptions) (json.RawMessage, error)
	Search(ctx context.Context, req geocoding.SearchRequest) (json.RawMessage, error)
	Batch(ctx context.Context, payload models.BatchPayload) (json.RawMessage, error)
}

// Settings holds the request parameters shared by every row of a run.
type Settings struct {
	Language string // Result language of geocode and search calls
	Radius   int    // Fuzzy search radius in meters
	Limit    int    // Fuzzy search result limit
}

// Pipeline runs a profile: it loads the input CSV, calls the API and writes the collected results.
// Calls are strictly sequential.
type Pipeline struct {
	log      *slog.Logger
	api      SearchAPI
	anchors  geocoding.Provider
	metrics  *metrics.Metrics
	settings Settings
}

// NewPipeline creates a Pipeline. anchors resolves fuzzy search contexts and may be nil
// when only batch and geocode profiles are run.
func NewPipeline(
	log *slog.Logger,
	api SearchAPI,
	anchors geocoding.Provider,
	metrics *metrics.Metrics,
	settings Settings,
) *Pipeline {
	return &Pipeline{
		log:      log,
		api:      api,
		anchors:  anchors,
		metrics:  metrics,
		settings: settings,
	}
}

// Run executes profile from start to finish. Input and validation errors are returned before any
// API call. Per-row failures of loop modes are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, profile config.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	switch profile.Mode {
	case config.ModeBatch:
		return p.runBatch(ctx, profile)
	case config.ModeGeocode:
		return p.runGeocode(ctx, profile)
	case config.ModeFuzzy:
		if p.anchors == nil {
			return errors.New("fuzzy profiles need an anchor provider")
		}
		return p.runFuzzy(ctx, profile)
	default:
		return fmt.Errorf("%w: unsupported mode %q", config.ErrInvalidProfile, profile.Mode)
	}
}

func (p *Pipeline) runBatch(ctx context.Context, profile config.Profile) error {
	addresses, err := loader.ReadColumn(profile.Input, profile.Columns[0])
	if err != nil {
		return fmt.Errorf("failed to load input: %w", err)
	}
	p.log.InfoContext(ctx, "Input loaded", "file", profile.Input, "rows", len(addresses))

	run := p.newTally(config.ModeBatch)

	payload := geocoding.BuildBatchPayload(ctx, p.log, addresses)
	run.add(statusSkipped, len(addresses)-len(payload.BatchItems))
	p.metrics.BatchItems.Set(float64(len(payload.BatchItems)))

	if payload.Empty() {
		p.log.WarnContext(ctx, "No valid addresses to process")
		run.done(ctx, profile.Output, false)
		return nil
	}

	p.log.InfoContext(ctx, "Sending batch request", "items", len(payload.BatchItems))
	raw, err := p.api.Batch(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}
		p.logFailure(ctx, "Batch request failed", err)
		run.add(statusFailed, len(payload.BatchItems))
		run.done(ctx, profile.Output, false)
		return fmt.Errorf("%w: %w", ErrBatchFailed, err)
	}

	if err = output.WriteRawJSON(profile.Output, raw, profile.Indent); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	run.add(statusCollected, len(payload.BatchItems))
	run.done(ctx, profile.Output, true)

	return nil
}

func (p *Pipeline) runGeocode(ctx context.Context, profile config.Profile) error {
	addresses, err := loader.ReadColumn(profile.Input, profile.Columns[0])
	if err != nil {
		return fmt.Errorf("failed to load input: %w", err)
	}
	p.log.InfoContext(ctx, "Input loaded", "file", profile.Input, "rows", len(addresses))

	run := p.newTally(config.ModeGeocode)
	results := make([]models.GeocodeResultItem, 0, len(addresses))

	for idx, address := range addresses {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}

		row := idx + 2
		if strings.TrimSpace(address) == "" {
			p.log.WarnContext(ctx, "Skipping invalid or empty address", "row", row)
			run.add(statusSkipped, 1)
			continue
		}

		p.log.InfoContext(ctx, "Processing row", "row", row, "address", address)
		found, err := p.api.Geocode(ctx, address, geocoding.GeocodeOptions{Limit: 1, Language: p.settings.Language})
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
			}
			p.logFailure(ctx, "Geocoding failed", err, "row", row, "address", address)
			run.add(statusFailed, 1)
			continue
		}

		results = append(results, models.GeocodeResultItem{OriginalAddress: address, APIResult: found})
		run.add(statusCollected, 1)
	}

	if err = output.WriteJSON(profile.Output, results, profile.Indent); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	run.done(ctx, profile.Output, true)

	return nil
}

func (p *Pipeline) runFuzzy(ctx context.Context, profile config.Profile) error {
	rows, err := loader.ReadColumns(profile.Input, profile.Columns[0], profile.Columns[1])
	if err != nil {
		return fmt.Errorf("failed to load input: %w", err)
	}
	p.log.InfoContext(ctx, "Input loaded", "file", profile.Input, "rows", len(rows))

	run := p.newTally(config.ModeFuzzy)
	results := make([]models.SearchResultItem, 0, len(rows))

	for idx, cells := range rows {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}

		row := idx + 2
		search := models.SearchQuery{Query: cells[0], Context: cells[1]}
		if strings.TrimSpace(search.Query) == "" || strings.TrimSpace(search.Context) == "" {
			p.log.WarnContext(ctx, "Skipping row with empty query or context", "row", row)
			run.add(statusSkipped, 1)
			continue
		}

		p.log.InfoContext(ctx, "Processing row", "row", row, "query", search.Query, "context", search.Context)

		anchor := p.resolveAnchor(ctx, search.Context)
		if anchor == nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
			}
			p.log.WarnContext(ctx, "Could not get coordinates, skipping row", "row", row, "context", search.Context)
			run.add(statusSkipped, 1)
			continue
		}
		p.log.DebugContext(ctx, "Context resolved", "context", search.Context,
			"lat", anchor.Latitude, "lon", anchor.Longitude)

		found, err := p.api.Search(ctx, geocoding.SearchRequest{
			Query:    search.Query,
			Anchor:   *anchor,
			Radius:   p.settings.Radius,
			Limit:    p.settings.Limit,
			Language: p.settings.Language,
		})
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
			}
			p.logFailure(ctx, "Fuzzy search failed", err, "row", row, "query", search.Query)
			run.add(statusFailed, 1)
			continue
		}

		results = append(results, models.SearchResultItem{OriginalSearch: search, FoundResults: found})
		run.add(statusCollected, 1)
	}

	if err = output.WriteJSON(profile.Output, results, profile.Indent); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	run.done(ctx, profile.Output, true)

	return nil
}

// resolveAnchor returns nil when context cannot be turned into coordinates.
func (p *Pipeline) resolveAnchor(ctx context.Context, place string) *models.Coordinates {
	coords, err := p.anchors.Geocode(ctx, place)
	if err != nil {
		if errors.Is(err, geocoding.ErrNoResults) || errors.Is(err, geocoding.ErrEmptyResponse) ||
			errors.Is(err, geocoding.ErrNominatimEmptyResponse) {
			p.log.DebugContext(ctx, "Context has no match", "context", place)
			return nil
		}
		p.logFailure(ctx, "Context geocoding failed", err, "context", place)
		return nil
	}

	return coords
}

// logFailure writes one log line describing why an API call failed.
func (p *Pipeline) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	kind := geocoding.Classify(err)
	attrs = append(attrs, "kind", string(kind))

	var apiErr *geocoding.APIError
	switch {
	case errors.As(err, &apiErr):
		attrs = append(attrs, "status", apiErr.StatusCode, "reason", apiErr.Reason, "body", apiErr.Body)
		p.log.ErrorContext(ctx, msg+": HTTP "+apiErr.Family()+" error", attrs...)
	case kind == geocoding.KindConnection:
		p.log.ErrorContext(ctx, msg+": could not connect to the API", append(attrs, "error", err)...)
	case kind == geocoding.KindTimeout:
		p.log.ErrorContext(ctx, msg+": the request timed out", append(attrs, "error", err)...)
	default:
		p.log.ErrorContext(ctx, msg+": request error", append(attrs, "error", err)...)
	}
}

// tally counts the rows of a single run.
type tally struct {
	p       *Pipeline
	mode    config.Mode
	started time.Time
	counts  map[string]int
}

func (p *Pipeline) newTally(mode config.Mode) *tally {
	return &tally{p: p, mode: mode, started: time.Now(), counts: map[string]int{}}
}

func (t *tally) add(status string, n int) {
	if n <= 0 {
		return
	}
	t.counts[status] += n
	t.p.metrics.Rows.WithLabelValues(string(t.mode), status).Add(float64(n))
}

func (t *tally) done(ctx context.Context, path string, written bool) {
	t.p.log.InfoContext(ctx, "Run finished",
		"mode", t.mode,
		"collected", t.counts[statusCollected],
		"skipped", t.counts[statusSkipped],
		"failed", t.counts[statusFailed],
		"output", path,
		"written", written,
		"duration", time.Since(t.started),
	)
}
