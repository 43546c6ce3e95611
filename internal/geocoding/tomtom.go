package geocoding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// TomTomBaseURL is the public TomTom API host.
const TomTomBaseURL = "https://api.tomtom.com"

// searchPath is the versioned prefix of every Search API endpoint.
const searchPath = "/search/2"

// Endpoint labels used in logs and metrics.
const (
	endpointGeocode = "geocode"
	endpointSearch  = "search"
	endpointBatch   = "batch"
)

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Timeouts holds the per-call timeouts of the client. Zero disables the timeout.
type Timeouts struct {
	Geocode time.Duration
	Search  time.Duration
	Batch   time.Duration
}

// ClientConfig holds the settings of a TomTomClient.
type ClientConfig struct {
	BaseURL  string           // API host, defaults to TomTomBaseURL
	APIKey   string           // Static API key sent as the "key" query parameter
	Timeouts Timeouts         // Per-call timeouts
	Limiter  *rate.Limiter    // Throttle applied before every call, nil disables it
	Metrics  *metrics.Metrics // Request metrics
	Logger   *slog.Logger     // Logger for logging operations
}

// GeocodeOptions tunes a single geocode call.
type GeocodeOptions struct {
	Limit    int           // Maximum number of results, zero leaves the API default
	Language string        // Result language, empty leaves the API default
	Timeout  time.Duration // Overrides Timeouts.Geocode when positive
}

// SearchRequest describes a fuzzy search anchored to a coordinate.
type SearchRequest struct {
	Query    string
	Anchor   models.Coordinates
	Radius   int // Meters around the anchor
	Limit    int
	Language string
}

// TomTomClient talks to the TomTom Search API.
type TomTomClient struct {
	client   HTTPClient
	baseURL  string
	apiKey   string
	timeouts Timeouts
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewTomTomClient creates a client backed by a default http.Client.
// Timeouts are applied per call through the request context.
func NewTomTomClient(config ClientConfig) *TomTomClient {
	return NewTomTomClientWithClient(&http.Client{}, config)
}

// NewTomTomClientWithClient allows injecting a custom HTTP client.
func NewTomTomClientWithClient(client HTTPClient, config ClientConfig) *TomTomClient {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = TomTomBaseURL
	}

	limiter := config.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	appMetrics := config.Metrics
	if appMetrics == nil {
		appMetrics = metrics.NewMetrics(prometheus.NewRegistry())
	}

	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	return &TomTomClient{
		client:   client,
		baseURL:  baseURL,
		apiKey:   config.APIKey,
		timeouts: config.Timeouts,
		limiter:  limiter,
		metrics:  appMetrics,
		log:      log,
	}
}

// Geocode resolves a free-text address and returns the raw "results" array of the response.
// A response without results yields an empty array.
func (tc *TomTomClient) Geocode(ctx context.Context, address string, opts GeocodeOptions) (json.RawMessage, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Language != "" {
		query.Set("language", opts.Language)
	}

	timeout := tc.timeouts.Geocode
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	endpoint := tc.baseURL + searchPath + "/geocode/" + EncodeSegment(address) + ".json"

	body, err := tc.do(ctx, endpointGeocode, http.MethodGet, endpoint, query, nil, timeout)
	if err != nil {
		return nil, err
	}

	return resultsOf(body)
}

// Search runs a fuzzy search around req.Anchor and returns the raw "results" array of the response.
func (tc *TomTomClient) Search(ctx context.Context, req SearchRequest) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(req.Anchor.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(req.Anchor.Longitude, 'f', -1, 64))
	query.Set("radius", strconv.Itoa(req.Radius))
	query.Set("limit", strconv.Itoa(req.Limit))
	if req.Language != "" {
		query.Set("language", req.Language)
	}

	endpoint := tc.baseURL + searchPath + "/search/" + EncodeSegment(req.Query) + ".json"

	body, err := tc.do(ctx, endpointSearch, http.MethodGet, endpoint, query, nil, tc.timeouts.Search)
	if err != nil {
		return nil, err
	}

	return resultsOf(body)
}

// Batch sends every sub-request of payload in one call and returns the unmodified response body.
func (tc *TomTomClient) Batch(ctx context.Context, payload models.BatchPayload) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode batch payload: %w", err)
	}

	endpoint := tc.baseURL + searchPath + "/batch.json"

	body, err := tc.do(ctx, endpointBatch, http.MethodPost, endpoint, url.Values{}, buf.Bytes(), tc.timeouts.Batch)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidResponse
	}

	return body, nil
}

func (tc *TomTomClient) do(
	ctx context.Context,
	endpoint, method, rawURL string,
	query url.Values,
	payload []byte,
	timeout time.Duration,
) ([]byte, error) {
	if err := tc.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle wait interrupted: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Logged before the key is attached.
	tc.log.DebugContext(ctx, "Search API request", "endpoint", endpoint, "method", method, "url", rawURL)
	query.Set("key", tc.apiKey)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL+"?"+query.Encode(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	startTime := time.Now()
	resp, err := tc.client.Do(req)
	tc.metrics.RequestSeconds.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	if err != nil {
		err = fmt.Errorf("failed to execute %s request: %w", endpoint, err)
		tc.observe(endpoint, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		tc.observe(endpoint, err)
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Reason: reasonPhrase(resp), Body: string(body)}
		tc.observe(endpoint, apiErr)
		return nil, apiErr
	}

	tc.observe(endpoint, nil)
	tc.log.DebugContext(ctx, "Search API raw response", "endpoint", endpoint, "bytes", len(body))

	return body, nil
}

func (tc *TomTomClient) observe(endpoint string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(Classify(err))
	}
	tc.metrics.APIRequests.WithLabelValues(endpoint, outcome).Inc()
}

// resultsOf extracts the "results" array of a search response without decoding the result objects.
func resultsOf(body []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidResponse
	}

	results := gjson.GetBytes(body, "results")
	if !results.Exists() {
		return json.RawMessage("[]"), nil
	}

	return json.RawMessage(results.Raw), nil
}

func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}

	return reason
}
