package geocoding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// NominatimBaseURL is the public OpenStreetMap search endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// NominatimInterval is the minimum spacing between requests allowed by the public usage policy.
const NominatimInterval = time.Second

// nominatimUserAgent identifies the tool as required by the Nominatim usage policy.
const nominatimUserAgent = "waypoint/1.0 (https://github.com/UnknownOlympus/waypoint)"

// NominatimProvider anchors places through OpenStreetMap's Nominatim API.
// Requests are spaced by at least NominatimInterval.
type NominatimProvider struct {
	client    HTTPClient
	limiter   *rate.Limiter
	baseURL   string
	language  string
	userAgent string
	log       *slog.Logger
}

// ErrNominatimEmptyResponse is returned when Nominatim finds nothing for the query.
var ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")

// NewNominatimProvider creates a provider for the public Nominatim instance.
func NewNominatimProvider(timeout time.Duration, language string, log *slog.Logger) *NominatimProvider {
	return NewNominatimProviderWithClient(&http.Client{Timeout: timeout}, language, log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
func NewNominatimProviderWithClient(client HTTPClient, language string, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:    client,
		limiter:   rate.NewLimiter(rate.Every(NominatimInterval), 1),
		baseURL:   NominatimBaseURL,
		language:  language,
		userAgent: nominatimUserAgent,
		log:       log,
	}
}

// WithBaseURL points the provider at another Nominatim instance.
func (np *NominatimProvider) WithBaseURL(baseURL string) *NominatimProvider {
	np.baseURL = baseURL
	return np
}

// Geocode returns the coordinates of the top Nominatim match for address.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if strings.TrimSpace(address) == "" {
		return nil, ErrEmptyAddress
	}

	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle wait interrupted: %w", err)
	}

	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	if np.language != "" {
		query.Set("accept-language", np.language)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, &APIError{StatusCode: resp.StatusCode, Reason: reasonPhrase(resp), Body: string(body)}
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", ErrInvalidResponse)
	}

	first := gjson.GetBytes(body, "0")
	if !first.Exists() {
		return nil, ErrNominatimEmptyResponse
	}

	// Nominatim sends coordinates as strings.
	lat, err := strconv.ParseFloat(first.Get("lat").String(), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrInvalidCoords, first.Get("lat").Raw)
	}
	lon, err := strconv.ParseFloat(first.Get("lon").String(), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrInvalidCoords, first.Get("lon").Raw)
	}

	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
