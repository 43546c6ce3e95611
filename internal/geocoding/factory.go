package geocoding

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"googlemaps.github.io/maps"
)

// ProviderType names an anchor provider.
type ProviderType string

const (
	// ProviderTypeTomTom anchors through the TomTom geocode endpoint (default).
	ProviderTypeTomTom ProviderType = "tomtom"
	// ProviderTypeGoogle anchors through the Google Maps Geocoding API.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim anchors through OpenStreetMap Nominatim.
	ProviderTypeNominatim ProviderType = "nominatim"
)

// ErrUnsupportedProvider is returned for an unknown provider type.
var ErrUnsupportedProvider = errors.New("unsupported provider type")

// ProviderConfig holds configuration for creating an anchor provider.
type ProviderConfig struct {
	Type      ProviderType  // Type of provider to create
	APIKey    string        // API key (used by Google provider)
	RateLimit int           // Requests per second (used by Google provider)
	Timeout   time.Duration // Per-request timeout
	Language  string        // Preferred result language
	TomTom    Geocoder      // Shared TomTom client (used by TomTom provider)
	Logger    *slog.Logger  // Logger for the provider
}

// NewProvider creates the anchor provider selected by config.Type.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeTomTom, "":
		return newTomTomProvider(config)
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeNominatim:
		return NewNominatimProvider(config.Timeout, config.Language, config.Logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, config.Type)
	}
}

func newTomTomProvider(config ProviderConfig) (Provider, error) {
	if config.TomTom == nil {
		return nil, errors.New("TomTom client is required for TomTom provider")
	}

	return NewTomTomProvider(config.TomTom, config.Language, config.Timeout, config.Logger), nil
}

func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	}

	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Language, config.Logger), nil
}
