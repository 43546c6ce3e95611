package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/tidwall/gjson"
)

// Geocoder is the part of TomTomClient used by TomTomProvider.
type Geocoder interface {
	Geocode(ctx context.Context, address string, opts GeocodeOptions) (json.RawMessage, error)
}

// TomTomProvider anchors places through the TomTom geocode endpoint.
type TomTomProvider struct {
	client   Geocoder
	language string
	timeout  time.Duration
	log      *slog.Logger
}

// NewTomTomProvider returns a Provider that keeps only the first geocode result.
func NewTomTomProvider(client Geocoder, language string, timeout time.Duration, log *slog.Logger) *TomTomProvider {
	return &TomTomProvider{client: client, language: language, timeout: timeout, log: log}
}

// Geocode returns the position of the best match for address.
func (tp *TomTomProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if strings.TrimSpace(address) == "" {
		return nil, ErrEmptyAddress
	}

	tp.log.DebugContext(ctx, "Geocoding using TomTom", "address", address)

	results, err := tp.client.Geocode(ctx, address, GeocodeOptions{
		Limit:    1,
		Language: tp.language,
		Timeout:  tp.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to geocode anchor: %w", err)
	}

	first := gjson.GetBytes(results, "0")
	if !first.Exists() {
		return nil, ErrNoResults
	}

	lat := first.Get("position.lat")
	lon := first.Get("position.lon")
	if lat.Type != gjson.Number || lon.Type != gjson.Number {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCoords, first.Get("position").Raw)
	}

	return &models.Coordinates{Latitude: lat.Float(), Longitude: lon.Float()}, nil
}
