package geocoding

import (
	"context"

	"github.com/UnknownOlympus/waypoint/internal/models"
)

// Provider resolves a free-text place description into a single coordinate.
// The fuzzy search pipeline uses it to anchor every search.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}
