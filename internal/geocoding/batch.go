package geocoding

import (
	"context"
	"log/slog"
	"strings"

	"github.com/UnknownOlympus/waypoint/internal/models"
)

// BatchGeocodeQuery returns the batch sub-request that geocodes address with a single result.
// The path is relative to the versioned batch endpoint and must not repeat the API version.
func BatchGeocodeQuery(address string) string {
	return "/geocode/" + EncodeSegment(address) + ".json?limit=1"
}

// BuildBatchPayload turns the loaded addresses into a batch payload.
// Blank addresses are skipped with a warning and leave no placeholder behind,
// so the payload keeps the input order of the valid addresses only.
func BuildBatchPayload(ctx context.Context, log *slog.Logger, addresses []string) models.BatchPayload {
	items := make([]models.BatchRequestItem, 0, len(addresses))

	for idx, address := range addresses {
		if strings.TrimSpace(address) == "" {
			log.WarnContext(ctx, "Skipping invalid or empty address", "row", idx+2, "address", address)
			continue
		}

		items = append(items, models.BatchRequestItem{Query: BatchGeocodeQuery(address)})
	}

	return models.BatchPayload{BatchItems: items}
}
