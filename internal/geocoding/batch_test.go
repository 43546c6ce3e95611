package geocoding_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchGeocodeQuery(t *testing.T) {
	assert.Equal(t, "/geocode/Av.%20Paulista%2C%201000.json?limit=1", geocoding.BatchGeocodeQuery("Av. Paulista, 1000"))
	assert.NotContains(t, geocoding.BatchGeocodeQuery("Kyiv"), "/2/")
}

func TestBuildBatchPayload(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	addresses := []string{"Av. Paulista, 1000", "", "   ", "Rua Augusta/500", "Kyiv"}

	payload := geocoding.BuildBatchPayload(t.Context(), logger, addresses)

	require.Len(t, payload.BatchItems, 3)
	assert.False(t, payload.Empty())

	want := []string{"Av. Paulista, 1000", "Rua Augusta/500", "Kyiv"}
	for idx, item := range payload.BatchItems {
		require.True(t, strings.HasPrefix(item.Query, "/geocode/"))
		require.True(t, strings.HasSuffix(item.Query, ".json?limit=1"))

		segment := strings.TrimSuffix(strings.TrimPrefix(item.Query, "/geocode/"), ".json?limit=1")
		assert.NotContains(t, segment, "/")

		decoded, err := url.PathUnescape(segment)
		require.NoError(t, err)
		assert.Equal(t, want[idx], decoded)
	}

	assert.Equal(t, 2, strings.Count(logs.String(), "Skipping invalid or empty address"))
	assert.Contains(t, logs.String(), "row=3")
	assert.Contains(t, logs.String(), "row=4")
}

func TestBuildBatchPayload_Empty(t *testing.T) {
	payload := geocoding.BuildBatchPayload(t.Context(), slog.Default(), []string{"", " \t"})

	assert.True(t, payload.Empty())

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"batchItems":[]}`, string(body))
}
