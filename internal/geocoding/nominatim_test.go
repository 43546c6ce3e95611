package geocoding_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestNominatimProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Equal(t, "nominatim.openstreetmap.org", req.URL.Host)
				assert.Equal(t, "Times Square, NYC", req.URL.Query().Get("q"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Equal(t, "en-US", req.URL.Query().Get("accept-language"))
				assert.Contains(t, req.Header.Get("User-Agent"), "waypoint/")

				return jsonResponse(http.StatusOK, `[{"lat":"40.7579747","lon":"-73.9855426"}]`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, "en-US", logger)
		coords, err := provider.Geocode(ctx, "Times Square, NYC")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, 40.7579747, coords.Latitude, 1e-9)
		assert.InEpsilon(t, -73.9855426, coords.Longitude, 1e-9)
	})

	t.Run("empty response from API", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `[]`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, "", logger)
		coords, err := provider.Geocode(ctx, "invalid address")

		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
	})

	t.Run("http error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusServiceUnavailable, "busy"), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, "", logger)
		_, err := provider.Geocode(ctx, "Kyiv")

		var apiErr *geocoding.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, "busy", apiErr.Body)
		assert.Equal(t, geocoding.KindServerError, geocoding.Classify(err))
	})

	t.Run("invalid json", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{not json`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, "", logger)
		_, err := provider.Geocode(ctx, "Kyiv")

		require.ErrorIs(t, err, geocoding.ErrInvalidResponse)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `[{"lat":"north","lon":"30.52"}]`), nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, "", logger)
		_, err := provider.Geocode(ctx, "Kyiv")

		require.ErrorIs(t, err, geocoding.ErrInvalidCoords)
		assert.ErrorContains(t, err, "invalid latitude")
	})

	t.Run("transport error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, "", logger)
		_, err := provider.Geocode(ctx, "Kyiv")

		require.ErrorIs(t, err, assert.AnError)
		assert.ErrorContains(t, err, "failed to execute geocoding request")
	})

	t.Run("blank address", func(t *testing.T) {
		provider := geocoding.NewNominatimProviderWithClient(&mockHTTPClient{}, "", logger)
		_, err := provider.Geocode(ctx, "")

		require.ErrorIs(t, err, geocoding.ErrEmptyAddress)
	})
}

func TestNominatimProvider_RequestSpacing(t *testing.T) {
	var calls []time.Time
	mockClient := &mockHTTPClient{
		doFunc: func(_ *http.Request) (*http.Response, error) {
			calls = append(calls, time.Now())
			return jsonResponse(http.StatusOK, `[{"lat":"50.45","lon":"30.52"}]`), nil
		},
	}

	provider := geocoding.NewNominatimProviderWithClient(mockClient, "", slog.Default())

	for _, place := range []string{"Kyiv", "Lviv"} {
		_, err := provider.Geocode(t.Context(), place)
		require.NoError(t, err)
	}

	require.Len(t, calls, 2)
	assert.GreaterOrEqual(t, calls[1].Sub(calls[0]), geocoding.NominatimInterval-20*time.Millisecond)
}

func TestNominatimProvider_WithBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		_, _ = w.Write([]byte(`[{"lat":"50.45","lon":"30.52"}]`))
	}))
	defer server.Close()

	provider := geocoding.NewNominatimProvider(0, "uk", slog.Default()).WithBaseURL(server.URL + "/search")

	coords, err := provider.Geocode(t.Context(), "Kyiv")

	require.NoError(t, err)
	assert.InEpsilon(t, 50.45, coords.Latitude, 1e-9)
	assert.InEpsilon(t, 30.52, coords.Longitude, 1e-9)
}
