package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/retail-ops/internal/shared/failure"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL, Timeout: time.Second, Attempts: 3}, srv.Client())
	require.NoError(t, err)
	return client
}

func TestForward(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Main St 1, Warsaw", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[{"lat":"52.2297","lon":"21.0122"}]`))
	})

	coords, err := client.Forward(context.Background(), "Main St 1, Warsaw")
	require.NoError(t, err)
	require.InDelta(t, 52.2297, coords.Lat, 1e-9)
	require.InDelta(t, 21.0122, coords.Lng, 1e-9)
}

func TestForwardNoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	coords, err := client.Forward(context.Background(), "nowhere")
	require.NoError(t, err)
	require.Nil(t, coords)
}

func TestReverse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "52.5", r.URL.Query().Get("lat"))
		_, _ = w.Write([]byte(`{"display_name":"Main St 1, Warsaw"}`))
	})
	address, err := client.Reverse(context.Background(), 52.5, 21)
	require.NoError(t, err)
	require.Equal(t, "Main St 1, Warsaw", address)
}

func TestReverseUnableToGeocode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	})
	address, err := client.Reverse(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Empty(t, address)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	})
	coords, err := client.Forward(context.Background(), "x")
	require.NoError(t, err)
	require.NotNil(t, coords)
	require.Equal(t, int32(3), calls.Load())
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := client.Forward(context.Background(), "x")
	require.ErrorIs(t, err, failure.ErrExternalService)
	require.Equal(t, int32(1), calls.Load())
}

func TestTimeoutIsExternalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond, Attempts: 1}, srv.Client())
	require.NoError(t, err)

	_, err = client.Forward(context.Background(), "slow")
	require.ErrorIs(t, err, failure.ErrExternalService)
	require.True(t, failure.Retryable(err))
}

// nominatim answers forward and reverse lookups for a single known place.
func nominatim(t *testing.T, address, lat, lng, displayName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/search":
			if q.Get("q") != address {
				_, _ = w.Write([]byte(`[]`))
				return
			}
			_, _ = w.Write([]byte(`[{"lat":"` + lat + `","lon":"` + lng + `"}]`))
		case "/reverse":
			if q.Get("lat") != lat || q.Get("lon") != lng {
				_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
				return
			}
			_, _ = w.Write([]byte(`{"display_name":"` + displayName + `"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestForwardReverseRoundTrip(t *testing.T) {
	client := newTestClient(t, nominatim(t, "12 Elm St, Springfield", "39.7817", "-89.6501", "12 Elm St, Springfield, Sangamon County, Illinois"))
	ctx := context.Background()

	coords, err := client.Forward(ctx, "12 Elm St, Springfield")
	require.NoError(t, err)
	require.NotNil(t, coords)

	address, err := client.Reverse(ctx, coords.Lat, coords.Lng)
	require.NoError(t, err)
	require.Contains(t, address, "12 Elm St")
	require.Contains(t, address, "Springfield")
}
