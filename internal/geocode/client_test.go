package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nominatimResponse = `[
	{"display_name": "Paris, Île-de-France, France", "lat": "48.8566", "lon": "2.3522"},
	{"display_name": "Paris, Texas, United States", "lat": "33.6609", "lon": "-95.5555"},
	{"display_name": "Broken Entry", "lat": "not-a-number", "lon": "0"}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "eventboard-test/1.0", time.Second)
	// tests should not wait on the OSM courtesy limit
	client.limiter.SetLimit(1000)
	return client
}

func TestClientSearch(t *testing.T) {
	var gotQuery, gotLimit, gotUserAgent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nominatimResponse))
	})

	candidates, err := client.Search(context.Background(), "Paris", 5)
	require.NoError(t, err)

	assert.Equal(t, "Paris", gotQuery)
	assert.Equal(t, "5", gotLimit)
	assert.Equal(t, "eventboard-test/1.0", gotUserAgent)

	// the unparsable entry is skipped
	require.Len(t, candidates, 2)
	assert.Equal(t, "Paris, Île-de-France, France", candidates[0].DisplayName)
	assert.InDelta(t, 48.8566, candidates[0].Latitude, 1e-9)
	assert.InDelta(t, 2.3522, candidates[0].Longitude, 1e-9)
}

func TestClientSearchEmptyQuery(t *testing.T) {
	client := NewClient("http://unused", "eventboard-test/1.0", time.Second)
	_, err := client.Search(context.Background(), "", 5)
	assert.Error(t, err)
}

func TestClientSearchServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	})

	_, err := client.Search(context.Background(), "Paris", 5)
	assert.Error(t, err)
}

func TestClientSearchMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	})

	_, err := client.Search(context.Background(), "Paris", 5)
	assert.Error(t, err)
}

func TestClientSearchTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("[]"))
	})
	client.httpClient.Timeout = 20 * time.Millisecond

	_, err := client.Search(context.Background(), "Paris", 5)
	assert.Error(t, err)
}

func TestClientSearchClampsLimit(t *testing.T) {
	var gotLimit string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte("[]"))
	})

	_, err := client.Search(context.Background(), "Paris", 500)
	require.NoError(t, err)
	assert.Equal(t, "50", gotLimit)
}
