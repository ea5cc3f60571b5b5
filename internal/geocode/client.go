package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"eventboard/internal/model"
)

const (
	// DefaultBaseURL is the public Nominatim API endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 5 * time.Second
	// DefaultRateLimit is 1 request per second per OSM usage policy.
	DefaultRateLimit = rate.Limit(1.0)
)

// Client is a forward-geocoding client for the Nominatim search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(DefaultRateLimit, 1),
	}
}

// Search performs forward geocoding and returns up to limit candidates.
// Candidates whose coordinates do not parse are skipped.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]model.Candidate, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	requestURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	candidates := make([]model.Candidate, 0, len(results))
	for _, res := range results {
		lat, latErr := strconv.ParseFloat(res.Lat, 64)
		lon, lonErr := strconv.ParseFloat(res.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		candidates = append(candidates, model.Candidate{
			DisplayName: res.DisplayName,
			Latitude:    lat,
			Longitude:   lon,
		})
	}
	return candidates, nil
}
