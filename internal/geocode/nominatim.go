package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/ridewise/internal/models"
	"github.com/example/ridewise/internal/observability"
)

// Geocoder resolves a free-text address. ok is false when nothing matched.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (c models.Coord, ok bool, err error)
}

// NominatimClient performs address lookups against a Nominatim search endpoint.
type NominatimClient struct {
	Endpoint  string
	UserAgent string
	Retries   int
	Client    *http.Client
}

func NewNominatimClient(endpoint, userAgent string, timeout time.Duration, retries int) *NominatimClient {
	return &NominatimClient{
		Endpoint:  endpoint,
		UserAgent: userAgent,
		Retries:   retries,
		Client:    &http.Client{Timeout: timeout},
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *NominatimClient) Geocode(ctx context.Context, address string) (models.Coord, bool, error) {
	start := time.Now()
	var (
		c   models.Coord
		ok  bool
		err error
	)
	for attempt := 0; attempt <= n.Retries; attempt++ {
		c, ok, err = n.lookup(ctx, address)
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	outcome := "resolved"
	switch {
	case err != nil:
		outcome = "error"
	case !ok:
		outcome = "unresolved"
	}
	observability.ExternalCallDuration.WithLabelValues("geocode", outcome).Observe(time.Since(start).Seconds())
	return c, ok, err
}

func (n *NominatimClient) lookup(ctx context.Context, address string) (models.Coord, bool, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.Endpoint+"/search?"+q.Encode(), nil)
	if err != nil {
		return models.Coord{}, false, err
	}
	req.Header.Set("User-Agent", n.UserAgent)
	resp, err := n.Client.Do(req)
	if err != nil {
		return models.Coord{}, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Coord{}, false, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}
	var out []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Coord{}, false, err
	}
	if len(out) == 0 {
		return models.Coord{}, false, nil
	}
	lat, err := strconv.ParseFloat(out[0].Lat, 64)
	if err != nil {
		return models.Coord{}, false, fmt.Errorf("nominatim lat: %w", err)
	}
	lon, err := strconv.ParseFloat(out[0].Lon, 64)
	if err != nil {
		return models.Coord{}, false, fmt.Errorf("nominatim lon: %w", err)
	}
	return models.Coord{Lat: lat, Lon: lon}, true, nil
}
