package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/ridewise/internal/models"
	"github.com/example/ridewise/internal/observability"
)

// Router returns the driving distance in km. Zero means no route was found.
type Router interface {
	DistanceKm(ctx context.Context, from, to models.Coord) (float64, error)
}

// OSRMClient performs route lookups against an OSRM HTTP server.
type OSRMClient struct {
	Endpoint string
	Retries  int
	Client   *http.Client
}

func NewOSRMClient(endpoint string, timeout time.Duration, retries int) *OSRMClient {
	return &OSRMClient{Endpoint: endpoint, Retries: retries, Client: &http.Client{Timeout: timeout}}
}

// DistanceKm queries OSRM /route between points and returns the first route's distance.
func (o *OSRMClient) DistanceKm(ctx context.Context, from, to models.Coord) (float64, error) {
	start := time.Now()
	var (
		km  float64
		err error
	)
	for attempt := 0; attempt <= o.Retries; attempt++ {
		km, err = o.route(ctx, from, to)
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case km == 0:
		outcome = "no_route"
	}
	observability.ExternalCallDuration.WithLabelValues("route", outcome).Observe(time.Since(start).Seconds())
	return km, err
}

func (o *OSRMClient) route(ctx context.Context, from, to models.Coord) (float64, error) {
	// /route/v1/driving/{lon1},{lat1};{lon2},{lat2}?overview=false
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false", o.Endpoint, from.Lon, from.Lat, to.Lon, to.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var out struct {
		Routes []struct {
			Distance float64 `json:"distance"`
		} `json:"routes"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	if len(out.Routes) == 0 {
		return 0, nil
	}
	return out.Routes[0].Distance / 1000, nil
}
