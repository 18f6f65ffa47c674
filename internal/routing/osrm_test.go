package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ridewise/internal/models"
)

func TestDistanceKm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "/route/v1/driving/20.000000,10.000000;20.100000,10.100000"
		if r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		if r.URL.Query().Get("overview") != "false" {
			t.Errorf("missing overview=false")
		}
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":12500,"duration":900}]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL, time.Second, 0)
	km, err := c.DistanceKm(context.Background(), models.Coord{Lat: 10, Lon: 20}, models.Coord{Lat: 10.1, Lon: 20.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if km != 12.5 {
		t.Fatalf("expected 12.5km, got %f", km)
	}
}

func TestDistanceNoRouteIsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	km, err := NewOSRMClient(srv.URL, time.Second, 0).DistanceKm(context.Background(), models.Coord{}, models.Coord{Lat: 1})
	if err != nil || km != 0 {
		t.Fatalf("expected 0 without error, got %f err=%v", km, err)
	}
}

func TestDistanceTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"routes":[{"distance":1000}]}`))
	}))
	defer srv.Close()

	km, err := NewOSRMClient(srv.URL, 20*time.Millisecond, 0).DistanceKm(context.Background(), models.Coord{}, models.Coord{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if km != 0 {
		t.Fatalf("expected 0 on error, got %f", km)
	}
}
