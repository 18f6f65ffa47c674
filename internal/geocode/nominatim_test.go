package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGeocodeFirstResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "Main St 1" || r.URL.Query().Get("format") != "json" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "RideWiseApp" {
			t.Errorf("missing client id header")
		}
		w.Write([]byte(`[{"lat":"10.5","lon":"20.25"},{"lat":"1","lon":"2"}]`))
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL, "RideWiseApp", time.Second, 0)
	got, ok, err := c.Geocode(context.Background(), "Main St 1")
	if err != nil || !ok {
		t.Fatalf("expected resolved, ok=%v err=%v", ok, err)
	}
	if got.Lat != 10.5 || got.Lon != 20.25 {
		t.Fatalf("unexpected coord %+v", got)
	}
}

func TestGeocodeEmptyIsUnresolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, ok, err := NewNominatimClient(srv.URL, "x", time.Second, 0).Geocode(context.Background(), "nowhere")
	if err != nil || ok {
		t.Fatalf("expected unresolved without error, ok=%v err=%v", ok, err)
	}
}

func TestGeocodeRetriesOnError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}))
	defer srv.Close()

	_, ok, err := NewNominatimClient(srv.URL, "x", time.Second, 1).Geocode(context.Background(), "a")
	if err != nil || !ok {
		t.Fatalf("expected success after retry, ok=%v err=%v", ok, err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestGeocodeNoRetryByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, _, err := NewNominatimClient(srv.URL, "x", time.Second, 0).Geocode(context.Background(), "a"); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}
