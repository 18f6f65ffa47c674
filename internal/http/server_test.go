package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/ridewise/internal/accounts"
	"github.com/example/ridewise/internal/booking"
	"github.com/example/ridewise/internal/logging"
	"github.com/example/ridewise/internal/models"
	"github.com/example/ridewise/internal/observability"
	"github.com/example/ridewise/internal/session"
	"github.com/example/ridewise/internal/storage"
)

type stubGeocoder map[string]models.Coord

func (s stubGeocoder) Geocode(ctx context.Context, address string) (models.Coord, bool, error) {
	c, ok := s[address]
	return c, ok, nil
}

type stubRouter float64

func (s stubRouter) DistanceKm(ctx context.Context, from, to models.Coord) (float64, error) {
	return float64(s), nil
}

type stubTotals map[string]float64

func (s stubTotals) Totals(ctx context.Context) (map[string]float64, error) { return s, nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := storage.NewMemoryStore()
	engine := booking.NewEngine(booking.Deps{
		Geocoder: stubGeocoder{"A": {Lat: 10, Lon: 20}, "B": {Lat: 10.1, Lon: 20.1}},
		Router:   stubRouter(12.5),
		Accounts: st, Offers: st, Bookings: st,
		Logger: logging.Discard(),
	})
	srv := NewServer(Deps{
		Accounts:  accounts.NewService(st, bcrypt.MinCost),
		Engine:    engine,
		Sessions:  session.NewMemoryStore(time.Hour),
		Policy:    session.NewPolicy([]string{"admin@example.com"}),
		EcoTotals: stubTotals{"bookings": 3},
		Logger:    logging.Discard(),
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	jar, _ := cookiejar.New(nil)
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, c.base+path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (c *client) register(name, email string) {
	c.t.Helper()
	code, body := c.do(http.MethodPost, "/register", map[string]any{"name": name, "email": email, "password": "secret", "phone": "555-" + name})
	if code != http.StatusCreated {
		c.t.Fatalf("register %s: %d %v", email, code, body)
	}
}

func (c *client) login(email string, role models.Role) {
	c.t.Helper()
	code, body := c.do(http.MethodPost, "/login", map[string]any{"email": email, "password": "secret", "role": string(role)})
	if code != http.StatusOK {
		c.t.Fatalf("login %s as %s: %d %v", email, role, code, body)
	}
}

func errKind(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	k, _ := e["kind"].(string)
	return k
}

func TestRegisterDuplicate(t *testing.T) {
	c := newClient(t, newTestServer(t))
	c.register("asha", "asha@example.com")
	code, body := c.do(http.MethodPost, "/register", map[string]any{"name": "x", "email": "asha@example.com", "password": "p", "phone": "1"})
	if code != http.StatusConflict || errKind(body) != "duplicate_registration" {
		t.Fatalf("expected duplicate_registration, got %d %v", code, body)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	c := newClient(t, newTestServer(t))
	c.register("asha", "asha@example.com")
	code, body := c.do(http.MethodPost, "/login", map[string]any{"email": "asha@example.com", "password": "nope", "role": "rider"})
	if code != http.StatusUnauthorized || errKind(body) != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %d %v", code, body)
	}
}

func TestRoleGate(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	if code, body := c.do(http.MethodGet, "/rider/dashboard", nil); code != http.StatusForbidden || errKind(body) != "access_denied" {
		t.Fatalf("anonymous must be denied, got %d %v", code, body)
	}

	c.register("ravi", "ravi@example.com")
	c.login("ravi@example.com", models.RoleDriver)
	if code, body := c.do(http.MethodGet, "/rider/dashboard", nil); code != http.StatusForbidden || errKind(body) != "access_denied" {
		t.Fatalf("driver must be denied rider dashboard, got %d %v", code, body)
	}
	code, body := c.do(http.MethodGet, "/driver/dashboard", nil)
	if code != http.StatusOK || body["name"] != "ravi" || body["view"] != "driver_dashboard" {
		t.Fatalf("driver dashboard: %d %v", code, body)
	}

	// the same account may pick another self-service role on a new login
	c.login("ravi@example.com", models.RoleRider)
	if code, _ := c.do(http.MethodGet, "/rider/dashboard", nil); code != http.StatusOK {
		t.Fatalf("rider dashboard after re-login: %d", code)
	}

	c.do(http.MethodGet, "/logout", nil)
	if code, _ := c.do(http.MethodGet, "/rider/dashboard", nil); code != http.StatusForbidden {
		t.Fatalf("expected denied after logout, got %d", code)
	}
}

func TestLoginMetricLabelsAreBounded(t *testing.T) {
	c := newClient(t, newTestServer(t))
	login := func(role string) {
		code, _ := c.do(http.MethodPost, "/login", map[string]any{"email": "ghost@example.com", "password": "x", "role": role})
		if code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for role %q, got %d", role, code)
		}
	}
	login("junk-0")
	before := testutil.CollectAndCount(observability.LoginsTotal)
	for i := 1; i < 50; i++ {
		login(fmt.Sprintf("junk-%d", i))
	}
	if after := testutil.CollectAndCount(observability.LoginsTotal); after != before {
		t.Fatalf("junk roles added series: before=%d after=%d", before, after)
	}
	if got := testutil.ToFloat64(observability.LoginsTotal.WithLabelValues("unknown", "invalid_credentials")); got < 50 {
		t.Fatalf("expected failures under the unknown role label, got %v", got)
	}
}

func TestRoleLabel(t *testing.T) {
	for raw, want := range map[string]string{"rider": "rider", "driver": "driver", "DRIVER": "unknown", "admin": "admin", "pilot": "unknown", "": "unknown"} {
		if got := roleLabel(raw); got != want {
			t.Fatalf("roleLabel(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestAdminRequiresGrant(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	c.register("eve", "eve@example.com")
	code, body := c.do(http.MethodPost, "/login", map[string]any{"email": "eve@example.com", "password": "secret", "role": "admin"})
	if code != http.StatusForbidden || errKind(body) != "access_denied" {
		t.Fatalf("ungranted admin login: %d %v", code, body)
	}
	code, body = c.do(http.MethodPost, "/login", map[string]any{"email": "eve@example.com", "password": "secret", "role": "pilot"})
	if code != http.StatusBadRequest {
		t.Fatalf("unknown role: %d %v", code, body)
	}

	admin := newClient(t, ts)
	admin.register("boss", "admin@example.com")
	admin.login("admin@example.com", models.RoleAdmin)
	code, body = admin.do(http.MethodGet, "/admin/dashboard", nil)
	if code != http.StatusOK {
		t.Fatalf("admin dashboard: %d %v", code, body)
	}
	totals, _ := body["eco_totals"].(map[string]any)
	if totals["bookings"] != float64(3) {
		t.Fatalf("expected eco totals, got %v", body)
	}
}

func TestBookingFlow(t *testing.T) {
	ts := newTestServer(t)
	driver := newClient(t, ts)
	driver.register("ravi", "ravi@example.com")
	driver.login("ravi@example.com", models.RoleDriver)
	code, body := driver.do(http.MethodPost, "/add_ride", map[string]any{
		"vehicle": "KA-05-1234", "start": "A", "end": "B", "date": "2026-05-01", "time": "09:00", "capacity": 3,
	})
	if code != http.StatusCreated {
		t.Fatalf("add_ride: %d %v", code, body)
	}

	rider := newClient(t, ts)
	rider.register("meera", "meera@example.com")
	rider.login("meera@example.com", models.RoleRider)

	ride := map[string]any{"start": "A", "end": "B", "date": "2026-05-01", "time": "09:00", "people": 2}
	code, body = rider.do(http.MethodPost, "/book_ride", ride)
	if code != http.StatusCreated || body["outcome"] != "booked" {
		t.Fatalf("book_ride: %d %v", code, body)
	}
	b, _ := body["booking"].(map[string]any)
	if b["fare"] != 125.0 || b["fuel_saved"] != 2.5 || b["co2_saved"] != 6.25 || b["eco_points"] != 62.0 || b["driver_name"] != "ravi" {
		t.Fatalf("unexpected booking %v", b)
	}

	code, body = rider.do(http.MethodPost, "/book_ride", ride)
	if code != http.StatusOK || body["outcome"] != "no_matching_offer" {
		t.Fatalf("expected no_matching_offer with 1 seat left, got %d %v", code, body)
	}

	_, body = rider.do(http.MethodGet, "/rider_history", nil)
	if rides, _ := body["rides"].([]any); len(rides) != 1 {
		t.Fatalf("rider history %v", body)
	}

	_, body = driver.do(http.MethodGet, "/driver_history", nil)
	bookings, _ := body["bookings"].([]any)
	if len(bookings) != 1 {
		t.Fatalf("driver history %v", body)
	}
	first, _ := bookings[0].(map[string]any)
	if first["rider_name"] != "meera" || first["rider_phone"] != "555-meera" {
		t.Fatalf("driver history not enriched: %v", first)
	}
	offers, _ := body["offers"].([]any)
	o, _ := offers[0].(map[string]any)
	if o["available_seats"] != 1.0 {
		t.Fatalf("expected 1 seat left, got %v", o)
	}

	if code, _ := driver.do(http.MethodGet, "/rider_history", nil); code != http.StatusForbidden {
		t.Fatalf("driver must not read rider history, got %d", code)
	}
}

func TestBookRideErrors(t *testing.T) {
	ts := newTestServer(t)
	rider := newClient(t, ts)
	rider.register("meera", "meera@example.com")
	rider.login("meera@example.com", models.RoleRider)

	code, body := rider.do(http.MethodPost, "/book_ride", map[string]any{"start": "Nowhere", "end": "B", "date": "d", "time": "t", "people": 1})
	if code != http.StatusUnprocessableEntity || errKind(body) != "invalid_location" {
		t.Fatalf("expected invalid_location, got %d %v", code, body)
	}
	code, body = rider.do(http.MethodPost, "/book_ride", map[string]any{"start": "A", "end": "B", "date": "d", "time": "t", "people": "two"})
	if code != http.StatusBadRequest || errKind(body) != "bad_request" {
		t.Fatalf("expected bad_request, got %d %v", code, body)
	}
}

func TestFormEncodedRequests(t *testing.T) {
	ts := newTestServer(t)
	jar, _ := cookiejar.New(nil)
	hc := &http.Client{Jar: jar}
	resp, err := hc.PostForm(ts.URL+"/register", url.Values{"name": {"sam"}, "email": {"sam@example.com"}, "password": {"pw"}, "phone": {"1"}})
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("form register: %v %v", resp, err)
	}
	resp.Body.Close()
	resp, err = hc.PostForm(ts.URL+"/login", url.Values{"email": {"sam@example.com"}, "password": {"pw"}, "role": {"driver"}})
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("form login: %v %v", resp, err)
	}
	resp.Body.Close()
	resp, err = hc.PostForm(ts.URL+"/add_ride", url.Values{"vehicle": {"V"}, "start": {"A"}, "end": {"B"}, "date": {"d"}, "time": {"t"}, "capacity": {"4"}})
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("form add_ride: %v %v", resp, err)
	}
	resp.Body.Close()
}

func TestChartsArePublic(t *testing.T) {
	ts := newTestServer(t)
	for path, want := range map[string]string{
		"/co2-data":          `{"months":["Jan","Feb","Mar","Apr","May","Jun"],"values":[12,18,10,25,30,22]}`,
		"/ride-distribution": `{"labels":["Completed","Pending","Cancelled"],"values":[65,20,15]}`,
		"/emission-data":     `{"labels":["Normal Ride","Shared Ride"],"values":[180,110]}`,
	} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		resp.Body.Close()
		if strings.TrimSpace(buf.String()) != want {
			t.Fatalf("%s = %s, want %s", path, buf.String(), want)
		}
	}
}

func TestFormDescriptors(t *testing.T) {
	c := newClient(t, newTestServer(t))
	code, body := c.do(http.MethodGet, "/register", nil)
	if code != http.StatusOK || body["form"] != "register" {
		t.Fatalf("register form: %d %v", code, body)
	}
	if code, _ := c.do(http.MethodGet, "/add_ride", nil); code != http.StatusForbidden {
		t.Fatalf("add_ride form must be gated, got %d", code)
	}
}
