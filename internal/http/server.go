package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ridewise/internal/accounts"
	"github.com/example/ridewise/internal/booking"
	"github.com/example/ridewise/internal/dispatch"
	"github.com/example/ridewise/internal/models"
	"github.com/example/ridewise/internal/session"
)

// EcoTotals reads the aggregate counters maintained by the booking consumer.
type EcoTotals interface {
	Totals(ctx context.Context) (map[string]float64, error)
}

type Deps struct {
	Accounts     *accounts.Service
	Engine       *booking.Engine
	Sessions     session.Store
	Policy       session.Policy
	WSReg        *dispatch.WSRegistry
	EcoTotals    EcoTotals
	Logger       *slog.Logger
	SessionTTL   time.Duration
	SecureCookie bool
}

type Server struct {
	accounts     *accounts.Service
	engine       *booking.Engine
	sessions     session.Store
	policy       session.Policy
	wsreg        *dispatch.WSRegistry
	ecoTotals    EcoTotals
	logger       *slog.Logger
	sessionTTL   time.Duration
	secureCookie bool
	mux          *mux.Router
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := d.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	wsreg := d.WSReg
	if wsreg == nil {
		wsreg = dispatch.NewWSRegistry()
	}
	s := &Server{
		accounts:     d.Accounts,
		engine:       d.Engine,
		sessions:     d.Sessions,
		policy:       d.Policy,
		wsreg:        wsreg,
		ecoTotals:    d.EcoTotals,
		logger:       logger,
		sessionTTL:   ttl,
		secureCookie: d.SecureCookie,
		mux:          mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleLanding).Methods(http.MethodGet)

	s.mux.HandleFunc("/register", s.handleRegisterForm).Methods(http.MethodGet)
	s.mux.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	s.mux.HandleFunc("/login", s.handleLoginForm).Methods(http.MethodGet)
	s.mux.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	s.mux.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)

	s.mux.Handle("/rider/dashboard", s.requireRole(models.RoleRider, s.handleDashboard)).Methods(http.MethodGet)
	s.mux.Handle("/driver/dashboard", s.requireRole(models.RoleDriver, s.handleDashboard)).Methods(http.MethodGet)
	s.mux.Handle("/admin/dashboard", s.requireRole(models.RoleAdmin, s.handleAdminDashboard)).Methods(http.MethodGet)

	s.mux.Handle("/book_ride", s.requireRole(models.RoleRider, s.handleBookRideForm)).Methods(http.MethodGet)
	s.mux.Handle("/book_ride", s.requireRole(models.RoleRider, s.handleBookRide)).Methods(http.MethodPost)
	s.mux.Handle("/add_ride", s.requireRole(models.RoleDriver, s.handleAddRideForm)).Methods(http.MethodGet)
	s.mux.Handle("/add_ride", s.requireRole(models.RoleDriver, s.handleAddRide)).Methods(http.MethodPost)
	s.mux.Handle("/rider_history", s.requireRole(models.RoleRider, s.handleRiderHistory)).Methods(http.MethodGet)
	s.mux.Handle("/driver_history", s.requireRole(models.RoleDriver, s.handleDriverHistory)).Methods(http.MethodGet)

	s.mux.HandleFunc("/co2-data", s.handleCO2Data).Methods(http.MethodGet)
	s.mux.HandleFunc("/ride-distribution", s.handleRideDistribution).Methods(http.MethodGet)
	s.mux.HandleFunc("/emission-data", s.handleEmissionData).Methods(http.MethodGet)

	s.mux.Handle("/ws/driver", s.requireRole(models.RoleDriver, s.handleDriverWS))

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }
