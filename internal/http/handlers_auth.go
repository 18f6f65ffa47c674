package httpapi

import (
	"errors"
	"net/http"

	"github.com/example/ridewise/internal/accounts"
	"github.com/example/ridewise/internal/models"
	"github.com/example/ridewise/internal/observability"
	"github.com/example/ridewise/internal/session"
)

var dashboards = map[models.Role]string{
	models.RoleRider:  "/rider/dashboard",
	models.RoleDriver: "/driver/dashboard",
	models.RoleAdmin:  "/admin/dashboard",
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"view": "landing", "links": []string{"/register", "/login"}}
	if sess := session.FromContext(r.Context()); sess != nil {
		resp["name"] = sess.Name
		resp["role"] = sess.Role
		resp["links"] = []string{dashboards[sess.Role], "/logout"}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	writeForm(w, "register", "/register", "name", "email", "password", "phone")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	a, err := s.accounts.Register(r.Context(), accounts.RegisterInput{
		Name:     f["name"],
		Email:    f["email"],
		Password: f["password"],
		Phone:    f["phone"],
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info("account registered", "account_id", a.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"account_id": a.ID, "redirect": "/login"})
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	writeForm(w, "login", "/login", "email", "password", "role")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	a, err := s.accounts.Authenticate(r.Context(), f["email"], f["password"])
	if err != nil {
		outcome := "error"
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			outcome = "invalid_credentials"
		}
		observability.LoginsTotal.WithLabelValues(roleLabel(f["role"]), outcome).Inc()
		s.writeServiceError(w, r, err)
		return
	}
	role, ok := models.ParseRole(f["role"])
	if !ok {
		observability.LoginsTotal.WithLabelValues("unknown", "bad_role").Inc()
		writeError(w, http.StatusBadRequest, kindBadRequest, "role must be rider, driver or admin")
		return
	}
	if !s.policy.Allows(a, role) {
		observability.LoginsTotal.WithLabelValues(string(role), "denied").Inc()
		s.logger.Warn("role not granted", "account_id", a.ID, "role", role)
		writeError(w, http.StatusForbidden, kindAccessDenied, "Access Denied")
		return
	}

	// a fresh login replaces whatever session the client held
	if old := session.FromContext(r.Context()); old != nil {
		_ = s.sessions.Delete(r.Context(), old.ID)
	}
	sess := session.New(a, role)
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	observability.LoginsTotal.WithLabelValues(string(role), "ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"name": a.Name, "role": role, "redirect": dashboards[role]})
}

// roleLabel keeps the metric label set closed over the known roles.
func roleLabel(raw string) string {
	if role, ok := models.ParseRole(raw); ok {
		return string(role)
	}
	return "unknown"
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil {
		if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
			s.logger.Error("session delete failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out", "redirect": "/login"})
}
