package httpapi

import (
	"errors"
	"net/http"

	"github.com/example/ridewise/internal/booking"
	"github.com/example/ridewise/internal/session"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, map[string]any{"view": string(sess.Role) + "_dashboard", "name": sess.Name})
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	resp := map[string]any{"view": "admin_dashboard", "name": sess.Name}
	if s.ecoTotals != nil {
		totals, err := s.ecoTotals.Totals(r.Context())
		if err != nil {
			s.logger.Warn("eco totals unavailable", "error", err)
		} else {
			resp["eco_totals"] = totals
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBookRideForm(w http.ResponseWriter, r *http.Request, _ *session.Session) {
	writeForm(w, "book_ride", "/book_ride", "start", "end", "date", "time", "people")
}

func (s *Server) handleBookRide(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	f, err := readFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	people, err := intField(f, "people")
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	b, err := s.engine.BookRide(r.Context(), booking.BookRequest{
		RiderID:     sess.AccountID,
		Origin:      f["start"],
		Destination: f["end"],
		Date:        f["date"],
		Time:        f["time"],
		PartySize:   people,
	})
	if errors.Is(err, booking.ErrNoMatchingOffer) {
		writeJSON(w, http.StatusOK, map[string]any{
			"outcome": "no_matching_offer",
			"message": "Sorry, no ride matches your request.",
		})
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"outcome": "booked", "booking": b, "redirect": "/rider_history"})
}

func (s *Server) handleAddRideForm(w http.ResponseWriter, r *http.Request, _ *session.Session) {
	writeForm(w, "add_ride", "/add_ride", "vehicle", "start", "end", "date", "time", "capacity")
}

func (s *Server) handleAddRide(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	f, err := readFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	capacity, err := intField(f, "capacity")
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	o, err := s.engine.AddOffer(r.Context(), booking.AddOfferInput{
		DriverID:    sess.AccountID,
		Vehicle:     f["vehicle"],
		Origin:      f["start"],
		Destination: f["end"],
		Date:        f["date"],
		Time:        f["time"],
		Capacity:    capacity,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"offer": o, "redirect": "/driver_history"})
}

func (s *Server) handleRiderHistory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	rides, err := s.engine.RiderHistory(r.Context(), sess.AccountID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rides": rides})
}

func (s *Server) handleDriverHistory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	bookings, err := s.engine.DriverHistory(r.Context(), sess.AccountID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	offers, err := s.engine.DriverOffers(r.Context(), sess.AccountID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings, "offers": offers})
}
