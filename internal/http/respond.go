package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/example/ridewise/internal/accounts"
	"github.com/example/ridewise/internal/booking"
	"github.com/example/ridewise/internal/models"
)

type errorKind string

const (
	kindDuplicateRegistration errorKind = "duplicate_registration"
	kindInvalidCredentials    errorKind = "invalid_credentials"
	kindAccessDenied          errorKind = "access_denied"
	kindInvalidLocation       errorKind = "invalid_location"
	kindDistanceUnavailable   errorKind = "distance_unavailable"
	kindPaymentFailed         errorKind = "payment_failed"
	kindBadRequest            errorKind = "bad_request"
	kindInternal              errorKind = "internal"
)

type errorBody struct {
	Kind    errorKind `json:"kind"`
	Message string    `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind errorKind, msg string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Kind: kind, Message: msg}})
}

// writeServiceError maps service sentinels onto the error contract.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, accounts.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, kindDuplicateRegistration, "User already exists!")
	case errors.Is(err, accounts.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, kindInvalidCredentials, "Invalid Credentials")
	case errors.Is(err, booking.ErrInvalidLocation):
		writeError(w, http.StatusUnprocessableEntity, kindInvalidLocation, "Invalid location entered")
	case errors.Is(err, booking.ErrDistanceUnavailable):
		writeError(w, http.StatusUnprocessableEntity, kindDistanceUnavailable, "Unable to calculate distance")
	case errors.Is(err, booking.ErrFareHold):
		writeError(w, http.StatusPaymentRequired, kindPaymentFailed, "Unable to authorise the fare")
	case errors.Is(err, accounts.ErrMissingField), errors.Is(err, booking.ErrMissingField),
		errors.Is(err, booking.ErrInvalidPartySize), errors.Is(err, models.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "route", routeTemplate(r), "request_id", requestIDFromContext(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, kindInternal, "internal error")
	}
}

// readFields accepts either a flat JSON object or form encoding.
func readFields(r *http.Request) (map[string]string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			switch t := v.(type) {
			case string:
				out[k] = t
			case float64:
				out[k] = strconv.FormatFloat(t, 'f', -1, 64)
			case bool:
				out[k] = strconv.FormatBool(t)
			case nil:
			default:
				return nil, fmt.Errorf("field %q must be a scalar", k)
			}
		}
		return out, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		out[k] = r.PostForm.Get(k)
	}
	return out, nil
}

func intField(fields map[string]string, name string) (int, error) {
	v, ok := fields[name]
	if !ok || v == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

type formDescriptor struct {
	Form   string   `json:"form"`
	Method string   `json:"method"`
	Action string   `json:"action"`
	Fields []string `json:"fields"`
}

func writeForm(w http.ResponseWriter, name, action string, fields ...string) {
	writeJSON(w, http.StatusOK, formDescriptor{Form: name, Method: http.MethodPost, Action: action, Fields: fields})
}
