// Package api exposes HTTP handlers for the tasknest service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/GanagallaJoshitha/tasknest/internal/analytics"
	"github.com/GanagallaJoshitha/tasknest/internal/auth"
	"github.com/GanagallaJoshitha/tasknest/internal/domain"
	"github.com/GanagallaJoshitha/tasknest/internal/identity"
)

// Handler coordinates HTTP requests with the domain and identity services.
type Handler struct {
	days  *domain.Service
	users *identity.Service
}

// NewHandler builds a Handler.
func NewHandler(days *domain.Service, users *identity.Service) *Handler {
	return &Handler{days: days, users: users}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/auth/register", h.register)
	mux.HandleFunc("/v1/auth/login", h.login)
	mux.HandleFunc("/v1/auth/me", h.me)
	mux.HandleFunc("/v1/days/", h.dayRoutes)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	user, token, err := h.users.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email_in_use", "email already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{Token: token, User: user})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) || errors.Is(err, identity.ErrWrongPassword) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{Token: token, User: user})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	writeJSON(w, http.StatusOK, h.users.CurrentUser(r.Context(), claims))
}

// dayRoutes dispatches /v1/days/{date}[/...] by path shape.
func (h *Handler) dayRoutes(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/days/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing date")
		return
	}

	date := parts[0]
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
		return
	}

	userID := claims.Subject

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.getDay(w, r, userID, date)
	case len(parts) == 2 && parts[1] == "activities" && r.Method == http.MethodPost:
		h.addActivity(w, r, userID, date)
	case len(parts) == 3 && parts[1] == "activities" && r.Method == http.MethodPut:
		h.updateActivity(w, r, userID, date, parts[2])
	case len(parts) == 3 && parts[1] == "activities" && r.Method == http.MethodDelete:
		h.deleteActivity(w, r, userID, date, parts[2])
	case len(parts) == 2 && parts[1] == "report" && r.Method == http.MethodGet:
		h.dayReport(w, r, userID, date)
	case len(parts) == 2 && parts[1] == "analyze" && r.Method == http.MethodPost:
		h.analyzeDay(w, r, userID, date)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getDay(w http.ResponseWriter, r *http.Request, userID, date string) {
	ledger := h.days.Day(r.Context(), userID, date)
	writeJSON(w, http.StatusOK, toLedgerView(date, ledger))
}

func (h *Handler) addActivity(w http.ResponseWriter, r *http.Request, userID, date string) {
	var req ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	category, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	added, ledger, err := h.days.AddActivity(r.Context(), userID, date, strings.TrimSpace(req.Title), category, req.Hours, req.Minutes)
	if err != nil {
		if errors.Is(err, domain.ErrDayComplete) {
			writeError(w, http.StatusConflict, "day_complete", "the day already has 24 hours logged")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, ActivityResponse{Activity: added, Ledger: toLedgerView(date, ledger)})
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, userID, date, activityID string) {
	var req ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	category, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	updated, ledger, err := h.days.UpdateActivity(r.Context(), userID, date, activityID, strings.TrimSpace(req.Title), category, req.Hours, req.Minutes)
	if err != nil {
		if errors.Is(err, domain.ErrActivityNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "activity not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ActivityResponse{Activity: updated, Ledger: toLedgerView(date, ledger)})
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, userID, date, activityID string) {
	if _, err := h.days.DeleteActivity(r.Context(), userID, date, activityID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dayReport(w http.ResponseWriter, r *http.Request, userID, date string) {
	ledger := h.days.Day(r.Context(), userID, date)
	writeJSON(w, http.StatusOK, analytics.Build(ledger.Activities()))
}

func (h *Handler) analyzeDay(w http.ResponseWriter, r *http.Request, userID, date string) {
	insight, ledger := h.days.Analyze(r.Context(), userID, date)
	writeJSON(w, http.StatusOK, InsightResponse{Insight: insight, Ledger: toLedgerView(date, ledger)})
}

// RegisterRequest is the payload for POST /v1/auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Validate ensures request correctness.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || !strings.Contains(r.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(r.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate ensures request correctness.
func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// ActivityRequest is the payload for creating or editing an activity, with
// the duration split into hour and minute components like the entry form.
type ActivityRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Hours    int    `json:"hours"`
	Minutes  int    `json:"minutes"`
}

// Validate ensures request correctness and resolves the category.
func (r ActivityRequest) Validate() (domain.Category, error) {
	if strings.TrimSpace(r.Title) == "" {
		return "", errors.New("title is required")
	}
	category, err := domain.ParseCategory(r.Category)
	if err != nil {
		return "", err
	}
	if r.Hours < 0 || r.Hours > 24 {
		return "", errors.New("hours must be between 0 and 24")
	}
	if r.Minutes < 0 || r.Minutes > 59 {
		return "", errors.New("minutes must be between 0 and 59")
	}
	if r.Hours*60+r.Minutes <= 0 {
		return "", errors.New("duration must be positive")
	}
	return category, nil
}

// LedgerView is the response shape for a day's ledger.
type LedgerView struct {
	Date             string            `json:"date"`
	Activities       []domain.Activity `json:"activities"`
	TotalMinutes     int               `json:"total_minutes"`
	RemainingMinutes int               `json:"remaining_minutes"`
	IsDayComplete    bool              `json:"is_day_complete"`
	Analyzed         bool              `json:"is_analyzed"`
}

// ActivityResponse pairs a mutated activity with the resulting ledger.
type ActivityResponse struct {
	Activity domain.Activity `json:"activity"`
	Ledger   LedgerView      `json:"ledger"`
}

// InsightResponse pairs an analysis with the ledger it describes.
type InsightResponse struct {
	Insight domain.Insight `json:"insight"`
	Ledger  LedgerView     `json:"ledger"`
}

// SessionResponse carries a fresh token with its user.
type SessionResponse struct {
	Token string        `json:"token"`
	User  identity.User `json:"user"`
}

func toLedgerView(date string, l *domain.Ledger) LedgerView {
	return LedgerView{
		Date:             date,
		Activities:       l.Activities(),
		TotalMinutes:     l.TotalMinutes(),
		RemainingMinutes: l.RemainingMinutes(),
		IsDayComplete:    l.IsDayComplete(),
		Analyzed:         l.Analyzed(),
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
