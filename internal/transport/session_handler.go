package transport

import (
	"net/http"
	"time"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/middleware"
	"loyalty-points/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token    string           `json:"token"`
	Customer *domain.Customer `json:"customer"`
}

// SessionHandler handles login and logout
type SessionHandler struct {
	sessionService service.SessionService
	ttl            time.Duration
	secureCookie   bool
	logger         *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionService service.SessionService, ttl time.Duration, secureCookie bool, logger *zap.Logger) *SessionHandler {
	if ttl <= 0 {
		ttl = service.DefaultSessionExpiration
	}
	return &SessionHandler{
		sessionService: sessionService,
		ttl:            ttl,
		secureCookie:   secureCookie,
		logger:         logger,
	}
}

// RegisterRoutes registers the session routes
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/login", h.Login)
	r.Get("/api/logout", h.Logout)
}

// Login starts a session for an existing customer and sets the session cookie
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	token, customer, err := h.sessionService.Login(r.Context(), req.CustomerID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("Customer logged in", zap.Int64("customer_id", customer.ID))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{Token: token, Customer: customer})
}

// Logout clears the session cookie
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}
