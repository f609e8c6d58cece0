package transport

import (
	"net/http"

	"loyalty-points/internal/middleware"
	"loyalty-points/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PointsResponse is the customer's current balance
type PointsResponse struct {
	CustomerID int64 `json:"customer_id"`
	Points     int64 `json:"points"`
}

// LoyaltyHandler exposes balances and earning history
type LoyaltyHandler struct {
	loyaltyService service.LoyaltyService
	logger         *zap.Logger
}

// NewLoyaltyHandler creates a new LoyaltyHandler
func NewLoyaltyHandler(loyaltyService service.LoyaltyService, logger *zap.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{
		loyaltyService: loyaltyService,
		logger:         logger,
	}
}

// RegisterRoutes registers the points routes
func (h *LoyaltyHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/points", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetPoints)
		r.Get("/transactions", h.ListTransactions)
	})
}

func (h *LoyaltyHandler) GetPoints(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomer(w, r, h.logger)
	if !ok {
		return
	}

	account, err := h.loyaltyService.GetPoints(r.Context(), customerID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get points")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PointsResponse{CustomerID: customerID, Points: account.Points})
}

func (h *LoyaltyHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomer(w, r, h.logger)
	if !ok {
		return
	}

	transactions, err := h.loyaltyService.ListTransactions(r.Context(), customerID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list point transactions")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, transactions)
}
