package transport

import (
	"net/http"

	"loyalty-points/internal/middleware"
	"loyalty-points/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutHandler settles the authenticated customer's cart
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// RegisterRoutes registers the checkout route. rateLimit may be nil.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, authMiddleware, rateLimit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		if rateLimit != nil {
			r.Use(rateLimit)
		}
		r.Post("/api/checkout", h.Checkout)
	})
}

// Checkout responds 200 with the settlement result, including partial
// failures. Only fatal errors produce an error envelope.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomer(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.checkoutService.Checkout(r.Context(), customerID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "checkout failed")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}
