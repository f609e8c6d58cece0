package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RequireSelf ensures the customer id in the URL parameter param belongs to
// the authenticated customer. It must run after AuthMiddleware.
func RequireSelf(param string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerID, ok := GetCustomerID(r.Context())
			if !ok {
				logger.Warn("Customer not found in context")
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			target, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, "invalid customer ID")
				return
			}

			if target != customerID {
				logger.Warn("Customer attempted to access another customer's resource",
					zap.Int64("customer_id", customerID),
					zap.Int64("target_id", target),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
