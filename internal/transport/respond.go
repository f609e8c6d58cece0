package transport

import (
	"errors"
	"net/http"
	"strconv"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/middleware"
	"loyalty-points/internal/repository"
	"loyalty-points/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// decodeRequest decodes and validates a JSON body, writing the 400 response
// itself when the body is unusable.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// idParam parses a positive integer path parameter
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// currentCustomer returns the authenticated customer id
func currentCustomer(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	customerID, ok := middleware.GetCustomerID(r.Context())
	if !ok {
		logger.Error("Customer ID not found in context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return customerID, true
}

// statusFor maps service and repository errors to HTTP status codes
func statusFor(err error) int {
	var pErr *service.PersistenceError
	switch {
	case errors.As(err, &pErr):
		return http.StatusInternalServerError
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, repository.ErrLoyaltyAccountNotFound),
		errors.Is(err, repository.ErrCustomerNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrRuleNotFound),
		errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrCartItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidRate),
		errors.Is(err, service.ErrInvalidRuleWindow),
		errors.Is(err, repository.ErrQuantityOutOfRange),
		errors.Is(err, domain.ErrPointsOverflow):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnknownLogin):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrCustomerAlreadyExists),
		errors.Is(err, repository.ErrCategoryAlreadyExists),
		errors.Is(err, repository.ErrLoyaltyAccountAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes the error envelope for err. Server errors
// hide the underlying message behind fallback.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, status, fallback)
		return
	}

	logger.Debug(fallback, zap.Int("status", status), zap.Error(err))
	middleware.RespondWithError(w, status, err.Error())
}
