package transport

import (
	"net/http"

	"loyalty-points/internal/middleware"
	"loyalty-points/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CustomerRequest represents the customer registration and update payload
type CustomerRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// CustomerHandler handles HTTP requests for customers
type CustomerHandler struct {
	customerService service.CustomerService
	logger          *zap.Logger
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// RegisterRoutes registers all customer routes
func (h *CustomerHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/customers", func(r chi.Router) {
		// Public routes
		r.Post("/", h.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/", h.List)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSelf("id", h.logger))
				r.Get("/{id}", h.Get)
				r.Put("/{id}", h.Update)
				r.Delete("/{id}", h.Delete)
			})
		})
	})
}

// Register creates a customer together with an empty loyalty account
func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	customer, err := h.customerService.Register(r.Context(), req.Name, req.Email)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to register customer")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list customers")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	customer, err := h.customerService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get customer")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req CustomerRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	customer, err := h.customerService.Update(r.Context(), id, req.Name, req.Email)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update customer")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.customerService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete customer")
		return
	}

	h.logger.Info("Customer deleted", zap.Int64("customer_id", id))
	w.WriteHeader(http.StatusNoContent)
}
