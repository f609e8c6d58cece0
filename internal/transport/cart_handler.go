package transport

import (
	"net/http"

	"loyalty-points/internal/middleware"
	"loyalty-points/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddCartItemRequest adds quantity units of a product to the cart
type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=10000"`
}

// UpdateCartItemRequest sets a line's quantity; zero removes the line
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=10000"`
}

// CartHandler manages the authenticated customer's cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers the cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCart)
		r.Post("/", h.AddItem)
		r.Delete("/", h.Clear)
		r.Put("/{productID}", h.UpdateItem)
		r.Delete("/{productID}", h.RemoveItem)
	})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomer(w, r, h.logger)
	if !ok {
		return
	}
	h.respondWithCart(w, r, customerID, http.StatusOK)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomer(w, r, h.logger)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if err := h.cartService.AddItem(r.Context(), customerID, req.ProductID, req.Quantity); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to add cart item")
		return
	}

	h.respondWithCart(w, r, customerID, http.StatusCreated)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomer(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if err := h.cartService.UpdateItemQuantity(r.Context(), customerID, productID, *req.Quantity); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update cart item")
		return
	}

	h.respondWithCart(w, r, customerID, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomer(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.cartService.RemoveItem(r.Context(), customerID, productID); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to remove cart item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomer(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.cartService.Clear(r.Context(), customerID); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to clear cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, customerID int64, status int) {
	cart, err := h.cartService.GetCart(r.Context(), customerID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get cart")
		return
	}
	middleware.RespondWithJSON(w, status, cart)
}
