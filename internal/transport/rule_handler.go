package transport

import (
	"net/http"
	"time"

	"loyalty-points/internal/middleware"
	"loyalty-points/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// RuleRequest represents the point earning rule create payload. Dates are
// calendar dates; end_date may be omitted for an open-ended rule.
type RuleRequest struct {
	PointsPerDollar int     `json:"points_per_dollar" validate:"required,gt=0,lte=1000"`
	StartDate       string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// RuleHandler manages point earning rules of a category
type RuleHandler struct {
	ruleService service.RuleService
	clock       service.Clock
	logger      *zap.Logger
}

// NewRuleHandler creates a new RuleHandler
func NewRuleHandler(ruleService service.RuleService, clock service.Clock, logger *zap.Logger) *RuleHandler {
	if clock == nil {
		clock = time.Now
	}
	return &RuleHandler{
		ruleService: ruleService,
		clock:       clock,
		logger:      logger,
	}
}

// RegisterRoutes registers the rule routes
func (h *RuleHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/categories/{id}/rules", h.ListRules)
	r.Get("/api/categories/{id}/rules/active", h.ActiveRule)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/api/categories/{id}/rules", h.CreateRule)
		r.Delete("/api/rules/{id}", h.DeleteRule)
	})
}

func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	rules, err := h.ruleService.ListByCategory(r.Context(), categoryID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list rules")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, rules)
}

// ActiveRule returns the rule applying on ?date=YYYY-MM-DD, defaulting to today
func (h *RuleHandler) ActiveRule(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	on := h.clock().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
			return
		}
		on = parsed
	}

	rule, err := h.ruleService.ActiveRule(r.Context(), categoryID, on)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get active rule")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req RuleRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	// formats were checked by the validator
	start, _ := time.Parse(dateLayout, req.StartDate)
	input := service.RuleInput{
		CategoryID:      categoryID,
		PointsPerDollar: req.PointsPerDollar,
		StartDate:       start,
	}
	if req.EndDate != nil {
		end, _ := time.Parse(dateLayout, *req.EndDate)
		input.EndDate = &end
	}

	rule, err := h.ruleService.Create(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create rule")
		return
	}

	h.logger.Info("Point earning rule created",
		zap.Int64("rule_id", rule.ID),
		zap.Int64("category_id", rule.CategoryID),
		zap.Int("points_per_dollar", rule.PointsPerDollar),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, rule)
}

func (h *RuleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.ruleService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete rule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
