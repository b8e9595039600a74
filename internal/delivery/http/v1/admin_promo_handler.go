package v1

import (
	"errors"
	"net/http"
	"strings"

	"aetheria-backend/internal/domain"
	"aetheria-backend/internal/promo"
	"aetheria-backend/pkg/utils"
)

// AdminPromoHandler handles admin promo rule management endpoints.
// Thin handler layer - validation lives in the promo service.
type AdminPromoHandler struct {
	promoSvc *promo.Service
}

func NewAdminPromoHandler(svc *promo.Service) *AdminPromoHandler {
	return &AdminPromoHandler{promoSvc: svc}
}

// ListRules returns all promo rules.
// GET /api/v1/admin/promos
func (h *AdminPromoHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.promoSvc.ListRules(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rules == nil {
		rules = []domain.PromoRule{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}

// GetRule returns a single promo rule by code.
// GET /api/v1/admin/promos/{code}
func (h *AdminPromoHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.promoSvc.GetRule(r.Context(), r.PathValue("code"))
	if err != nil {
		if errors.Is(err, domain.ErrPromoNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Promo rule not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, rule)
}

// CreateRule creates a new promo rule.
// POST /api/v1/admin/promos
func (h *AdminPromoHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req promo.RuleRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	rule, err := h.promoSvc.CreateRule(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusBadRequest
		}
		utils.WriteError(w, status, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusCreated, rule)
}

// UpdateRule updates an existing promo rule.
// PUT /api/v1/admin/promos/{code}
func (h *AdminPromoHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var req promo.RuleRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	rule, err := h.promoSvc.UpdateRule(r.Context(), r.PathValue("code"), req)
	if err != nil {
		if errors.Is(err, domain.ErrPromoNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Promo rule not found")
			return
		}
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusBadRequest
		}
		utils.WriteError(w, status, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, rule)
}

// DeleteRule deletes a promo rule by code.
// DELETE /api/v1/admin/promos/{code}
func (h *AdminPromoHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.promoSvc.DeleteRule(r.Context(), r.PathValue("code")); err != nil {
		if errors.Is(err, domain.ErrPromoNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Promo rule not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// isValidationError checks if an error is a validation error based on message.
// Simple heuristic - typed errors would be the next step if this grows.
func isValidationError(err error) bool {
	msg := err.Error()
	for _, phrase := range []string{
		"is required",
		"must be",
		"cannot exceed",
		"cannot be negative",
		"already exists",
		"invalid",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
