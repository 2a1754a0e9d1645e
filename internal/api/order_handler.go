package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/semenovm/ucp-checkout/internal/order"
	"github.com/semenovm/ucp-checkout/internal/order/repository"
)

// OrderHandler serves the order endpoints, including the simulation
// surface.
type OrderHandler struct {
	service *order.Service
}

func NewOrderHandler(service *order.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ord, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req order.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Shape mismatches on the order document are validation
		// failures, not malformed requests.
		respondError(w, http.StatusUnprocessableEntity, "invalid order document: "+err.Error())
		return
	}

	ord, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) SimulateShipping(w http.ResponseWriter, r *http.Request) {
	ord, err := h.service.SimulateShipping(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrValidation):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("order handler: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
