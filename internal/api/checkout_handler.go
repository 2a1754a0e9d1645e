package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/semenovm/ucp-checkout/internal/catalog"
	"github.com/semenovm/ucp-checkout/internal/checkout"
	"github.com/semenovm/ucp-checkout/internal/domain"
	"github.com/semenovm/ucp-checkout/internal/payment"
)

// CheckoutHandler serves the checkout-session endpoints.
type CheckoutHandler struct {
	service *checkout.Service
}

func NewCheckoutHandler(service *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req checkout.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.LineItems) == 0 {
		respondError(w, http.StatusBadRequest, "line_items must not be empty")
		return
	}

	chk, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, chk)
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	chk, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chk)
}

func (h *CheckoutHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req checkout.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chk, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chk)
}

func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req domain.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chk, err := h.service.Complete(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chk)
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	chk, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chk)
}

func (h *CheckoutHandler) respondCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrCheckoutNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrCheckoutExists),
		errors.Is(err, checkout.ErrCheckoutTerminal):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrPaymentDeclined):
		respondError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, checkout.ErrFulfillmentUnselected),
		errors.Is(err, checkout.ErrInvalidSelection),
		errors.Is(err, checkout.ErrInvalidQuantity),
		errors.Is(err, payment.ErrInvalidCredential),
		errors.Is(err, payment.ErrUnknownHandler):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("checkout handler: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
