package httpapi

import (
	"net/http"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/service"
)

// checkoutRequest reads the body and fills items from the stored cart when the
// client sent none.
func (h *Handler) checkoutRequest(r *http.Request, method domain.PaymentMethod) (service.CheckoutRequest, error) {
	var body CheckoutRequest
	if err := decodeJSON(r, &body); err != nil {
		return service.CheckoutRequest{}, err
	}

	if method == "" {
		m, err := domain.ParsePaymentMethod(body.PaymentMethod)
		if err != nil {
			return service.CheckoutRequest{}, err
		}
		method = m
	}

	req := service.CheckoutRequest{
		Items:         body.CartItems,
		Address:       body.ShippingAddress,
		PaymentMethod: method,
	}

	owner, ok, err := existingCart(r)
	if err != nil {
		return service.CheckoutRequest{}, err
	}
	if ok {
		req.Owner = &owner
		if len(req.Items) == 0 {
			cart, err := h.carts.Get(r.Context(), owner)
			if err != nil {
				return service.CheckoutRequest{}, err
			}
			req.Items = cart.Items
		}
	}

	return req, nil
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	req, err := h.checkoutRequest(r, "")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	res, err := h.checkout.Checkout(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeResult(w, res)
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var body CheckoutRequest
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}

	q, err := h.checkout.Quote(r.Context(), body.CartItems)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapQuoteToResponse(q))
}

func (h *Handler) createIntent(w http.ResponseWriter, r *http.Request) {
	req, err := h.checkoutRequest(r, domain.PaymentCard)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	res, err := h.checkout.BeginCardPayment(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeResult(w, res)
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var body ConfirmRequest
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}

	res, err := h.checkout.ConfirmCardPayment(r.Context(), body.PaymentIntentID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeResult(w, res)
}

func (h *Handler) reconciliations(w http.ResponseWriter, r *http.Request) {
	list, err := h.checkout.PendingReconciliations(r.Context(), intParam(r, "limit", 100, 1, 500))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	out := make([]ReconciliationResponse, 0, len(list))
	for _, c := range list {
		out = append(out, mapCheckoutToReconciliation(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

// writeResult answers 202 when the customer paid but the order still needs a human.
func writeResult(w http.ResponseWriter, res domain.CheckoutResult) {
	status := http.StatusOK
	if res.Outcome == domain.OutcomeFulfillmentPending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, mapResultToResponse(res))
}
