package httpapi

import (
	"net/http"
)

// createOrder сохраняет заказ напрямую, без корзины и без списания остатков.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	order, err := h.deps.Orders.Create(r.Context(), req.toDomain())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, createOrderResponse{OrderID: order.ID, Message: "Order placed successfully"})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.deps.Orders.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	respondJSON(w, http.StatusOK, resp)
}
