package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
)

const (
	// SessionName — имя cookie сессии покупателя.
	SessionName    = "storefront_session"
	sessionCartKey = "cart_id"
)

// cartSessionID возвращает идентификатор корзины из cookie, создавая его при первом обращении.
func (h *Handler) cartSessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := h.deps.Sessions.Get(r, SessionName)
	if err != nil {
		// Невалидная cookie: sessions возвращает новую пустую сессию.
		h.opts.Logger.WithError(err).Debug("session cookie rejected")
	}
	if sess == nil {
		return "", fmt.Errorf("session store returned no session: %w", err)
	}
	if id, ok := sess.Values[sessionCartKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	sess.Values[sessionCartKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return id, nil
}

// loadCart восстанавливает корзину сессии против текущего снимка каталога.
func (h *Handler) loadCart(w http.ResponseWriter, r *http.Request) (*cart.Session, bool) {
	id, err := h.cartSessionID(w, r)
	if err != nil {
		h.respondDomainError(w, r, err)
		return nil, false
	}
	products, err := h.deps.Catalog.ListProducts(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return nil, false
	}
	s, err := h.deps.Carts.Load(r.Context(), id, cart.NewSnapshot(products))
	if err != nil {
		h.respondDomainError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(s.Cart))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	if err := h.deps.Carts.Clear(r.Context(), s); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(s.Cart))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	h.mutateCart(w, r, func(s *cart.Session) error {
		return h.deps.Carts.AddUnit(r.Context(), s, req.ProductID)
	})
}

func (h *Handler) increaseCartItem(w http.ResponseWriter, r *http.Request) {
	h.mutateCartItem(w, r, h.deps.Carts.Increase)
}

func (h *Handler) decreaseCartItem(w http.ResponseWriter, r *http.Request) {
	h.mutateCartItem(w, r, h.deps.Carts.Decrease)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	h.mutateCartItem(w, r, h.deps.Carts.RemoveAll)
}

func (h *Handler) removeCartUnit(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_index", "index must be an integer")
		return
	}
	h.mutateCart(w, r, func(s *cart.Session) error {
		return h.deps.Carts.RemoveAt(r.Context(), s, index)
	})
}

type cartItemOp func(ctx context.Context, s *cart.Session, productID int64) error

func (h *Handler) mutateCartItem(w http.ResponseWriter, r *http.Request, op cartItemOp) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	h.mutateCart(w, r, func(s *cart.Session) error {
		return op(r.Context(), s, id)
	})
}

func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, fn func(s *cart.Session) error) {
	s, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	if err := fn(s); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(s.Cart))
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req detailsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	result, err := h.deps.Checkout.Checkout(r.Context(), s, req.toDomain())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCheckoutResponse(result))
}
