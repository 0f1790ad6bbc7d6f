package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   string `json:"details,omitempty"`
	Product   string `json:"product,omitempty"`
	Available *int   `json:"available,omitempty"`
}

type messageResponse struct {
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondDomainError переводит доменную ошибку в HTTP-статус и код.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		code := "stock_exceeded"
		if errors.Is(err, domain.ErrInsufficientStock) {
			code = "insufficient_stock"
		}
		available := stockErr.Available
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:     err.Error(),
			Code:      code,
			Product:   stockErr.ProductName,
			Available: &available,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, domain.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, domain.ErrOrderSubmissionFailed):
		h.opts.Logger.WithError(err).WithField("path", r.URL.Path).Error("order submission failed")
		respondError(w, http.StatusBadGateway, "order_failed", domain.ErrOrderSubmissionFailed.Error())
	case errors.Is(err, domain.ErrCategoryInUse):
		respondError(w, http.StatusBadRequest, "category_in_use", err.Error())
	case errors.Is(err, domain.ErrCartIndexOutOfRange):
		respondError(w, http.StatusBadRequest, "index_out_of_range", err.Error())
	case errors.Is(err, domain.ErrCategoryExists),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrUsernameTaken):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case domain.IsValidation(err):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		h.opts.Logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		respondError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
