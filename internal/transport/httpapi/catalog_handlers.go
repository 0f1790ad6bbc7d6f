package httpapi

import (
	"net/http"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.deps.Catalog.ListCategories(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, categoryResponse{ID: c.ID, Name: c.Name})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	category, err := h.deps.Catalog.CreateCategory(r.Context(), req.toDomain())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, messageResponse{ID: category.ID, Message: "Category added successfully"})
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.deps.Catalog.DeleteCategory(r.Context(), id); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Category deleted successfully"})
}

// listProducts поддерживает фильтры ?category= и ?q=.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.deps.Catalog.ListProducts(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	query := r.URL.Query()
	products = catalog.Apply(products, catalog.Filter{
		Category: query.Get("category"),
		Query:    query.Get("q"),
	})

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, newProductResponse(p))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	product, err := h.deps.Catalog.CreateProduct(r.Context(), req.toDomain(0))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, messageResponse{ID: product.ID, Message: "Product added successfully"})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if err := h.deps.Catalog.UpdateProduct(r.Context(), req.toDomain(id)); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Product updated successfully"})
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req stockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if err := h.deps.Catalog.SetStock(r.Context(), id, req.Stock); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Stock updated successfully"})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.deps.Catalog.DeleteProduct(r.Context(), id); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}
