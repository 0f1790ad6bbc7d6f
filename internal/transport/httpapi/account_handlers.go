package httpapi

import (
	"net/http"
)

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.deps.Accounts.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, adminLoginResponse{
		Success: true,
		User:    userResponse{ID: session.UserID, Username: session.Username, Role: session.Role},
		Token:   session.Token,
	})
}

func (h *Handler) customerSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	customer, err := h.deps.Accounts.CustomerSignup(r.Context(), req.toDomain())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, customerAuthResponse{
		Success:  true,
		Customer: newCustomerResponse(customer),
		Message:  "Account created successfully",
	})
}

func (h *Handler) customerLogin(w http.ResponseWriter, r *http.Request) {
	var req customerLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.deps.Accounts.CustomerLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	resp := customerAuthResponse{Success: true, Token: session.Token}
	if session.Customer != nil {
		resp.Customer = newCustomerResponse(*session.Customer)
	}
	respondJSON(w, http.StatusOK, resp)
}
