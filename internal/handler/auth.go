package handler

import (
	"net/http"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/utils"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if err := decodeJSON(w, r, maxBodyBytes, &in); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.svc.Register(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err, "Error creating user")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, user, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "Error logging in")
		return
	}
	utils.WriteJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// CurrentUser returns the authenticated user
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	user, err := h.svc.CurrentUser(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, err, "Error fetching user")
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}
