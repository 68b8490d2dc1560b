package api

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/handler"
	"github.com/dukerupert/taxsim/internal/service"
)

// UserHandler serves account administration under /api/users. Routes are
// registered behind RequireRole(ADMINISTRATOR).
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_user"

	var req CreateUserRequest
	if err := decodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := validateStruct(op, req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	user, err := h.users.Create(r.Context(), service.CreateUserParams{
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusCreated, newUserResponse(user))
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = newUserResponse(&users[i])
	}
	handler.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/users/{username}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), r.PathValue("username"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, newUserResponse(user))
}

// Update handles PUT /api/users/{username}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_user"

	var req UpdateUserRequest
	if err := decodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := validateStruct(op, req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	user, err := h.users.Update(r.Context(), r.PathValue("username"), service.UpdateUserParams{
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, newUserResponse(user))
}

// Delete handles DELETE /api/users/{username}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := domain.MustPrincipal(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.users.Delete(r.Context(), r.PathValue("username"), *actor); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
