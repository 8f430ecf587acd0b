package handlers

import (
	"net/http"

	"github.com/ndeks/nextlevel-backend/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type DeviceTokenRequest struct {
	DeviceToken string `json:"deviceToken"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	users, err := h.userService.List(r.Context(), principal)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.userService.Get(r.Context(), principal, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req service.UpdateUserInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.userService.Update(r.Context(), principal, id, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), principal, id); err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

// UpdateDeviceToken stores the caller's push device token after a test
// notification reaches it.
func (h *UserHandler) UpdateDeviceToken(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req DeviceTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.userService.UpdateDeviceToken(r.Context(), principal, req.DeviceToken); err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Device token updated successfully"})
}
