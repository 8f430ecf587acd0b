package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ndeks/nextlevel-backend/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Upsert creates or overwrites the caller's profile.
func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req service.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	profile, err := h.profileService.Upsert(r.Context(), principal, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Get returns the profile named by the id parameter, or the caller's own
// profile when there is none.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	userID := principal.ID
	if chi.URLParam(r, "id") != "" {
		if userID, err = uuidParam(r, "id"); err != nil {
			WriteError(w, r, err)
			return
		}
	}

	profile, err := h.profileService.Get(r.Context(), principal, userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateByID(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	userID, err := uuidParam(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req service.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	profile, err := h.profileService.UpdateByID(r.Context(), principal, userID, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
