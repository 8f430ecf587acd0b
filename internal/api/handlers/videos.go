package handlers

import (
	"net/http"

	"github.com/ndeks/nextlevel-backend/internal/service"
)

type VideoHandler struct {
	videoService *service.VideoService
}

func NewVideoHandler(videoService *service.VideoService) *VideoHandler {
	return &VideoHandler{videoService: videoService}
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videoService.List(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	video, err := h.videoService.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req service.VideoInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	video, err := h.videoService.Create(r.Context(), principal, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, video)
}

func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req service.VideoInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	video, err := h.videoService.Update(r.Context(), principal, id, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.videoService.Delete(r.Context(), principal, id); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Video deleted successfully"})
}
