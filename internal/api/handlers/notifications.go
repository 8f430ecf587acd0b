package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type SendRequest struct {
	service.NotificationInput
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"userId"`
}

type MulticastRequest struct {
	service.NotificationInput
	Tokens []string `json:"tokens"`
}

type TopicRequest struct {
	service.NotificationInput
	Topic string `json:"topic"`
}

type SendResponse struct {
	Message string `json:"message"`
	*service.SendResult
}

type MulticastResponse struct {
	Message string `json:"message"`
	*service.MulticastResult
}

type SimulateResponse struct {
	Message string `json:"message"`
	*service.SimulatedResult
}

func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	if req.UserID == uuid.Nil {
		WriteError(w, r, fmt.Errorf("%w: userId is required", domain.ErrValidationFailed))
		return
	}

	result, err := h.notificationService.SendToUser(r.Context(), req.UserID, req.Token, req.NotificationInput)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SendResponse{Message: "Notification sent successfully", SendResult: result})
}

func (h *NotificationHandler) SendMulticast(w http.ResponseWriter, r *http.Request) {
	var req MulticastRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	result, err := h.notificationService.SendMulticast(r.Context(), req.Tokens, req.NotificationInput)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MulticastResponse{Message: "Multicast notifications sent", MulticastResult: result})
}

func (h *NotificationHandler) SendTopic(w http.ResponseWriter, r *http.Request) {
	var req TopicRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	result, err := h.notificationService.SendTopic(r.Context(), req.Topic, req.NotificationInput)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SendResponse{Message: "Topic notification sent successfully", SendResult: result})
}

func (h *NotificationHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	result, err := h.notificationService.Simulate(r.Context(), req.Token, req.NotificationInput)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SimulateResponse{Message: "Notification simulated successfully", SimulatedResult: result})
}
