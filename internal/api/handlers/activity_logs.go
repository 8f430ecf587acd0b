package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/service"
)

type ActivityLogHandler struct {
	auditService *service.AuditService
}

func NewActivityLogHandler(auditService *service.AuditService) *ActivityLogHandler {
	return &ActivityLogHandler{auditService: auditService}
}

type CleanupRequest struct {
	DaysOld int `json:"daysOld"`
}

type CleanupResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// Mine lists the caller's own activity.
func (h *ActivityLogHandler) Mine(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.listForUser(w, r, principal, principal.ID)
}

// ForUser lists the activity of the user in the id parameter. Only that
// user or an admin may read it.
func (h *ActivityLogHandler) ForUser(w http.ResponseWriter, r *http.Request) {
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
	if !principal.CanActOn(userID) {
		WriteError(w, r, domain.ErrForbidden)
		return
	}
	h.listForUser(w, r, principal, userID)
}

func (h *ActivityLogHandler) listForUser(w http.ResponseWriter, r *http.Request, principal *domain.Principal, userID uuid.UUID) {
	opts, err := listOptions(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	logs, err := h.auditService.ListForUser(r.Context(), userID, opts)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.auditService.Record(r.Context(), &principal.ID, domain.ActionViewActivityLogs, "Viewed activity logs", domain.Metadata{
		"targetUserId": userID.String(),
		"count":        len(logs),
	})
	writeJSON(w, http.StatusOK, logs)
}

// All lists every user's activity with the owning user attached.
func (h *ActivityLogHandler) All(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("userId"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, r, fmt.Errorf("%w: invalid userId", domain.ErrValidationFailed))
			return
		}
		opts.UserID = &userID
	}

	logs, err := h.auditService.ListAll(r.Context(), opts)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.auditService.Record(r.Context(), &principal.ID, domain.ActionViewActivityLogs, "Viewed all activity logs", domain.Metadata{
		"count": len(logs),
	})
	writeJSON(w, http.StatusOK, logs)
}

// Cleanup purges entries older than daysOld days. A missing or zero value
// uses the configured retention.
func (h *ActivityLogHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req CleanupRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
	}
	if req.DaysOld < 0 {
		WriteError(w, r, fmt.Errorf("%w: daysOld must not be negative", domain.ErrValidationFailed))
		return
	}

	deleted, err := h.auditService.PurgeOlderThan(r.Context(), req.DaysOld)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.auditService.Record(r.Context(), &principal.ID, domain.ActionActivityLogCleanup, "Purged old activity logs", domain.Metadata{
		"daysOld":      req.DaysOld,
		"deletedCount": deleted,
	})
	writeJSON(w, http.StatusOK, CleanupResponse{
		Message:      fmt.Sprintf("Deleted %d old activity logs", deleted),
		DeletedCount: deleted,
	})
}

func listOptions(r *http.Request) (service.ListOptions, error) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		return service.ListOptions{}, err
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		return service.ListOptions{}, err
	}
	return service.ListOptions{
		Limit:  limit,
		Offset: offset,
		Action: domain.AuditAction(r.URL.Query().Get("action")),
	}, nil
}
