// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/animebell/internal/auth"
	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/models"
	"github.com/tomtom215/animebell/internal/notification"
	"github.com/tomtom215/animebell/internal/validation"
)

// Handler serves the notification endpoints for the authenticated caller.
type Handler struct {
	service         *notification.Service
	defaultPageSize int
	maxPageSize     int
	startTime       time.Time
	checks          map[string]ReadinessCheck
}

// NewHandler builds a Handler. cfg may be nil, in which case the service's
// paging defaults apply.
func NewHandler(service *notification.Service, cfg *config.APIConfig) *Handler {
	h := &Handler{
		service:         service,
		defaultPageSize: notification.DefaultPageSize,
		maxPageSize:     notification.MaxPageSize,
		startTime:       time.Now(),
		checks:          map[string]ReadinessCheck{"store": service.Ping},
	}
	if cfg != nil {
		if cfg.DefaultPageSize > 0 {
			h.defaultPageSize = cfg.DefaultPageSize
		}
		if cfg.MaxPageSize > 0 && cfg.MaxPageSize < h.maxPageSize {
			h.maxPageSize = cfg.MaxPageSize
		}
	}
	return h
}

// ListNotifications handles GET /api/notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	req, err := parseListRequest(r, h.defaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeValidationError(w, verr)
		return
	}
	if req.Limit > h.maxPageSize {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "limit exceeds the maximum page size")
		return
	}

	items, err := h.service.List(r.Context(), userID, req.Page, req.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Notification{}
	}
	writeJSON(w, http.StatusOK, models.ListResponse{Notifications: items})
}

// UnreadCount handles GET /api/notifications/unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CountResponse{Count: count})
}

// CreateNotification handles POST /api/notifications.
func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	req, err := decodeCreateRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		writeValidationError(w, verr)
		return
	}

	n, err := h.service.Create(r.Context(), req.toInput(userID))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// MarkRead handles PATCH /api/notifications/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.service.MarkRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MutationResponse{Message: "Notification marked as read"})
}

// MarkAllRead handles PATCH /api/notifications/mark-all-read.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	updated, err := h.service.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MutationResponse{
		Message: "All notifications marked as read",
		Updated: &updated,
	})
}

// DeleteNotification handles DELETE /api/notifications/{id}.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MutationResponse{Message: "Notification deleted"})
}

// DeleteAll handles DELETE /api/notifications.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	deleted, err := h.service.DeleteAll(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MutationResponse{
		Message: "All notifications deleted",
		Deleted: &deleted,
	})
}
