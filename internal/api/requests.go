// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/animebell/internal/models"
	"github.com/tomtom215/animebell/internal/notification"
)

const maxCreateBodyBytes = 16 << 10

// ListRequest holds the paging query of GET /api/notifications.
type ListRequest struct {
	Page  int `json:"page" validate:"min=1"`
	Limit int `json:"limit" validate:"min=1,max=100"`
}

// CreateNotificationRequest is the body of POST /api/notifications. The
// sender is always the authenticated caller.
type CreateNotificationRequest struct {
	Type         string  `json:"type" validate:"required,oneof=friend_request friend_accept anime_recommend system"`
	RecipientID  string  `json:"recipient_id" validate:"required,max=64"`
	Message      string  `json:"message" validate:"required,min=1,max=500"`
	RelatedID    *string `json:"related_id,omitempty" validate:"omitempty,max=64"`
	SenderName   *string `json:"sender_name,omitempty" validate:"omitempty,max=100"`
	SenderAvatar *string `json:"sender_avatar,omitempty" validate:"omitempty,url,max=2048"`
	AnimeTitle   *string `json:"anime_title,omitempty" validate:"omitempty,max=200"`
}

func (req *CreateNotificationRequest) toInput(senderID string) notification.CreateInput {
	return notification.CreateInput{
		Type:         models.NotificationType(req.Type),
		SenderID:     models.StringPtr(senderID),
		RecipientID:  req.RecipientID,
		Message:      req.Message,
		RelatedID:    req.RelatedID,
		SenderName:   req.SenderName,
		SenderAvatar: req.SenderAvatar,
		AnimeTitle:   req.AnimeTitle,
	}
}

// parseListRequest reads page and limit. Absent values take the defaults;
// present but non-numeric values are an error.
func parseListRequest(r *http.Request, defaultLimit int) (ListRequest, error) {
	req := ListRequest{Page: 1, Limit: defaultLimit}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("page must be an integer")
		}
		req.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("limit must be an integer")
		}
		req.Limit = n
	}
	return req, nil
}

func decodeCreateRequest(w http.ResponseWriter, r *http.Request) (*CreateNotificationRequest, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBodyBytes))
	dec.DisallowUnknownFields()

	var req CreateNotificationRequest
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body is empty")
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return &req, nil
}
