// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/animebell/internal/breaker"
	"github.com/tomtom215/animebell/internal/models"
)

const maxErrorBody = 4 << 10

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// API is the REST surface the Store needs. *APIClient implements it.
type API interface {
	List(ctx context.Context, page, limit int) ([]*models.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// APIClient calls /api/notifications with a bearer token.
type APIClient struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[any]
}

// NewAPIClient targets baseURL, e.g. "http://localhost:5000/api".
func NewAPIClient(baseURL string, tokens TokenSource, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker.New(breaker.DefaultConfig("notifications-api"), isBreakerSuccess),
	}
}

// isBreakerSuccess keeps client errors and cancellations from opening the
// breaker; only transport failures and 5xx count.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrNoCredential) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

func (c *APIClient) List(ctx context.Context, page, limit int) ([]*models.Notification, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var resp models.ListResponse
	if err := c.do(ctx, http.MethodGet, "/notifications?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

func (c *APIClient) UnreadCount(ctx context.Context) (int, error) {
	var resp models.CountResponse
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *APIClient) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil)
}

func (c *APIClient) MarkAllRead(ctx context.Context) (int64, error) {
	var resp models.MutationResponse
	if err := c.do(ctx, http.MethodPatch, "/notifications/mark-all-read", &resp); err != nil {
		return 0, err
	}
	if resp.Updated == nil {
		return 0, nil
	}
	return *resp.Updated, nil
}

func (c *APIClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil)
}

func (c *APIClient) DeleteAll(ctx context.Context) (int64, error) {
	var resp models.MutationResponse
	if err := c.do(ctx, http.MethodDelete, "/notifications", &resp); err != nil {
		return 0, err
	}
	if resp.Deleted == nil {
		return 0, nil
	}
	return *resp.Deleted, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, out interface{}) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return err
}

func (c *APIClient) roundTrip(ctx context.Context, method, path string, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNoCredential
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	var er models.ErrorResponse
	if json.Unmarshal(body, &er) == nil && er.Error != nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
