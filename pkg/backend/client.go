// Package backend is the single gateway to the farewell REST API. Every
// request carries the caller's bearer token when one is available, the
// shared response envelope is decoded at this boundary, and auth-class
// statuses are turned into sentinel errors the HTTP layer reacts to
// globally.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prakasajudha/farewell-pet/pkg/flags"
	"github.com/prakasajudha/farewell-pet/pkg/httpx"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Retries    int
	RetryDelay time.Duration
}

func New(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: client,
		Retries:    1,
		RetryDelay: 50 * time.Millisecond,
	}
}

// envelope mirrors httpx.Envelope but keeps data raw for typed decoding.
type envelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    json.RawMessage    `json:"data"`
	Errors  []httpx.FieldError `json:"errors"`
}

// do performs one backend call and decodes the envelope into out (which may
// be nil when the caller only needs success/failure). The envelope message
// is returned for handlers that echo it to the user.
func (c *Client) do(ctx context.Context, method, path, token string, body interface{}, out interface{}) (string, error) {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshal request: %w", err)
		}
	}
	headers := map[string]string{}
	if strings.TrimSpace(token) != "" {
		headers["Authorization"] = "Bearer " + token
	}
	status, respBody, err := httpx.RequestJSON(ctx, c.HTTPClient, method, c.BaseURL+path, raw, headers, c.Retries, c.RetryDelay)
	if err != nil {
		return "", fmt.Errorf("backend %s %s: %w", method, path, err)
	}

	var env envelope
	if len(respBody) > 0 {
		// A malformed envelope on an error status still maps to the status
		// class below; on success it is a hard decode failure.
		if decodeErr := json.Unmarshal(respBody, &env); decodeErr != nil && status < 400 {
			return "", fmt.Errorf("backend %s %s: decode envelope: %w", method, path, decodeErr)
		}
	}

	switch {
	case status == http.StatusUnauthorized:
		return env.Message, ErrUnauthenticated
	case status == http.StatusForbidden:
		return env.Message, ErrForbidden
	case status == http.StatusUnprocessableEntity:
		return env.Message, &ValidationError{Message: env.Message, Fields: env.Errors}
	case status >= 400:
		return env.Message, &APIError{Status: status, Message: env.Message}
	}

	if !env.Success {
		return env.Message, &APIError{Status: status, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env.Message, fmt.Errorf("backend %s %s: decode data: %w", method, path, err)
		}
	}
	return env.Message, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	var out LoginResult
	_, err := c.do(ctx, http.MethodPost, "/v1/user/login", "", req, &out)
	return out, err
}

func (c *Client) ChangePassword(ctx context.Context, token string, req ChangePasswordRequest) (string, error) {
	return c.do(ctx, http.MethodPut, "/v1/user/change-password", token, req, nil)
}

func (c *Client) RegisterUser(ctx context.Context, token string, req RegisterUserRequest) (User, error) {
	var out User
	_, err := c.do(ctx, http.MethodPost, "/v1/user/register", token, req, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var out []User
	_, err := c.do(ctx, http.MethodGet, "/v1/user/users", token, nil, &out)
	return out, err
}

func (c *Client) UserDetails(ctx context.Context, token, userID string) (User, error) {
	var out User
	path := "/v1/user-details"
	if userID != "" {
		path += "?user_id=" + url.QueryEscape(userID)
	}
	_, err := c.do(ctx, http.MethodGet, path, token, nil, &out)
	return out, err
}

func (c *Client) SendMessage(ctx context.Context, token string, req SendMessageRequest) (Message, string, error) {
	var out Message
	msg, err := c.do(ctx, http.MethodPost, "/v1/message", token, req, &out)
	return out, msg, err
}

func (c *Client) PublicMessages(ctx context.Context, token string) ([]Message, error) {
	var out []Message
	_, err := c.do(ctx, http.MethodGet, "/v1/message/not-private", token, nil, &out)
	return out, err
}

func (c *Client) MyMessages(ctx context.Context, token string) ([]Message, error) {
	var out []Message
	_, err := c.do(ctx, http.MethodGet, "/v1/message/my-messages", token, nil, &out)
	return out, err
}

func (c *Client) FavoriteMessages(ctx context.Context, token string) ([]Message, error) {
	var out []Message
	_, err := c.do(ctx, http.MethodGet, "/v1/message/favorites", token, nil, &out)
	return out, err
}

// ToggleFavorite flips one message's favorite flag. The verb and path are a
// placeholder contract to confirm against the real backend.
func (c *Client) ToggleFavorite(ctx context.Context, token, messageID string) (FavoriteResult, error) {
	var out FavoriteResult
	_, err := c.do(ctx, http.MethodPut, "/v1/message/"+url.PathEscape(messageID)+"/favorite", token, nil, &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context, token string) (MessageStats, error) {
	var out MessageStats
	_, err := c.do(ctx, http.MethodGet, "/v1/message/stats", token, nil, &out)
	return out, err
}

func (c *Client) GlobalStats(ctx context.Context, token string) (MessageStats, error) {
	var out MessageStats
	_, err := c.do(ctx, http.MethodGet, "/v1/message/global-stats", token, nil, &out)
	return out, err
}

// Configuration satisfies flags.Source.
func (c *Client) Configuration(ctx context.Context, token string) ([]flags.Entry, error) {
	var out []flags.Entry
	_, err := c.do(ctx, http.MethodGet, "/v1/configuration", token, nil, &out)
	return out, err
}

func (c *Client) UpdateConfiguration(ctx context.Context, token string, entry flags.Entry) (string, error) {
	return c.do(ctx, http.MethodPut, "/v1/configuration/update", token, entry, nil)
}

func (c *Client) Leaderboard(ctx context.Context, token string) ([]LeaderboardEntry, error) {
	var out []LeaderboardEntry
	_, err := c.do(ctx, http.MethodGet, "/v1/leaderboard", token, nil, &out)
	return out, err
}
