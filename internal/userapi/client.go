// Package userapi talks to the remote user directory over HTTP.
package userapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/idilsaglam/habits/internal/model"
)

// ErrUnexpectedStatus wraps any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client fetches users and habits from the directory API.
type Client struct {
	http     *resty.Client
	validate *validator.Validate
}

type Option func(*resty.Client)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *resty.Client) {
		if token != "" {
			c.SetAuthToken(token)
		}
	}
}

// WithTimeout bounds each request on top of the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		if d > 0 {
			c.SetTimeout(d)
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(hc)
	}
	return &Client{http: hc, validate: validator.New()}
}

// FetchUsers returns the full directory keyed by user ID. Entries that omit
// their id inherit the key they were served under.
func (c *Client) FetchUsers(ctx context.Context) (map[string]model.User, error) {
	var raw map[string]model.User
	if err := c.get(ctx, "/users", &raw); err != nil {
		return nil, err
	}

	users := make(map[string]model.User, len(raw))
	for key, u := range raw {
		if u.ID == "" {
			u.ID = key
		}
		if err := c.validate.Struct(u); err != nil {
			return nil, fmt.Errorf("user %q: %w", key, err)
		}
		users[model.UserKey(u)] = u
	}
	return users, nil
}

// FetchUser returns a single user by ID.
func (c *Client) FetchUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	if err := c.get(ctx, "/users/"+id, &u); err != nil {
		return model.User{}, err
	}
	if err := c.validate.Struct(u); err != nil {
		return model.User{}, fmt.Errorf("user %q: %w", id, err)
	}
	return u, nil
}

// FetchHabits returns every habit, keyed by habit name.
func (c *Client) FetchHabits(ctx context.Context) (map[string]model.Habit, error) {
	var raw map[string]model.Habit
	if err := c.get(ctx, "/habits", &raw); err != nil {
		return nil, err
	}
	habits := make(map[string]model.Habit, len(raw))
	for key, h := range raw {
		if h.Name == "" {
			h.Name = key
		}
		habits[model.HabitKey(h)] = h
	}
	return habits, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: %w: %d", path, ErrUnexpectedStatus, resp.StatusCode())
	}
	return nil
}
