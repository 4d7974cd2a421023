// Package directory owns the in-memory user directory and the single
// in-flight request that refreshes it.
//
// Trigger and Apply must be called from the same goroutine (the UI loop).
// Only the Job returned by Trigger runs elsewhere, and it never touches the
// Controller's state: its result travels back to the loop and is handed to
// Apply, which drops anything that is not the current flight.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/idilsaglam/habits/internal/logger"
	"github.com/idilsaglam/habits/internal/model"
)

// ErrUnavailable is the only error a fetch reports. Transport, decoding and
// cancellation failures all collapse into it.
var ErrUnavailable = errors.New("user directory unavailable")

// Source produces the full user directory.
type Source interface {
	FetchUsers(ctx context.Context) (map[string]model.User, error)
}

// FlightID identifies one Trigger call.
type FlightID uint64

// Result is what a Job yields. Err is nil or wraps ErrUnavailable.
type Result struct {
	Flight FlightID
	Users  map[string]model.User
	Err    error
}

// Job performs one fetch. It blocks until the source answers or the flight
// is cancelled.
type Job func() Result

type flight struct {
	id     FlightID
	cancel context.CancelFunc
}

// Controller keeps at most one current flight.
type Controller struct {
	source  Source
	users   map[string]model.User
	current *flight
	seq     FlightID
	closed  bool
}

func New(source Source) *Controller {
	return &Controller{
		source: source,
		users:  map[string]model.User{},
	}
}

// Trigger cancels the current flight, if any, and starts a new one. The
// returned Job must be run exactly once, off the UI loop. After Close the
// Job fails immediately and nothing is left in flight.
func (c *Controller) Trigger(ctx context.Context) Job {
	if c.closed {
		// No flight is registered, so InFlight stays false.
		return func() Result {
			return Result{Err: fmt.Errorf("%w: %w", ErrUnavailable, context.Canceled)}
		}
	}
	c.cancelCurrent()

	c.seq++
	id := c.seq
	fctx, cancel := context.WithCancel(ctx)
	c.current = &flight{id: id, cancel: cancel}

	source := c.source
	return func() Result {
		defer cancel()

		if err := fctx.Err(); err != nil {
			return Result{Flight: id, Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
		}
		users, err := source.FetchUsers(fctx)
		if err == nil {
			// The source may ignore cancellation; a late answer is still stale.
			err = fctx.Err()
		}
		if err != nil {
			return Result{Flight: id, Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
		}
		return Result{Flight: id, Users: users}
	}
}

// Apply installs r if it belongs to the current flight and reports whether
// it did. Failed results install an empty directory. Results from
// superseded flights, or arriving after Close, are dropped.
func (c *Controller) Apply(r Result) bool {
	if c.closed || c.current == nil || c.current.id != r.Flight {
		logger.Log.Debugw("dropping stale directory result", "flight", r.Flight)
		return false
	}
	c.current = nil

	if r.Err != nil {
		logger.Log.Warnw("user directory fetch failed", "flight", r.Flight, "error", r.Err)
		c.users = map[string]model.User{}
		return true
	}

	users := make(map[string]model.User, len(r.Users))
	for _, u := range r.Users {
		users[model.UserKey(u)] = u
	}
	c.users = users
	logger.Log.Infow("user directory updated", "flight", r.Flight, "users", len(users))
	return true
}

// Close cancels the current flight. Nothing is applied afterwards.
func (c *Controller) Close() {
	c.closed = true
	c.cancelCurrent()
}

// InFlight reports whether a fetch is current.
func (c *Controller) InFlight() bool { return c.current != nil }

// Users returns the directory. Callers must not modify it.
func (c *Controller) Users() map[string]model.User { return c.users }

func (c *Controller) Len() int { return len(c.users) }

// User looks up a single entry.
func (c *Controller) User(id string) (model.User, bool) {
	u, ok := c.users[id]
	return u, ok
}

func (c *Controller) cancelCurrent() {
	if c.current == nil {
		return
	}
	c.current.cancel()
	logger.Log.Debugw("cancelled directory fetch", "flight", c.current.id)
	c.current = nil
}
