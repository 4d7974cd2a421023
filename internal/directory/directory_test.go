package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/habits/internal/model"
)

// gatedSource blocks each call until the test releases it.
type gatedSource struct {
	calls chan call
}

type call struct {
	ctx   context.Context
	reply chan reply
}

type reply struct {
	users map[string]model.User
	err   error
}

func newGatedSource() *gatedSource {
	return &gatedSource{calls: make(chan call, 8)}
}

func (s *gatedSource) FetchUsers(ctx context.Context) (map[string]model.User, error) {
	c := call{ctx: ctx, reply: make(chan reply, 1)}
	s.calls <- c
	select {
	case r := <-c.reply:
		return r.users, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type staticSource struct {
	users map[string]model.User
	err   error
}

func (s staticSource) FetchUsers(context.Context) (map[string]model.User, error) {
	return s.users, s.err
}

func run(job Job) <-chan Result {
	out := make(chan Result, 1)
	go func() { out <- job() }()
	return out
}

var (
	alice = model.User{ID: "u1", Name: "Alice"}
	bob   = model.User{ID: "u2", Name: "Bob"}
	carol = model.User{ID: "u3", Name: "Carol"}
)

func TestApplySuccessReplacesDirectory(t *testing.T) {
	c := New(staticSource{users: map[string]model.User{"u1": alice, "u2": bob}})

	job := c.Trigger(context.Background())
	assert.True(t, c.InFlight())

	assert.True(t, c.Apply(job()))
	assert.False(t, c.InFlight(), "completion clears the flight handle")
	assert.Equal(t, 2, c.Len())
	got, ok := c.User("u2")
	require.True(t, ok)
	assert.Equal(t, "Bob", got.Name)
}

func TestApplyFailureClearsDirectory(t *testing.T) {
	src := &staticSource{users: map[string]model.User{"u1": alice}}
	c := New(src)
	require.True(t, c.Apply(c.Trigger(context.Background())()))
	require.Equal(t, 1, c.Len())

	src.err = errors.New("connection refused")
	r := c.Trigger(context.Background())()
	assert.ErrorIs(t, r.Err, ErrUnavailable)
	assert.True(t, c.Apply(r))
	assert.Equal(t, 0, c.Len())
	assert.NotNil(t, c.Users())
}

func TestDirectoryIsKeyedByUserID(t *testing.T) {
	c := New(staticSource{users: map[string]model.User{"stale-key": alice}})
	require.True(t, c.Apply(c.Trigger(context.Background())()))

	_, ok := c.User("u1")
	assert.True(t, ok)
}

func TestNewerTriggerSupersedesOlder(t *testing.T) {
	src := newGatedSource()
	c := New(src)

	resA := run(c.Trigger(context.Background()))
	callA := <-src.calls

	resB := run(c.Trigger(context.Background()))
	callB := <-src.calls

	<-callA.ctx.Done()
	assert.ErrorIs(t, callA.ctx.Err(), context.Canceled, "starting B cancels A")

	a := <-resA
	assert.False(t, c.Apply(a), "a superseded flight is never applied")
	assert.True(t, c.InFlight(), "A must not clear B's handle")

	callB.reply <- reply{users: map[string]model.User{"u3": carol}}
	assert.True(t, c.Apply(<-resB))
	assert.Equal(t, map[string]model.User{"u3": carol}, c.Users())
}

func TestStaleResultIgnoredRegardlessOfCompletionOrder(t *testing.T) {
	src := newGatedSource()
	c := New(src)

	resA := run(c.Trigger(context.Background()))
	<-src.calls
	resB := run(c.Trigger(context.Background()))
	callB := <-src.calls

	// B finishes first, then A's cancelled result trails in.
	callB.reply <- reply{users: map[string]model.User{"u2": bob}}
	assert.True(t, c.Apply(<-resB))
	assert.False(t, c.Apply(<-resA))

	assert.Equal(t, map[string]model.User{"u2": bob}, c.Users())
	assert.False(t, c.InFlight())
}

func TestOnlyLatestOfManyTriggersApplies(t *testing.T) {
	src := newGatedSource()
	c := New(src)

	var results []<-chan Result
	var calls []call
	for i := 0; i < 5; i++ {
		results = append(results, run(c.Trigger(context.Background())))
		calls = append(calls, <-src.calls)
	}
	calls[4].reply <- reply{users: map[string]model.User{"u1": alice}}

	applied := 0
	for _, res := range results {
		if c.Apply(<-res) {
			applied++
		}
	}
	assert.Equal(t, 1, applied)
	assert.Equal(t, map[string]model.User{"u1": alice}, c.Users())
}

func TestLateAnswerAfterCancelIsStale(t *testing.T) {
	// A source that ignores its context.
	c := New(staticSource{users: map[string]model.User{"u1": alice}})

	job := c.Trigger(context.Background())
	c.Close()

	r := job()
	assert.ErrorIs(t, r.Err, context.Canceled)
	assert.False(t, c.Apply(r))
	assert.Equal(t, 0, c.Len())
}

func TestCloseCancelsInFlight(t *testing.T) {
	src := newGatedSource()
	c := New(src)

	res := run(c.Trigger(context.Background()))
	callA := <-src.calls

	c.Close()
	<-callA.ctx.Done()
	assert.False(t, c.InFlight())
	assert.False(t, c.Apply(<-res), "nothing is applied after teardown")
}

func TestTriggerAfterCloseNeverApplies(t *testing.T) {
	c := New(staticSource{users: map[string]model.User{"u1": alice}})
	c.Close()

	job := c.Trigger(context.Background())
	assert.False(t, c.InFlight())

	r := job()
	assert.ErrorIs(t, r.Err, ErrUnavailable)
	assert.ErrorIs(t, r.Err, context.Canceled)
	assert.False(t, c.Apply(r))
	assert.False(t, c.InFlight())
	assert.Zero(t, c.Len())
}
