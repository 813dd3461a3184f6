package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var errDial = errors.New("dial failed")

func fail() error    { return errDial }
func succeed() error { return nil }

func TestBreakerOpensAtThreshold(t *testing.T) {
	c := &clock{now: time.Unix(0, 0)}
	b := New("bus", Settings{Threshold: 3, Cooldown: time.Minute, Now: c.Now})

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, b.Do(fail), errDial)
		assert.Equal(t, StateClosed, b.State())
	}
	assert.ErrorIs(t, b.Do(fail), errDial)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New("bus", Settings{Threshold: 2})

	assert.Error(t, b.Do(fail))
	assert.NoError(t, b.Do(succeed))
	assert.Error(t, b.Do(fail))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	c := &clock{now: time.Unix(0, 0)}
	b := New("bus", Settings{Cooldown: 30 * time.Second, Now: c.Now})

	require.Error(t, b.Do(fail))
	require.Equal(t, StateOpen, b.State())

	c.Advance(29 * time.Second)
	assert.Equal(t, StateOpen, b.State())

	c.Advance(time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	// A failed trial reopens for a full cooldown
	assert.ErrorIs(t, b.Do(fail), errDial)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Do(succeed), ErrCircuitOpen)

	c.Advance(30 * time.Second)
	assert.NoError(t, b.Do(succeed))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerSingleTrial(t *testing.T) {
	c := &clock{now: time.Unix(0, 0)}
	b := New("bus", Settings{Cooldown: time.Second, Now: c.Now})

	require.Error(t, b.Do(fail))
	c.Advance(time.Second)

	err := b.Do(func() error {
		assert.ErrorIs(t, b.Do(succeed), ErrCircuitOpen)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("bus", Settings{})

	assert.Panics(t, func() {
		_ = b.Do(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerStateChanges(t *testing.T) {
	c := &clock{now: time.Unix(0, 0)}
	var changes []string
	b := New("bus", Settings{
		Cooldown: time.Second,
		Now:      c.Now,
		OnStateChange: func(name string, from, to State) {
			changes = append(changes, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = b.Do(fail)
	c.Advance(time.Second)
	_ = b.Do(succeed)
	_ = b.Do(fail)
	b.Reset()

	assert.Equal(t, []string{
		"bus:closed->open",
		"bus:open->half-open",
		"bus:half-open->closed",
		"bus:closed->open",
		"bus:open->closed",
	}, changes)
}
