package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.ConsecutiveFailures = 2
	cfg.OpenTimeout = time.Minute
	b := New[int](cfg, nil)

	calls := 0
	fail := func() (int, error) {
		calls++
		return 0, errBoom
	}

	_, err := b.Execute(fail)
	assert.ErrorIs(t, err, errBoom)
	_, err = b.Execute(fail)
	assert.ErrorIs(t, err, errBoom)

	_, err = b.Execute(fail)
	require.Error(t, err)
	assert.True(t, IsOpen(err))
	assert.Equal(t, 2, calls)
	assert.Equal(t, "open", b.State())
}

func TestBreaker_IsSuccessfulErrorsDoNotTrip(t *testing.T) {
	errRejected := errors.New("rejected")
	cfg := DefaultConfig("test")
	cfg.ConsecutiveFailures = 1
	cfg.IsSuccessful = func(err error) bool { return errors.Is(err, errRejected) }
	b := New[string](cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (string, error) { return "", errRejected })
		assert.ErrorIs(t, err, errRejected)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_PassesResult(t *testing.T) {
	b := New[string](DefaultConfig("test"), nil)
	v, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.False(t, IsOpen(errBoom))
}
