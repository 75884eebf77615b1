package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/georef-cli/internal/geodesy"
)

func springfield() *Result {
	return &Result{Name: "Springfield", Center: geodesy.Point{Lng: -89.65, Lat: 39.78}, Precision: "APPROXIMATE", Source: "test"}
}

func TestCachedProvider_HitAfterMiss(t *testing.T) {
	next := newMockProvider("test")
	next.On("Lookup", mock.Anything, "Springfield").Return(springfield(), nil).Once()

	c := NewCachedProvider(next, 10, time.Hour)
	r1, err := c.Lookup(context.Background(), "Springfield")
	require.NoError(t, err)
	r2, err := c.Lookup(context.Background(), "  SPRINGFIELD ")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
	assert.Equal(t, "test", c.Name())
	next.AssertExpectations(t)
}

func TestCachedProvider_ReturnsCopies(t *testing.T) {
	next := newMockProvider("test")
	next.On("Lookup", mock.Anything, "Springfield").Return(springfield(), nil).Once()

	c := NewCachedProvider(next, 10, time.Hour)
	r1, err := c.Lookup(context.Background(), "Springfield")
	require.NoError(t, err)
	r1.Name = "mutated"

	r2, err := c.Lookup(context.Background(), "Springfield")
	require.NoError(t, err)
	assert.Equal(t, "Springfield", r2.Name)
}

func TestCachedProvider_CachesNoMatch(t *testing.T) {
	next := newMockProvider("test")
	next.On("Lookup", mock.Anything, "Atlantis").Return(nil, ErrNoMatch).Once()

	c := NewCachedProvider(next, 10, time.Hour)
	_, err := c.Lookup(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrNoMatch)
	_, err = c.Lookup(context.Background(), "atlantis")
	assert.ErrorIs(t, err, ErrNoMatch)
	next.AssertExpectations(t)
}

func TestCachedProvider_DoesNotCacheFailures(t *testing.T) {
	next := newMockProvider("test")
	next.On("Lookup", mock.Anything, "Springfield").Return(nil, errors.New("boom")).Once()
	next.On("Lookup", mock.Anything, "Springfield").Return(springfield(), nil).Once()

	c := NewCachedProvider(next, 10, time.Hour)
	_, err := c.Lookup(context.Background(), "Springfield")
	assert.Error(t, err)
	r, err := c.Lookup(context.Background(), "Springfield")
	require.NoError(t, err)
	assert.Equal(t, "Springfield", r.Name)
	next.AssertExpectations(t)
}

func TestCachedProvider_TTLExpiry(t *testing.T) {
	next := newMockProvider("test")
	next.On("Lookup", mock.Anything, "Springfield").Return(springfield(), nil).Twice()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCachedProvider(next, 10, time.Minute)
	c.now = func() time.Time { return now }

	_, err := c.Lookup(context.Background(), "Springfield")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = c.Lookup(context.Background(), "Springfield")
	require.NoError(t, err)

	assert.Equal(t, int64(2), c.Stats().Misses)
	next.AssertExpectations(t)
}

func TestCachedProvider_EvictsLeastRecentlyUsed(t *testing.T) {
	next := newMockProvider("test")
	for _, q := range []string{"a", "b", "c"} {
		next.On("Lookup", mock.Anything, q).Return(&Result{Name: q}, nil)
	}

	c := NewCachedProvider(next, 2, time.Hour)
	ctx := context.Background()
	_, _ = c.Lookup(ctx, "a")
	_, _ = c.Lookup(ctx, "b")
	_, _ = c.Lookup(ctx, "a") // a is now newest
	_, _ = c.Lookup(ctx, "c") // evicts b

	assert.Equal(t, 2, c.Stats().Entries)
	_, _ = c.Lookup(ctx, "a")
	next.AssertNumberOfCalls(t, "Lookup", 3)
	_, _ = c.Lookup(ctx, "b")
	next.AssertNumberOfCalls(t, "Lookup", 4)
}

func TestCachedProvider_Purge(t *testing.T) {
	next := newMockProvider("test")
	next.On("Lookup", mock.Anything, "Springfield").Return(springfield(), nil).Twice()

	c := NewCachedProvider(next, 10, time.Hour)
	_, _ = c.Lookup(context.Background(), "Springfield")
	c.Purge()
	assert.Equal(t, 0, c.Stats().Entries)
	_, _ = c.Lookup(context.Background(), "Springfield")
	next.AssertExpectations(t)
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, "san josé", NameKey("  San   JOSÉ "))
	assert.Equal(t, "", NameKey(" \t"))
}
