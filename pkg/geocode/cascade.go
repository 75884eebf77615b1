package geocode

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/resilience"
)

// Breaker defaults for cascade members.
const (
	DefaultBreakerThreshold = 5
	DefaultBreakerCooldown  = 30 * time.Second
)

// Cascade tries providers in order. A provider that answers "no match" hands
// off to the next; one that fails counts against its breaker. If every
// provider failed outright the error is an UpstreamError.
type Cascade struct {
	providers []Provider
	breakers  []*resilience.Breaker
}

// NewCascade creates a cascade over providers, each behind its own breaker.
func NewCascade(providers ...Provider) *Cascade {
	c := &Cascade{providers: providers}
	for _, p := range providers {
		c.breakers = append(c.breakers,
			resilience.NewBreaker(p.Name(), DefaultBreakerThreshold, DefaultBreakerCooldown))
	}
	return c
}

// Name implements Provider.
func (c *Cascade) Name() string { return "cascade" }

// Lookup implements Provider.
func (c *Cascade) Lookup(ctx context.Context, query string) (*Result, error) {
	if err := checkQuery(query); err != nil {
		return nil, err
	}

	var lastErr error
	answered := false
	for i, p := range c.providers {
		if err := c.breakers[i].Allow(); err != nil {
			zap.L().Debug("geocode: provider skipped",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		r, err := p.Lookup(ctx, query)
		switch {
		case err == nil:
			c.breakers[i].Record(nil)
			return r, nil
		case errors.Is(err, ErrNoMatch):
			c.breakers[i].Record(nil)
			answered = true
		case geoerr.IsInvalidInput(err):
			return nil, err
		default:
			c.breakers[i].Record(err)
			lastErr = err
			zap.L().Warn("geocode: provider failed",
				zap.String("provider", p.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
		}
		if ctx.Err() != nil {
			return nil, geoerr.Upstream("geocode", ctx.Err())
		}
	}

	if answered {
		return nil, ErrNoMatch
	}
	if lastErr == nil {
		lastErr = eris.New("geocode: no providers configured")
	}
	return nil, geoerr.Upstream("geocode", lastErr)
}
