package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/pkg/quota"
	"github.com/Rut304/matchups/internal/provider"
)

// Cascade tries odds providers in a fixed priority order (free sources
// first, metered sources last) and stops at the first one that returns
// a non-empty quote set. Adding or reordering providers is a config
// change: the order is exactly the slice passed in.
type Cascade struct {
	clients     []provider.OddsClient
	quotas      *quota.Registry
	callTimeout time.Duration
}

// CascadeResult is what a sport's cycle gets back. An all-providers-
// failed cycle yields an empty Odds slice, never an error: "no odds
// yet" is a normal, displayable state.
type CascadeResult struct {
	// Provider that served the quotes; empty when nothing did.
	Provider string
	// FallbackUsed is set when some enabled provider ahead of the
	// winner was attempted or skipped first.
	FallbackUsed bool
	// Attempted counts enabled providers that were tried (or skipped as
	// exhausted) before the winner served. Feeds the confidence score.
	Attempted int
	Odds      []models.ProviderOdds
	Issues    []Issue

	// FailureSummary aggregates provider errors for the cycle log
	// line. Nil when every attempted provider succeeded.
	FailureSummary error
}

func NewCascade(clients []provider.OddsClient, quotas *quota.Registry, callTimeout time.Duration) *Cascade {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &Cascade{clients: clients, quotas: quotas, callTimeout: callTimeout}
}

// Fetch runs the cascade for one sport. Strictly sequential: the next
// provider is called only after the previous one returned zero usable
// quotes or a retryable error, so metered quota is never spent ahead
// of need.
func (c *Cascade) Fetch(ctx context.Context, sport string, window provider.TimeWindow) CascadeResult {
	result := CascadeResult{}
	attempted := 0

	var errs *multierror.Error

	for _, client := range c.clients {
		name := client.Name()

		if !client.Enabled() {
			// Missing key: silently disabled, does not count as a
			// fallback trigger.
			continue
		}

		tracker := c.quotas.ForProvider(name)
		if tracker.Exhausted() {
			// Known exhausted: skip without a wasted call and without
			// repeat log noise.
			attempted++
			result.Issues = append(result.Issues, issuef("odds", sport, name, "skipped: quota exhausted"))
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		odds, err := client.FetchOdds(callCtx, sport, window)
		cancel()

		if err != nil {
			attempted++
			errs = multierror.Append(errs, err)
			switch {
			case provider.IsQuotaExhausted(err):
				// Logged once here; the tracker suppresses the rest of
				// the cycle.
				slog.Warn("Cascade: provider quota exhausted", "sport", sport, "provider", name)
				result.Issues = append(result.Issues, issuef("odds", sport, name, "quota exhausted"))
			default:
				// Transient (timeout, 5xx, bad payload): retry next
				// cycle, advance now.
				slog.Warn("Cascade: provider failed", "sport", sport, "provider", name, "error", err)
				result.Issues = append(result.Issues, issuef("odds", sport, name, "fetch failed: %v", err))
			}
			continue
		}

		if len(odds) == 0 {
			attempted++
			result.Issues = append(result.Issues, issuef("odds", sport, name, "returned no quotes"))
			continue
		}

		result.Provider = name
		result.FallbackUsed = attempted > 0
		result.Attempted = attempted
		result.Odds = odds
		return result
	}

	result.Attempted = attempted
	result.FailureSummary = errs.ErrorOrNil()
	return result
}
