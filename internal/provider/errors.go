package provider

import (
	"errors"
	"fmt"
)

// ErrQuotaExhausted marks an explicit rate-limit response. Not
// retryable this cycle: the cascade skips the provider until the next
// cycle, and repeat log noise is suppressed.
var ErrQuotaExhausted = errors.New("provider quota exhausted")

// ErrNotConfigured marks a provider disabled by missing configuration.
var ErrNotConfigured = errors.New("provider not configured")

// IsQuotaExhausted reports whether err is a quota-exhausted failure.
func IsQuotaExhausted(err error) bool {
	return errors.Is(err, ErrQuotaExhausted)
}

// IsTransient reports whether the cascade should treat err as retryable
// (advance to the next provider now, retry this one next cycle).
// Everything that is not quota exhaustion or missing configuration is
// transient: timeouts, 5xx, malformed responses.
func IsTransient(err error) bool {
	return err != nil && !errors.Is(err, ErrQuotaExhausted) && !errors.Is(err, ErrNotConfigured)
}

// StatusError wraps an unexpected HTTP status so callers can log the
// code without parsing message text.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Code)
}
