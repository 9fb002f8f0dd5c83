package memory

import "ragtune/pkg/ratelimiter"

const (
	decreaseRetryMs       = 10000
	defaultRollingRetryMs = 100
	maxRollingRetryMs     = 5000
	defaultConcurrencyMs  = 50
	maxConcurrencyRetryMs = 2000
	rollingWindowFraction = 0.1
)

// retryAfter sizes the hint that rides on a denial: a tenth of the window
// for rolling limits, the hold timeout for concurrency limits, each clamped
// to its [default, max] range.
func retryAfter(def ratelimiter.LimitDefinition) int {
	switch def.Kind {
	case ratelimiter.KindRolling:
		hint := int(float64(def.WindowSeconds*1000) * rollingWindowFraction)
		return clampMs(hint, defaultRollingRetryMs, maxRollingRetryMs)
	case ratelimiter.KindConcurrency:
		hint := def.TimeoutSeconds * 1000
		if hint <= 0 {
			hint = maxConcurrencyRetryMs
		}
		return clampMs(hint, defaultConcurrencyMs, maxConcurrencyRetryMs)
	default:
		return defaultRollingRetryMs
	}
}

func clampMs(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
