// Package backoff provides delay calculation strategies for the outbound
// retry loop.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before a retry. attempt is 1-based: the delay
// after the first failed try is Delay(1).
type Strategy interface {
	Delay(attempt int, base, max time.Duration, factor, jitter float64) time.Duration
}

// Exponential grows the delay as base * factor^(attempt-1), capped at max,
// with optional uniform jitter on top.
type Exponential struct{}

func (Exponential) Delay(attempt int, base, max time.Duration, factor, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 30 {
		attempt = 30 // overflow guard
	}

	delay := time.Duration(float64(base) * pow(factor, attempt-1))
	if delay < 0 || delay > max {
		delay = max
	}

	jitter = clamp(jitter)
	if jitter > 0 {
		extra := time.Duration(float64(delay) * jitter * rand.Float64())
		if delay+extra > max {
			delay = max
		} else {
			delay += extra
		}
	}
	return delay
}

// Decorrelated implements AWS-style decorrelated jitter: a delay drawn
// uniformly between base and min(max, base*3^attempt). Smoother tail
// latencies than plain exponential jitter under contention.
type Decorrelated struct{}

func (Decorrelated) Delay(attempt int, base, max time.Duration, factor, jitter float64) time.Duration {
	if attempt < 1 {
		return base
	}
	if attempt > 10 {
		attempt = 10
	}

	lower := float64(base)
	upper := lower * pow(3.0, attempt)
	if upper > float64(max) || upper < lower {
		upper = float64(max)
	}
	if upper < lower {
		upper = lower
	}

	delay := time.Duration(lower + rand.Float64()*(upper-lower))
	if delay < 0 || delay > max {
		delay = max
	}
	return delay
}

func clamp(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
