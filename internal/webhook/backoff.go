package webhook

import "time"

// Backoff is a reusable exponential backoff policy. Any component that
// retries an external call shares this shape instead of hand-rolling delays.
type Backoff struct {
	Base       time.Duration
	Multiplier float64
	Cap        time.Duration
}

// Delay returns how long to wait before the given 1-indexed attempt.
// The first attempt is immediate; attempt i waits Base × Multiplier^(i−2),
// truncated at Cap.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := b.Base
	for i := 2; i < attempt; i++ {
		d = time.Duration(float64(d) * b.Multiplier)
		if b.Cap > 0 && d >= b.Cap {
			return b.Cap
		}
	}
	if b.Cap > 0 && d > b.Cap {
		d = b.Cap
	}
	return d
}
