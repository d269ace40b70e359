// internal/models/ratelimit.go
package models

import "time"

// RateWindow is the fixed window state kept per client key.
type RateWindow struct {
	ClientKey string    `json:"clientKey"`
	Count     int64     `json:"count"`
	ResetAt   time.Time `json:"resetAt"`
}

// RateDecision is the outcome of one admission check.
type RateDecision struct {
	Allowed bool      `json:"allowed"`
	Count   int64     `json:"count"`
	Limit   int64     `json:"limit"`
	ResetAt time.Time `json:"resetAt"`
}

// Remaining reports how many more requests fit in the current window.
func (d RateDecision) Remaining() int64 {
	if d.Count >= d.Limit {
		return 0
	}
	return d.Limit - d.Count
}
