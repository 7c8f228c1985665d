// Package common provides shared utilities for the portfolio analyzer
package common

import "time"

// FreshnessRateMiss bounds how long a cached rate miss is trusted.
// Providers publish end-of-day rates with a lag, so a miss recorded for
// a recent date can fill in on a later run. Confirmed rates never expire.
const FreshnessRateMiss = 24 * time.Hour

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
