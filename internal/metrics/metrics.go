// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// Authentication metrics. status is "success" or "failure".
	IncLogin(status string)
	IncSignup(status string)

	// Token verification metrics.
	// result is "cache_hit", "verified", "rejected", or "error".
	IncTokenVerification(result string)

	// Group registry metrics.
	IncGroupCreated()
	IncGroupJoined()
	IncPurchaseAdded()

	// Identity provider call latency, labeled by operation
	// (lookup, create, mint, exchange, verify).
	ObserveProviderLatency(op string, duration time.Duration)
}
