package metrics

import "time"

// Noop is a Recorder that discards all events.
// Useful for tests and for wiring code paths before metrics are configured.
type Noop struct{}

// NewNoop creates a no-op Recorder.
func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) IncLogin(status string) {}

func (n *Noop) IncSignup(status string) {}

func (n *Noop) IncTokenVerification(result string) {}

func (n *Noop) IncGroupCreated() {}

func (n *Noop) IncGroupJoined() {}

func (n *Noop) IncPurchaseAdded() {}

func (n *Noop) ObserveProviderLatency(op string, duration time.Duration) {}
