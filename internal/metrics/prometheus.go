package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is a Recorder backed by Prometheus metrics.
type Collector struct {
	logins            *prometheus.CounterVec
	signups           *prometheus.CounterVec
	tokenVerification *prometheus.CounterVec
	groupsCreated     prometheus.Counter
	groupsJoined      prometheus.Counter
	purchasesAdded    prometheus.Counter
	providerLatency   *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "splitr_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"status"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "splitr_signups_total",
			Help: "Signup attempts by outcome.",
		}, []string{"status"}),
		tokenVerification: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "splitr_token_verifications_total",
			Help: "Session token verifications by result.",
		}, []string{"result"}),
		groupsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splitr_groups_created_total",
			Help: "Groups written to the registry.",
		}),
		groupsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splitr_groups_joined_total",
			Help: "Successful group joins.",
		}),
		purchasesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splitr_purchases_added_total",
			Help: "Purchases appended to group documents.",
		}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "splitr_identity_provider_latency_seconds",
			Help:    "Identity provider round-trip latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.logins,
		c.signups,
		c.tokenVerification,
		c.groupsCreated,
		c.groupsJoined,
		c.purchasesAdded,
		c.providerLatency,
	)

	return c
}

// IncLogin records a login attempt outcome.
func (c *Collector) IncLogin(status string) {
	c.logins.WithLabelValues(status).Inc()
}

// IncSignup records a signup attempt outcome.
func (c *Collector) IncSignup(status string) {
	c.signups.WithLabelValues(status).Inc()
}

// IncTokenVerification records a token verification result.
func (c *Collector) IncTokenVerification(result string) {
	c.tokenVerification.WithLabelValues(result).Inc()
}

// IncGroupCreated records a group registry write.
func (c *Collector) IncGroupCreated() {
	c.groupsCreated.Inc()
}

// IncGroupJoined records a successful join.
func (c *Collector) IncGroupJoined() {
	c.groupsJoined.Inc()
}

// IncPurchaseAdded records a purchase append.
func (c *Collector) IncPurchaseAdded() {
	c.purchasesAdded.Inc()
}

// ObserveProviderLatency records one provider round trip.
func (c *Collector) ObserveProviderLatency(op string, duration time.Duration) {
	c.providerLatency.WithLabelValues(op).Observe(duration.Seconds())
}
