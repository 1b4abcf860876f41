package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.IncLogin("success")
	c.IncLogin("success")
	c.IncLogin("failure")
	c.IncSignup("success")
	c.IncTokenVerification("cache_hit")
	c.IncGroupCreated()
	c.IncGroupJoined()
	c.IncPurchaseAdded()

	if got := testutil.ToFloat64(c.logins.WithLabelValues("success")); got != 2 {
		t.Errorf("expected 2 successful logins, got %v", got)
	}
	if got := testutil.ToFloat64(c.logins.WithLabelValues("failure")); got != 1 {
		t.Errorf("expected 1 failed login, got %v", got)
	}
	if got := testutil.ToFloat64(c.signups.WithLabelValues("success")); got != 1 {
		t.Errorf("expected 1 signup, got %v", got)
	}
	if got := testutil.ToFloat64(c.tokenVerification.WithLabelValues("cache_hit")); got != 1 {
		t.Errorf("expected 1 cache hit, got %v", got)
	}
	if got := testutil.ToFloat64(c.groupsCreated); got != 1 {
		t.Errorf("expected 1 group created, got %v", got)
	}
}

func TestCollector_RegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveProviderLatency("lookup", 25*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}

	found := false
	for _, f := range families {
		if f.GetName() == "splitr_identity_provider_latency_seconds" {
			found = true
		}
	}
	if !found {
		t.Error("expected provider latency histogram to be registered")
	}
}

func TestNoop_ImplementsRecorder(t *testing.T) {
	var r Recorder = NewNoop()
	r.IncLogin("success")
	r.IncSignup("failure")
	r.IncTokenVerification("verified")
	r.IncGroupCreated()
	r.IncGroupJoined()
	r.IncPurchaseAdded()
	r.ObserveProviderLatency("mint", time.Millisecond)
}
