package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/targetasm/readbank/internal/stats"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) (float64, bool) {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, m := range metrics {
		if m.GetName() != name {
			continue
		}
		if len(m.GetMetric()) == 0 {
			t.Fatalf("metric %s has no samples", name)
		}
		sample := m.GetMetric()[0]
		switch {
		case sample.GetCounter() != nil:
			return sample.GetCounter().GetValue(), true
		case sample.GetGauge() != nil:
			return sample.GetGauge().GetValue(), true
		case sample.GetHistogram() != nil:
			return float64(sample.GetHistogram().GetSampleCount()), true
		}
	}
	return 0, false
}

func TestCollector_CounterAccumulates(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricShardsBuilt, 5)
	c.IncCounter(stats.MetricShardsBuilt, 3)

	val, ok := gatherValue(t, reg, stats.MetricShardsBuilt)
	if !ok {
		t.Fatalf("counter %s not found in registry", stats.MetricShardsBuilt)
	}
	if val != 8 {
		t.Errorf("counter value = %v, want 8", val)
	}
}

func TestCollector_Gauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge(stats.MetricCacheSize, 42)

	val, ok := gatherValue(t, reg, stats.MetricCacheSize)
	if !ok {
		t.Fatalf("gauge %s not found in registry", stats.MetricCacheSize)
	}
	if val != 42 {
		t.Errorf("gauge value = %v, want 42", val)
	}
}

func TestCollector_Histogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram(stats.MetricShardBuildSeconds, 0.5)
	c.ObserveHistogram(stats.MetricShardBuildSeconds, 1.5)
	c.ObserveHistogram(stats.MetricShardBuildSeconds, 2.5)

	count, ok := gatherValue(t, reg, stats.MetricShardBuildSeconds)
	if !ok {
		t.Fatalf("histogram %s not found in registry", stats.MetricShardBuildSeconds)
	}
	if count != 3 {
		t.Errorf("histogram sample count = %v, want 3", count)
	}
}

func TestCollector_ReusesMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter("reuse_test", 1)
	c.IncCounter("reuse_test", 1)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	count := 0
	for _, m := range metrics {
		if m.GetName() == "reuse_test" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected 1 metric family named reuse_test, got %d", count)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter("concurrent_counter", 1)
				c.SetGauge("concurrent_gauge", int64(j))
			}
		}()
	}
	wg.Wait()

	val, ok := gatherValue(t, reg, "concurrent_counter")
	if !ok {
		t.Fatal("concurrent_counter not found")
	}
	if val != 1000 {
		t.Errorf("counter value = %v, want 1000", val)
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "preexisting_counter",
		Help: "preexisting_counter",
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter("preexisting_counter", 5)

	val, ok := gatherValue(t, reg, "preexisting_counter")
	if !ok {
		t.Fatal("preexisting_counter not found")
	}
	if val != 105 {
		t.Errorf("counter value = %v, want 105", val)
	}
}
