package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// sampleValue returns the value of the first sample of family name whose
// labels include want.
func sampleValue(t *testing.T, g prometheus.Gatherer, name string, want map[string]string) float64 {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("no sample %s%v", name, want)
	return 0
}

func TestRegistry_ObserveCommand(t *testing.T) {
	r := NewRegistry()
	r.ObserveCommand("get", "database", false, time.Millisecond)
	r.ObserveCommand("get", "database", true, time.Millisecond)
	r.ObserveCommand("get", "database", false, time.Millisecond)

	if got := sampleValue(t, r.Gatherer(), "memkv_commands_total", map[string]string{"verb": "get", "status": StatusOK}); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := sampleValue(t, r.Gatherer(), "memkv_commands_total", map[string]string{"verb": "get", "status": StatusError}); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
	if got := sampleValue(t, r.Gatherer(), "memkv_commands_duration_seconds", map[string]string{"family": "database"}); got != 3 {
		t.Errorf("histogram samples = %v, want 3", got)
	}
}

func TestRegistry_Connections(t *testing.T) {
	r := NewRegistry()
	r.ConnOpened()
	r.ConnOpened()
	r.ConnClosed()

	if got := sampleValue(t, r.Gatherer(), "memkv_connections_accepted_total", nil); got != 2 {
		t.Errorf("accepted = %v, want 2", got)
	}
	if got := sampleValue(t, r.Gatherer(), "memkv_connections_active", nil); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
}

func TestRegistry_PubSubAndListener(t *testing.T) {
	r := NewRegistry()
	r.Published(3)
	r.Published(0)
	r.Rebound()
	r.RateLimitHit()

	tests := []struct {
		name string
		want float64
	}{
		{"memkv_pubsub_published_total", 2},
		{"memkv_pubsub_delivered_total", 3},
		{"memkv_listener_rebinds_total", 1},
		{"memkv_commands_rate_limited_total", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sampleValue(t, r.Gatherer(), tt.name, nil); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	r.ObserveCommand("get", "database", false, time.Millisecond)
	r.ConnOpened()
	r.ConnClosed()
	r.Published(1)
	r.Rebound()
	r.RateLimitHit()
	r.MustRegister(NewCollector(nil, nil))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.Rebound()

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "memkv_listener_rebinds_total 1") {
		t.Errorf("body missing rebinds sample:\n%s", body)
	}
}
