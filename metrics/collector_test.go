package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/ravennakit-go/aoipcore/metrics"
	"github.com/ravennakit-go/aoipcore/receiver"
)

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		got[l.GetName()] = l.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestCollectorObservePublishesPerStreamGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	status := receiver.ReaderStatus{
		ID: 7,
		Primary: receiver.StreamStatus{
			Present: true,
			State:   receiver.StateReceiving,
			Stats: receiver.StatsSnapshot{
				Window: receiver.TotalsAndWindow{OutOfOrder: 3, Duplicates: 1},
				Total:  receiver.TotalsAndWindow{TooOld: 2},
				Jitter: 0.00042,
			},
		},
	}
	collector.Observe(status)

	labels := map[string]string{"reader_id": "7", "rank": "primary"}
	require.Equal(t, 3.0, gaugeValue(t, reg, "aoipcore_stream_out_of_order_total", labels))
	require.Equal(t, 1.0, gaugeValue(t, reg, "aoipcore_stream_duplicates_total", labels))
	require.Equal(t, 2.0, gaugeValue(t, reg, "aoipcore_stream_too_old_total", labels))
	require.InDelta(t, 0.00042, gaugeValue(t, reg, "aoipcore_stream_jitter_seconds", labels), 1e-9)
	require.Equal(t, float64(receiver.StateReceiving), gaugeValue(t, reg, "aoipcore_stream_state", labels))
}

func TestCollectorObserveSkipsAbsentStream(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	collector.Observe(receiver.ReaderStatus{ID: 9})

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		require.Empty(t, family.GetMetric(), "no gauge should be set for an absent stream")
	}
}
