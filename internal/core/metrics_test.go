package core

import (
	"context"
	"encoding/json"
	"expvar"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)
	rec.Observe(context.Background(), "rank_variants_by_frequency", true, 20*time.Millisecond)
	rec.ObserveSource("rank_variants_by_frequency", "1000Genomes", OutcomeData)
	rec.ObserveSource("rank_variants_by_frequency", "1000Genomes", OutcomeData)

	families, err := reg.Gather()
	require.NoError(t, err)
	found := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				found[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				found[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	require.Equal(t, 2.0, found["popstudy_source_outcomes_total"])
	require.Equal(t, 1.0, found["popstudy_coordinator_operation_seconds"])

	_, err = NewPrometheusMetricsRecorder(reg)
	require.Error(t, err)
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "donor_distribution", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "donor_distribution", false, 3*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)
	rec.ObserveSource("donor_distribution", "TCGA", OutcomeNotice)

	snap := rec.Snapshot()
	require.InDelta(t, 5.0, snap.DurationsMS["donor_distribution"], 1e-9)
	require.Equal(t, int64(1), snap.Results["donor_distribution"]["success"])
	require.Equal(t, int64(1), snap.Results["donor_distribution"]["error"])
	require.Equal(t, int64(1), snap.Sources["donor_distribution/TCGA"][OutcomeNotice])
	require.Len(t, snap.DurationsMS, 1)

	published := expvar.Get(rec.Name())
	require.NotNil(t, published)
	var decoded ExpvarMetricsSnapshot
	require.NoError(t, json.Unmarshal([]byte(published.String()), &decoded))
	require.Equal(t, int64(1), decoded.Results["donor_distribution"]["error"])
}

func TestMultiMetricsFansOut(t *testing.T) {
	a, b := NewExpvarMetricsRecorder(""), NewExpvarMetricsRecorder("")
	m := MultiMetrics{a, b}
	m.Observe(context.Background(), "values_of_attribute", true, time.Millisecond)
	m.ObserveSource("values_of_attribute", "GENCODE", OutcomeEmpty)
	for _, rec := range []*ExpvarMetricsRecorder{a, b} {
		snap := rec.Snapshot()
		require.Equal(t, int64(1), snap.Results["values_of_attribute"]["success"])
		require.Equal(t, int64(1), snap.Sources["values_of_attribute/GENCODE"][OutcomeEmpty])
	}
}
