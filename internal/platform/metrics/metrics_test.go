package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitPrometheusIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		InitPrometheus()
		InitPrometheus()
	})
}

func TestCompletionCounterIsExported(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(ChallengeCompletions))
	ChallengeCompletions.WithLabelValues("admitted").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "skillwise_challenge_completions_total", families[0].GetName())
	assert.GreaterOrEqual(t, families[0].GetMetric()[0].GetCounter().GetValue(), 1.0)
}
