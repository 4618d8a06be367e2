package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	AuthAttemptsTotal.WithLabelValues("strict", "success").Inc()
	UserLookupDuration.Observe(0.01)
	ErrorsTotal.WithLabelValues("conflict", "409").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	expected := map[string]bool{
		"fitauth_auth_attempts_total":          false,
		"fitauth_user_lookup_duration_seconds": false,
		"fitauth_errors_total":                 false,
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, found := range expected {
		assert.True(t, found, "metric %s not registered", name)
	}
}

func TestAuthAttemptsByLabel(t *testing.T) {
	counter := AuthAttemptsTotal.WithLabelValues("optional", "expired_token")
	before := testutil.ToFloat64(counter)

	counter.Inc()
	counter.Inc()

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
