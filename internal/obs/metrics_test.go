package obs

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMustRegisterDomainMetricsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NotPanics(t, func() {
		MustRegisterDomainMetrics("crazzype_test", reg)
		MustRegisterDomainMetrics("crazzype_test", reg)
	})

	require.NotNil(t, SessionsStarted)
	require.NotNil(t, SessionOutcomes)
	require.NotNil(t, StatusPollTotal)
	require.NotNil(t, TerminalSignals)
	require.NotNil(t, FinalizeTotal)
	require.NotNil(t, SessionDuration)

	SessionsStarted.Inc()
	SessionOutcomes.WithLabelValues("success").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestDurationMillis(t *testing.T) {
	require.Equal(t, 1500.0, DurationMillis(1500*time.Millisecond))
	require.Equal(t, 0.5, DurationMillis(500*time.Microsecond))
}
