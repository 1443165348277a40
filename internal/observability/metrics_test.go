package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_PrivateRegistry(t *testing.T) {
	// Two instances on separate registries must not collide.
	m1 := NewMetrics("test", nil)
	m2 := NewMetrics("test", nil)

	m1.OwnersClassified.WithLabelValues("Exchange").Inc()
	m2.OwnersClassified.WithLabelValues("Exchange").Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m1.OwnersClassified.WithLabelValues("Exchange")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m2.OwnersClassified.WithLabelValues("Exchange")))
}

func TestMetrics_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("holders", reg)
	m.ProviderErrors.WithLabelValues("solscan", "metadata").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `holders_provider_errors_total{operation="metadata",provider="solscan"} 1`))
}

func TestUpdateLockGauges(t *testing.T) {
	UpdateLockGauges(250, 750, 1000)

	assert.Equal(t, 250.0, testutil.ToFloat64(DefaultMetrics.LockedSupply))
	assert.Equal(t, 0.75, testutil.ToFloat64(DefaultMetrics.CirculatingRatio))
}
