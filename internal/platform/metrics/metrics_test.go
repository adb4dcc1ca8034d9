package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(ExchangeRateFallbacks.WithLabelValues("USD_ETB"))
	ExchangeRateFallbacks.WithLabelValues("USD_ETB").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ExchangeRateFallbacks.WithLabelValues("USD_ETB")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	TransferFailures.WithLabelValues("telebirr").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "crowdfunding_transfer_failures_total")
}
