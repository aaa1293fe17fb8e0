package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserveStoreCall(t *testing.T) {
	before := testutil.ToFloat64(storeRequests.WithLabelValues("metrics-test", "error"))
	ObserveStoreCall("metrics-test", time.Now(), errors.New("boom"))
	ObserveStoreCall("metrics-test", time.Now(), nil)
	assert.Equal(t, before+1, testutil.ToFloat64(storeRequests.WithLabelValues("metrics-test", "error")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(storeRequests.WithLabelValues("metrics-test", "ok")), 1.0)
}

func TestObserveToolCall(t *testing.T) {
	ObserveToolCall("om_test", true)
	assert.GreaterOrEqual(t, testutil.ToFloat64(toolCalls.WithLabelValues("om_test", "error")), 1.0)
}
