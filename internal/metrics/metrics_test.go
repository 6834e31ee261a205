package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/matchcore/internal/domain"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetrics_RecordResult_Accepted(t *testing.T) {
	m := New(prometheus.NewRegistry())
	result := &domain.MatchResult{
		Status: domain.ResultFilled,
		Trades: []*domain.Trade{{}, {}},
	}

	m.RecordResult("BTC-USD", result)

	assert.Equal(t, float64(1), counterValue(t, m.OrdersAccepted.WithLabelValues("BTC-USD", "filled")))
	assert.Equal(t, float64(2), counterValue(t, m.TradesExecuted.WithLabelValues("BTC-USD")))
}

func TestMetrics_RecordResult_Rejected(t *testing.T) {
	m := New(prometheus.NewRegistry())
	result := &domain.MatchResult{Status: domain.ResultRejected}

	m.RecordResult("BTC-USD", result)

	assert.Equal(t, float64(1), counterValue(t, m.OrdersRejected.WithLabelValues("BTC-USD")))
	assert.Equal(t, float64(0), counterValue(t, m.OrdersAccepted.WithLabelValues("BTC-USD", "filled")))
}
