// Package metrics wires a Prometheus registry with the counters and
// histograms the matching core exposes: orders accepted/rejected,
// trades executed, and snapshot durations, served on MetricsPort.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchcore/internal/domain"
)

// Metrics holds every collector the matching core reports.
type Metrics struct {
	OrdersAccepted  *prometheus.CounterVec
	OrdersRejected  *prometheus.CounterVec
	TradesExecuted  *prometheus.CounterVec
	SnapshotSeconds *prometheus.HistogramVec
}

// New registers every collector against registry and returns the
// bound Metrics handle.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		OrdersAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "orders_accepted_total",
			Help:      "Orders accepted by the matching engine, labeled by symbol and resulting status.",
		}, []string{"symbol", "status"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "orders_rejected_total",
			Help:      "Orders rejected by the matching engine, labeled by symbol.",
		}, []string{"symbol"}),
		TradesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "trades_executed_total",
			Help:      "Trades executed, labeled by symbol.",
		}, []string{"symbol"}),
		SnapshotSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matchcore",
			Name:      "snapshot_duration_seconds",
			Help:      "Wall time spent serializing and writing a symbol's snapshot.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"symbol"}),
	}

	registry.MustRegister(m.OrdersAccepted, m.OrdersRejected, m.TradesExecuted, m.SnapshotSeconds)
	return m
}

// RecordResult updates the order/trade counters for one submit's
// disposition.
func (m *Metrics) RecordResult(symbol string, result *domain.MatchResult) {
	if result.Status == domain.ResultRejected {
		m.OrdersRejected.WithLabelValues(symbol).Inc()
		return
	}
	m.OrdersAccepted.WithLabelValues(symbol, string(result.Status)).Inc()
	m.TradesExecuted.WithLabelValues(symbol).Add(float64(len(result.Trades)))
}

// ObserveSnapshot records how long a snapshot save took for symbol.
func (m *Metrics) ObserveSnapshot(symbol string, d time.Duration) {
	m.SnapshotSeconds.WithLabelValues(symbol).Observe(d.Seconds())
}

// Module provides a *prometheus.Registry and a Metrics handle bound to
// it. The fx.Lifecycle hook that serves /metrics is attached
// separately by RegisterServer.
var Module = fx.Module("metrics",
	fx.Provide(
		func() *prometheus.Registry { return prometheus.NewRegistry() },
		New,
	),
)

// ServeParams are the fx-injected dependencies for starting the
// metrics HTTP listener.
type ServeParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Registry  *prometheus.Registry
	Logger    *zap.Logger
	Addr      string `name:"metricsAddr"`
}

// RegisterServer attaches an OnStart/OnStop hook that serves the
// registry's /metrics endpoint on Addr for the life of the process.
func RegisterServer(p ServeParams) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: p.Addr, Handler: mux}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			listener, err := net.Listen("tcp", p.Addr)
			if err != nil {
				return err
			}
			p.Logger.Info("metrics server listening", zap.String("addr", p.Addr))
			go func() {
				if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
					p.Logger.Error("metrics server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
