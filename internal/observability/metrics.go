package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	registerOnce sync.Once

	counterValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "counterd",
			Name:      "counter_value",
			Help:      "Current counter value.",
		},
	)
	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "counterd",
			Name:      "ticks_total",
			Help:      "Total timer ticks since start.",
		},
	)
	connectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "counterd",
			Subsystem: "socket",
			Name:      "connections_total",
			Help:      "Total accepted socket connections.",
		},
	)
	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "counterd",
			Subsystem: "socket",
			Name:      "active_connections",
			Help:      "Currently open socket connections.",
		},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "counterd",
			Subsystem: "socket",
			Name:      "commands_total",
			Help:      "Commands dispatched, by verb.",
		},
		[]string{"verb"},
	)
	handoffsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "counterd",
			Subsystem: "handoff",
			Name:      "results_total",
			Help:      "Handoff client attempts, by outcome.",
		},
		[]string{"outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			counterValue,
			ticksTotal,
			connectionsTotal,
			activeConnections,
			commandsTotal,
			handoffsTotal,
		)
	})
}

func RecordTick(value int64) {
	RegisterMetrics()
	ticksTotal.Inc()
	counterValue.Set(float64(value))
}

func RecordCounterValue(value int64) {
	RegisterMetrics()
	counterValue.Set(float64(value))
}

func RecordConnectionOpened() {
	RegisterMetrics()
	connectionsTotal.Inc()
	activeConnections.Inc()
}

func RecordConnectionClosed() {
	RegisterMetrics()
	activeConnections.Dec()
}

func RecordCommand(verb string) {
	RegisterMetrics()
	commandsTotal.WithLabelValues(verb).Inc()
}

func RecordHandoff(outcome string) {
	RegisterMetrics()
	handoffsTotal.WithLabelValues(outcome).Inc()
}

// ServeMetrics exposes the Prometheus registry over HTTP until ctx is
// cancelled.
func ServeMetrics(ctx context.Context, addr string) error {
	RegisterMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info().Msgf("observability.metrics listening addr=%q", ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
