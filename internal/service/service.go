// Package service wires the counter, ticker, socket server, and handoff
// client into one process lifecycle.
package service

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hvalle/counterd/internal/counter"
	"github.com/hvalle/counterd/internal/handoff"
	"github.com/hvalle/counterd/internal/observability"
	"github.com/hvalle/counterd/internal/server"
)

var ErrInvalidTickInterval = errors.New("service: invalid tick interval")

// Config controls one counterd process.
type Config struct {
	// TickInterval is the counter increment period.
	TickInterval time.Duration
	// SocketPath is the unix socket to serve on. Empty disables serving.
	SocketPath string
	// PeerSocketPath is an already-running instance to take the starting
	// counter value from. Empty starts the counter at zero.
	PeerSocketPath string
	// MetricsListenAddr exposes Prometheus metrics over HTTP when set.
	MetricsListenAddr string
	// SurviveKillSignal requests the systemd root-storage-daemon exemption.
	SurviveKillSignal bool
}

// DefaultConfig returns the runtime defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: 100 * time.Millisecond,
	}
}

// Service runs the counter daemon lifecycle as a standalone process.
type Service struct {
	cfg     Config
	counter *counter.Counter
}

// NewWithConfig constructs a service using explicit config.
func NewWithConfig(cfg Config) *Service {
	return &Service{
		cfg:     cfg,
		counter: counter.New(0),
	}
}

// Counter exposes the shared counter.
func (s *Service) Counter() *counter.Counter {
	return s.counter
}

// Run blocks until process signal shutdown, a fatal serving error, or a
// client-requested termination.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.run(ctx)
}

func (s *Service) run(ctx context.Context) error {
	if s.cfg.TickInterval <= 0 {
		return ErrInvalidTickInterval
	}

	if s.cfg.SurviveKillSignal {
		// argv[0] cannot be rewritten in place from Go; the systemd-side
		// option covers the initrd-to-rootfs transition instead.
		log.Warn().Msg("service.run survive_kill_signal requested; configure SurviveFinalKillSignal=yes (systemd v255+) on the unit")
	}

	// The handoff runs synchronously before anything else: the process has
	// no useful work to do until it knows its starting value.
	if peer := strings.TrimSpace(s.cfg.PeerSocketPath); peer != "" {
		s.counter.Set(handoff.NewClient(peer).FetchAndTerminate())
	}
	observability.RecordCounterValue(s.counter.Value())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var serveErr chan error
	if socketPath := strings.TrimSpace(s.cfg.SocketPath); socketPath != "" {
		srv := server.New(socketPath, s.counter, cancel)
		if err := srv.Start(); err != nil {
			return err
		}
		serveErr = make(chan error, 1)
		go func() { serveErr <- srv.Serve(ctx) }()
	} else {
		log.Info().Msg("service.run not listening on a unix socket")
	}

	var metricsErr chan error
	if addr := strings.TrimSpace(s.cfg.MetricsListenAddr); addr != "" {
		metricsErr = make(chan error, 1)
		go func() { metricsErr <- observability.ServeMetrics(ctx, addr) }()
	}

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("service.run shutdown")
			// Let the server release the socket file before returning.
			if serveErr != nil {
				if err := <-serveErr; err != nil {
					return err
				}
			}
			return nil
		case err := <-serveErr:
			serveErr = nil
			if err != nil {
				return err
			}
		case err := <-metricsErr:
			metricsErr = nil
			if err != nil {
				return err
			}
		case <-ticker.C:
			v := s.counter.Increment()
			log.Info().Msgf("%d", v)
			observability.RecordTick(v)
		}
	}
}
