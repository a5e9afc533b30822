package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hvalle/counterd/internal/logging"
	"github.com/hvalle/counterd/internal/service"
)

type options struct {
	configPath        string
	tickIntervalMS    int
	serverSocketPath  string
	peerSocketPath    string
	metricsListenAddr string
	surviveKillSignal bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "TOML config file path")
	flag.IntVar(&opts.tickIntervalMS, "d", 100, "timer delay in milliseconds")
	flag.StringVar(&opts.serverSocketPath, "s", "", "unix socket path to listen on (empty disables serving)")
	flag.StringVar(&opts.peerSocketPath, "c", "", "unix socket path to read the starting counter from")
	flag.StringVar(&opts.metricsListenAddr, "metrics", "", "HTTP listen address for Prometheus metrics (empty disables)")
	flag.BoolVar(&opts.surviveKillSignal, "survive-systemd-kill-signal", false,
		"request the initrd root-storage-daemon exemption")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := resolveConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "counterd: %v\n", err)
		os.Exit(1)
	}

	svc := service.NewWithConfig(cfg)
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "counterd: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig layers explicit flags over the optional config file over the
// built-in defaults.
func resolveConfig(opts options) (service.Config, error) {
	cfg := service.DefaultConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = loadServiceConfig(opts.configPath)
		if err != nil {
			return service.Config{}, err
		}
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["d"] {
		cfg.TickInterval = time.Duration(opts.tickIntervalMS) * time.Millisecond
	}
	if set["s"] {
		cfg.SocketPath = opts.serverSocketPath
	}
	if set["c"] {
		cfg.PeerSocketPath = opts.peerSocketPath
	}
	if set["metrics"] {
		cfg.MetricsListenAddr = opts.metricsListenAddr
	}
	if set["survive-systemd-kill-signal"] {
		cfg.SurviveKillSignal = opts.surviveKillSignal
	}
	return cfg, nil
}
