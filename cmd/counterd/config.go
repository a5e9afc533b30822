package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hvalle/counterd/internal/service"
)

type fileConfig struct {
	TickInterval      string `toml:"tick_interval"`
	TickIntervalMS    int64  `toml:"tick_interval_ms"`
	ServerSocketPath  string `toml:"server_socket_path"`
	PeerSocketPath    string `toml:"peer_socket_path"`
	MetricsListenAddr string `toml:"metrics_listen_addr"`
	SurviveKillSignal bool   `toml:"survive_systemd_kill_signal"`
}

func loadServiceConfig(path string) (service.Config, error) {
	cfg := service.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return service.Config{}, fmt.Errorf("load counterd config: %w", err)
	}

	if meta.IsDefined("tick_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.TickInterval))
		if err != nil {
			return service.Config{}, fmt.Errorf("parse tick_interval: %w", err)
		}
		cfg.TickInterval = d
	}

	if meta.IsDefined("tick_interval_ms") {
		cfg.TickInterval = time.Duration(raw.TickIntervalMS) * time.Millisecond
	}

	if meta.IsDefined("server_socket_path") {
		cfg.SocketPath = strings.TrimSpace(raw.ServerSocketPath)
	}

	if meta.IsDefined("peer_socket_path") {
		cfg.PeerSocketPath = strings.TrimSpace(raw.PeerSocketPath)
	}

	if meta.IsDefined("metrics_listen_addr") {
		cfg.MetricsListenAddr = strings.TrimSpace(raw.MetricsListenAddr)
	}

	if meta.IsDefined("survive_systemd_kill_signal") {
		cfg.SurviveKillSignal = raw.SurviveKillSignal
	}

	return cfg, nil
}
