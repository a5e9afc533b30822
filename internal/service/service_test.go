package service

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hvalle/counterd/internal/testutil/testlog"
)

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("socket %s never appeared", path)
}

func sendCommand(t *testing.T, socketPath, command string) string {
	t.Helper()
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial %s: %v", socketPath, err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(command)); err != nil {
		t.Fatalf("write %q: %v", command, err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 128)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read response to %q: %v", command, err)
	}
	return string(buf[:n])
}

func TestRunRejectsNonPositiveTickInterval(t *testing.T) {
	testlog.Start(t)

	svc := NewWithConfig(Config{TickInterval: 0})
	if err := svc.run(context.Background()); !errors.Is(err, ErrInvalidTickInterval) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTickerIncrementsCounter(t *testing.T) {
	testlog.Start(t)

	svc := NewWithConfig(Config{TickInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for svc.Counter().Value() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("counter never advanced: %d", svc.Counter().Value())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunFailsOnUnusableSocketPath(t *testing.T) {
	testlog.Start(t)

	svc := NewWithConfig(Config{
		TickInterval: time.Hour,
		SocketPath:   filepath.Join(t.TempDir(), "missing", "counterd.sock"),
	})
	if err := svc.run(context.Background()); err == nil {
		t.Fatalf("expected bind error for unusable path")
	}
}

func TestHandoffBetweenTwoInstances(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	sockA := filepath.Join(dir, "a.sock")
	sockB := filepath.Join(dir, "b.sock")

	// Instance A: serving, ticker effectively disabled.
	a := NewWithConfig(Config{TickInterval: time.Hour, SocketPath: sockA})
	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	aDone := make(chan error, 1)
	go func() { aDone <- a.run(ctxA) }()
	waitForSocket(t, sockA)

	if got := sendCommand(t, sockA, "set_counter 42\n"); got != "previous value 0\n" {
		t.Fatalf("unexpected set_counter response: %q", got)
	}

	// Instance B supersedes A: it reads A's counter and makes A exit.
	b := NewWithConfig(Config{
		TickInterval:   time.Hour,
		SocketPath:     sockB,
		PeerSocketPath: sockA,
	})
	ctxB, cancelB := context.WithCancel(context.Background())
	defer cancelB()
	bDone := make(chan error, 1)
	go func() { bDone <- b.run(ctxB) }()

	select {
	case err := <-aDone:
		if err != nil {
			t.Fatalf("instance A exited with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("instance A did not terminate after handoff")
	}

	waitForSocket(t, sockB)
	if got := sendCommand(t, sockB, "get_counter\n"); got != "42\n" {
		t.Fatalf("instance B did not inherit counter: %q", got)
	}

	cancelB()
	if err := <-bDone; err != nil {
		t.Fatalf("instance B run: %v", err)
	}
}

func TestHandoffAgainstAbsentPeerStartsAtZero(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	svc := NewWithConfig(Config{
		TickInterval:   time.Hour,
		SocketPath:     filepath.Join(dir, "b.sock"),
		PeerSocketPath: filepath.Join(dir, "absent.sock"),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.run(ctx) }()

	waitForSocket(t, svc.cfg.SocketPath)
	if got := sendCommand(t, svc.cfg.SocketPath, "get_counter\n"); got != "0\n" {
		t.Fatalf("unexpected starting counter: %q", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
