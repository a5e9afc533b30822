// Package handoff implements the one-shot client that pulls the starting
// counter value from an already-running peer instance and asks that peer to
// exit once the value is delivered.
package handoff

import (
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hvalle/counterd/internal/observability"
	"github.com/hvalle/counterd/internal/protocol"
)

const fetchCommand = protocol.CmdGetCounterAndTerminate + "\n"

// readBufferLen bounds the single response read. One read is trusted to
// carry the whole response line.
const readBufferLen = 100

// Client reads the current counter from one peer socket. It runs exactly
// once, before the serving loop starts, so blocking calls are fine here.
type Client struct {
	peerPath string
	timeout  time.Duration
}

// NewClient constructs a client bound to one peer socket path.
func NewClient(peerPath string) *Client {
	return &Client{
		peerPath: peerPath,
		timeout:  5 * time.Second,
	}
}

// FetchAndTerminate requests the peer's counter and makes the peer exit.
// An unreachable peer is an expected condition at boot, not an error: every
// failure path logs and falls back to zero so the caller starts fresh.
func (c *Client) FetchAndTerminate() int64 {
	log.Info().Msgf("handoff.FetchAndTerminate reading starting position socket=%q", c.peerPath)

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.Dial("unix", c.peerPath)
	if err != nil {
		log.Warn().Msgf("handoff.FetchAndTerminate connect socket=%q err=%v", c.peerPath, err)
		observability.RecordHandoff("fallback")
		return 0
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := conn.Write([]byte(fetchCommand)); err != nil {
		log.Warn().Msgf("handoff.FetchAndTerminate write socket=%q err=%v", c.peerPath, err)
		observability.RecordHandoff("fallback")
		return 0
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.timeout))
	buf := make([]byte, readBufferLen)
	n, err := conn.Read(buf)
	if err != nil {
		log.Warn().Msgf("handoff.FetchAndTerminate read socket=%q err=%v", c.peerPath, err)
		observability.RecordHandoff("fallback")
		return 0
	}

	value := protocol.ParseLeadingInt(string(buf[:n]))
	observability.RecordHandoff("ok")
	return value
}
