// Package protocol defines the newline-delimited text grammar spoken over
// the counter socket, shared by the server and the handoff client.
//
// Requests are ASCII lines. Exactly one command is honored per read; the
// read buffer is capped at ReadBufferLen bytes and anything past the first
// newline (or past the cap) is discarded. This is an accepted protocol
// limitation, not a framing guarantee.
package protocol

import (
	"bytes"
	"fmt"
	"strconv"
)

// ReadBufferLen caps a single request read. Commands longer than this are
// truncated, never reassembled across reads.
const ReadBufferLen = 127

// Recognized commands. Matching is exact and case-sensitive.
const (
	CmdGetCounter             = "get_counter"
	CmdGetCounterAndTerminate = "get_counter_and_terminate"
	SetCounterPrefix          = "set_counter "
)

// InvalidCommandResponse is sent for any unrecognized command line.
const InvalidCommandResponse = "Invalid command\n"

// ExtractCommand returns the single command carried by one read: the bytes
// up to the first newline, or the whole buffer when no newline arrived.
func ExtractCommand(buf []byte) string {
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}

// FormatCounter renders the reply for get_counter and
// get_counter_and_terminate.
func FormatCounter(v int64) string {
	return fmt.Sprintf("%d\n", v)
}

// FormatPrevious renders the reply for set_counter.
func FormatPrevious(old int64) string {
	return fmt.Sprintf("previous value %d\n", old)
}

// ParseLeadingInt parses a base-10 signed integer from the front of s with
// strtoll semantics: leading whitespace is skipped, parsing stops at the
// first non-digit, out-of-range input saturates, and anything else parses
// as zero.
func ParseLeadingInt(s string) int64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0
	}
	// ParseInt returns the saturated bound alongside ErrRange, which is
	// exactly the overflow behavior wanted here.
	v, _ := strconv.ParseInt(s[start:i], 10, 64)
	return v
}
