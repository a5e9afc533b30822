// Package counter owns the process-wide counter value.
//
// Connection handlers and the ticker run on separate goroutines, so every
// access goes through one mutex.
package counter

import "sync"

// Counter is a shared signed counter. The zero value is ready to use.
type Counter struct {
	mu    sync.Mutex
	value int64
}

// New constructs a counter starting at initial.
func New(initial int64) *Counter {
	return &Counter{value: initial}
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Increment adds one and returns the new value.
func (c *Counter) Increment() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
	return c.value
}

// Set overwrites the counter and returns the previous value.
func (c *Counter) Set(v int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.value
	c.value = v
	return prev
}
