package vision

import (
	"errors"
	"sync"
)

var (
	// ErrCaptureUnavailable signals that no camera backend is wired in.
	ErrCaptureUnavailable = errors.New("camera capture unavailable")
	// ErrCaptureStopped is returned by Read after Stop.
	ErrCaptureStopped = errors.New("capture stopped")
)

// Capture is the camera collaborator. Start may fail non-fatally; Read
// blocks for at most one frame interval; Stop must be idempotent and must
// release the device before returning.
type Capture interface {
	Start() error
	Read() (Frame, error)
	Stop() error
}

// NoCapture returns a Capture whose Start always fails. Used when the host
// has no camera backend; the session runs with camera features disabled.
func NoCapture() Capture { return &noCapture{} }

type noCapture struct{}

func (*noCapture) Start() error         { return ErrCaptureUnavailable }
func (*noCapture) Read() (Frame, error) { return Frame{}, ErrCaptureUnavailable }
func (*noCapture) Stop() error          { return nil }

// FrameFunc adapts a frame-producing function into a Capture. It is the
// injection point for real camera backends and for test feeds.
type FrameFunc func() (Frame, error)

// NewFuncCapture wraps fn into a Capture with idempotent Stop.
func NewFuncCapture(fn FrameFunc) Capture {
	return &funcCapture{fn: fn}
}

type funcCapture struct {
	mu      sync.Mutex
	fn      FrameFunc
	started bool
	stopped bool
}

func (c *funcCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		c.stopped = false
	}
	c.started = true
	return nil
}

func (c *funcCapture) Read() (Frame, error) {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return Frame{}, ErrCaptureStopped
	}
	fn := c.fn
	c.mu.Unlock()
	return fn()
}

func (c *funcCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return nil
	}
	c.stopped = true
	c.started = false
	return nil
}
