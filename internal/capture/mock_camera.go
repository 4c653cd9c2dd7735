package capture

import (
	"fmt"
	"sync"
)

// MockCamera is a hand-fed Camera for testing. Frames are delivered to
// the handler by calling Emit, so tests control the exact cadence.
type MockCamera struct {
	desc      Descriptor
	mu        sync.Mutex
	running   bool
	streaming bool
	handler   FrameHandler
}

func NewMockCamera(desc Descriptor) *MockCamera {
	return &MockCamera{desc: desc}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.streaming = false
	c.handler = nil
	return nil
}

func (c *MockCamera) StartStream(h FrameHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return ErrCameraNotOpen
	}
	if c.streaming {
		return ErrStreamActive
	}

	c.streaming = true
	c.handler = h
	return nil
}

func (c *MockCamera) StopStream() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streaming = false
	c.handler = nil
}

func (c *MockCamera) Descriptor() Descriptor { return c.desc }

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Emit delivers one frame to the stream handler, synchronously, as the
// real camera does on its delivery goroutine.
func (c *MockCamera) Emit(f *Frame) error {
	c.mu.Lock()
	h := c.handler
	streaming := c.streaming
	c.mu.Unlock()

	if !streaming || h == nil {
		return fmt.Errorf("camera not streaming")
	}

	h(f)
	return nil
}

// TestFrame builds a single-plane frame filled with a constant byte,
// sized and tagged as the mock camera's descriptor dictates.
func TestFrame(desc Descriptor, width, height int, fill byte) *Frame {
	data := make([]byte, width*height*3)
	for i := range data {
		data[i] = fill
	}

	return &Frame{
		Planes:      []Plane{{Bytes: data, RowStride: width * 3}},
		Width:       width,
		Height:      height,
		FormatCode:  FormatCodeBGR24,
		Orientation: desc.SensorOrientation,
	}
}
