package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrCameraNotOpen is returned when streaming is started on a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// ErrStreamActive is returned when StartStream is called while a stream is running.
var ErrStreamActive = errors.New("stream already active")

// Camera defines the interface for camera capture implementations.
// A camera is opened once, streams frames to a handler until stopped,
// and is closed on teardown.
type Camera interface {
	Open() error
	Close() error
	StartStream(h FrameHandler) error
	StopStream()
	Descriptor() Descriptor
	IsOpen() bool
}

// webcam captures frames from a local video device using GoCV.
type webcam struct {
	desc    Descriptor
	fps     int
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    sync.WaitGroup
}

// NewCamera creates a Camera for the given device ID. Local video devices
// report no lens direction, so they are treated as external with a fixed
// sensor orientation of 0.
func NewCamera(deviceID int) Camera {
	return &webcam{
		desc: Descriptor{
			ID:                deviceID,
			Name:              fmt.Sprintf("video%d", deviceID),
			Lens:              LensExternal,
			SensorOrientation: 0,
		},
		fps: DefaultFPS,
	}
}

// Open opens the camera device and sets the capture resolution.
func (c *webcam) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.desc.ID)
	if err != nil {
		return err
	}

	// Set resolution for performance
	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close stops any active stream and releases the device.
func (c *webcam) Close() error {
	c.stopStream()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// StartStream begins delivering frames to the handler on a dedicated
// goroutine at the configured frame rate. Streaming continues until
// StopStream or Close is called.
func (c *webcam) StartStream(h FrameHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return ErrCameraNotOpen
	}
	if c.stopCh != nil {
		return ErrStreamActive
	}

	c.stopCh = make(chan struct{})
	c.done.Add(1)
	go c.stream(h, c.stopCh)

	return nil
}

// StopStream halts frame delivery. It blocks until the delivery goroutine
// has exited, so no handler invocation survives the call.
func (c *webcam) StopStream() {
	c.stopStream()
}

func (c *webcam) stopStream() {
	c.mu.Lock()
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	c.mu.Unlock()
	c.done.Wait()
}

// stream is the frame delivery loop.
func (c *webcam) stream(h FrameHandler, stopCh chan struct{}) {
	defer c.done.Done()

	interval := time.Second / time.Duration(c.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := c.readFrame()
			if err != nil {
				continue
			}
			h(frame)
		}
	}
}

// readFrame grabs one frame from the device and repackages it as a
// single-plane BGR24 frame.
func (c *webcam) readFrame() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := c.capture.Read(&mat); !ok {
		return nil, errors.New("failed to read frame from camera")
	}
	if mat.Empty() {
		return nil, errors.New("captured frame is empty")
	}

	return MatToFrame(&mat, c.desc.SensorOrientation), nil
}

// MatToFrame wraps a BGR Mat as a single-plane frame. The pixel data is
// copied, so the Mat may be closed after the call.
func MatToFrame(mat *gocv.Mat, orientation int) *Frame {
	return &Frame{
		Planes: []Plane{
			{Bytes: mat.ToBytes(), RowStride: mat.Cols() * mat.Channels()},
		},
		Width:       mat.Cols(),
		Height:      mat.Rows(),
		FormatCode:  FormatCodeBGR24,
		Orientation: orientation,
		Timestamp:   time.Now(),
	}
}

// Descriptor returns the camera's device descriptor.
func (c *webcam) Descriptor() Descriptor {
	return c.desc
}

// IsOpen returns true if the camera device is currently open.
func (c *webcam) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
