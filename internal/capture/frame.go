// Package capture provides camera streaming and frame conversion using GoCV (OpenCV).
package capture

import "time"

// LensDirection indicates which way a camera lens faces.
type LensDirection string

const (
	// LensFront is a user-facing camera.
	LensFront LensDirection = "front"
	// LensBack is a world-facing camera.
	LensBack LensDirection = "back"
	// LensExternal is a detachable camera such as a USB webcam.
	LensExternal LensDirection = "external"
)

// Raw pixel format codes as delivered by the platform camera layer.
// The YUV values follow the Android ImageFormat constants the detector
// service understands; BGR24 is a local extension for OpenCV-sourced frames.
const (
	FormatCodeNV21   = 17
	FormatCodeYUV420 = 35
	FormatCodeYV12   = 0x32315659
	FormatCodeBGR24  = 3
)

// Descriptor describes an available camera device.
type Descriptor struct {
	ID   int
	Name string
	Lens LensDirection

	// SensorOrientation is the fixed rotation offset of the image sensor
	// relative to device "up", in degrees.
	SensorOrientation int
}

// Plane is a single pixel plane of a raw camera frame.
type Plane struct {
	Bytes     []byte
	RowStride int
}

// Frame is one raw camera frame. Frames are ephemeral: produced once per
// camera tick, consumed by the handler, never retained by the camera.
type Frame struct {
	Planes      []Plane
	Width       int
	Height      int
	FormatCode  int
	Orientation int
	Timestamp   time.Time
}

// FrameHandler receives frames from a streaming camera. It is invoked on
// the camera's delivery goroutine and must not retain the frame.
type FrameHandler func(*Frame)
