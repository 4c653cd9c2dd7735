package capture

import (
	"errors"
	"fmt"
)

// ErrNoPlanes is returned when a frame carries no pixel planes.
var ErrNoPlanes = errors.New("frame has no pixel planes")

// Rotation is the image rotation the detector must apply before inference.
type Rotation int

// Recognized rotations, in degrees.
const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// Format is the pixel format tag understood by the detector service.
type Format string

const (
	FormatNV21   Format = "nv21"
	FormatYV12   Format = "yv12"
	FormatYUV420 Format = "yuv_420_888"
	FormatBGR24  Format = "bgr24"
)

// FallbackFormat is the tag used when a frame's raw format code is not
// recognized. NV21 is what the detector assumes absent better information.
const FallbackFormat = FormatNV21

// DetectorInput is a camera frame flattened into the single contiguous
// buffer the pose detector expects, plus the metadata it needs to
// interpret it. It exists only for the duration of one detector call.
type DetectorInput struct {
	Bytes    []byte
	Width    int
	Height   int
	Rotation Rotation
	Format   Format

	// RowStride is the row stride of the first plane. For multi-planar
	// formats with differing strides this under-describes the buffer;
	// PlaneStrides carries the full per-plane values so callers can see
	// the approximation instead of inheriting it silently.
	RowStride    int
	PlaneStrides []int
}

// RotationFromOrientation maps a camera's fixed sensor orientation to a
// detector rotation. Values other than 0, 90, 180 and 270 map to Rotation0.
func RotationFromOrientation(degrees int) Rotation {
	switch degrees {
	case 90:
		return Rotation90
	case 180:
		return Rotation180
	case 270:
		return Rotation270
	default:
		return Rotation0
	}
}

// FormatFromCode maps a raw platform pixel format code to a detector
// format tag. Unrecognized codes map to FallbackFormat.
func FormatFromCode(code int) Format {
	switch code {
	case FormatCodeNV21:
		return FormatNV21
	case FormatCodeYV12:
		return FormatYV12
	case FormatCodeYUV420:
		return FormatYUV420
	case FormatCodeBGR24:
		return FormatBGR24
	default:
		return FallbackFormat
	}
}

// BuildDetectorInput flattens a frame into a DetectorInput. Plane buffers
// are concatenated in plane order with no re-encoding; the detector
// accepts the camera's native layout flattened this way.
//
// A frame that cannot be assembled yields an error, never a panic: a bad
// frame must not take down processing of subsequent frames.
func BuildDetectorInput(f *Frame) (in *DetectorInput, err error) {
	defer func() {
		if r := recover(); r != nil {
			in = nil
			err = fmt.Errorf("assemble detector input: %v", r)
		}
	}()

	if f == nil || len(f.Planes) == 0 {
		return nil, ErrNoPlanes
	}

	total := 0
	for _, p := range f.Planes {
		total += len(p.Bytes)
	}

	buf := make([]byte, 0, total)
	strides := make([]int, 0, len(f.Planes))
	for _, p := range f.Planes {
		buf = append(buf, p.Bytes...)
		strides = append(strides, p.RowStride)
	}

	return &DetectorInput{
		Bytes:        buf,
		Width:        f.Width,
		Height:       f.Height,
		Rotation:     RotationFromOrientation(f.Orientation),
		Format:       FormatFromCode(f.FormatCode),
		RowStride:    f.Planes[0].RowStride,
		PlaneStrides: strides,
	}, nil
}
