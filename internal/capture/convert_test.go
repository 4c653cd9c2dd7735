package capture

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuildDetectorInput(t *testing.T) {
	t.Run("concatenates planes in order", func(t *testing.T) {
		frame := &Frame{
			Planes: []Plane{
				{Bytes: []byte{1, 2, 3, 4}, RowStride: 2},
				{Bytes: []byte{5, 6}, RowStride: 1},
				{Bytes: []byte{7, 8}, RowStride: 1},
			},
			Width:       2,
			Height:      2,
			FormatCode:  FormatCodeYUV420,
			Orientation: 90,
		}

		in, err := BuildDetectorInput(frame)
		if err != nil {
			t.Fatalf("BuildDetectorInput() error = %v", err)
		}

		want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
		if !bytes.Equal(in.Bytes, want) {
			t.Errorf("buffer = %v, want %v", in.Bytes, want)
		}

		total := 0
		for _, p := range frame.Planes {
			total += len(p.Bytes)
		}
		if len(in.Bytes) != total {
			t.Errorf("buffer length = %d, want sum of plane lengths %d", len(in.Bytes), total)
		}
	})

	t.Run("metadata derived from frame", func(t *testing.T) {
		frame := &Frame{
			Planes:      []Plane{{Bytes: make([]byte, 12), RowStride: 6}, {Bytes: make([]byte, 6), RowStride: 3}},
			Width:       2,
			Height:      2,
			FormatCode:  FormatCodeNV21,
			Orientation: 270,
		}

		in, err := BuildDetectorInput(frame)
		if err != nil {
			t.Fatalf("BuildDetectorInput() error = %v", err)
		}

		if in.Width != 2 || in.Height != 2 {
			t.Errorf("size = %dx%d, want 2x2", in.Width, in.Height)
		}
		if in.Rotation != Rotation270 {
			t.Errorf("rotation = %d, want %d", in.Rotation, Rotation270)
		}
		if in.Format != FormatNV21 {
			t.Errorf("format = %s, want %s", in.Format, FormatNV21)
		}
		if in.RowStride != 6 {
			t.Errorf("row stride = %d, want first plane stride 6", in.RowStride)
		}
		if len(in.PlaneStrides) != 2 || in.PlaneStrides[0] != 6 || in.PlaneStrides[1] != 3 {
			t.Errorf("plane strides = %v, want [6 3]", in.PlaneStrides)
		}
	})

	t.Run("nil frame returns ErrNoPlanes", func(t *testing.T) {
		if _, err := BuildDetectorInput(nil); !errors.Is(err, ErrNoPlanes) {
			t.Errorf("error = %v, want ErrNoPlanes", err)
		}
	})

	t.Run("empty plane list returns ErrNoPlanes", func(t *testing.T) {
		if _, err := BuildDetectorInput(&Frame{Width: 640, Height: 480}); !errors.Is(err, ErrNoPlanes) {
			t.Errorf("error = %v, want ErrNoPlanes", err)
		}
	})
}

func TestRotationFromOrientation(t *testing.T) {
	cases := []struct {
		degrees int
		want    Rotation
	}{
		{0, Rotation0},
		{90, Rotation90},
		{180, Rotation180},
		{270, Rotation270},
		{45, Rotation0},
		{-90, Rotation0},
		{360, Rotation0},
	}

	for _, tc := range cases {
		if got := RotationFromOrientation(tc.degrees); got != tc.want {
			t.Errorf("RotationFromOrientation(%d) = %d, want %d", tc.degrees, got, tc.want)
		}
	}
}

func TestFormatFromCode(t *testing.T) {
	cases := []struct {
		code int
		want Format
	}{
		{FormatCodeNV21, FormatNV21},
		{FormatCodeYV12, FormatYV12},
		{FormatCodeYUV420, FormatYUV420},
		{FormatCodeBGR24, FormatBGR24},
		{0, FallbackFormat},
		{-1, FallbackFormat},
		{999, FallbackFormat},
	}

	for _, tc := range cases {
		if got := FormatFromCode(tc.code); got != tc.want {
			t.Errorf("FormatFromCode(%d) = %s, want %s", tc.code, got, tc.want)
		}
	}

	if FallbackFormat != FormatNV21 {
		t.Errorf("fallback format = %s, want %s", FallbackFormat, FormatNV21)
	}
}
