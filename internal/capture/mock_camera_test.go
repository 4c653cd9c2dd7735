package capture

import (
	"errors"
	"testing"
)

func TestMockCamera(t *testing.T) {
	desc := Descriptor{ID: 0, Name: "mock", Lens: LensFront, SensorOrientation: 90}

	t.Run("implements Camera interface", func(t *testing.T) {
		var _ Camera = (*MockCamera)(nil)
	})

	t.Run("stream requires open camera", func(t *testing.T) {
		cam := NewMockCamera(desc)

		err := cam.StartStream(func(*Frame) {})
		if !errors.Is(err, ErrCameraNotOpen) {
			t.Errorf("StartStream() error = %v, want ErrCameraNotOpen", err)
		}
	})

	t.Run("second stream rejected", func(t *testing.T) {
		cam := NewMockCamera(desc)
		cam.Open()

		if err := cam.StartStream(func(*Frame) {}); err != nil {
			t.Fatalf("StartStream() error = %v", err)
		}
		if err := cam.StartStream(func(*Frame) {}); !errors.Is(err, ErrStreamActive) {
			t.Errorf("second StartStream() error = %v, want ErrStreamActive", err)
		}
	})

	t.Run("emit delivers frames in order", func(t *testing.T) {
		cam := NewMockCamera(desc)
		cam.Open()

		var got []*Frame
		cam.StartStream(func(f *Frame) { got = append(got, f) })

		f1 := TestFrame(desc, 4, 4, 0x10)
		f2 := TestFrame(desc, 4, 4, 0x20)
		cam.Emit(f1)
		cam.Emit(f2)

		if len(got) != 2 || got[0] != f1 || got[1] != f2 {
			t.Errorf("delivered %d frames, want f1 then f2", len(got))
		}
	})

	t.Run("emit after stop fails", func(t *testing.T) {
		cam := NewMockCamera(desc)
		cam.Open()
		cam.StartStream(func(*Frame) {})
		cam.StopStream()

		if err := cam.Emit(TestFrame(desc, 4, 4, 0)); err == nil {
			t.Error("expected error emitting after StopStream")
		}
	})

	t.Run("test frame carries descriptor orientation", func(t *testing.T) {
		f := TestFrame(desc, 8, 6, 0x7f)

		if f.Orientation != desc.SensorOrientation {
			t.Errorf("orientation = %d, want %d", f.Orientation, desc.SensorOrientation)
		}
		if f.Width != 8 || f.Height != 6 {
			t.Errorf("size = %dx%d, want 8x6", f.Width, f.Height)
		}
		if len(f.Planes) != 1 || len(f.Planes[0].Bytes) != 8*6*3 {
			t.Errorf("expected one BGR24 plane of %d bytes", 8*6*3)
		}
	})
}
