package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ayusman/posecam/internal/capture"
	"github.com/ayusman/posecam/internal/detector"
	"github.com/ayusman/posecam/internal/store"
)

func newTestApp(t *testing.T) (*App, *capture.MockCamera, *detector.MockDetector, *store.Store) {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	a := New(Config{
		Store:     s,
		PluginDir: t.TempDir(),
		CameraID:  -1,
	})

	cam := capture.NewMockCamera(capture.Descriptor{ID: -1, Name: "mock-cam"})
	a.SetCamera(cam)

	det := detector.NewMockDetector()
	a.SetDetector(det)

	return a, cam, det, s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// emitAndSettle delivers one frame and waits until the pipeline has
// published the resulting snapshot.
func emitAndSettle(t *testing.T, a *App, cam *capture.MockCamera) {
	t.Helper()

	var before uint64
	if snap := a.Latest(); snap != nil {
		before = snap.Seq
	}

	frame := capture.TestFrame(cam.Descriptor(), 640, 480, 128)
	if err := cam.Emit(frame); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	waitFor(t, "snapshot", func() bool {
		snap := a.Latest()
		return snap != nil && snap.Seq > before
	})
}

func TestApp_StartStop_RecordsSession(t *testing.T) {
	a, cam, det, s := newTestApp(t)
	det.SetPoses([]detector.Pose{detector.FullBodyPose()})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	a.SetEnabled(true)

	sessionID := a.SessionID()
	if sessionID == "" {
		t.Fatal("expected an active session after Start")
	}

	emitAndSettle(t, a, cam)
	emitAndSettle(t, a, cam)

	a.Stop()

	if a.SessionID() != "" {
		t.Error("expected no active session after Stop")
	}

	sess, err := s.Sessions().GetByID(sessionID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !sess.StoppedAt.Valid {
		t.Error("session should be finished")
	}
	if sess.FramesReceived != 2 || sess.FramesProcessed != 2 {
		t.Errorf("frames = %d received / %d processed, want 2/2",
			sess.FramesReceived, sess.FramesProcessed)
	}
	if sess.PosesDetected != 2 {
		t.Errorf("poses detected = %d, want 2", sess.PosesDetected)
	}
}

func TestApp_Start_Twice(t *testing.T) {
	a, _, _, _ := newTestApp(t)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	first := a.SessionID()

	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if a.SessionID() != first {
		t.Error("second Start should not replace the running session")
	}

	a.Stop()
}

// blockingDetector parks Detect until the gate is released, so tests
// can hold a frame in flight.
type blockingDetector struct {
	gate  chan struct{}
	calls atomic.Int32
}

func newBlockingDetector() *blockingDetector {
	return &blockingDetector{gate: make(chan struct{})}
}

func (d *blockingDetector) Detect(ctx context.Context, in *capture.DetectorInput) ([]detector.Pose, error) {
	d.calls.Add(1)
	select {
	case <-d.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []detector.Pose{detector.FullBodyPose()}, nil
}

func (d *blockingDetector) Close() error { return nil }

func TestApp_SingleFlight_DropsFramesWhileBusy(t *testing.T) {
	a, cam, _, _ := newTestApp(t)

	det := newBlockingDetector()
	a.SetDetector(det)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()
	a.SetEnabled(true)

	frame := capture.TestFrame(cam.Descriptor(), 640, 480, 128)

	// First frame occupies the pipeline.
	cam.Emit(frame)
	waitFor(t, "detector call", func() bool { return det.calls.Load() == 1 })

	// These arrive while detection is in flight and must be dropped,
	// not queued.
	cam.Emit(frame)
	cam.Emit(frame)

	if got := a.Metrics().FramesDropped.Load(); got != 2 {
		t.Errorf("frames dropped = %d, want 2", got)
	}
	if got := det.calls.Load(); got != 1 {
		t.Errorf("detector calls = %d, want 1 while first frame in flight", got)
	}

	close(det.gate)
	waitFor(t, "snapshot", func() bool { return a.Latest() != nil })

	if got := a.Latest().Seq; got != 1 {
		t.Errorf("snapshot seq = %d, want 1 (dropped frames must not publish)", got)
	}
	if got := a.Metrics().FramesProcessed.Load(); got != 1 {
		t.Errorf("frames processed = %d, want 1", got)
	}
}

func TestApp_SnapshotPerProcessedFrame(t *testing.T) {
	a, cam, det, _ := newTestApp(t)
	det.SetPoses([]detector.Pose{detector.FullBodyPose()})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()
	a.SetEnabled(true)

	emitAndSettle(t, a, cam)
	first := a.Latest()
	if first == nil || len(first.Poses) != 1 {
		t.Fatalf("first snapshot = %+v, want 1 pose", first)
	}
	if first.CameraSize.X != 640 || first.CameraSize.Y != 480 {
		t.Errorf("camera size = %v, want 640x480", first.CameraSize)
	}

	// An empty detection still publishes a fresh snapshot so stale
	// skeletons get cleared.
	det.SetPoses(nil)
	emitAndSettle(t, a, cam)
	second := a.Latest()

	if second == first {
		t.Error("each processed frame should publish a new snapshot value")
	}
	if len(second.Poses) != 0 {
		t.Errorf("second snapshot poses = %d, want 0", len(second.Poses))
	}
	if second.Seq != first.Seq+1 {
		t.Errorf("seq = %d after %d, want consecutive", second.Seq, first.Seq)
	}
}

func TestApp_PresenceTransitions(t *testing.T) {
	a, cam, det, s := newTestApp(t)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	a.SetEnabled(true)
	sessionID := a.SessionID()

	// Empty frames before anyone appears produce no events.
	det.SetPoses(nil)
	emitAndSettle(t, a, cam)

	// One person enters.
	det.SetPoses([]detector.Pose{detector.FullBodyPose()})
	emitAndSettle(t, a, cam)

	// Still present: no repeated event.
	emitAndSettle(t, a, cam)

	// Person leaves.
	det.SetPoses(nil)
	emitAndSettle(t, a, cam)

	a.Stop()

	events, err := s.Sessions().PresenceEvents(sessionID)
	if err != nil {
		t.Fatalf("PresenceEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (detected then lost)", len(events))
	}
	if events[0].Event != store.EventPersonDetected || events[0].PoseCount != 1 {
		t.Errorf("first event = %s/%d, want person_detected/1", events[0].Event, events[0].PoseCount)
	}
	if events[1].Event != store.EventPersonLost || events[1].PoseCount != 0 {
		t.Errorf("second event = %s/%d, want person_lost/0", events[1].Event, events[1].PoseCount)
	}
}

func TestApp_RestartClearsSnapshot(t *testing.T) {
	a, cam, det, _ := newTestApp(t)
	det.SetPoses([]detector.Pose{detector.FullBodyPose()})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	a.SetEnabled(true)
	emitAndSettle(t, a, cam)
	firstSeq := a.Latest().Seq
	a.Stop()

	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	defer a.Stop()

	if a.Latest() != nil {
		t.Error("restart should not serve the previous session's snapshot")
	}

	// The sequence keeps counting up across the restart.
	emitAndSettle(t, a, cam)
	if got := a.Latest().Seq; got <= firstSeq {
		t.Errorf("seq = %d after restart, want > %d", got, firstSeq)
	}
}

func TestApp_DisabledIgnoresFrames(t *testing.T) {
	a, cam, det, _ := newTestApp(t)
	det.SetPoses([]detector.Pose{detector.FullBodyPose()})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	// Detection disabled: frames are not counted or processed.
	frame := capture.TestFrame(cam.Descriptor(), 640, 480, 128)
	cam.Emit(frame)

	time.Sleep(50 * time.Millisecond)

	if got := a.Metrics().FramesReceived.Load(); got != 0 {
		t.Errorf("frames received = %d while disabled, want 0", got)
	}
	if a.Latest() != nil {
		t.Error("no snapshot should be published while disabled")
	}
	if got := det.Calls(); got != 0 {
		t.Errorf("detector calls = %d while disabled, want 0", got)
	}
}

func TestApp_DetectorError_PublishesEmptySnapshot(t *testing.T) {
	a, cam, det, s := newTestApp(t)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	a.SetEnabled(true)
	sessionID := a.SessionID()

	det.SetPoses([]detector.Pose{detector.FullBodyPose()})
	emitAndSettle(t, a, cam)

	det.SetError(errors.New("detector crashed"))
	emitAndSettle(t, a, cam)

	snap := a.Latest()
	if len(snap.Poses) != 0 {
		t.Errorf("snapshot poses after detector error = %d, want 0", len(snap.Poses))
	}
	if got := a.Metrics().DetectErrors.Load(); got != 1 {
		t.Errorf("detect errors = %d, want 1", got)
	}

	a.Stop()

	// Losing the detector reads as the person leaving.
	events, _ := s.Sessions().PresenceEvents(sessionID)
	if len(events) != 2 || events[1].Event != store.EventPersonLost {
		t.Errorf("events = %+v, want detected then lost", events)
	}
}
