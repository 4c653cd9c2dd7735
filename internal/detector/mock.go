package detector

import (
	"context"
	"sync"

	"github.com/ayusman/posecam/internal/capture"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	poses []Pose
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPoses sets the poses that will be returned by Detect.
func (m *MockDetector) SetPoses(poses []Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
	m.err = nil
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of Detect invocations so far.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured poses or error.
func (m *MockDetector) Detect(ctx context.Context, in *capture.DetectorInput) ([]Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.poses, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FullBodyPose returns a preset Pose with all 33 landmarks present,
// laid out as a person standing upright facing the camera, in a
// 640x480 detector image space.
func FullBodyPose() Pose {
	pose := Pose{
		Landmarks: make(map[Landmark]Point, NumLandmarks),
		Score:     0.97,
	}

	// Head
	pose.Landmarks[Nose] = Point{X: 320, Y: 80, Visibility: 0.99}
	pose.Landmarks[LeftEyeInner] = Point{X: 328, Y: 72, Visibility: 0.99}
	pose.Landmarks[LeftEye] = Point{X: 334, Y: 72, Visibility: 0.99}
	pose.Landmarks[LeftEyeOuter] = Point{X: 340, Y: 72, Visibility: 0.99}
	pose.Landmarks[RightEyeInner] = Point{X: 312, Y: 72, Visibility: 0.99}
	pose.Landmarks[RightEye] = Point{X: 306, Y: 72, Visibility: 0.99}
	pose.Landmarks[RightEyeOuter] = Point{X: 300, Y: 72, Visibility: 0.99}
	pose.Landmarks[LeftEar] = Point{X: 348, Y: 78, Visibility: 0.95}
	pose.Landmarks[RightEar] = Point{X: 292, Y: 78, Visibility: 0.95}
	pose.Landmarks[MouthLeft] = Point{X: 330, Y: 94, Visibility: 0.98}
	pose.Landmarks[MouthRight] = Point{X: 310, Y: 94, Visibility: 0.98}

	// Shoulder girdle and arms
	pose.Landmarks[LeftShoulder] = Point{X: 380, Y: 140, Visibility: 0.99}
	pose.Landmarks[RightShoulder] = Point{X: 260, Y: 140, Visibility: 0.99}
	pose.Landmarks[LeftElbow] = Point{X: 400, Y: 210, Visibility: 0.97}
	pose.Landmarks[RightElbow] = Point{X: 240, Y: 210, Visibility: 0.97}
	pose.Landmarks[LeftWrist] = Point{X: 410, Y: 270, Visibility: 0.96}
	pose.Landmarks[RightWrist] = Point{X: 230, Y: 270, Visibility: 0.96}
	pose.Landmarks[LeftPinky] = Point{X: 416, Y: 288, Visibility: 0.90}
	pose.Landmarks[RightPinky] = Point{X: 224, Y: 288, Visibility: 0.90}
	pose.Landmarks[LeftIndex] = Point{X: 412, Y: 292, Visibility: 0.90}
	pose.Landmarks[RightIndex] = Point{X: 228, Y: 292, Visibility: 0.90}
	pose.Landmarks[LeftThumb] = Point{X: 406, Y: 284, Visibility: 0.90}
	pose.Landmarks[RightThumb] = Point{X: 234, Y: 284, Visibility: 0.90}

	// Torso and legs
	pose.Landmarks[LeftHip] = Point{X: 356, Y: 280, Visibility: 0.99}
	pose.Landmarks[RightHip] = Point{X: 284, Y: 280, Visibility: 0.99}
	pose.Landmarks[LeftKnee] = Point{X: 352, Y: 370, Visibility: 0.95}
	pose.Landmarks[RightKnee] = Point{X: 288, Y: 370, Visibility: 0.95}
	pose.Landmarks[LeftAnkle] = Point{X: 350, Y: 440, Visibility: 0.93}
	pose.Landmarks[RightAnkle] = Point{X: 290, Y: 440, Visibility: 0.93}
	pose.Landmarks[LeftHeel] = Point{X: 346, Y: 452, Visibility: 0.90}
	pose.Landmarks[RightHeel] = Point{X: 294, Y: 452, Visibility: 0.90}
	pose.Landmarks[LeftFootIndex] = Point{X: 360, Y: 460, Visibility: 0.90}
	pose.Landmarks[RightFootIndex] = Point{X: 280, Y: 460, Visibility: 0.90}

	return pose
}

// UpperBodyPose returns a preset Pose where everything below the hips is
// out of frame: no knees, ankles, heels or foot indices.
func UpperBodyPose() Pose {
	pose := FullBodyPose()
	pose.Score = 0.91

	for _, l := range []Landmark{
		LeftKnee, RightKnee,
		LeftAnkle, RightAnkle,
		LeftHeel, RightHeel,
		LeftFootIndex, RightFootIndex,
	} {
		delete(pose.Landmarks, l)
	}

	return pose
}
