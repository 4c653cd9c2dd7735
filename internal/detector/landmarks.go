// Package detector provides pose detection interfaces and landmark types.
package detector

// Pose landmark indices following the MediaPipe BlazePose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           Landmark = 0
	LeftEyeInner   Landmark = 1
	LeftEye        Landmark = 2
	LeftEyeOuter   Landmark = 3
	RightEyeInner  Landmark = 4
	RightEye       Landmark = 5
	RightEyeOuter  Landmark = 6
	LeftEar        Landmark = 7
	RightEar       Landmark = 8
	MouthLeft      Landmark = 9
	MouthRight     Landmark = 10
	LeftShoulder   Landmark = 11
	RightShoulder  Landmark = 12
	LeftElbow      Landmark = 13
	RightElbow     Landmark = 14
	LeftWrist      Landmark = 15
	RightWrist     Landmark = 16
	LeftPinky      Landmark = 17
	RightPinky     Landmark = 18
	LeftIndex      Landmark = 19
	RightIndex     Landmark = 20
	LeftThumb      Landmark = 21
	RightThumb     Landmark = 22
	LeftHip        Landmark = 23
	RightHip       Landmark = 24
	LeftKnee       Landmark = 25
	RightKnee      Landmark = 26
	LeftAnkle      Landmark = 27
	RightAnkle     Landmark = 28
	LeftHeel       Landmark = 29
	RightHeel      Landmark = 30
	LeftFootIndex  Landmark = 31
	RightFootIndex Landmark = 32
	NumLandmarks            = 33
)

// Landmark identifies a named anatomical keypoint.
type Landmark int

var landmarkNames = [NumLandmarks]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear", "mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_pinky", "right_pinky",
	"left_index", "right_index", "left_thumb", "right_thumb",
	"left_hip", "right_hip", "left_knee", "right_knee",
	"left_ankle", "right_ankle", "left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// String returns the conventional landmark name.
func (l Landmark) String() string {
	if l < 0 || l >= NumLandmarks {
		return "unknown"
	}
	return landmarkNames[l]
}

// Valid reports whether l is one of the 33 standard landmarks.
func (l Landmark) Valid() bool {
	return l >= 0 && l < NumLandmarks
}

// Point is a detected landmark position in detector image space.
// Visibility is the model's presence confidence; it is carried through
// but not otherwise used by this application.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Pose is the full set of landmarks detected for one person in one frame.
// Landmarks the model did not report are simply absent from the map.
type Pose struct {
	Landmarks map[Landmark]Point `json:"landmarks"`
	Score     float64            `json:"score"`
}

// Point returns the position of a landmark and whether it is present.
func (p *Pose) Point(l Landmark) (Point, bool) {
	if p == nil || p.Landmarks == nil {
		return Point{}, false
	}
	pt, ok := p.Landmarks[l]
	return pt, ok
}

// Has reports whether the pose contains the given landmark.
func (p *Pose) Has(l Landmark) bool {
	_, ok := p.Point(l)
	return ok
}
