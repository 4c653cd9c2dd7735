// Package overlay renders skeletal pose overlays onto video frames.
package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/posecam/internal/detector"
)

// connections is the fixed skeletal connectivity graph: face contour,
// shoulder girdle, torso, each arm including fingers, each leg including
// heel and foot index. A segment is drawn only when both endpoints are
// present in the pose.
var connections = [][2]detector.Landmark{
	// Face contour
	{detector.Nose, detector.LeftEyeInner},
	{detector.LeftEyeInner, detector.LeftEye},
	{detector.LeftEye, detector.LeftEyeOuter},
	{detector.LeftEyeOuter, detector.LeftEar},
	{detector.Nose, detector.RightEyeInner},
	{detector.RightEyeInner, detector.RightEye},
	{detector.RightEye, detector.RightEyeOuter},
	{detector.RightEyeOuter, detector.RightEar},
	{detector.MouthLeft, detector.MouthRight},

	// Shoulder girdle and torso
	{detector.LeftShoulder, detector.RightShoulder},
	{detector.LeftShoulder, detector.LeftHip},
	{detector.RightShoulder, detector.RightHip},
	{detector.LeftHip, detector.RightHip},

	// Left arm and fingers
	{detector.LeftShoulder, detector.LeftElbow},
	{detector.LeftElbow, detector.LeftWrist},
	{detector.LeftWrist, detector.LeftPinky},
	{detector.LeftWrist, detector.LeftIndex},
	{detector.LeftWrist, detector.LeftThumb},
	{detector.LeftPinky, detector.LeftIndex},

	// Right arm and fingers
	{detector.RightShoulder, detector.RightElbow},
	{detector.RightElbow, detector.RightWrist},
	{detector.RightWrist, detector.RightPinky},
	{detector.RightWrist, detector.RightIndex},
	{detector.RightWrist, detector.RightThumb},
	{detector.RightPinky, detector.RightIndex},

	// Left leg and foot
	{detector.LeftHip, detector.LeftKnee},
	{detector.LeftKnee, detector.LeftAnkle},
	{detector.LeftAnkle, detector.LeftHeel},
	{detector.LeftAnkle, detector.LeftFootIndex},
	{detector.LeftHeel, detector.LeftFootIndex},

	// Right leg and foot
	{detector.RightHip, detector.RightKnee},
	{detector.RightKnee, detector.RightAnkle},
	{detector.RightAnkle, detector.RightHeel},
	{detector.RightAnkle, detector.RightFootIndex},
	{detector.RightHeel, detector.RightFootIndex},
}

// Connections returns a copy of the skeletal connectivity table.
func Connections() [][2]detector.Landmark {
	out := make([][2]detector.Landmark, len(connections))
	copy(out, connections)
	return out
}

// Default drawing parameters.
const (
	DefaultMarkerRadius  = 4
	DefaultLineThickness = 2
)

// Renderer draws pose landmarks and skeletal segments onto a canvas.
// It is a pure function of its inputs and holds no per-frame state.
type Renderer struct {
	MarkerRadius  int
	LineThickness int
	MarkerColor   color.RGBA
	LineColor     color.RGBA
}

// NewRenderer creates a Renderer with the default style.
func NewRenderer() *Renderer {
	return &Renderer{
		MarkerRadius:  DefaultMarkerRadius,
		LineThickness: DefaultLineThickness,
		MarkerColor:   color.RGBA{R: 0, G: 220, B: 80, A: 255},
		LineColor:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// Draw renders every pose onto the canvas. Landmark coordinates are in
// detector image space (cameraSize); they are scaled explicitly into the
// canvas resolution rather than drawn as-is.
func (r *Renderer) Draw(canvas *gocv.Mat, poses []detector.Pose, cameraSize image.Point) {
	if canvas == nil || canvas.Empty() {
		return
	}

	sx, sy := 1.0, 1.0
	if cameraSize.X > 0 && cameraSize.Y > 0 {
		sx = float64(canvas.Cols()) / float64(cameraSize.X)
		sy = float64(canvas.Rows()) / float64(cameraSize.Y)
	}

	project := func(pt detector.Point) image.Point {
		return image.Pt(int(pt.X*sx+0.5), int(pt.Y*sy+0.5))
	}

	for i := range poses {
		pose := &poses[i]

		// Segments first so markers sit on top
		for _, conn := range connections {
			a, okA := pose.Point(conn[0])
			b, okB := pose.Point(conn[1])
			if !okA || !okB {
				continue
			}
			gocv.Line(canvas, project(a), project(b), r.LineColor, r.LineThickness)
		}

		for _, pt := range pose.Landmarks {
			gocv.Circle(canvas, project(pt), r.MarkerRadius, r.MarkerColor, -1)
		}
	}
}
