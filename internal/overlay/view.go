package overlay

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/posecam/internal/detector"
)

// Snapshot is one immutable detection result. The pipeline publishes a
// fresh Snapshot per processed frame and overwrites the previous one
// wholesale; consumers compare pointers to decide whether anything new
// has arrived.
type Snapshot struct {
	Seq        uint64
	Poses      []detector.Pose
	CameraSize image.Point
	Timestamp  time.Time
}

// View draws the latest snapshot onto an overlay canvas, redrawing only
// when the snapshot reference changes. Same-reference updates are no-ops;
// point values are never deep-compared.
type View struct {
	renderer *Renderer
	mu       sync.Mutex
	last     *Snapshot
}

// NewView creates a View backed by the given renderer.
func NewView(r *Renderer) *View {
	if r == nil {
		r = NewRenderer()
	}
	return &View{renderer: r}
}

// Update clears and redraws the canvas for the snapshot. It returns true
// if a redraw happened, false if the snapshot reference was unchanged.
// A snapshot with zero poses clears the overlay.
func (v *View) Update(canvas *gocv.Mat, snap *Snapshot) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if snap == v.last {
		return false
	}
	v.last = snap

	if canvas != nil && !canvas.Empty() {
		canvas.SetTo(gocv.NewScalar(0, 0, 0, 0))
		if snap != nil {
			v.renderer.Draw(canvas, snap.Poses, snap.CameraSize)
		}
	}

	return true
}

// Last returns the most recently rendered snapshot, or nil.
func (v *View) Last() *Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}
