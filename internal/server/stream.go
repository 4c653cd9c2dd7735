package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/posecam/internal/app"
	"github.com/ayusman/posecam/internal/overlay"
)

// StreamHandler serves the skeletal overlay as an MJPEG stream. Each
// client gets its own canvas and view; the canvas is only re-rendered
// when a new snapshot has been published.
type StreamHandler struct {
	app *app.App
}

// NewStreamHandler creates a new StreamHandler backed by the app.
func NewStreamHandler(a *app.App) *StreamHandler {
	return &StreamHandler{app: a}
}

// ServeHTTP streams MJPEG overlay frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	view := overlay.NewView(nil)
	canvas := gocv.NewMat()
	defer canvas.Close()

	ticker := time.NewTicker(66 * time.Millisecond) // ~15 FPS
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		snap := h.app.Latest()
		if snap == nil {
			continue
		}

		// Size the canvas to the camera the first time, and again if
		// the stream dimensions ever change.
		if canvas.Empty() || canvas.Cols() != snap.CameraSize.X || canvas.Rows() != snap.CameraSize.Y {
			canvas.Close()
			canvas = gocv.NewMatWithSize(snap.CameraSize.Y, snap.CameraSize.X, gocv.MatTypeCV8UC3)
		}

		if !view.Update(&canvas, snap) {
			continue
		}

		buf, err := gocv.IMEncode(".jpg", canvas)
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
