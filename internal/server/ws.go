package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/posecam/internal/app"
	"github.com/ayusman/posecam/internal/detector"
	"github.com/ayusman/posecam/internal/overlay"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// PosesHandler broadcasts detection snapshots to WebSocket clients. A
// message goes out only when a new snapshot has been published, so idle
// clients receive nothing while the camera is quiet.
type PosesHandler struct {
	app     *app.App
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewPosesHandler creates a new PosesHandler backed by the app.
func NewPosesHandler(a *app.App) *PosesHandler {
	h := &PosesHandler{
		app:     a,
		clients: make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *PosesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast pushes each new snapshot to all connected clients.
func (h *PosesHandler) broadcast() {
	ticker := time.NewTicker(66 * time.Millisecond) // ~15 FPS
	defer ticker.Stop()

	var lastSent *overlay.Snapshot

	for range ticker.C {
		h.mu.RLock()
		idle := len(h.clients) == 0
		h.mu.RUnlock()
		if idle {
			continue
		}

		snap := h.app.Latest()
		if snap == nil || snap == lastSent {
			continue
		}
		lastSent = snap

		msg, err := json.Marshal(snapshotMessage(snap))
		if err != nil {
			continue
		}

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.RUnlock()
	}
}

// Wire types for snapshot messages. Landmarks go out as a flat list in
// index order so clients never deal with sparse maps.

type wireLandmark struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

type wirePose struct {
	Score     float64        `json:"score"`
	Landmarks []wireLandmark `json:"landmarks"`
}

func snapshotMessage(snap *overlay.Snapshot) map[string]any {
	poses := make([]wirePose, 0, len(snap.Poses))
	for i := range snap.Poses {
		poses = append(poses, toWirePose(&snap.Poses[i]))
	}

	return map[string]any{
		"seq":           snap.Seq,
		"poses":         poses,
		"camera_width":  snap.CameraSize.X,
		"camera_height": snap.CameraSize.Y,
		"timestamp":     snap.Timestamp.UnixMilli(),
	}
}

func toWirePose(p *detector.Pose) wirePose {
	wp := wirePose{Score: p.Score}
	for l := detector.Landmark(0); l < detector.NumLandmarks; l++ {
		pt, ok := p.Point(l)
		if !ok {
			continue
		}
		wp.Landmarks = append(wp.Landmarks, wireLandmark{
			Index:      int(l),
			Name:       l.String(),
			X:          pt.X,
			Y:          pt.Y,
			Visibility: pt.Visibility,
		})
	}
	return wp
}
