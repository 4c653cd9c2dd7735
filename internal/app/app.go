// Package app orchestrates the posecam pipeline: camera stream, pose
// detection, overlay snapshots, presence events and plugin actions.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/posecam/internal/capture"
	"github.com/ayusman/posecam/internal/detector"
	"github.com/ayusman/posecam/internal/metrics"
	"github.com/ayusman/posecam/internal/overlay"
	"github.com/ayusman/posecam/internal/plugin"
	"github.com/ayusman/posecam/internal/store"
)

// DefaultDetectTimeout bounds a single detector call. A frame whose
// detection exceeds it is treated as a detector error.
const DefaultDetectTimeout = 2 * time.Second

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	PluginDir     string
	CameraID      int
	DetectTimeout time.Duration
}

// App is the main application that wires the camera stream through the
// detector and publishes overlay snapshots.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	metrics    *metrics.Metrics

	enabled bool
	mu      sync.RWMutex

	pipeline *pipeline
	session  *store.Session
	baseline counters
}

// counters is a point-in-time copy of the pipeline metrics, used to
// compute per-session totals.
type counters struct {
	received  uint64
	dropped   uint64
	processed uint64
	poses     uint64
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.DetectTimeout <= 0 {
		config.DetectTimeout = DefaultDetectTimeout
	}

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.CameraID),
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(5000),
		metrics:    metrics.New(),
		enabled:    false,
	}
	a.pipeline = newPipeline(a)

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe pose detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetEnabled enables or disables pose detection. While disabled, frames
// from the camera stream are ignored entirely.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether pose detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the camera. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start opens the camera, records a new session and begins streaming
// frames through the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	sess := &store.Session{
		ID:         uuid.NewString(),
		CameraName: a.camera.Descriptor().Name,
	}
	if a.config.Store != nil {
		if err := a.config.Store.Sessions().Create(sess); err != nil {
			a.camera.Close()
			return err
		}
	}

	a.session = sess
	a.baseline = a.snapshotCounters()
	a.pipeline.reset()

	if err := a.camera.StartStream(a.pipeline.handleFrame); err != nil {
		a.session = nil
		a.camera.Close()
		return err
	}

	log.Printf("Detection pipeline started (session %s)", sess.ID)
	return nil
}

// Stop halts the stream, finishes the session and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	if a.session == nil {
		a.mu.Unlock()
		return
	}
	sess := a.session
	base := a.baseline
	cam := a.camera
	a.session = nil
	a.mu.Unlock()

	cam.StopStream()
	a.pipeline.wait()

	if err := cam.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	if a.config.Store != nil {
		now := a.snapshotCounters()
		sess.FramesReceived = int64(now.received - base.received)
		sess.FramesDropped = int64(now.dropped - base.dropped)
		sess.FramesProcessed = int64(now.processed - base.processed)
		sess.PosesDetected = int64(now.poses - base.poses)
		if err := a.config.Store.Sessions().Finish(sess); err != nil {
			log.Printf("Error finishing session: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// Close stops the pipeline and shuts down the detector.
func (a *App) Close() {
	a.Stop()

	a.mu.RLock()
	det := a.detector
	a.mu.RUnlock()

	if det != nil {
		if err := det.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
}

func (a *App) snapshotCounters() counters {
	return counters{
		received:  a.metrics.FramesReceived.Load(),
		dropped:   a.metrics.FramesDropped.Load(),
		processed: a.metrics.FramesProcessed.Load(),
		poses:     a.metrics.PosesDetected.Load(),
	}
}

// Latest returns the most recent overlay snapshot, or nil before the
// first frame has been processed.
func (a *App) Latest() *overlay.Snapshot {
	return a.pipeline.latest()
}

// SessionID returns the active session's ID, or "" when stopped.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return ""
	}
	return a.session.ID
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Metrics returns the pipeline metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Store returns the backing store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}
