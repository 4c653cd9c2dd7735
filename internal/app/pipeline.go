package app

import (
	"context"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/posecam/internal/capture"
	"github.com/ayusman/posecam/internal/overlay"
	"github.com/ayusman/posecam/internal/plugin"
	"github.com/ayusman/posecam/internal/store"
)

// pipeline carries a camera frame through conversion and detection and
// publishes the result as an overlay snapshot.
//
// At most one frame is processed at a time. A frame that arrives while a
// previous one is still being detected is dropped, never queued, so the
// overlay always tracks the live stream instead of falling behind it.
type pipeline struct {
	app *App

	inFlight atomic.Bool
	seq      atomic.Uint64
	snap     atomic.Pointer[overlay.Snapshot]
	present  atomic.Bool
	wg       sync.WaitGroup
}

func newPipeline(a *App) *pipeline {
	return &pipeline{app: a}
}

// reset prepares the pipeline for a new session. The previous session's
// snapshot is discarded so a restart never serves a stale skeleton; the
// sequence counter is monotonic across sessions so snapshot consumers
// never see it move backwards.
func (p *pipeline) reset() {
	p.inFlight.Store(false)
	p.present.Store(false)
	p.snap.Store(nil)
}

// wait blocks until any in-flight frame has finished processing.
func (p *pipeline) wait() {
	p.wg.Wait()
}

// latest returns the most recently published snapshot.
func (p *pipeline) latest() *overlay.Snapshot {
	return p.snap.Load()
}

// handleFrame receives every frame the camera stream delivers. It must
// return quickly: detection runs on its own goroutine so the stream is
// never blocked, and the in-flight flag decides whether this frame is
// processed or dropped.
func (p *pipeline) handleFrame(f *capture.Frame) {
	if !p.app.IsEnabled() {
		return
	}

	m := p.app.Metrics()
	m.FramesReceived.Add(1)

	if !p.inFlight.CompareAndSwap(false, true) {
		m.FramesDropped.Add(1)
		return
	}

	p.wg.Add(1)
	go p.process(f)
}

// process converts one frame, runs detection and publishes a snapshot.
func (p *pipeline) process(f *capture.Frame) {
	defer p.wg.Done()
	defer p.inFlight.Store(false)

	m := p.app.Metrics()

	input, err := capture.BuildDetectorInput(f)
	if err != nil {
		m.ConvertErrors.Add(1)
		log.Printf("Frame conversion failed: %v", err)
		return
	}

	det := p.app.Detector()
	if det == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.app.config.DetectTimeout)
	start := time.Now()
	poses, err := det.Detect(ctx, input)
	cancel()
	m.UpdateDetectLatency(time.Since(start))

	if err != nil {
		m.DetectErrors.Add(1)
		log.Printf("Pose detection failed: %v", err)
		poses = nil
	}

	m.FramesProcessed.Add(1)
	m.PosesDetected.Add(uint64(len(poses)))

	// Every processed frame publishes a fresh snapshot, even when the
	// pose list is empty, so consumers can clear stale skeletons.
	p.snap.Store(&overlay.Snapshot{
		Seq:        p.seq.Add(1),
		Poses:      poses,
		CameraSize: image.Pt(f.Width, f.Height),
		Timestamp:  f.Timestamp,
	})

	was := p.present.Load()
	now := len(poses) > 0
	if now != was {
		p.present.Store(now)
		event := store.EventPersonLost
		if now {
			event = store.EventPersonDetected
		}
		p.app.firePresenceEvent(event, len(poses))
	}
}

// firePresenceEvent records a presence transition and runs every plugin
// subscribed to it. Plugin failures are logged, never fatal.
func (a *App) firePresenceEvent(event string, poseCount int) {
	sessionID := a.SessionID()

	if a.config.Store != nil && sessionID != "" {
		if err := a.config.Store.Sessions().AddPresenceEvent(sessionID, event, poseCount); err != nil {
			log.Printf("Failed to record presence event: %v", err)
		}
	}

	for _, plug := range a.pluginMgr.HandlersFor(event) {
		go func(plug *plugin.Plugin) {
			resp, err := a.pluginExec.Execute(plug, &plugin.Request{
				Event:     event,
				PoseCount: poseCount,
				SessionID: sessionID,
			})
			if err != nil {
				log.Printf("Plugin %s failed: %v", plug.Manifest.Name, err)
				return
			}
			if !resp.Success {
				log.Printf("Plugin %s reported error: %s", plug.Manifest.Name, resp.Error)
			}
		}(plug)
	}
}
