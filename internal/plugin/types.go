// Package plugin discovers and runs external handlers for presence events.
// A plugin is a directory containing a plugin.json manifest and an
// executable; posecam invokes the executable with a JSON request on stdin
// whenever a presence transition it subscribes to occurs.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is the payload sent to a plugin on stdin.
type Request struct {
	Event     string          `json:"event"`
	PoseCount int             `json:"pose_count"`
	SessionID string          `json:"session_id,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// Response is the JSON document a plugin writes to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin: its manifest plus resolved paths.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin subscribed to the given event.
func (p *Plugin) Handles(event string) bool {
	for _, e := range p.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
