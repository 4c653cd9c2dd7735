package detector

import (
	"context"

	"github.com/ayusman/posecam/internal/capture"
)

// Detector defines the interface for pose detection implementations.
type Detector interface {
	// Detect runs pose estimation on one flattened frame buffer and
	// returns the detected poses. Returns an empty slice if no person
	// is in view. Order of poses is not significant.
	Detect(ctx context.Context, in *capture.DetectorInput) ([]Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Mode selects how the detector treats successive inputs.
type Mode string

const (
	// ModeStream tells the model to track across frames.
	ModeStream Mode = "stream"
	// ModeSingle treats every input as an unrelated still image.
	ModeSingle Mode = "single"
)

// ModelTier selects the accuracy/latency trade-off of the pose model.
type ModelTier string

const (
	ModelLite  ModelTier = "lite"
	ModelFull  ModelTier = "full"
	ModelHeavy ModelTier = "heavy"
)

// Config holds configuration options for pose detection.
type Config struct {
	// Mode is the detector running mode (default: stream).
	Mode Mode

	// Model is the accuracy tier of the pose model (default: full).
	Model ModelTier

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Mode:          ModeStream,
		Model:         ModelFull,
		MinConfidence: 0.5,
	}
}
