package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/ayusman/posecam/internal/capture"
)

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
type MediaPipeDetector struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe pose detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := findPoseScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("pose_service.py not found")
	}

	return &MediaPipeDetector{
		config: config,
	}, nil
}

// inputHeader is the per-frame metadata line sent ahead of the raw buffer.
type inputHeader struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Rotation     int    `json:"rotation"`
	Format       string `json:"format"`
	RowStride    int    `json:"row_stride"`
	PlaneStrides []int  `json:"plane_strides,omitempty"`
	Length       int    `json:"length"`
}

// Detect sends one flattened frame to the pose service and reads back the
// detected poses. If the context expires mid-call the subprocess is shut
// down (the stream protocol is out of sync at that point) and restarted
// lazily on the next call.
func (d *MediaPipeDetector) Detect(ctx context.Context, in *capture.DetectorInput) ([]Pose, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if in == nil {
		return nil, fmt.Errorf("nil detector input")
	}

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	header, err := json.Marshal(inputHeader{
		Width:        in.Width,
		Height:       in.Height,
		Rotation:     int(in.Rotation),
		Format:       string(in.Format),
		RowStride:    in.RowStride,
		PlaneStrides: in.PlaneStrides,
		Length:       len(in.Bytes),
	})
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}

	if _, err := d.stdin.Write(append(header, '\n')); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	// Write length (4 bytes big-endian) + raw buffer
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(in.Bytes)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(in.Bytes); err != nil {
		return nil, fmt.Errorf("write buffer: %w", err)
	}

	type readResult struct {
		line string
		err  error
	}
	// The reader goroutine must hold its own reference: shutdown() on the
	// ctx.Done() branch below nils d.stdout while the goroutine is live.
	stdout := d.stdout
	resultCh := make(chan readResult, 1)
	go func() {
		line, err := stdout.ReadString('\n')
		resultCh <- readResult{line, err}
	}()

	var line string
	select {
	case <-ctx.Done():
		d.shutdown()
		return nil, ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return nil, fmt.Errorf("read response: %w", res.err)
		}
		line = res.line
	}

	var response struct {
		Poses []jsonPose `json:"poses"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := make([]Pose, 0, len(response.Poses))
	for _, p := range response.Poses {
		result = append(result, p.toPose())
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return result, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findPoseScript()
	if scriptPath == "" {
		return fmt.Errorf("pose_service.py not found")
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, scriptPath,
		"--mode", string(d.config.Mode),
		"--model", string(d.config.Model),
		"--min-confidence", fmt.Sprintf("%.2f", d.config.MinConfidence),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(30*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findPoseScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir, "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".posecam/scripts/pose_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
// It checks for venv/bin/python relative to the project directory.
func findVenvPython() string {
	// Get executable directory to find project root
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".posecam/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonPose represents the JSON structure from the Python service.
// Landmarks are sparse: the service only reports points it detected.
type jsonPose struct {
	Score     float64        `json:"score"`
	Landmarks []jsonLandmark `json:"landmarks"`
}

type jsonLandmark struct {
	Index      int     `json:"index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

func (p jsonPose) toPose() Pose {
	pose := Pose{
		Landmarks: make(map[Landmark]Point, len(p.Landmarks)),
		Score:     p.Score,
	}

	for _, lm := range p.Landmarks {
		l := Landmark(lm.Index)
		if !l.Valid() {
			continue
		}
		pose.Landmarks[l] = Point{X: lm.X, Y: lm.Y, Visibility: lm.Visibility}
	}

	return pose
}
