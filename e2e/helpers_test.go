package e2e

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeRecorderPlugin installs a shell plugin that appends every request
// it receives to logPath.
func writeRecorderPlugin(t *testing.T, dir, logPath string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell plugins are not supported on Windows")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifest := map[string]any{
		"name":       "recorder",
		"version":    "1.0.0",
		"executable": "recorder.sh",
		"events":     []string{"person_detected", "person_lost"},
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	script := "#!/bin/sh\nINPUT=$(cat)\necho \"$INPUT\" >> " + logPath + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(dir, "recorder.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

// waitForFile polls until the file at path contains substr.
func waitForFile(t *testing.T, path, substr string) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && strings.Contains(string(data), substr) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q to appear in %s", substr, path)
}
