// Package main provides a webhook plugin.
// It forwards presence events as JSON to a configured HTTP endpoint.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	PoseCount int             `json:"pose_count"`
	SessionID string          `json:"session_id"`
	Config    json.RawMessage `json:"config"`
	Params    json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// WebhookConfig holds the plugin configuration.
type WebhookConfig struct {
	URL string `json:"url"`
}

// payload is the document POSTed to the webhook endpoint.
type payload struct {
	Event     string    `json:"event"`
	PoseCount int       `json:"pose_count"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var cfg WebhookConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}
	if cfg.URL == "" {
		writeErrorResponse("url is required in plugin config")
		return
	}

	body, err := json.Marshal(payload{
		Event:     req.Event,
		PoseCount: req.PoseCount,
		SessionID: req.SessionID,
		Timestamp: time.Now(),
	})
	if err != nil {
		writeErrorResponse(fmt.Sprintf("failed to build payload: %v", err))
		return
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(cfg.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		writeErrorResponse(fmt.Sprintf("webhook request failed: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		writeErrorResponse(fmt.Sprintf("webhook returned status %d", resp.StatusCode))
		return
	}

	writeSuccessResponse()
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
