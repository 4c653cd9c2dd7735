package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/ayusman/posecam/internal/store"
)

// newTestStore creates a Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func createTestSession(t *testing.T, s *store.Store, camera string) *store.Session {
	t.Helper()

	sess := &store.Session{ID: uuid.NewString(), CameraName: camera}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess
}

func TestSessionsHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	createTestSession(t, s, "video0")
	createTestSession(t, s, "video1")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(response.Sessions))
	}
}

func TestSessionsHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	sess := createTestSession(t, s, "video0")

	t.Run("existing session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response sessionResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.ID != sess.ID {
			t.Errorf("expected session ID %q, got %q", sess.ID, response.ID)
		}
		if response.CameraName != "video0" {
			t.Errorf("expected camera 'video0', got %q", response.CameraName)
		}
		if response.StoppedAt != "" {
			t.Errorf("running session should have no stop time, got %q", response.StoppedAt)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestSessionsHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	sess := createTestSession(t, s, "video0")

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	if _, err := s.Sessions().GetByID(sess.ID); err != store.ErrNotFound {
		t.Errorf("expected session to be gone, got err = %v", err)
	}

	// Second delete reports not found
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionsHandler_Events(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	sess := createTestSession(t, s, "video0")
	s.Sessions().AddPresenceEvent(sess.ID, store.EventPersonDetected, 1)
	s.Sessions().AddPresenceEvent(sess.ID, store.EventPersonLost, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/events", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listEventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(response.Events))
	}
	if response.Events[0].Event != store.EventPersonDetected {
		t.Errorf("first event = %q, want person_detected", response.Events[0].Event)
	}
	if response.Events[1].Event != store.EventPersonLost {
		t.Errorf("second event = %q, want person_lost", response.Events[1].Event)
	}
}

func TestSessionsHandler_Events_MissingSession(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope/events", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionsHandler_MethodNotAllowed(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionsHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
