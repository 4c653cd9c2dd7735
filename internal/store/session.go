package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Presence event names recorded against a session.
const (
	EventPersonDetected = "person_detected"
	EventPersonLost     = "person_lost"
)

// Session represents one detection session: camera opened, stream started,
// frames processed, stream stopped.
type Session struct {
	ID              string
	CameraName      string
	StartedAt       time.Time
	StoppedAt       sql.NullTime
	FramesReceived  int64
	FramesDropped   int64
	FramesProcessed int64
	PosesDetected   int64
}

// PresenceEvent is a person-appeared or person-left transition.
type PresenceEvent struct {
	ID         int64
	SessionID  string
	Event      string
	PoseCount  int
	OccurredAt time.Time
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session into the database.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, camera_name, started_at)
		 VALUES (?, ?, ?)`,
		sess.ID, sess.CameraName, sess.StartedAt,
	)
	return err
}

// Finish records the end of a session together with its final counters.
func (r *SessionRepository) Finish(sess *Session) error {
	res, err := r.db.Exec(
		`UPDATE sessions
		 SET stopped_at = ?, frames_received = ?, frames_dropped = ?,
		     frames_processed = ?, poses_detected = ?
		 WHERE id = ?`,
		time.Now(), sess.FramesReceived, sess.FramesDropped,
		sess.FramesProcessed, sess.PosesDetected, sess.ID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}

	err := r.db.QueryRow(
		`SELECT id, camera_name, started_at, stopped_at,
		        frames_received, frames_dropped, frames_processed, poses_detected
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.CameraName, &sess.StartedAt, &sess.StoppedAt,
		&sess.FramesReceived, &sess.FramesDropped, &sess.FramesProcessed, &sess.PosesDetected)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sess, nil
}

// List retrieves all sessions, most recent first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, camera_name, started_at, stopped_at,
		        frames_received, frames_dropped, frames_processed, poses_detected
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		if err := rows.Scan(&sess.ID, &sess.CameraName, &sess.StartedAt, &sess.StoppedAt,
			&sess.FramesReceived, &sess.FramesDropped, &sess.FramesProcessed, &sess.PosesDetected); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

// Delete removes a session and its presence events.
func (r *SessionRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPresenceEvent records a presence transition for a session.
func (r *SessionRepository) AddPresenceEvent(sessionID, event string, poseCount int) error {
	_, err := r.db.Exec(
		`INSERT INTO presence_events (session_id, event, pose_count, occurred_at)
		 VALUES (?, ?, ?, ?)`,
		sessionID, event, poseCount, time.Now(),
	)
	return err
}

// PresenceEvents lists a session's presence transitions in order.
func (r *SessionRepository) PresenceEvents(sessionID string) ([]*PresenceEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, event, pose_count, occurred_at
		 FROM presence_events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*PresenceEvent
	for rows.Next() {
		ev := &PresenceEvent{}
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Event, &ev.PoseCount, &ev.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}
