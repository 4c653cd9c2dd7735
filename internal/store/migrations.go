package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per detection session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			camera_name TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			stopped_at DATETIME,
			frames_received INTEGER NOT NULL DEFAULT 0,
			frames_dropped INTEGER NOT NULL DEFAULT 0,
			frames_processed INTEGER NOT NULL DEFAULT 0,
			poses_detected INTEGER NOT NULL DEFAULT 0
		)`,

		// Presence events table - person appeared / person left transitions
		`CREATE TABLE IF NOT EXISTS presence_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			event TEXT NOT NULL CHECK(event IN ('person_detected', 'person_lost')),
			pose_count INTEGER NOT NULL,
			occurred_at DATETIME NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_presence_events_session_id ON presence_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
