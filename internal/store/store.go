// Package store is the SQLite-backed board store: notes, edges, transcript
// entries, and the AI output history, keyed by board id. Writers notify
// in-process listeners synchronously, in write order.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Retention bounds per board.
const (
	MaxTranscriptEntries = 200
	MaxAIOutputHistory   = 20
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	board_id TEXT NOT NULL,
	text TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT '',
	text_color TEXT NOT NULL DEFAULT '',
	shape TEXT NOT NULL DEFAULT 'square',
	pos_x REAL NOT NULL DEFAULT 0,
	pos_y REAL NOT NULL DEFAULT 0,
	pos_z REAL NOT NULL DEFAULT 0,
	quat_x REAL NOT NULL DEFAULT 0,
	quat_y REAL NOT NULL DEFAULT 0,
	quat_z REAL NOT NULL DEFAULT 0,
	quat_w REAL NOT NULL DEFAULT 1,
	size REAL NOT NULL DEFAULT 0.18,
	votes INTEGER NOT NULL DEFAULT 0,
	ai_generated INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_board ON notes(board_id);

CREATE TABLE IF NOT EXISTS edges (
	id TEXT PRIMARY KEY,
	board_id TEXT NOT NULL,
	from_id TEXT NOT NULL,
	to_id TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT 'follows',
	ai_generated INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edges_board ON edges(board_id);

CREATE TABLE IF NOT EXISTS transcript (
	id TEXT PRIMARY KEY,
	board_id TEXT NOT NULL,
	text TEXT NOT NULL,
	lang TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcript_board_ts ON transcript(board_id, ts);

CREATE TABLE IF NOT EXISTS ai_outputs (
	id TEXT PRIMARY KEY,
	board_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ai_outputs_board ON ai_outputs(board_id, created_at);
`

// Store wraps the SQLite connection and the listener registry.
type Store struct {
	conn *sql.DB
	Path string

	mu             sync.Mutex
	nextSub        int
	noteSubs       map[int]noteSub
	edgeSubs       map[int]edgeSub
	transcriptSubs map[int]transcriptSub
	outputSubs     map[int]outputSub
}

// Open opens (or creates) the board database with WAL mode and foreign keys
// enabled, and ensures the schema exists.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{
		conn:           conn,
		Path:           path,
		noteSubs:       make(map[int]noteSub),
		edgeSubs:       make(map[int]edgeSub),
		transcriptSubs: make(map[int]transcriptSub),
		outputSubs:     make(map[int]outputSub),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries.
func (s *Store) Conn() *sql.DB {
	return s.conn
}
