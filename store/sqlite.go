// ABOUTME: SQLite-backed archive of accepted generation candidates for history queries.
// ABOUTME: Provides record, list, and prune operations; a queryable cache, not the source of truth.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// CandidateRow is one archived candidate as returned by list queries.
type CandidateRow struct {
	ID        string
	SessionID string
	RequestID string
	Score     float64
	Code      string
	SVGPath   string
	CreatedAt string
}

// Archive is a SQLite-backed record of every candidate a session accepted.
// The live ranking state belongs to the session; the archive only serves
// history and debugging queries, and can be dropped without data loss
// beyond history.
type Archive struct {
	db *sql.DB
}

// NewRequestID returns a fresh ULID for one generation request. ULIDs sort
// by creation time, which keeps the archive naturally ordered.
func NewRequestID() string {
	return ulid.Make().String()
}

// OpenArchive opens or creates the archive database at the given path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS candidates (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			request_id TEXT NOT NULL,
			score REAL NOT NULL,
			code TEXT NOT NULL,
			svg_path TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_candidates_session ON candidates(session_id);
		CREATE INDEX IF NOT EXISTS idx_candidates_request ON candidates(request_id);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Record archives one accepted candidate. svgPath may be empty for
// candidates accepted without a visual form.
func (a *Archive) Record(sessionID, requestID string, score float64, code, svgPath string) error {
	_, err := a.db.Exec(
		`INSERT INTO candidates (id, session_id, request_id, score, code, svg_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ulid.Make().String(), sessionID, requestID, score, code, svgPath,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

// ListBySession returns all archived candidates for a session, best score first.
func (a *Archive) ListBySession(sessionID string) ([]CandidateRow, error) {
	rows, err := a.db.Query(
		`SELECT id, session_id, request_id, score, code, svg_path, created_at
		 FROM candidates WHERE session_id = ? ORDER BY score DESC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// ListByRequest returns all archived candidates for one generation request,
// best score first.
func (a *Archive) ListByRequest(requestID string) ([]CandidateRow, error) {
	rows, err := a.db.Query(
		`SELECT id, session_id, request_id, score, code, svg_path, created_at
		 FROM candidates WHERE request_id = ? ORDER BY score DESC, id ASC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// PruneSession removes all archived candidates for a session. Returns the
// number of rows deleted.
func (a *Archive) PruneSession(sessionID string) (int64, error) {
	res, err := a.db.Exec(`DELETE FROM candidates WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("prune session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func scanCandidates(rows *sql.Rows) ([]CandidateRow, error) {
	var result []CandidateRow
	for rows.Next() {
		var row CandidateRow
		if err := rows.Scan(&row.ID, &row.SessionID, &row.RequestID, &row.Score,
			&row.Code, &row.SVGPath, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return result, nil
}
