package storage

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// candidatesDDL is shared by both dialects; only column types differ.
// The CHECK constraints mirror the candidate invariants: a token only while PENDING,
// and a terminal row always carries its score, answers and completion time.
// consumed_token keeps the token that completed the row so a replay is answered with a conflict.
const candidatesDDL = `
CREATE TABLE IF NOT EXISTS candidates (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    email           TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'PENDING',
    access_token    TEXT,
    consumed_token  TEXT,
    token_issued_at %[1]s,
    answers         %[2]s,
    score           INTEGER CHECK (score IS NULL OR score >= 0),
    created_at      %[1]s NOT NULL,
    updated_at      %[1]s NOT NULL,
    completed_at    %[1]s,
    CONSTRAINT candidates_email_key UNIQUE (email),
    CONSTRAINT candidates_access_token_key UNIQUE (access_token),
    CONSTRAINT candidates_consumed_token_key UNIQUE (consumed_token),
    CONSTRAINT candidates_token_only_pending CHECK (access_token IS NULL OR status = 'PENDING'),
    CONSTRAINT candidates_terminal_complete CHECK (
        status = 'PENDING' OR (score IS NOT NULL AND answers IS NOT NULL AND completed_at IS NOT NULL)
    )
)`

const candidatesStatusIndex = `CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates (status)`

// Migrate creates the candidates table and its indexes if they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	timeType, jsonType := "TIMESTAMPTZ", "JSONB"
	if db.dialect == SQLite {
		timeType, jsonType = "TIMESTAMP", "TEXT"
	}

	stmts := []string{
		fmt.Sprintf(candidatesDDL, timeType, jsonType),
		candidatesStatusIndex,
	}
	for _, stmt := range stmts {
		if _, err := db.connection.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate candidates schema")
		}
	}

	db.logger.Infow("Schema ready", "dialect", db.dialect.String())
	return nil
}
