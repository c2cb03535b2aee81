package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const candidateColumns = `id, name, email, status, access_token, token_issued_at, answers, score, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// FindByNormalizedEmail looks a candidate up by its already-normalized email.
func (db *DB) FindByNormalizedEmail(ctx context.Context, email string) (*Candidate, error) {
	query := db.rebind(`SELECT ` + candidateColumns + ` FROM candidates WHERE email = ?`)
	return db.findOne(ctx, query, email)
}

// FindByToken looks a candidate up by exact match on its live access token or on the
// token that completed it. Tokens replaced by a reissue match nothing.
func (db *DB) FindByToken(ctx context.Context, token string) (*Candidate, error) {
	query := db.rebind(`SELECT ` + candidateColumns + ` FROM candidates WHERE access_token = ? OR consumed_token = ?`)
	return db.findOne(ctx, query, token, token)
}

func (db *DB) FindByID(ctx context.Context, id string) (*Candidate, error) {
	query := db.rebind(`SELECT ` + candidateColumns + ` FROM candidates WHERE id = ?`)
	return db.findOne(ctx, query, id)
}

func (db *DB) findOne(ctx context.Context, query string, args ...interface{}) (*Candidate, error) {
	row := db.connection.QueryRowContext(ctx, query, args...)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan candidate")
	}
	return c, nil
}

// Insert writes a new candidate row. A unique violation on email is reported as ErrDuplicateEmail
// so callers can fall back to a lookup instead of surfacing an internal error.
func (db *DB) Insert(ctx context.Context, c *Candidate) error {
	answers, err := encodeAnswers(c.Answers)
	if err != nil {
		return err
	}

	query := db.rebind(`INSERT INTO candidates (` + candidateColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = db.connection.ExecContext(ctx, query,
		c.ID,
		c.Name,
		c.Email,
		string(c.Status),
		nullString(c.AccessToken),
		nullTime(c.TokenIssuedAt),
		answers,
		nullInt(c.Score),
		c.CreatedAt.UTC(),
		c.UpdatedAt.UTC(),
		nullTime(c.CompletedAt),
	)
	if isDuplicateEmail(err) {
		return errors.WithStack(ErrDuplicateEmail)
	}
	if err != nil {
		return errors.Wrap(err, "insert candidate")
	}
	return nil
}

// ConditionalUpdate applies patch to the row identified by id only while the precondition
// still holds, in a single UPDATE statement. It returns the number of rows affected;
// zero means the precondition no longer matched and nothing was written.
func (db *DB) ConditionalUpdate(ctx context.Context, id string, pre Precondition, patch Patch) (int64, error) {
	if pre.Status == "" {
		return 0, errors.AssertionFailedf("conditional update on %s without a status precondition", id)
	}

	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.ClearToken {
		sets = append(sets, "consumed_token = access_token", "access_token = NULL")
	} else if patch.AccessToken != nil {
		set("access_token", *patch.AccessToken)
	}
	if patch.TokenIssuedAt != nil {
		set("token_issued_at", patch.TokenIssuedAt.UTC())
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Score != nil {
		set("score", *patch.Score)
	}
	if patch.Answers != nil {
		answers, err := encodeAnswers(patch.Answers)
		if err != nil {
			return 0, err
		}
		set("answers", answers)
	}
	if patch.CompletedAt != nil {
		set("completed_at", patch.CompletedAt.UTC())
	}
	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	set("updated_at", updatedAt.UTC())

	query := `UPDATE candidates SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND status = ?`
	args = append(args, id, string(pre.Status))
	if pre.AccessToken != "" {
		query += ` AND access_token = ?`
		args = append(args, pre.AccessToken)
	}

	res, err := db.connection.ExecContext(ctx, db.rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "conditional update candidate")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return affected, nil
}

// ListCompleted returns terminal candidates, most recently completed first.
func (db *DB) ListCompleted(ctx context.Context, limit int) ([]*Candidate, error) {
	query := db.rebind(`SELECT ` + candidateColumns + ` FROM candidates
              WHERE status <> ? ORDER BY completed_at DESC LIMIT ?`)
	rows, err := db.connection.QueryContext(ctx, query, string(StatusPending), limit)
	if err != nil {
		return nil, errors.Wrap(err, "list completed candidates")
	}
	defer rows.Close()

	var res []*Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan candidate")
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func scanCandidate(row rowScanner) (*Candidate, error) {
	var (
		c             Candidate
		status        string
		accessToken   sql.NullString
		tokenIssuedAt sql.NullTime
		answers       sql.NullString
		score         sql.NullInt64
		completedAt   sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Name, &c.Email, &status, &accessToken, &tokenIssuedAt,
		&answers, &score, &c.CreatedAt, &c.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	c.Status = Status(status)
	if accessToken.Valid {
		tok := accessToken.String
		c.AccessToken = &tok
	}
	if tokenIssuedAt.Valid {
		t := tokenIssuedAt.Time
		c.TokenIssuedAt = &t
	}
	if answers.Valid && answers.String != "" {
		if err := json.Unmarshal([]byte(answers.String), &c.Answers); err != nil {
			return nil, errors.Wrap(err, "decode answers")
		}
	}
	if score.Valid {
		s := int(score.Int64)
		c.Score = &s
	}
	if completedAt.Valid {
		t := completedAt.Time
		c.CompletedAt = &t
	}
	return &c, nil
}

// encodeAnswers renders answers as JSON text; lib/pq passes text parameters through to JSONB.
func encodeAnswers(a Answers) (interface{}, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, errors.Wrap(err, "encode answers")
	}
	return string(b), nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}
