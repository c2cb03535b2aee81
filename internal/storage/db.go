package storage

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Dialect selects the SQL flavour spoken by the underlying connection.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

var (
	// ErrNotFound is returned when no candidate row matches the lookup key.
	ErrNotFound = errors.New("candidate not found")

	// ErrDuplicateEmail is returned by Insert when another row already owns the normalized email.
	ErrDuplicateEmail = errors.New("candidate email already exists")
)

type DB struct {
	connection *sql.DB
	dialect    Dialect
	logger     *zap.SugaredLogger
}

// NewDB opens the candidate store. DSNs starting with sqlite://, file: or :memory:
// select the SQLite backend; everything else is handed to lib/pq.
func NewDB(dataSourceName string, logger *zap.SugaredLogger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	dialect, dsn := parseDSN(dataSourceName)
	driver := "postgres"
	if dialect == SQLite {
		driver = "sqlite3"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", dialect)
	}

	if dialect == SQLite {
		// A single connection keeps :memory: databases coherent and serializes writers.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "set busy timeout")
		}
	} else {
		// Connection pool tuning
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping %s database", dialect)
	}

	logger.Infow("Database connected", "dialect", dialect.String())
	return &DB{connection: db, dialect: dialect, logger: logger}, nil
}

// NewFromConn wraps an already opened connection, e.g. a sqlmock handle in tests.
func NewFromConn(conn *sql.DB, dialect Dialect, logger *zap.SugaredLogger) *DB {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &DB{connection: conn, dialect: dialect, logger: logger}
}

func (db *DB) Close() {
	if err := db.connection.Close(); err != nil {
		db.logger.Warnw("Error closing the database connection", "error", err)
	}
}

// GetConnection returns the underlying database connection for advanced queries
func (db *DB) GetConnection() *sql.DB {
	return db.connection
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

func parseDSN(dsn string) (Dialect, string) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return SQLite, strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return SQLite, dsn
	default:
		return Postgres, dsn
	}
}

// rebind rewrites ? placeholders into $n for Postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isDuplicateEmail recognizes a unique violation on the email column for both backends.
func isDuplicateEmail(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "email")
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique &&
			strings.Contains(liteErr.Error(), "candidates.email")
	}
	return false
}
