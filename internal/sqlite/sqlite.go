// Package sqlite opens the single-file database holding officers, cases and generated notices.
package sqlite

import (
	"context"
	_ "embed"
	"fmt"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/lettergen/internal/auth"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/random"
	"log/slog"
	"strings"
	"time"
)

//go:embed schema.sql
var schemaDefinition string

// DefaultBusyTimeout is how long a connection waits on a lock held by another process before reporting ErrBusy.
const DefaultBusyTimeout = 5 * time.Second

// ErrBusy marks errors caused by another process holding the database lock. The statement had no effect and may be
// retried.
var ErrBusy = errors.NewSentinel("storage busy")

type Database struct {
	ReadWrite *sqlx.DB
	ReadOnly  *sqlx.DB
	logger    *slog.Logger
}

// Options tune [NewDatabase].
type Options struct {
	// BusyTimeout defaults to DefaultBusyTimeout when zero.
	BusyTimeout time.Duration
	// AdminPassword is the initial password of the protected admin account. It is only used when the account does
	// not exist yet.
	AdminPassword string
}

// NewDatabase connects to the database at url, synchronizes the schema and seeds the admin account.
//
// The url parameter is the path to the SQLite database file or ":memory:" for an in-memory database.
func NewDatabase(ctx context.Context, url string, opts Options, logger *slog.Logger) (*Database, error) {
	db, err := connect(url, opts.BusyTimeout, logger)
	if err != nil {
		return nil, err
	}
	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		_ = db.close()
		return nil, errors.Wrap(err, "synchronize schema")
	}
	if err = db.seedAdmin(ctx, opts.AdminPassword); err != nil {
		_ = db.close()
		return nil, errors.Wrap(err, "seed admin account")
	}
	return db, nil
}

// connect opens the connection pools without touching the schema.
//
// Two pools are used, a single read-write connection and several read-only connections. This is a best practice
// mentioned in https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995
func connect(url string, busyTimeout time.Duration, logger *slog.Logger) (*Database, error) {
	var (
		err         error
		readWriteDB *sqlx.DB
		readDB      *sqlx.DB
	)
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}

	// For in-memory databases, we need shared cache mode so that both pools access the same data.
	//
	// For parallel tests, every database gets its own random name to avoid sharing data.
	// See https://www.sqlite.org/inmemorydb.html.
	inMemoryConfig := ""
	if strings.Contains(url, ":memory:") {
		var (
			randomID     string
			dbNameLength uint = 20
		)
		if randomID, err = random.Letters(dbNameLength); err != nil {
			return nil, errors.Wrap(err, "generate random ID")
		}
		url = randomID
		inMemoryConfig = "&mode=memory&cache=shared"
	}
	commonConfig := strings.Join([]string{
		// Write-ahead logging lets readers proceed while a second process writes.
		"_journal_mode=wal",
		// Waits this long on locks before surfacing SQLITE_BUSY.
		fmt.Sprintf("_busy_timeout=%d", busyTimeout.Milliseconds()),
		"_synchronous=normal",
		"_foreign_keys=on",
		"_temp_store=memory",
	}, "&")

	// The options prefixed with underscore '_' are SQLite pragmas documented at https://www.sqlite.org/pragma.html.
	// The options without leading underscore are SQLite URI parameters documented at https://www.sqlite.org/uri.html.
	readConfig := fmt.Sprintf("file:%s?_txlock=deferred&_query_only=true&%s%s", url, commonConfig, inMemoryConfig)
	readWriteConfig := fmt.Sprintf("file:%s?_txlock=immediate&%s%s", url, commonConfig, inMemoryConfig)

	if readWriteDB, err = sqlx.Open("sqlite3", readWriteConfig); err != nil {
		return nil, errors.Wrap(err, "open read-write database")
	}
	readWriteDB.SetMaxOpenConns(1)
	readWriteDB.SetMaxIdleConns(1)
	readWriteDB.SetConnMaxLifetime(time.Hour)
	readWriteDB.SetConnMaxIdleTime(time.Hour)

	// The read-write pool must create the file before read-only connections can open it.
	if err = readWriteDB.Ping(); err != nil {
		_ = readWriteDB.Close()
		return nil, errors.Wrap(Classify(err), "ping read-write database", slog.String("url", url))
	}

	if readDB, err = sqlx.Open("sqlite3", readConfig); err != nil {
		_ = readWriteDB.Close()
		return nil, errors.Wrap(err, "open read database")
	}
	maxReadConns := 4
	readDB.SetMaxOpenConns(maxReadConns)
	readDB.SetMaxIdleConns(maxReadConns)
	readDB.SetConnMaxLifetime(time.Hour)
	readDB.SetConnMaxIdleTime(time.Hour)

	return &Database{
		ReadWrite: readWriteDB,
		ReadOnly:  readDB,
		logger:    logger.With(slog.String("source", "sqlite")),
	}, nil
}

const adminUsername = "admin"

func (db *Database) seedAdmin(ctx context.Context, password string) error {
	var exists bool
	if err := db.ReadWrite.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM officers WHERE username = ?)", adminUsername); err != nil {
		return errors.Wrap(Classify(err), "query admin account")
	}
	if exists {
		return nil
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err = db.ReadWrite.ExecContext(ctx, `INSERT OR IGNORE INTO officers
    (username, password_hash, name, designation, phone, email, address)
VALUES (?, ?, 'Administrator', 'Admin', '0000000000', 'admin@example.com', 'Head Office')`,
		adminUsername, hash); err != nil {
		return errors.Wrap(Classify(err), "insert admin account")
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "created admin account", slog.String("username", adminUsername))
	return nil
}

// Close runs a final optimization pass and closes both pools.
func (db *Database) Close(ctx context.Context) error {
	db.optimize(ctx)
	return db.close()
}

func (db *Database) close() error {
	return errors.Join(
		errors.Wrap(db.ReadOnly.Close(), "close read database"),
		errors.Wrap(db.ReadWrite.Close(), "close read-write database"),
	)
}

type busyError struct {
	cause error
}

func (e busyError) Error() string {
	return "storage busy: " + e.cause.Error()
}

func (e busyError) Unwrap() []error {
	return []error{ErrBusy, e.cause}
}

// Classify marks lock contention errors from the driver with ErrBusy. Other errors are returned unchanged.
func Classify(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return busyError{cause: err}
	}
	return err
}
