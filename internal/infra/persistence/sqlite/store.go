// Package sqlite implements the user store over a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"credgate/internal/domain/entity"
	"credgate/internal/domain/repository"
	"credgate/internal/infra/persistence/sqlite/migrations"
)

const migrationTable = "schema_migrations"

// Store implements repository.UserRepository over SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ repository.UserRepository = (*Store)(nil)

// Open opens the database at path and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()

		return nil, errors.Wrap(err, "ping sqlite db")
	}

	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()

		return nil, errors.Wrap(err, "run migrations")
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}

	return s.sqlDB.Close()
}

// FindByUsername retrieves a single user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, updated_at FROM users WHERE username = ?`,
		username,
	)

	var (
		id                   string
		user                 entity.User
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &user.Username, &user.PasswordHash, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "find user by username")
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrapf(err, "parse id of user %q", username)
	}
	user.ID = parsed
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)

	return &user, nil
}

// Create inserts the user. The unique index on username decides concurrent registrations.
func (s *Store) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Wrap(err, "generate user id")
		}
		user.ID = id
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID.String(), user.Username, user.PasswordHash, toMillis(user.CreatedAt), toMillis(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateUsername
		}

		return errors.Wrap(err, "insert user")
	}

	return nil
}

// ListUsernames returns all usernames in ascending order.
func (s *Store) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT username FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "list usernames")
	}
	defer rows.Close()

	usernames := make([]string, 0)
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, errors.Wrap(err, "scan username")
		}
		usernames = append(usernames, username)
	}

	return usernames, errors.Wrap(rows.Err(), "iterate usernames")
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}

	return false
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// applyMigrations executes each embedded .sql file at most once, in name order.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return errors.Wrap(err, "ensure migration table")
	}

	names, err := fs.Glob(migrationFS, "*.sql")
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	sort.Strings(names)

	for _, name := range names {
		var found int
		err := sqlDB.QueryRow(`SELECT 1 FROM `+migrationTable+` WHERE name = ?`, name).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(err, "check migration %s", name)
		}

		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}

		if err := applyMigration(sqlDB, name, upSection(string(content))); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(sqlDB *sql.DB, name, upSQL string) error {
	tx, err := sqlDB.BeginTx(context.Background(), nil)
	if err != nil {
		return errors.Wrapf(err, "begin migration %s", name)
	}
	defer func() { _ = tx.Rollback() }()

	if strings.TrimSpace(upSQL) != "" {
		if _, err := tx.Exec(upSQL); err != nil {
			return errors.Wrapf(err, "exec migration %s", name)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
		name, time.Now().UTC().UnixMilli(),
	); err != nil {
		return errors.Wrapf(err, "record migration %s", name)
	}

	return errors.Wrapf(tx.Commit(), "commit migration %s", name)
}

// upSection returns the SQL between "-- +migrate Up" and "-- +migrate Down".
func upSection(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"

	start := strings.Index(content, up)
	if start == -1 {
		return content
	}
	content = content[start+len(up):]

	if end := strings.Index(content, down); end != -1 {
		return content[:end]
	}

	return content
}
