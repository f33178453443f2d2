// Package store persists users, their preferences and generated posts in
// sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/postcraft/internal/style"
)

// ErrNotFound is returned when a user or post does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", dbPath+sep+"_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		preferences TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- preferences_history keeps every saved preference set for audit
	CREATE TABLE IF NOT EXISTS preferences_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		preferences TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		input TEXT NOT NULL,
		content TEXT NOT NULL,
		iterations_used INTEGER NOT NULL DEFAULT 0,
		exited_early BOOLEAN NOT NULL DEFAULT FALSE,
		termination_reason TEXT,
		generator TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
	);

	-- post_versions is the refinement history, one row per revision
	CREATE TABLE IF NOT EXISTS post_versions (
		post_id TEXT NOT NULL,
		version_number INTEGER NOT NULL,
		content TEXT NOT NULL,
		feedback TEXT,
		produced_at_iteration INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (post_id, version_number),
		FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS post_sources (
		post_id TEXT PRIMARY KEY,
		source_type TEXT NOT NULL,
		source_ref TEXT,
		title TEXT,
		language TEXT,
		content TEXT,
		FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS post_translations (
		post_id TEXT NOT NULL,
		language TEXT NOT NULL,
		text TEXT NOT NULL,
		service TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (post_id, language),
		FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_prefs_user ON preferences_history(user_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// User is a post author.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) CreateUser(ctx context.Context, name, email string) (*User, error) {
	name = normalizeText(name)
	email = strings.ToLower(normalizeText(email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("name and email are required")
	}

	u := &User{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.CreatedAt, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetUser looks a user up by ID or email.
func (s *Store) GetUser(ctx context.Context, idOrEmail string) (*User, error) {
	var u User
	key := normalizeText(idOrEmail)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = ? OR email = ?`,
		key, strings.ToLower(key)).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", idOrEmail, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, created_at FROM users ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SavePreferences replaces the user's current preferences and appends the
// new set to the history.
func (s *Store) SavePreferences(ctx context.Context, userID string, p style.Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := style.EncodeJSON(p)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET preferences = ?, updated_at = ? WHERE id = ?`, data, now, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO preferences_history (id, user_id, preferences, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), userID, data, now); err != nil {
		return err
	}
	return tx.Commit()
}

// GetPreferences returns the stored preferences. found is false when the
// user has never saved any.
func (s *Store) GetPreferences(ctx context.Context, userID string) (p style.Preferences, found bool, err error) {
	var data sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT preferences FROM users WHERE id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return p, false, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return p, false, err
	}
	if !data.Valid || data.String == "" {
		return p, false, nil
	}
	p, err = style.DecodeJSON(data.String)
	if err != nil {
		return p, false, err
	}
	return p, true, nil
}

// PreferenceEntry is one row of a user's preference history.
type PreferenceEntry struct {
	ID          string            `json:"id"`
	Preferences style.Preferences `json:"preferences"`
	CreatedAt   time.Time         `json:"created_at"`
}

// PreferenceHistory returns saved preference sets, newest first.
func (s *Store) PreferenceHistory(ctx context.Context, userID string) ([]PreferenceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, preferences, created_at FROM preferences_history WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []PreferenceEntry
	for rows.Next() {
		var (
			e    PreferenceEntry
			data string
		)
		if err := rows.Scan(&e.ID, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		if e.Preferences, err = style.DecodeJSON(data); err != nil {
			return nil, fmt.Errorf("history entry %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// so equal text compares equal.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
