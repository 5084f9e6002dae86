// Package store persists stored accounts in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/janekbaraniewski/codexswitch/internal/core"
)

var ErrNotFound = errors.New("account not found")

const activeAccountKey = "active_account_id"

type Store struct {
	db *sql.DB
}

// Open creates the database at path if needed. The file holds live
// credentials and is restricted to the owner.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: creating DB dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening DB: %w", err)
	}

	s := New(db)
	if err := s.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close()
		return nil, fmt.Errorf("store: restricting DB permissions: %w", err)
	}
	return s, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			auth_mode TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TEXT,
			last_used_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_position ON accounts(position);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

// LoadAccounts returns all accounts in insertion order.
func (s *Store) LoadAccounts(ctx context.Context) ([]core.StoredAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM accounts ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("store: listing accounts: %w", err)
	}
	defer rows.Close()

	var out []core.StoredAccount
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("store: scanning account: %w", err)
		}
		acct, err := decodeAccount(data)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: listing accounts: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.StoredAccount, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM accounts WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StoredAccount{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return core.StoredAccount{}, fmt.Errorf("store: loading account %s: %w", id, err)
	}
	return decodeAccount(data)
}

// Save inserts acct or replaces the stored account with the same ID,
// keeping its position.
func (s *Store) Save(ctx context.Context, acct core.StoredAccount) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("store: encoding account %s: %w", acct.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, position, name, auth_mode, data, created_at, last_used_at)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM accounts), ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			auth_mode = excluded.auth_mode,
			data = excluded.data,
			last_used_at = excluded.last_used_at`,
		acct.ID, acct.Name, string(acct.AuthMode()), string(data),
		formatTime(&acct.CreatedAt), formatTime(acct.LastUsedAt))
	if err != nil {
		return fmt.Errorf("store: saving account %s: %w", acct.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: deleting account %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meta WHERE key = ? AND value = ?`, activeAccountKey, id); err != nil {
		return fmt.Errorf("store: clearing active account: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Rename(ctx context.Context, id, name string) (core.StoredAccount, error) {
	acct, err := s.Get(ctx, id)
	if err != nil {
		return core.StoredAccount{}, err
	}
	acct.Name = name
	if err := s.Save(ctx, acct); err != nil {
		return core.StoredAccount{}, err
	}
	return acct, nil
}

// SetActive records id as the active account and stamps its last use.
func (s *Store) SetActive(ctx context.Context, id string, at time.Time) (core.StoredAccount, error) {
	acct, err := s.Get(ctx, id)
	if err != nil {
		return core.StoredAccount{}, err
	}
	used := at.UTC()
	acct.LastUsedAt = &used
	if err := s.Save(ctx, acct); err != nil {
		return core.StoredAccount{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		activeAccountKey, id)
	if err != nil {
		return core.StoredAccount{}, fmt.Errorf("store: setting active account: %w", err)
	}
	return acct, nil
}

// ActiveID returns the last account switched to, or "" if none.
func (s *Store) ActiveID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, activeAccountKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: reading active account: %w", err)
	}
	return id, nil
}

func decodeAccount(data string) (core.StoredAccount, error) {
	var acct core.StoredAccount
	if err := json.Unmarshal([]byte(data), &acct); err != nil {
		return core.StoredAccount{}, fmt.Errorf("store: decoding account: %w", err)
	}
	return acct, nil
}

func formatTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
