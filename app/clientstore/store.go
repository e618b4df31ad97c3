package clientstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// LastOrderKey holds the most recently created order on this device.
const LastOrderKey = "emektup:last_order"

//go:embed migrations/*.sql
var migrationFiles embed.FS

var ErrInvalidReference = errors.New("invalid order reference")

// OrderReference is what the client remembers about its last order.
type OrderReference struct {
	OrderID      string `json:"order_id"`
	TrackingCode string `json:"tracking_code"`
}

func (r *OrderReference) Empty() bool {
	return r == nil || (strings.TrimSpace(r.OrderID) == "" && strings.TrimSpace(r.TrackingCode) == "")
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite file at path and migrates it.
// ":memory:" is accepted for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create state dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("init state migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate state db: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns (nil, nil) when the key is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// SaveLastOrder overwrites the stored reference.
func (s *Store) SaveLastOrder(ctx context.Context, ref OrderReference) error {
	if ref.Empty() {
		return ErrInvalidReference
	}
	raw, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	return s.Set(ctx, LastOrderKey, raw)
}

// LastOrder returns (nil, nil) when nothing usable is stored. A corrupt
// value is treated as absent.
func (s *Store) LastOrder(ctx context.Context) (*OrderReference, error) {
	raw, err := s.Get(ctx, LastOrderKey)
	if err != nil || raw == nil {
		return nil, err
	}

	var ref OrderReference
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, nil
	}
	if ref.Empty() {
		return nil, nil
	}
	return &ref, nil
}
