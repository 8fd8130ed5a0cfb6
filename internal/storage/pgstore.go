// internal/storage/pgstore.go
//
// PostgreSQL 後端：整份快照以 JSONB 存成單一列，
// 以一個 upsert 陳述式完成寫入，天然具備原子性。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS ledger_snapshots (
	id SMALLINT PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL,
	body JSONB NOT NULL
)`

// pgConn 為 PostgresStore 所需的最小連線介面；*pgxpool.Pool 即滿足。
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore 以 PostgreSQL 保存快照。
type PostgresStore struct {
	conn  pgConn
	close func()
}

// OpenPostgres 依 DSN 建立連線池並執行 schema 遷移。
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.close = pool.Close
	return s, nil
}

// NewPostgresStore 以既有連線建立後端並確保資料表存在。
func NewPostgresStore(ctx context.Context, conn pgConn) (*PostgresStore, error) {
	if _, err := conn.Exec(ctx, pgSchema); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &PostgresStore{conn: conn}, nil
}

// Close 釋放由 OpenPostgres 建立的連線池。
func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

// Load 讀取快照列；不存在時回傳 ErrNoSnapshot。
func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	var (
		version int
		body    []byte
	)
	err := s.conn.QueryRow(ctx,
		`SELECT version, body FROM ledger_snapshots WHERE id = 1`).Scan(&version, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", version)
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap == nil {
		snap = Snapshot{}
	}
	return snap, nil
}

// Save 以 upsert 取代快照列。
func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	if snap == nil {
		snap = Snapshot{}
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.conn.Exec(ctx, `
		INSERT INTO ledger_snapshots (id, version, saved_at, body)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version, saved_at = EXCLUDED.saved_at, body = EXCLUDED.body`,
		SnapshotVersion, time.Now().UTC(), body)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
