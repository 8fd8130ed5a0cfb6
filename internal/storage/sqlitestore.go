// internal/storage/sqlitestore.go
//
// SQLite 後端：將快照正規化為 accounts / loans / term_deposits 三張表。
// 每次 Save 於單一交易內清空並重寫三張表，因此仍是「整份快照」語意；
// 交易失敗時資料庫保持上一份快照。
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL,
	saved_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	acc_number TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	balance TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS loans (
	acc_number TEXT NOT NULL REFERENCES accounts(acc_number),
	position INTEGER NOT NULL,
	loan_id TEXT NOT NULL,
	principal TEXT NOT NULL,
	total_due TEXT NOT NULL,
	years INTEGER NOT NULL,
	PRIMARY KEY (acc_number, loan_id)
);

CREATE TABLE IF NOT EXISTS term_deposits (
	acc_number TEXT NOT NULL REFERENCES accounts(acc_number),
	position INTEGER NOT NULL,
	td_id TEXT NOT NULL,
	amount TEXT NOT NULL,
	maturity_val TEXT NOT NULL,
	years INTEGER NOT NULL,
	PRIMARY KEY (acc_number, td_id)
);
`

// SQLiteStore 以 SQLite 資料庫保存快照。
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite 開啟（或建立）path 指向的資料庫並執行 schema 遷移。
// path 可為 ":memory:"。
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// 單一連線：:memory: 資料庫每條連線各自獨立
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore 以既有連線建立後端並確保 schema 存在。
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close 關閉底層連線。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load 讀回完整快照。尚未寫入過任何快照時回傳 ErrNoSnapshot。
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM snapshot_meta WHERE id = 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot meta: %w", err)
	}
	if version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", version)
	}

	snap := Snapshot{}
	rows, err := s.db.QueryContext(ctx, `SELECT acc_number, name, balance FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	for rows.Next() {
		rec := AccountRecord{Loans: []LoanRecord{}, TermDeposits: []TermDepositRecord{}}
		if err := rows.Scan(&rec.AccNumber, &rec.Name, &rec.Balance); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan account: %w", err)
		}
		snap[rec.AccNumber] = rec
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT acc_number, loan_id, principal, total_due, years
		FROM loans ORDER BY acc_number, position`)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	for rows.Next() {
		var acc string
		var l LoanRecord
		if err := rows.Scan(&acc, &l.LoanID, &l.Principal, &l.TotalDue, &l.Years); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		rec, ok := snap[acc]
		if !ok {
			rows.Close()
			return nil, fmt.Errorf("loan %s references unknown account %s", l.LoanID, acc)
		}
		rec.Loans = append(rec.Loans, l)
		snap[acc] = rec
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT acc_number, td_id, amount, maturity_val, years
		FROM term_deposits ORDER BY acc_number, position`)
	if err != nil {
		return nil, fmt.Errorf("query term deposits: %w", err)
	}
	for rows.Next() {
		var acc string
		var td TermDepositRecord
		if err := rows.Scan(&acc, &td.TDID, &td.Amount, &td.MaturityVal, &td.Years); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan term deposit: %w", err)
		}
		rec, ok := snap[acc]
		if !ok {
			rows.Close()
			return nil, fmt.Errorf("term deposit %s references unknown account %s", td.TDID, acc)
		}
		rec.TermDeposits = append(rec.TermDeposits, td)
		snap[acc] = rec
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("iterate term deposits: %w", err)
	}

	return snap, nil
}

// Save 於單一交易中以 snap 取代資料庫內容。
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM term_deposits`,
		`DELETE FROM loans`,
		`DELETE FROM accounts`,
	} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	for num, rec := range snap {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO accounts (acc_number, name, balance) VALUES (?, ?, ?)`,
			num, rec.Name, rec.Balance.String()); err != nil {
			return fmt.Errorf("insert account %s: %w", num, err)
		}
		for i, l := range rec.Loans {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO loans (acc_number, position, loan_id, principal, total_due, years) VALUES (?, ?, ?, ?, ?, ?)`,
				num, i, l.LoanID, l.Principal.String(), l.TotalDue.String(), l.Years); err != nil {
				return fmt.Errorf("insert loan %s/%s: %w", num, l.LoanID, err)
			}
		}
		for i, td := range rec.TermDeposits {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO term_deposits (acc_number, position, td_id, amount, maturity_val, years) VALUES (?, ?, ?, ?, ?, ?)`,
				num, i, td.TDID, td.Amount.String(), td.MaturityVal.String(), td.Years); err != nil {
				return fmt.Errorf("insert term deposit %s/%s: %w", num, td.TDID, err)
			}
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (id, version, saved_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET version = excluded.version, saved_at = excluded.saved_at`,
		SnapshotVersion, time.Now().UTC()); err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
