package storage

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePG 模擬只含一列快照的資料表。
type fakePG struct {
	version int
	body    []byte
	stored  bool
	execErr error
	execs   []string
}

func (f *fakePG) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if strings.Contains(sql, "INSERT INTO ledger_snapshots") {
		f.version = args[0].(int)
		f.body = append([]byte(nil), args[2].([]byte)...)
		f.stored = true
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakePG) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &fakeRow{db: f}
}

type fakeRow struct {
	db *fakePG
}

func (r *fakeRow) Scan(dest ...any) error {
	if !r.db.stored {
		return pgx.ErrNoRows
	}
	*dest[0].(*int) = r.db.version
	*dest[1].(*[]byte) = r.db.body
	return nil
}

func TestPostgresStoreWithFakeConn(t *testing.T) {
	ctx := context.Background()
	db := &fakePG{}
	s, err := NewPostgresStore(ctx, db)
	require.NoError(t, err)
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], "CREATE TABLE IF NOT EXISTS ledger_snapshots")

	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	orig := sampleSnapshot()
	require.NoError(t, s.Save(ctx, orig))
	assert.Equal(t, SnapshotVersion, db.version)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assertSnapshotsEqual(t, orig, loaded)
}

func TestPostgresStoreRejectsUnknownVersion(t *testing.T) {
	db := &fakePG{stored: true, version: 99, body: []byte(`{}`)}
	s := &PostgresStore{conn: db}

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported snapshot version")
}

func TestPostgresStoreSaveError(t *testing.T) {
	db := &fakePG{execErr: errors.New("connection reset")}
	s := &PostgresStore{conn: db}

	err := s.Save(context.Background(), sampleSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

// 需設定 LEDGER_TEST_DATABASE_URL 才會對真實資料庫執行。
func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	orig := sampleSnapshot()
	require.NoError(t, s.Save(ctx, orig))
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assertSnapshotsEqual(t, orig, loaded)
}
