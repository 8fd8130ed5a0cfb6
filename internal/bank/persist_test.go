package bank

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ledgerbank/internal/storage"
)

// memBackend 為記憶體中的後端，可注入讀寫錯誤。
type memBackend struct {
	mu      sync.Mutex
	snap    storage.Snapshot
	loadErr error
	saveErr error
	saves   int
}

func (m *memBackend) Load(context.Context) (storage.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.snap == nil {
		return nil, storage.ErrNoSnapshot
	}
	return m.snap, nil
}

func (m *memBackend) Save(_ context.Context, s storage.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = s
	m.saves++
	return nil
}

func (m *memBackend) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memBackend) failSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

func TestEveryMutationPersists(t *testing.T) {
	mem := &memBackend{}
	b := NewBank(WithBackend(mem))

	a := open(t, b, "A", "60000") // create + deposit
	other := open(t, b, "B", "")  // create
	_, err := b.Withdraw(ctx, a.Number, d("1"))
	require.NoError(t, err)
	_, err = b.Transfer(ctx, a.Number, other.Number, d("1"))
	require.NoError(t, err)
	loan, err := b.ApplyLoan(ctx, a.Number, d("1000"), 1)
	require.NoError(t, err)
	_, err = b.OpenTermDeposit(ctx, a.Number, d("10000"), 1)
	require.NoError(t, err)
	_, err = b.PayLoan(ctx, a.Number, loan.ID, d("70"))
	require.NoError(t, err)
	assert.Equal(t, 8, mem.saveCount())

	// 驗證失敗不寫入
	_, err = b.Withdraw(ctx, a.Number, d("1000000"))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = b.Transfer(ctx, a.Number, a.Number, d("1"))
	require.ErrorIs(t, err, ErrSelfTransfer)
	assert.Equal(t, 8, mem.saveCount())

	// 後端內容與記憶體一致
	restored := NewBank(WithBackend(mem))
	require.Equal(t, 2, restored.Load(ctx))
	assertAccountsEqual(t, get(t, b, a.Number), get(t, restored, a.Number))
	assertAccountsEqual(t, get(t, b, other.Number), get(t, restored, other.Number))
}

func TestPersistenceFailureIsDistinct(t *testing.T) {
	logger, logs := observedLogger()
	mem := &memBackend{}
	b := NewBank(WithBackend(mem), WithLogger(logger))
	a := open(t, b, "A", "100")

	diskFull := errors.New("no space left on device")
	mem.failSaves(diskFull)

	acc, err := b.Deposit(ctx, a.Number, d("50"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, diskFull)
	assert.NotErrorIs(t, err, ErrInvalidAmount)

	// 記憶體已變更，回傳值反映變更後狀態
	require.NotNil(t, acc)
	assert.True(t, acc.Balance.Equal(d("150")))
	wantBalance(t, b, a.Number, "150")
	assert.True(t, b.Dirty())
	assert.True(t, b.Status().Dirty)
	assert.Equal(t, 1, logs.FilterMessage("ledger snapshot write failed").Len())

	// 後端仍是舊快照
	assert.True(t, mem.snap[a.Number].Balance.Equal(d("100")))

	// 重試成功後同步
	mem.failSaves(nil)
	require.NoError(t, b.Persist(ctx))
	assert.False(t, b.Dirty())
	assert.True(t, mem.snap[a.Number].Balance.Equal(d("150")))
	assert.False(t, b.Status().LastSaved.IsZero())
}

func TestPersistenceFailureOnLoanStillReturnsLoan(t *testing.T) {
	mem := &memBackend{}
	b := NewBank(WithBackend(mem))
	a := open(t, b, "A", "50000")

	mem.failSaves(errors.New("read-only file system"))
	loan, err := b.ApplyLoan(ctx, a.Number, d("100000"), 5)
	require.ErrorIs(t, err, ErrPersistence)
	require.NotNil(t, loan)
	assert.True(t, loan.TotalDue.Equal(d("135000")))
	wantBalance(t, b, a.Number, "150000")
}

func TestLoadMissingSnapshot(t *testing.T) {
	logger, logs := observedLogger()
	b := NewBank(WithBackend(&memBackend{}), WithLogger(logger))

	assert.Equal(t, 0, b.Load(ctx))
	assert.Empty(t, b.List())
	assert.Equal(t, 1, logs.FilterMessage("no ledger snapshot found, starting with an empty store").Len())
}

func TestLoadUnreadableSnapshotStartsEmpty(t *testing.T) {
	logger, logs := observedLogger()
	mem := &memBackend{loadErr: errors.New("unexpected end of JSON input")}
	b := NewBank(WithBackend(mem), WithLogger(logger))
	open(t, b, "stale", "10")

	assert.Equal(t, 0, b.Load(ctx))
	assert.Empty(t, b.List(), "no partial state may survive a failed load")

	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warn, 1)
	assert.Equal(t, "ledger snapshot unreadable, starting with an empty store", warn[0].Message)
}

func TestLoadInvalidSnapshotStartsEmpty(t *testing.T) {
	mem := &memBackend{snap: storage.Snapshot{
		"1000000001": {Name: "ok", AccNumber: "1000000001", Balance: d("10")},
		"1000000002": {Name: "bad", AccNumber: "1000000002", Balance: d("-10")},
	}}
	b := NewBank(WithBackend(mem))

	assert.Equal(t, 0, b.Load(ctx))
	assert.Empty(t, b.List())
}

func TestLoadRejectsTooManyLoans(t *testing.T) {
	loans := make([]storage.LoanRecord, MaxLoans+1)
	for i := range loans {
		loans[i] = storage.LoanRecord{LoanID: string(rune('1'+i)) + "000", Principal: d("1"), TotalDue: d("1"), Years: 1}
	}
	mem := &memBackend{snap: storage.Snapshot{
		"1000000001": {Name: "x", AccNumber: "1000000001", Balance: d("0"), Loans: loans},
	}}
	b := NewBank(WithBackend(mem))
	assert.Equal(t, 0, b.Load(ctx))
}

// 以 JSON 檔案後端驗證 save → load 完整還原。
func TestJSONFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank_data_final.json")

	b := NewBank(WithBackend(storage.NewJSONFile(path)))
	require.Equal(t, 0, b.Load(ctx))
	a1 := open(t, b, "A", "80000")
	a2 := open(t, b, "B", "300")
	_, err := b.ApplyLoan(ctx, a1.Number, d("5000"), 4)
	require.NoError(t, err)
	_, err = b.OpenTermDeposit(ctx, a1.Number, d("30000"), 2)
	require.NoError(t, err)
	_, err = b.Transfer(ctx, a1.Number, a2.Number, d("1234.56"))
	require.NoError(t, err)

	fresh := NewBank(WithBackend(storage.NewJSONFile(path)))
	require.Equal(t, 2, fresh.Load(ctx))
	for _, num := range []string{a1.Number, a2.Number} {
		assertAccountsEqual(t, get(t, b, num), get(t, fresh, num))
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := storage.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	b := NewBank(WithBackend(store))
	a := open(t, b, "A", "45000")
	_, err = b.OpenTermDeposit(ctx, a.Number, d("10000"), 5)
	require.NoError(t, err)
	_, err = b.ApplyLoan(ctx, a.Number, d("9000"), 2)
	require.NoError(t, err)

	fresh := NewBank(WithBackend(store))
	require.Equal(t, 1, fresh.Load(ctx))
	assertAccountsEqual(t, get(t, b, a.Number), get(t, fresh, a.Number))
}
