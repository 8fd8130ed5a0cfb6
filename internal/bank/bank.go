// internal/bank/bank.go

// Package bank 定義核心商業邏輯：開戶、存提款、轉帳、貸款、定存與還款。
// 採用單一互斥鎖 (sync.Mutex) 保障所有狀態變更「原子且序列化」：
// 驗證 → 變更記憶體 → 寫入完整快照，整段都在臨界區內完成。
// 金額以 decimal.Decimal 儲存，避免浮點誤差。
package bank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledgerbank/internal/idgen"
	"ledgerbank/internal/money"
	"ledgerbank/internal/storage"
)

// Bank 為聚合根 (Aggregate Root)：持有全系統帳戶。
// - mu：序列化所有讀寫，確保跨帳戶操作（轉帳）原子完成。
// - accts：帳號 → *Account，內部指標只在臨界區內修改。
// - backend：持久化後端；nil 時僅存在記憶體。
// - dirty：最近一次寫入失敗，記憶體領先於後端。
type Bank struct {
	mu      sync.Mutex
	accts   map[string]*Account
	backend storage.Backend
	ids     *idgen.Generator
	log     *zap.Logger

	dirty     bool
	lastSaved time.Time
}

// Option 調整 Bank 設定。
type Option func(*Bank)

// WithBackend 指定持久化後端。
func WithBackend(be storage.Backend) Option {
	return func(b *Bank) { b.backend = be }
}

// WithIDGenerator 指定編號產生器。
func WithIDGenerator(g *idgen.Generator) Option {
	return func(b *Bank) { b.ids = g }
}

// WithLogger 指定 logger。
func WithLogger(l *zap.Logger) Option {
	return func(b *Bank) { b.log = l }
}

// NewBank 建立空白帳本。未指定後端時為純記憶體模式。
func NewBank(opts ...Option) *Bank {
	b := &Bank{
		accts: make(map[string]*Account),
		ids:   idgen.New(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Status 描述帳本與後端的同步狀態。
type Status struct {
	Accounts  int       `json:"accounts"`
	Dirty     bool      `json:"dirty"`
	LastSaved time.Time `json:"last_saved,omitempty"`
}

// Status 回傳目前帳戶數與持久化狀態。
func (b *Bank) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{Accounts: len(b.accts), Dirty: b.dirty, LastSaved: b.lastSaved}
}

// Dirty 回報記憶體是否領先於後端（最近一次寫入失敗）。
func (b *Bank) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// Load 自後端載入完整快照並取代目前內容，回傳載入的帳戶數。
// 後端沒有快照、讀取失敗或內容不合法時，一律以空帳本啟動（不保留部分資料），
// 並記錄為可恢復的狀況。
func (b *Bank) Load(ctx context.Context) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.accts = make(map[string]*Account)
	if b.backend == nil {
		return 0
	}

	snap, err := b.backend.Load(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		b.log.Info("no ledger snapshot found, starting with an empty store")
		return 0
	}
	if err != nil {
		b.log.Warn("ledger snapshot unreadable, starting with an empty store", zap.Error(err))
		return 0
	}
	if err := b.restoreLocked(snap); err != nil {
		b.log.Warn("ledger snapshot invalid, starting with an empty store", zap.Error(err))
		return 0
	}
	b.log.Info("ledger snapshot loaded", zap.Int("accounts", len(b.accts)))
	return len(b.accts)
}

// Persist 將目前帳本完整寫入後端。可用於 ErrPersistence 之後的重試。
func (b *Bank) Persist(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.persistLocked(ctx)
}

// persistLocked 呼叫端須持有 mu。
func (b *Bank) persistLocked(ctx context.Context) error {
	if b.backend == nil {
		return nil
	}
	if err := b.backend.Save(ctx, b.snapshotLocked()); err != nil {
		b.dirty = true
		b.log.Error("ledger snapshot write failed",
			zap.Error(err), zap.Int("accounts", len(b.accts)))
		return errors.Join(ErrPersistence, err)
	}
	b.dirty = false
	b.lastSaved = time.Now()
	return nil
}

// CreateAccount 以持有人名稱開立新主帳戶：餘額為 0、無貸款與定存。
// 帳號為 10 位隨機數字，碰撞時重抽（有上限）。建立後立即寫入快照。
func (b *Bank) CreateAccount(ctx context.Context, name string) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	num, err := b.ids.Digits(AccountNumberDigits, func(id string) bool {
		_, taken := b.accts[id]
		return taken
	})
	if err != nil {
		return nil, idError(err)
	}
	a := &Account{
		Number:       num,
		Name:         name,
		Balance:      money.Zero,
		Loans:        []Loan{},
		TermDeposits: []TermDeposit{},
	}
	b.accts[num] = a
	b.log.Info("account created", zap.String("acc_number", num))

	return a.clone(), b.persistLocked(ctx)
}

// Get 依帳號取得帳戶的拷貝；不存在回傳 ErrAccountNotFound。
func (b *Bank) Get(accNo string) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accts[accNo]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a.clone(), nil
}

// List 回傳所有帳戶的拷貝，依帳號排序。
func (b *Bank) List() []*Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Account, 0, len(b.accts))
	for _, a := range b.accts {
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Snapshot 匯出帳本狀態為可持久化的 storage.Snapshot。
func (b *Bank) Snapshot() storage.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Bank) snapshotLocked() storage.Snapshot {
	s := make(storage.Snapshot, len(b.accts))
	for num, a := range b.accts {
		rec := storage.AccountRecord{
			Name:         a.Name,
			AccNumber:    a.Number,
			Balance:      a.Balance,
			Loans:        make([]storage.LoanRecord, 0, len(a.Loans)),
			TermDeposits: make([]storage.TermDepositRecord, 0, len(a.TermDeposits)),
		}
		for _, l := range a.Loans {
			rec.Loans = append(rec.Loans, storage.LoanRecord{
				LoanID: l.ID, Principal: l.Principal, TotalDue: l.TotalDue, Years: l.Years,
			})
		}
		for _, td := range a.TermDeposits {
			rec.TermDeposits = append(rec.TermDeposits, storage.TermDepositRecord{
				TDID: td.ID, Amount: td.Amount, MaturityVal: td.MaturityValue, Years: td.Years,
			})
		}
		s[num] = rec
	}
	return s
}

// Restore 由快照重建帳本。快照不合法時回傳錯誤且不改變目前狀態。
func (b *Bank) Restore(s storage.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.restoreLocked(s)
}

func (b *Bank) restoreLocked(s storage.Snapshot) error {
	accts := make(map[string]*Account, len(s))
	for key, rec := range s {
		a, err := accountFromRecord(key, rec)
		if err != nil {
			return err
		}
		accts[key] = a
	}
	b.accts = accts
	return nil
}

// accountFromRecord 轉換並檢查單一帳戶紀錄，確保載入的資料仍符合帳本不變量。
func accountFromRecord(key string, rec storage.AccountRecord) (*Account, error) {
	num := rec.AccNumber
	if num == "" {
		num = key
	}
	switch {
	case num != key:
		return nil, fmt.Errorf("account key %q does not match acc_number %q", key, num)
	case rec.Balance.IsNegative():
		return nil, fmt.Errorf("account %s: negative balance %s", num, rec.Balance)
	case len(rec.Loans) > MaxLoans:
		return nil, fmt.Errorf("account %s: %d loans exceeds limit %d", num, len(rec.Loans), MaxLoans)
	case len(rec.TermDeposits) > MaxTermDeposits:
		return nil, fmt.Errorf("account %s: %d term deposits exceeds limit %d", num, len(rec.TermDeposits), MaxTermDeposits)
	}

	a := &Account{
		Number:       num,
		Name:         rec.Name,
		Balance:      rec.Balance,
		Loans:        make([]Loan, 0, len(rec.Loans)),
		TermDeposits: make([]TermDeposit, 0, len(rec.TermDeposits)),
	}
	for _, l := range rec.Loans {
		if a.hasLoan(l.LoanID) {
			return nil, fmt.Errorf("account %s: duplicate loan %s", num, l.LoanID)
		}
		if !l.TotalDue.IsPositive() {
			return nil, fmt.Errorf("account %s: loan %s has non-positive amount due", num, l.LoanID)
		}
		a.Loans = append(a.Loans, Loan{
			ID: l.LoanID, Principal: l.Principal, TotalDue: l.TotalDue, Years: l.Years,
		})
	}
	for _, td := range rec.TermDeposits {
		if a.hasTermDeposit(td.TDID) {
			return nil, fmt.Errorf("account %s: duplicate term deposit %s", num, td.TDID)
		}
		a.TermDeposits = append(a.TermDeposits, TermDeposit{
			ID: td.TDID, Amount: td.Amount, MaturityValue: td.MaturityVal, Years: td.Years,
		})
	}
	return a, nil
}

// account 取得內部指標；呼叫端須持有 mu。
func (b *Bank) account(accNo string) (*Account, error) {
	a, ok := b.accts[accNo]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

func idError(err error) error {
	if errors.Is(err, idgen.ErrExhausted) {
		return errors.Join(ErrIDExhausted, err)
	}
	return err
}

// requirePositive 檢查金額 > 0。
func requirePositive(amt decimal.Decimal) error {
	if !money.Positive(amt) {
		return ErrInvalidAmount
	}
	return nil
}
