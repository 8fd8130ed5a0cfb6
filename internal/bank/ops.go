// internal/bank/ops.go

package bank

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledgerbank/internal/money"
)

// Deposit 存款：金額需 > 0；帳戶不存在回傳 ErrAccountNotFound。
// 若回傳 ErrPersistence，存款已生效，回傳的帳戶反映變更後狀態。
func (b *Bank) Deposit(ctx context.Context, accNo string, amt decimal.Decimal) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.account(accNo)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(amt); err != nil {
		return nil, err
	}

	a.Balance = a.Balance.Add(amt)
	b.log.Debug("deposit", zap.String("acc_number", accNo), zap.Stringer("amount", amt))
	return a.clone(), b.persistLocked(ctx)
}

// Withdraw 提款：金額需 > 0 且不得超過餘額（維持非負）。
func (b *Bank) Withdraw(ctx context.Context, accNo string, amt decimal.Decimal) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.account(accNo)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(amt); err != nil {
		return nil, err
	}
	if !money.Covers(a.Balance, amt) {
		return nil, ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amt)
	b.log.Debug("withdraw", zap.String("acc_number", accNo), zap.Stringer("amount", amt))
	return a.clone(), b.persistLocked(ctx)
}

// TransferResult 為轉帳後雙方帳戶的拷貝。
type TransferResult struct {
	From *Account `json:"from"`
	To   *Account `json:"to"`
}

// Transfer 轉帳為「單一臨界區內」的原子操作，檢查順序：
// 寄款帳戶存在 → 非自己 → 收款帳戶存在 → 金額 > 0 → 餘額足夠。
// 任一步驟失敗皆不會改變任何帳戶；成功後以單一快照涵蓋雙方。
func (b *Bank) Transfer(ctx context.Context, fromNo, toNo string, amt decimal.Decimal) (*TransferResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from, err := b.account(fromNo)
	if err != nil {
		return nil, err
	}
	if toNo == fromNo {
		return nil, ErrSelfTransfer
	}
	to, ok := b.accts[toNo]
	if !ok {
		return nil, ErrRecipientNotFound
	}
	if err := requirePositive(amt); err != nil {
		return nil, err
	}
	if !money.Covers(from.Balance, amt) {
		return nil, ErrInsufficientFunds
	}

	from.Balance = from.Balance.Sub(amt)
	to.Balance = to.Balance.Add(amt)
	b.log.Debug("transfer",
		zap.String("from", fromNo), zap.String("to", toNo), zap.Stringer("amount", amt))

	res := &TransferResult{From: from.clone(), To: to.clone()}
	return res, b.persistLocked(ctx)
}
