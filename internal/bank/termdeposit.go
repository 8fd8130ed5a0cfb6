// internal/bank/termdeposit.go

package bank

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledgerbank/internal/money"
)

// OpenTermDeposit 自活存撥款開立定存。檢查順序：
// 已有 10 筆 → 低於 10,000 → 餘額不足 → 年期 < 1。
// 到期金額 = 本金 × (1 + 6% × 年期)，開立時即固定。
func (b *Bank) OpenTermDeposit(ctx context.Context, accNo string, amt decimal.Decimal, years int) (*TermDeposit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.account(accNo)
	if err != nil {
		return nil, err
	}
	if len(a.TermDeposits) >= MaxTermDeposits {
		return nil, ErrDepositLimitReached
	}
	if !money.Covers(amt, MinTermDepositAmount) {
		return nil, ErrMinimumAmountNotMet
	}
	if !money.Covers(a.Balance, amt) {
		return nil, ErrInsufficientFunds
	}
	if years < 1 {
		return nil, ErrInvalidDuration
	}

	id, err := b.ids.Digits(TermDepositIDDigits, a.hasTermDeposit)
	if err != nil {
		return nil, idError(err)
	}
	td := TermDeposit{
		ID:            id,
		Amount:        amt,
		MaturityValue: money.SimpleInterest(amt, TermDepositAnnualRate, years),
		Years:         years,
	}
	a.TermDeposits = append(a.TermDeposits, td)
	a.Balance = a.Balance.Sub(amt)
	b.log.Info("term deposit opened",
		zap.String("acc_number", accNo), zap.String("td_id", id),
		zap.Stringer("amount", amt), zap.Stringer("maturity_val", td.MaturityValue))

	return &td, b.persistLocked(ctx)
}
