// internal/bank/loan.go

package bank

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledgerbank/internal/money"
)

// Eligibility 為核貸檢查的明細。兩項條件擇一通過即可核貸。
type Eligibility struct {
	Requested          decimal.Decimal `json:"requested"`
	LiquidRequired     decimal.Decimal `json:"liquid_required"`
	LiquidPass         bool            `json:"liquid_pass"`
	CollateralRequired decimal.Decimal `json:"collateral_required"`
	CollateralPass     bool            `json:"collateral_pass"`
}

// Eligible 回報是否符合核貸條件。
func (e Eligibility) Eligible() bool {
	return e.LiquidPass || e.CollateralPass
}

// evaluate 只依餘額與定存本金計算，相同輸入必得相同結果。
func evaluate(a *Account, amt decimal.Decimal) Eligibility {
	e := Eligibility{
		Requested:          amt,
		LiquidRequired:     money.Percent(amt, LiquidRequirementRatio),
		CollateralRequired: money.Percent(amt, CollateralRequirementRatio),
	}
	e.LiquidPass = money.Covers(a.Balance, e.LiquidRequired)
	e.CollateralPass = money.Covers(a.TotalTermDepositValue(), e.CollateralRequired)
	return e
}

// CheckEligibility 試算核貸條件，不改變任何狀態。
func (b *Bank) CheckEligibility(accNo string, amt decimal.Decimal) (Eligibility, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.account(accNo)
	if err != nil {
		return Eligibility{}, err
	}
	if err := requirePositive(amt); err != nil {
		return Eligibility{}, err
	}
	return evaluate(a, amt), nil
}

// ApplyLoan 申請貸款。檢查順序：
//  1. 已有 4 筆貸款 → ErrLoanLimitReached（不論資格）
//  2. 金額 <= 0 → ErrInvalidAmount；年期 < 1 → ErrInvalidDuration
//  3. 活存或定存條件皆未達 → ErrLoanDenied
//
// 核准後：應還總額 = 本金 × (1 + 7% × 年期)，本金撥入活存。
func (b *Bank) ApplyLoan(ctx context.Context, accNo string, amt decimal.Decimal, years int) (*Loan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.account(accNo)
	if err != nil {
		return nil, err
	}
	if len(a.Loans) >= MaxLoans {
		return nil, ErrLoanLimitReached
	}
	if err := requirePositive(amt); err != nil {
		return nil, err
	}
	if years < 1 {
		return nil, ErrInvalidDuration
	}

	e := evaluate(a, amt)
	if !e.Eligible() {
		b.log.Info("loan denied",
			zap.String("acc_number", accNo), zap.Stringer("requested", amt))
		return nil, fmt.Errorf("%w: needs balance >= %s or term deposits >= %s",
			ErrLoanDenied, e.LiquidRequired.StringFixed(2), e.CollateralRequired.StringFixed(2))
	}

	id, err := b.ids.Digits(LoanIDDigits, a.hasLoan)
	if err != nil {
		return nil, idError(err)
	}
	loan := Loan{
		ID:        id,
		Principal: amt,
		TotalDue:  money.SimpleInterest(amt, LoanAnnualRate, years),
		Years:     years,
	}
	a.Loans = append(a.Loans, loan)
	a.Balance = a.Balance.Add(amt)
	b.log.Info("loan approved",
		zap.String("acc_number", accNo), zap.String("loan_id", id),
		zap.Stringer("principal", amt), zap.Stringer("total_due", loan.TotalDue))

	return &loan, b.persistLocked(ctx)
}

// LoanPayment 為還款結果。Closed 為 true 時貸款已結清並自帳戶移除。
type LoanPayment struct {
	LoanID       string          `json:"loan_id"`
	Paid         decimal.Decimal `json:"paid"`
	RemainingDue decimal.Decimal `json:"remaining_due"`
	Closed       bool            `json:"closed"`
	Balance      decimal.Decimal `json:"balance"`
}

// PayLoan 以活存償還貸款。檢查順序：
// 貸款存在 → 金額 > 0 → 活存足夠 → 不得超過剩餘應還。
// 剩餘應還恰為 0 時貸款結清並移出清單（釋出一個名額）。
func (b *Bank) PayLoan(ctx context.Context, accNo, loanID string, amt decimal.Decimal) (*LoanPayment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.account(accNo)
	if err != nil {
		return nil, err
	}
	i := a.loanIndex(loanID)
	if i < 0 {
		return nil, ErrLoanNotFound
	}
	if err := requirePositive(amt); err != nil {
		return nil, err
	}
	if !money.Covers(a.Balance, amt) {
		return nil, ErrInsufficientFunds
	}
	loan := &a.Loans[i]
	if !money.Covers(loan.TotalDue, amt) {
		return nil, ErrOverpayment
	}

	a.Balance = a.Balance.Sub(amt)
	loan.TotalDue = loan.TotalDue.Sub(amt)
	res := &LoanPayment{
		LoanID:       loanID,
		Paid:         amt,
		RemainingDue: loan.TotalDue,
		Balance:      a.Balance,
	}
	if loan.TotalDue.IsZero() {
		a.Loans = append(a.Loans[:i], a.Loans[i+1:]...)
		res.Closed = true
		b.log.Info("loan closed", zap.String("acc_number", accNo), zap.String("loan_id", loanID))
	}

	return res, b.persistLocked(ctx)
}
