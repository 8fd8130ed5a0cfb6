// Package bank 定義核心領域模型與業務規則。
// 本檔定義主帳戶、貸款與定存結構，不含任何 HTTP 或儲存細節。

package bank

import (
	"github.com/shopspring/decimal"

	"ledgerbank/internal/money"
)

// Account 為客戶的主帳戶（活存）。
// 帳戶獨佔其貸款與定存清單，清單依建立順序排列。
type Account struct {
	Number       string          `json:"acc_number"`
	Name         string          `json:"name"`
	Balance      decimal.Decimal `json:"balance"`
	Loans        []Loan          `json:"loans"`
	TermDeposits []TermDeposit   `json:"term_deposits"`
}

// Loan 為一筆未結清的貸款。TotalDue 只減不增，歸零即自帳戶移除。
type Loan struct {
	ID        string          `json:"loan_id"`
	Principal decimal.Decimal `json:"principal"`
	TotalDue  decimal.Decimal `json:"total_due"`
	Years     int             `json:"years"`
}

// TermDeposit 為一筆定存，建立後內容固定。
type TermDeposit struct {
	ID            string          `json:"td_id"`
	Amount        decimal.Decimal `json:"amount"`
	MaturityValue decimal.Decimal `json:"maturity_val"`
	Years         int             `json:"years"`
}

// TotalTermDepositValue 回傳所有定存的投入本金合計（不含到期利息）。
func (a *Account) TotalTermDepositValue() decimal.Decimal {
	total := money.Zero
	for _, td := range a.TermDeposits {
		total = total.Add(td.Amount)
	}
	return total
}

func (a *Account) loanIndex(id string) int {
	for i := range a.Loans {
		if a.Loans[i].ID == id {
			return i
		}
	}
	return -1
}

func (a *Account) hasLoan(id string) bool { return a.loanIndex(id) >= 0 }

func (a *Account) hasTermDeposit(id string) bool {
	for i := range a.TermDeposits {
		if a.TermDeposits[i].ID == id {
			return true
		}
	}
	return false
}

// clone 深拷貝帳戶，避免外部透過切片改寫內部狀態。
func (a *Account) clone() *Account {
	cp := *a
	cp.Loans = append([]Loan{}, a.Loans...)
	cp.TermDeposits = append([]TermDeposit{}, a.TermDeposits...)
	return &cp
}
