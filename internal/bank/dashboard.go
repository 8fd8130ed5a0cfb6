package bank

import "github.com/shopspring/decimal"

// Dashboard 為帳戶總覽：活存、貸款（n/4）與定存（n/10）。
type Dashboard struct {
	Name                  string           `json:"name"`
	Number                string           `json:"acc_number"`
	Balance               decimal.Decimal  `json:"balance"`
	Loans                 []LoanSummary    `json:"loans"`
	LoanSlots             Slots            `json:"loan_slots"`
	TermDeposits          []DepositSummary `json:"term_deposits"`
	TermDepositSlots      Slots            `json:"term_deposit_slots"`
	TotalTermDepositValue decimal.Decimal  `json:"total_term_deposit_value"`
}

// Slots 表示已使用／上限。
type Slots struct {
	Used int `json:"used"`
	Max  int `json:"max"`
}

type LoanSummary struct {
	ID  string          `json:"loan_id"`
	Due decimal.Decimal `json:"total_due"`
}

type DepositSummary struct {
	ID       string          `json:"td_id"`
	Invested decimal.Decimal `json:"amount"`
}

// Dashboard 組出帳戶總覽。
func (b *Bank) Dashboard(accNo string) (*Dashboard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.account(accNo)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		Name:                  a.Name,
		Number:                a.Number,
		Balance:               a.Balance,
		Loans:                 make([]LoanSummary, 0, len(a.Loans)),
		LoanSlots:             Slots{Used: len(a.Loans), Max: MaxLoans},
		TermDeposits:          make([]DepositSummary, 0, len(a.TermDeposits)),
		TermDepositSlots:      Slots{Used: len(a.TermDeposits), Max: MaxTermDeposits},
		TotalTermDepositValue: a.TotalTermDepositValue(),
	}
	for _, l := range a.Loans {
		d.Loans = append(d.Loans, LoanSummary{ID: l.ID, Due: l.TotalDue})
	}
	for _, td := range a.TermDeposits {
		d.TermDeposits = append(d.TermDeposits, DepositSummary{ID: td.ID, Invested: td.Amount})
	}
	return d, nil
}
