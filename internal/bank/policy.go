// internal/bank/policy.go

package bank

import "ledgerbank/internal/money"

// 帳戶容量與 ID 位數。
const (
	MaxLoans        = 4
	MaxTermDeposits = 10

	AccountNumberDigits = 10
	LoanIDDigits        = 4
	TermDepositIDDigits = 10
)

// 利率與核貸門檻。利息皆為單利，於建立時一次算定。
var (
	LoanAnnualRate        = money.MustParse("0.07")
	TermDepositAnnualRate = money.MustParse("0.06")

	// 核貸條件（擇一）：活存 >= 申請額 × 10%，或定存本金合計 >= 申請額 × 50%。
	LiquidRequirementRatio     = money.MustParse("0.10")
	CollateralRequirementRatio = money.MustParse("0.50")

	MinTermDepositAmount = money.MustParse("10000")
)
