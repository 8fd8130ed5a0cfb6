// internal/money/money.go

// Package money 集中處理金額相關的數值運算。
// 所有金額一律使用 decimal.Decimal 表示，避免浮點誤差；
// 本套件不做任何格式化輸出，只負責驗證、解析與利率計算。
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotANumber 代表輸入字串無法解析為十進位金額。
var ErrNotANumber = errors.New("amount is not a decimal number")

// Zero 為零金額，方便比較使用。
var Zero = decimal.Zero

// Positive 判斷金額是否嚴格大於 0。
func Positive(amt decimal.Decimal) bool {
	return amt.IsPositive()
}

// Covers 判斷 have 是否足以支付 need（have >= need）。
func Covers(have, need decimal.Decimal) bool {
	return have.GreaterThanOrEqual(need)
}

// Parse 將字串解析為金額。前後空白會被忽略。
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrNotANumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	return d, nil
}

// MustParse 僅用於常數與測試。
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Percent 回傳 amt × rate。
func Percent(amt, rate decimal.Decimal) decimal.Decimal {
	return amt.Mul(rate)
}

// SimpleInterest 以單利計算到期總額：principal × (1 + rate × years)。
// 不複利，於建立當下一次算定。
func SimpleInterest(principal, rate decimal.Decimal, years int) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(rate.Mul(decimal.NewFromInt(int64(years))))
	return principal.Mul(factor)
}

// Sum 加總多筆金額。
func Sum(amts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amts {
		total = total.Add(a)
	}
	return total
}
