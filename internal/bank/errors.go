// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 除 ErrPersistence 外皆為驗證失敗：在任何狀態變更之前回傳，帳本保持原狀。
// 上層（HTTP handler）以 errors.Is 判斷並轉換成對應的狀態碼。

package bank

import "errors"

var (
	ErrInvalidAmount   = errors.New("amount must be > 0")
	ErrInvalidDuration = errors.New("duration must be at least 1 year")
	ErrInvalidName     = errors.New("account holder name is required")

	// ErrInsufficientFunds 代表活存餘額不足以支付本次扣款。
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrSelfTransfer      = errors.New("cannot transfer to the same account")
	ErrRecipientNotFound = errors.New("recipient account not found")
	ErrAccountNotFound   = errors.New("account not found")

	ErrLoanLimitReached    = errors.New("maximum number of active loans reached")
	ErrDepositLimitReached = errors.New("maximum number of term deposits reached")
	ErrMinimumAmountNotMet = errors.New("term deposit below minimum amount")

	// ErrLoanDenied 代表活存與定存兩項核貸條件皆未達成。
	ErrLoanDenied = errors.New("loan denied: financial requirements not met")

	ErrLoanNotFound = errors.New("loan not found")
	ErrOverpayment  = errors.New("payment exceeds remaining amount due")

	// ErrIDExhausted 代表在重抽上限內找不到未使用的編號。
	ErrIDExhausted = errors.New("could not allocate a unique identifier")

	// ErrPersistence 代表快照寫入失敗。
	// 與其他錯誤不同：記憶體中的變更已生效，只是尚未寫入後端；
	// 可呼叫 Bank.Persist 重試。
	ErrPersistence = errors.New("ledger snapshot could not be persisted")
)
