// internal/storage/model.go
//
// 定義「資料持久化層 (storage layer)」的結構模型。
// 快照為「帳號 → 帳戶紀錄」的對應表，每筆帳戶紀錄內含其貸款與定存清單。
// 此結構與既有的 bank_data_final.json 檔案格式相容：
// 欄位名稱相同，金額可讀入 JSON 數字或字串，寫出時一律為字串（無精度損失）。
package storage

import (
	"errors"

	"github.com/shopspring/decimal"
)

// SnapshotVersion 為快照結構版本；寫入 SQLite/PostgreSQL 時一併保存。
const SnapshotVersion = 1

// ErrNoSnapshot 代表後端尚無任何快照（例如首次啟動）。
var ErrNoSnapshot = errors.New("no snapshot stored")

// LoanRecord 為貸款在儲存層的序列化格式。
type LoanRecord struct {
	LoanID    string          `json:"loan_id"`
	Principal decimal.Decimal `json:"principal"`
	TotalDue  decimal.Decimal `json:"total_due"`
	Years     int             `json:"years"`
}

// TermDepositRecord 為定存在儲存層的序列化格式。
type TermDepositRecord struct {
	TDID        string          `json:"td_id"`
	Amount      decimal.Decimal `json:"amount"`
	MaturityVal decimal.Decimal `json:"maturity_val"`
	Years       int             `json:"years"`
}

// AccountRecord 為主帳戶在儲存層的序列化格式。
// 不含同步鎖或方法，僅保存資料狀態。
type AccountRecord struct {
	Name         string              `json:"name"`
	AccNumber    string              `json:"acc_number"`
	Balance      decimal.Decimal     `json:"balance"`
	Loans        []LoanRecord        `json:"loans"`
	TermDeposits []TermDepositRecord `json:"term_deposits"`
}

// Snapshot 為整個帳本的完整快照（帳號 → 帳戶紀錄）。
type Snapshot map[string]AccountRecord

