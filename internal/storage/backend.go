// internal/storage/backend.go

package storage

import "context"

// Backend 為帳本的持久化後端。
//   - Load：讀取最近一次完整快照；尚無快照時回傳 ErrNoSnapshot。
//   - Save：以單一原子操作寫入完整快照，取代先前內容。
//
// 實作：JSONFile、SQLiteStore、PostgresStore。
type Backend interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}
