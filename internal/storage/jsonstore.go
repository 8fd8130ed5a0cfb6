// internal/storage/jsonstore.go
//
// 提供 JSON 快照檔的讀寫實作。
// 採「原子寫入」策略 (atomic write)：先寫入 .tmp 檔並 fsync，再以 rename() 取代原檔，
// 寫入中途失敗時原檔不受影響。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// JSONFile 將快照保存為單一 JSON 檔案。
type JSONFile struct {
	path string
}

// NewJSONFile 建立指向 path 的 JSON 檔案後端。檔案不需事先存在。
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path 回傳快照檔路徑。
func (j *JSONFile) Path() string { return j.path }

// Load 讀取快照檔。檔案不存在時回傳 ErrNoSnapshot；格式錯誤時回傳解析錯誤。
func (j *JSONFile) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", j.path, err)
	}
	if snap == nil {
		snap = Snapshot{}
	}
	return snap, nil
}

// Save 將快照序列化為 JSON 並以原子方式寫入。
// 流程：寫入 path+".tmp" → Sync → Close → Rename 取代正式檔案。
func (j *JSONFile) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil {
		snap = Snapshot{}
	}
	if dir := filepath.Dir(j.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	tmp := j.path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	// 縮排輸出，方便人工檢視
	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}

	// 原子替換
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
