// internal/idgen/idgen.go

// Package idgen 產生固定位數的隨機數字字串 ID（帳號、貸款編號、定存編號）。
// 碰撞時重抽，但重抽次數有上限；超過上限即回傳 ErrExhausted，
// 讓呼叫端的操作永遠會結束。
package idgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
)

// DefaultMaxAttempts 為預設的最大抽取次數。
const DefaultMaxAttempts = 64

// ErrExhausted 代表在允許的次數內找不到未使用的 ID。
var ErrExhausted = errors.New("id space exhausted")

// Source 回傳 [0, n) 之間均勻分布的整數。
type Source interface {
	Int63n(n int64) (int64, error)
}

type cryptoSource struct{}

func (cryptoSource) Int63n(n int64) (int64, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

// Generator 依指定位數產生 ID。零值不可用，請以 New 建立。
type Generator struct {
	src         Source
	maxAttempts int
}

// Option 調整 Generator 設定。
type Option func(*Generator)

// WithSource 替換亂數來源（測試用）。
func WithSource(src Source) Option {
	return func(g *Generator) { g.src = src }
}

// WithMaxAttempts 設定最大抽取次數；<= 0 時沿用預設值。
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// New 建立 Generator，預設使用 crypto/rand。
func New(opts ...Option) *Generator {
	g := &Generator{src: cryptoSource{}, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Digits 產生 n 位數（首位不為 0）的數字字串，並以 taken 判斷是否已被使用。
// taken 可為 nil，表示不檢查碰撞。
func (g *Generator) Digits(n int, taken func(string) bool) (string, error) {
	if n < 1 || n > 18 {
		return "", fmt.Errorf("idgen: unsupported width %d", n)
	}
	lo := pow10(n - 1)
	span := pow10(n) - lo
	for i := 0; i < g.maxAttempts; i++ {
		v, err := g.src.Int63n(span)
		if err != nil {
			return "", fmt.Errorf("idgen: draw: %w", err)
		}
		id := strconv.FormatInt(lo+v, 10)
		if taken == nil || !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts (width %d)", ErrExhausted, g.maxAttempts, n)
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
