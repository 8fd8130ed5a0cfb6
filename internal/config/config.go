// internal/config/config.go
//
// 本檔負責讀取服務設定：全部來自環境變數（可由 .env 預先載入），未設定者使用預設值。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 支援的快照後端。
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config 為服務設定。
type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	Backend       string `mapstructure:"LEDGER_BACKEND"`
	DataFile      string `mapstructure:"LEDGER_DATA_FILE"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	IDMaxAttempts int    `mapstructure:"ID_MAX_ATTEMPTS"`
}

// LoadConfig 從環境變數讀取設定並檢查。
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LEDGER_BACKEND", BackendJSON)
	viper.SetDefault("LEDGER_DATA_FILE", "bank_data_final.json")
	viper.SetDefault("SQLITE_PATH", "bank_ledger.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ID_MAX_ATTEMPTS", 64)
	viper.AutomaticEnv()

	// 無預設值的鍵需明確綁定，Unmarshal 才看得到
	_ = viper.BindEnv("DATABASE_URL")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 檢查後端種類與其必要設定。
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendJSON:
		if c.DataFile == "" {
			return fmt.Errorf("LEDGER_DATA_FILE is required for the %s backend", c.Backend)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the %s backend", c.Backend)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("LEDGER_BACKEND %q is not one of json, sqlite, postgres", c.Backend)
	}
	if c.IDMaxAttempts < 1 {
		return fmt.Errorf("ID_MAX_ATTEMPTS must be at least 1, got %d", c.IDMaxAttempts)
	}
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	return nil
}

// Addr 回傳 HTTP 監聽位址。
func (c *Config) Addr() string {
	if strings.Contains(c.ServerPort, ":") {
		return c.ServerPort
	}
	return ":" + c.ServerPort
}
