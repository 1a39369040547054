package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default 返回默认配置（对外导出）
func Default() *Config {
	cfg := &Config{
		Mode:     "local",
		HTTPPort: 8080,
	}
	cfg.Storage.Type = "file"
	cfg.Storage.StateDir = "./.workflow_state"
	cfg.Storage.OutputDir = "./reports"
	cfg.Storage.SQLitePath = "./market-agent.db"
	cfg.Gemini.Model = "gemini-2.0-flash"
	cfg.RateLimit.DefaultInterval = Duration(500 * time.Millisecond)
	cfg.Retry.MaxAttempts = 4
	cfg.Retry.BaseDelay = Duration(2 * time.Second)
	cfg.Retry.MaxDelay = Duration(60 * time.Second)
	cfg.Collectors.FundFlowURL = "https://api.alternative.me"
	cfg.Collectors.OnchainURL = "https://blockchain.info"
	cfg.Schedule.Cron = "0 8 * * *"
	cfg.Notify.SMTPPort = 25
	return cfg
}

// Load 加载配置文件（对外导出）
// 文件不存在时返回默认配置；GEMINI_API_KEY环境变量优先于文件配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置合法性（对外导出）
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "file", "sqlite", "gcs":
	default:
		return fmt.Errorf("不支持的存储类型: %s", c.Storage.Type)
	}
	if c.Storage.Type == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("gcs存储必须配置gcs_bucket")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port无效: %d", c.HTTPPort)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts必须大于0")
	}
	return nil
}
