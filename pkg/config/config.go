// Package config 提供应用配置的加载与校验
package config

// Config 应用核心配置（对外导出）
type Config struct {
	Mode     string `yaml:"mode"` // local/cloud
	HTTPPort int    `yaml:"http_port"`

	Storage struct {
		Type       string `yaml:"type"` // file/sqlite/gcs
		StateDir   string `yaml:"state_dir"`
		OutputDir  string `yaml:"output_dir"`
		SQLitePath string `yaml:"sqlite_path"`
		GCSBucket  string `yaml:"gcs_bucket"`
		GCSPrefix  string `yaml:"gcs_prefix"`
	} `yaml:"storage"`

	Gemini struct {
		APIKey string `yaml:"api_key"` // 可用GEMINI_API_KEY环境变量覆盖
		Model  string `yaml:"model"`
	} `yaml:"gemini"`

	RateLimit struct {
		DefaultInterval Duration            `yaml:"default_interval"`
		APIs            map[string]Duration `yaml:"apis"` // apiName -> 最小调用间隔
	} `yaml:"rate_limit"`

	Retry struct {
		MaxAttempts int      `yaml:"max_attempts"`
		BaseDelay   Duration `yaml:"base_delay"`
		MaxDelay    Duration `yaml:"max_delay"`
	} `yaml:"retry"`

	Collectors struct {
		SocialURL      string   `yaml:"social_url"`
		SocialAccounts []string `yaml:"social_accounts"`
		FundFlowURL    string   `yaml:"fundflow_url"`
		OnchainURL     string   `yaml:"onchain_url"`
	} `yaml:"collectors"`

	Workflow struct {
		StrictCollection bool `yaml:"strict_collection"`
	} `yaml:"workflow"`

	Schedule struct {
		Enabled      bool   `yaml:"enabled"`
		Cron         string `yaml:"cron"` // 如"0 8 * * *"
		SkipAnalysis bool   `yaml:"skip_analysis"`
	} `yaml:"schedule"`

	Notify NotifyConfig `yaml:"notify"`
}

// NotifyConfig 审批提醒配置（对外导出）
// 三项必填缺一视为未启用
type NotifyConfig struct {
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}
