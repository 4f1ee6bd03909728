package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用总配置，按环境加载，启动时读取一次后注入各组件
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Calendar CalendarConfig `yaml:"calendar"`
	History  HistoryConfig  `yaml:"history"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Lock     LockConfig     `yaml:"lock"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // openai 兼容接口
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	// Temperature 不配置时使用服务端默认值
	Temperature     *float64 `yaml:"temperature"`
	DisableJSONMode bool     `yaml:"disable_json_mode"`
}

// SheetsConfig 用户目录表格
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Range           string `yaml:"range"` // 如 Usuarios!A:Z
	CredentialsFile string `yaml:"credentials_file"`
}

type CalendarConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	DefaultTimezone string `yaml:"default_timezone"`
	LookaheadDays   int    `yaml:"lookahead_days"`
	ListLimit       int    `yaml:"list_limit"`
	SearchLimit     int    `yaml:"search_limit"`
}

// HistoryConfig 会话历史服务
type HistoryConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// SettleDelay 拉取历史前的等待时间，缓解历史写入滞后
	SettleDelay time.Duration `yaml:"settle_delay"`
}

type TimeoutsConfig struct {
	External time.Duration `yaml:"external"` // 每次外部调用的超时
}

// LockConfig 会话级编辑锁；RedisAddr 为空时不加锁（最后写入者获胜）
type LockConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Load 根据环境变量 APP_ENV 加载对应配置文件
// 支持: local, dev, prod，默认 local
func Load() (*Config, error) {
	return LoadFile(fmt.Sprintf("config/%s.yaml", Env()))
}

// LoadFile 从指定路径加载配置，并应用环境变量覆盖与默认值
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// 允许环境变量覆盖敏感配置
	overrideFromEnv(&cfg)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Env 当前运行环境
func Env() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		return "local"
	}
	return env
}

func overrideFromEnv(c *Config) {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("SHEETS_SPREADSHEET_ID"); v != "" {
		c.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		if c.Sheets.CredentialsFile == "" {
			c.Sheets.CredentialsFile = v
		}
		if c.Calendar.CredentialsFile == "" {
			c.Calendar.CredentialsFile = v
		}
	}
	if v := os.Getenv("HISTORY_API_KEY"); v != "" {
		c.History.APIKey = v
	}
	if v := os.Getenv("DEFAULT_TIMEZONE"); v != "" {
		c.Calendar.DefaultTimezone = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Lock.RedisAddr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Sheets.Range == "" {
		c.Sheets.Range = "A:Z"
	}
	if c.Calendar.DefaultTimezone == "" {
		c.Calendar.DefaultTimezone = "America/Sao_Paulo"
	}
	if c.Calendar.LookaheadDays <= 0 {
		c.Calendar.LookaheadDays = 7
	}
	if c.Calendar.ListLimit <= 0 {
		c.Calendar.ListLimit = 10
	}
	if c.Calendar.SearchLimit <= 0 {
		c.Calendar.SearchLimit = 50
	}
	if c.Timeouts.External <= 0 {
		c.Timeouts.External = 15 * time.Second
	}
	if c.Lock.TTL <= 0 {
		c.Lock.TTL = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if _, err := time.LoadLocation(c.Calendar.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid default timezone %q: %w", c.Calendar.DefaultTimezone, err)
	}
	return nil
}

// Location 默认时区
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
