package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Personas PersonaConfig  `mapstructure:"personas"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // local, production
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlite, postgres, memory
	DSN  string `mapstructure:"dsn"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OracleConfig 预言机层级配置。
// 三个远程端点都可缺省；缺省时对应层级直接跳过，启发式兜底永远可用。
type OracleConfig struct {
	ReplyEndpoint string `mapstructure:"reply_endpoint"`
	ScoreEndpoint string `mapstructure:"score_endpoint"`
	QuizEndpoint  string `mapstructure:"quiz_endpoint"`
	APIKey        string `mapstructure:"api_key"` // Bearer token for the endpoints

	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	GeminiModel   string `mapstructure:"gemini_model"`
	GeminiBaseURL string `mapstructure:"gemini_base_url"`

	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// PersonaConfig 人设包配置
type PersonaConfig struct {
	Path  string `mapstructure:"path"`  // YAML 人设包路径，空则只用内置人设
	Watch bool   `mapstructure:"watch"` // 是否热加载
}

// TelegramConfig Telegram 接入配置
type TelegramConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	BotToken string  `mapstructure:"bot_token"`
	AllowIDs []int64 `mapstructure:"allow_ids"`
}

// Load 加载配置：依次尝试工作目录与 ~/.heartline 下的 config.yaml，
// 环境变量前缀 HEARTLINE 可覆盖任意项。
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".heartline"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失不是错误，全部走默认值/环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("HEARTLINE")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置默认配置
func setDefaults(v *viper.Viper) {
	// Server 默认值
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 18620)
	v.SetDefault("server.mode", "local")

	// Database 默认值
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "heartline.db")

	// Log 默认值
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Oracle 默认值
	v.SetDefault("oracle.gemini_model", "gemini-1.5-flash")
	v.SetDefault("oracle.gemini_base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("oracle.timeout_seconds", 30)

	// Personas 默认值
	v.SetDefault("personas.path", "")
	v.SetDefault("personas.watch", false)

	// Telegram 默认值
	v.SetDefault("telegram.enabled", false)
}
