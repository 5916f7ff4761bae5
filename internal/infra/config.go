package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xela07ax/blaxing-console/internal/domain"
)

// Config корневая структура конфигурации консоли.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig описывает локальный HTTP-сервер сессии дашборда.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig куда ходит клиент и с какими заголовками стартует.
type BackendConfig struct {
	BaseURL      string        `mapstructure:"base_url"` // Фиксируется при старте процесса
	Timeout      time.Duration `mapstructure:"timeout"`
	Mode         string        `mapstructure:"mode"`
	APIKey       string        `mapstructure:"api_key"`
	BaseOverride string        `mapstructure:"base_override"`
}

// Headers собирает стартовую конфигурацию заголовков.
func (b BackendConfig) Headers() domain.HeaderConfig {
	return domain.HeaderConfig{
		Mode:         domain.Mode(b.Mode),
		APIKey:       b.APIKey,
		BaseOverride: b.BaseOverride,
	}
}

// DashboardConfig поведение сессии.
type DashboardConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	AuditLimit      int           `mapstructure:"audit_limit"`
	ActivityLines   int           `mapstructure:"activity_lines"`
	HideWebhookURLs bool          `mapstructure:"hide_webhook_urls"` // Только отображение, не граница безопасности
}

// DatabaseConfig необязательный Postgres для журнала активности.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig необязательный Redis для сигналов между сессиями.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LimitsConfig ограничивает частоту действий через консоль.
type LimitsConfig struct {
	ActionsPerSecond float64 `mapstructure:"actions_per_second"`
	Burst            int     `mapstructure:"burst"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, console
	File       string `mapstructure:"file"`   // Пусто — пишем в stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom читает конкретный файл, если путь задан.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// 2. ENV: BACKEND_BASE_URL перекроет backend.base_url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate отсекает конфигурации, с которыми клиент не сможет работать.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("config: backend.base_url is required")
	}
	if err := c.Backend.Headers().Validate(); err != nil {
		return fmt.Errorf("config: backend.mode: %w", err)
	}
	if c.Dashboard.PollInterval <= 0 {
		return errors.New("config: dashboard.poll_interval must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("backend.base_url", "http://localhost:8001/api")
	v.SetDefault("backend.timeout", 20*time.Second)
	v.SetDefault("backend.mode", string(domain.ModeMock))
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.base_override", "")
	v.SetDefault("dashboard.poll_interval", 30*time.Second)
	v.SetDefault("dashboard.audit_limit", 50)
	v.SetDefault("dashboard.activity_lines", 200)
	v.SetDefault("dashboard.hide_webhook_urls", false)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 5)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("redis.addr", "")
	v.SetDefault("limits.actions_per_second", 5)
	v.SetDefault("limits.burst", 10)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 3)
}
