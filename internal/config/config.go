package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// ErrInvalidConfig возвращается при некорректных значениях конфигурации
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server         ServerConfig        `toml:"server"`
	Database       DatabaseConfig      `toml:"database"`
	Logs           LogsConfig          `toml:"logs"`
	Metrics        MetricsConfig       `toml:"metrics"`
	Booking        BookingConfig       `toml:"booking"`
	Expiry         ExpiryConfig        `toml:"expiry"`
	UserService    ServiceClientConfig `toml:"user_service"`
	PaymentService ServiceClientConfig `toml:"payment_service"`
	Notifier       NotifierConfig      `toml:"notifier"`
	Dispatch       DispatchConfig      `toml:"dispatch"`
}

// ServerConfig параметры HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig параметры подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig параметры логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig параметры Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// BookingConfig политика бронирований
type BookingConfig struct {
	CancelCutoffMinutes int    `toml:"cancel_cutoff_minutes"`
	GracePeriodMinutes  int    `toml:"grace_period_minutes"`
	DefaultDurationType string `toml:"default_duration_type"`
}

// CancelCutoff минимальный запас до начала брони для отмены пользователем
func (b BookingConfig) CancelCutoff() time.Duration {
	return time.Duration(b.CancelCutoffMinutes) * time.Minute
}

// GracePeriod время ожидания въезда после начала брони
func (b BookingConfig) GracePeriod() time.Duration {
	return time.Duration(b.GracePeriodMinutes) * time.Minute
}

// ExpiryConfig параметры фоновой очистки просроченных бронирований
type ExpiryConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// ServiceClientConfig параметры HTTP клиента внешнего сервиса
type ServiceClientConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// NotifierConfig параметры публикации уведомлений в RabbitMQ
type NotifierConfig struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

// DispatchConfig параметры очереди внешних вызовов после коммита
type DispatchConfig struct {
	Workers         int `toml:"workers"`
	QueueSize       int `toml:"queue_size"`
	MaxAttempts     int `toml:"max_attempts"`
	BackoffMillis   int `toml:"backoff_ms"`
	CallTimeoutSecs int `toml:"call_timeout"`
}

// Load читает конфигурацию из TOML файла, подставляет значения по умолчанию и валидирует
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse разбирает конфигурацию из строки
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			File:  "logs/parking-service.log",
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "parking_service",
		},
		Booking: BookingConfig{
			CancelCutoffMinutes: domain.DefaultCancelCutoffMinutes,
			GracePeriodMinutes:  domain.DefaultGracePeriodMinutes,
			DefaultDurationType: string(domain.DefaultDurationType),
		},
		Expiry: ExpiryConfig{
			IntervalSeconds: 60,
		},
		UserService: ServiceClientConfig{
			Timeout: 5,
		},
		PaymentService: ServiceClientConfig{
			Timeout: 10,
		},
		Notifier: NotifierConfig{
			Exchange: "parking.events",
		},
		Dispatch: DispatchConfig{
			Workers:         2,
			QueueSize:       1024,
			MaxAttempts:     5,
			BackoffMillis:   500,
			CallTimeoutSecs: 10,
		},
	}
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	switch {
	case c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535:
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	case c.Database.DBName == "":
		return fmt.Errorf("%w: database.dbname is required", ErrInvalidConfig)
	case c.Booking.CancelCutoffMinutes < 0:
		return fmt.Errorf("%w: booking.cancel_cutoff_minutes must not be negative", ErrInvalidConfig)
	case c.Booking.GracePeriodMinutes < 0:
		return fmt.Errorf("%w: booking.grace_period_minutes must not be negative", ErrInvalidConfig)
	case c.Expiry.IntervalSeconds <= 0:
		return fmt.Errorf("%w: expiry.interval_seconds must be positive", ErrInvalidConfig)
	case c.UserService.URL == "":
		return fmt.Errorf("%w: user_service.url is required", ErrInvalidConfig)
	case c.PaymentService.URL == "":
		return fmt.Errorf("%w: payment_service.url is required", ErrInvalidConfig)
	case c.Notifier.Enabled && c.Notifier.URL == "":
		return fmt.Errorf("%w: notifier.url is required when notifier is enabled", ErrInvalidConfig)
	case c.Dispatch.MaxAttempts <= 0:
		return fmt.Errorf("%w: dispatch.max_attempts must be positive", ErrInvalidConfig)
	}

	if _, err := domain.ParseDurationType(c.Booking.DefaultDurationType); err != nil {
		return fmt.Errorf("%w: booking.default_duration_type: %v", ErrInvalidConfig, err)
	}
	return nil
}
