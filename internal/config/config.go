package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type PaymentsConfig struct {
	BaseURL string
	Timeout time.Duration
}

type WarehouseConfig struct {
	BaseURL string
	Timeout time.Duration
}

type OrdersConfig struct {
	AutoCancelGrace time.Duration
	CancelReasons   []string
}

type PDFConfig struct {
	FontPath string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Payments    PaymentsConfig
	Warehouse   WarehouseConfig
	Orders      OrdersConfig
	PDF         PDFConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Payments: PaymentsConfig{
			BaseURL: v.GetString("PAYMENTS_BASE_URL"),
			Timeout: v.GetDuration("PAYMENTS_TIMEOUT"),
		},
		Warehouse: WarehouseConfig{
			BaseURL: v.GetString("WAREHOUSE_BASE_URL"),
			Timeout: v.GetDuration("WAREHOUSE_TIMEOUT"),
		},
		Orders: OrdersConfig{
			AutoCancelGrace: time.Duration(v.GetInt("AUTOCANCEL_GRACE_SECONDS")) * time.Second,
			CancelReasons:   parseList(v.GetString("CANCEL_REASONS")),
		},
		PDF: PDFConfig{
			FontPath: v.GetString("PDF_FONT_PATH"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Payments.Timeout == 0 {
		cfg.Payments.Timeout = 10 * time.Second
	}
	if cfg.Warehouse.Timeout == 0 {
		cfg.Warehouse.Timeout = 10 * time.Second
	}
	if cfg.Orders.AutoCancelGrace == 0 {
		cfg.Orders.AutoCancelGrace = time.Hour
	}
	if cfg.PDF.FontPath == "" {
		cfg.PDF.FontPath = "assets/fonts/NotoSans-Regular.ttf"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Payments.BaseURL == "" {
		return fmt.Errorf("PAYMENTS_BASE_URL is required")
	}
	if cfg.Warehouse.BaseURL == "" {
		return fmt.Errorf("WAREHOUSE_BASE_URL is required")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
