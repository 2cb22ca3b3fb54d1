package relay_config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	ErrNoBotToken    = ErrConfig("telegram.bot_token is required (TELEGRAM_BOT_TOKEN)")
	ErrUnknownDriver = ErrConfig("store.driver must be one of file, sqlite, postgres")
	ErrNoDSN         = ErrConfig("db.dsn is required for the postgres store")
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("app.name", "tgrelay")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "")
	v.SetDefault("app.product", "ITAssist HLS Multiviewer")

	v.SetDefault("server.http_addr", "0.0.0.0:3001")
	v.SetDefault("server.metrics_addr", "")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", "10s")
	v.SetDefault("telegram.parse_mode", "HTML")
	v.SetDefault("telegram.default_chat_id", "")
	v.SetDefault("telegram.token_prefix_len", 20)

	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.path", "telegram_chat_id.txt")
	v.SetDefault("store.busy_timeout", "5s")

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime", "30m")
	v.SetDefault("db.max_conn_idle_time", "10m")
	v.SetDefault("db.health_check_period", "30s")
	v.SetDefault("db.query_timeout", "2s")
	v.SetDefault("db.application_name", "tgrelay")

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "tgrelay")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Telegram.BotToken = strings.TrimSpace(cfg.Telegram.BotToken)
	if cfg.Telegram.BotToken == "" {
		return nil, ErrNoBotToken
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch cfg.Store.Driver {
	case DriverFile, DriverSQLite:
	case DriverPostgres:
		if cfg.DB.DSN == "" {
			return nil, ErrNoDSN
		}
	default:
		return nil, ErrUnknownDriver
	}
	return &cfg, nil
}
