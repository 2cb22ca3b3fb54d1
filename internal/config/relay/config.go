package relay_config

import (
	"time"

	"github.com/NordCoder/Tgrelay/internal/obs"
	pg "github.com/NordCoder/Tgrelay/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
	Product string `mapstructure:"product"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Telegram struct {
	BotToken       string        `mapstructure:"bot_token"`
	APIURL         string        `mapstructure:"api_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ParseMode      string        `mapstructure:"parse_mode"`
	DefaultChatID  string        `mapstructure:"default_chat_id"`
	TokenPrefixLen int           `mapstructure:"token_prefix_len"`
}

type Store struct {
	Driver      string        `mapstructure:"driver"`
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	App      App       `mapstructure:"app"`
	Server   Server    `mapstructure:"server"`
	Telegram Telegram  `mapstructure:"telegram"`
	Store    Store     `mapstructure:"store"`
	DB       pg.Config `mapstructure:"db"`
	CORS     CORS      `mapstructure:"cors"`
	OTEL     OTEL      `mapstructure:"otel"`
	Log      Log       `mapstructure:"log"`
}

func (c *Config) LoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
