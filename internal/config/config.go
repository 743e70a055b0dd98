package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      App
	HTTP     HTTP
	Postgres Postgres
	Redis    Redis
	SecondMe SecondMe
	Bargain  Bargain
	Auth     Auth
}

type App struct {
	Name    string `env:"APP_NAME" envDefault:"duoduo-bargain"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
}

type HTTP struct {
	ListenAddress       string        `env:"HTTP_LISTEN_ADDRESS" envDefault:":8080"`
	ProbeListenAddress  string        `env:"PROBE_LISTEN_ADDRESS" envDefault:":8081"`
	MetricListenAddress string        `env:"METRIC_LISTEN_ADDRESS" envDefault:":8082"`
	ShutdownTimeout     time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadHeaderTimeout   time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
}

type Redis struct {
	Address            string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Username           string `env:"REDIS_USERNAME"`
	Password           string `env:"REDIS_PASSWORD" json:"-"`
	DatabaseNumber     int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize           int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConnections int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxIdleConnections int    `env:"REDIS_MAX_IDLE_CONNS" envDefault:"5"`
}

type SecondMe struct {
	AppID       string `env:"SECONDME_APP_ID,notEmpty"`
	AppSecret   string `env:"SECONDME_APP_SECRET,notEmpty" json:"-"`
	BaseURL     string `env:"SECONDME_BASE_URL" envDefault:"https://app.secondme.io"`
	TokenURL    string `env:"SECONDME_TOKEN_URL" envDefault:"https://app.secondme.io/api/oauth/token"`
	RefreshURL  string `env:"SECONDME_REFRESH_URL" envDefault:"https://app.secondme.io/api/oauth/refresh"`
	UserInfoURL string `env:"SECONDME_USERINFO_URL" envDefault:"https://app.secondme.io/api/oauth/userinfo"`
	RedirectURI string `env:"SECONDME_REDIRECT_URI,notEmpty"`
}

type Bargain struct {
	MaxExchanges   int           `env:"MAX_BARGAIN_EXCHANGES" envDefault:"10"`
	InterTurnDelay time.Duration `env:"BARGAIN_INTER_TURN_DELAY" envDefault:"2s"`
}

type Auth struct {
	SessionTTL       time.Duration `env:"AUTH_SESSION_TTL" envDefault:"720h"`
	PostLoginURL     string        `env:"AUTH_POST_LOGIN_URL" envDefault:"/"`
	MockLoginEnabled bool          `env:"AUTH_MOCK_LOGIN_ENABLED" envDefault:"false"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	return config, nil
}
