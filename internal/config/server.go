package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	InactivityGrace time.Duration `env:"INACTIVITY_GRACE" envDefault:"3s"`
	HostTimeout     time.Duration `env:"HOST_TIMEOUT" envDefault:"15s"`
	OracleTimeout   time.Duration `env:"ORACLE_TIMEOUT" envDefault:"90s"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1s"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
