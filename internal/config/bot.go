package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	ServerURL string `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	UserID    string `env:"BOT_USER_ID" envDefault:"bot"`
	Username  string `env:"BOT_USERNAME" envDefault:"scripted_bot"`
	JoinCode  string `env:"JOIN_CODE"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
