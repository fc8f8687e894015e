package main

import (
	"context"
	"net/http"
	"time"

	"storyloom/internal/config"
	"storyloom/internal/gateway"
	"storyloom/internal/logging"
	"storyloom/internal/oracle"
	"storyloom/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logCloser := logging.Init(logCfg)
	defer logCloser.Close()

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	eng, err := buildOracle(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("oracle init failed")
	}
	defer eng.Close()

	coord := gateway.NewCoordinator(st, eng)
	coord.Configure(cfg.InactivityGrace, cfg.HostTimeout, cfg.OracleTimeout, cfg.StoreTimeout)
	coord.StartJanitor(context.Background(), cfg.SweepInterval)

	r := newRouter(st, coord)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

func buildOracle(cfg config.ServerConfig) (oracle.Engine, error) {
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY unset, turns will fail until configured")
	}
	return oracle.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
}
