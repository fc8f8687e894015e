package main

import (
	"context"
	"encoding/json"
	"expvar"
	"net/http"
	"time"

	"storyloom/internal/gateway"
	"storyloom/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func newRouter(st *store.Store, coord *gateway.Coordinator) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st))
	r.Get("/debug/vars", expvar.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Get("/username", gateway.SuggestUsernameHandler())
		r.Post("/games", gateway.CreateGameHandler(coord))
		r.Post("/games/join", gateway.JoinGameHandler(coord))
		r.Route("/games/{game_id}", func(r chi.Router) {
			r.Get("/state", gateway.StateHandler(coord))
			r.Get("/events", gateway.EventsSSEHandler(coord))
			r.Post("/world", gateway.SubmitWorldHandler(coord))
			r.Post("/actions", gateway.SubmitActionHandler(coord))
			r.Post("/force-turn", gateway.ForceTurnHandler(coord))
			r.Post("/heartbeat", gateway.HeartbeatHandler(coord))
			r.Post("/leave", gateway.LeaveGameHandler(coord))
			r.Delete("/players/{user_id}", gateway.KickPlayerHandler(coord))
			r.Delete("/", gateway.DeleteGameHandler(coord))
		})
	})

	return r
}

func healthHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := "ok"
		code := http.StatusOK
		if err := st.Ping(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
