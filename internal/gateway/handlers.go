package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"storyloom/internal/game"

	"github.com/go-chi/chi/v5"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// callerID identifies the requesting user. There is no account system; the
// client mints a stable id at first load and sends it on every request.
func callerID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func mapErr(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized, "not_authenticated"
	case errors.Is(err, ErrGameNotFound):
		return http.StatusNotFound, "game_not_found"
	case errors.Is(err, ErrInvalidJoinCode):
		return http.StatusBadRequest, "invalid_join_code"
	case errors.Is(err, ErrNotHost):
		return http.StatusForbidden, "not_host"
	case errors.Is(err, ErrStoreTimeout):
		return http.StatusServiceUnavailable, "store_timeout"
	case errors.Is(err, ErrCodeSpaceBusy):
		return http.StatusServiceUnavailable, "join_code_space_exhausted"
	case errors.Is(err, game.ErrInvalidUsername):
		return http.StatusBadRequest, "invalid_username"
	case errors.Is(err, game.ErrDuplicateUsername):
		return http.StatusConflict, "duplicate_username"
	case errors.Is(err, game.ErrNotInGame):
		return http.StatusNotFound, "player_not_in_game"
	case errors.Is(err, game.ErrPlayerDead):
		return http.StatusConflict, "player_dead"
	case errors.Is(err, game.ErrCharacterRequired):
		return http.StatusConflict, "character_required"
	case errors.Is(err, game.ErrGameEnded):
		return http.StatusConflict, "game_ended"
	case errors.Is(err, game.ErrWrongStatus):
		return http.StatusConflict, "wrong_status"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

type CreateGameRequest struct {
	Username string `json:"username"`
}

func CreateGameHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := coord.CreateGame(r.Context(), callerID(r), req.Username)
		if err != nil {
			status, code := mapErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, res)
	}
}

type JoinGameRequest struct {
	Code     string `json:"code"`
	Username string `json:"username"`
}

func JoinGameHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := coord.JoinGame(r.Context(), req.Code, callerID(r), req.Username)
		if err != nil {
			status, code := mapErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, res)
	}
}

// SuggestUsernameHandler hands out a generated name for clients that join
// without picking one.
func SuggestUsernameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"username": RandomUsername()})
	}
}

func StateHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "game_id")
		debug := r.URL.Query().Get("debug") == "1"
		view, err := coord.Snapshot(gameID, callerID(r), debug)
		if err != nil {
			status, code := mapErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, view)
	}
}

type SubmitWorldRequest struct {
	Description string `json:"description"`
}

func SubmitWorldHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitWorldRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_json")
			return
		}
		gameID := chi.URLParam(r, "game_id")
		if err := coord.SubmitWorld(r.Context(), gameID, callerID(r), req.Description); err != nil {
			status, code := mapErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

type SubmitActionRequest struct {
	Input             string `json:"input"`
	CharacterCreation bool   `json:"character_creation"`
}

func SubmitActionHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_json")
			return
		}
		gameID := chi.URLParam(r, "game_id")
		if err := coord.SubmitAction(r.Context(), gameID, callerID(r), req.Input, req.CharacterCreation); err != nil {
			status, code := mapErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func ForceTurnHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "game_id")
		if err := coord.ForceTurn(r.Context(), gameID, callerID(r)); err != nil {
			status, code := mapErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

type HeartbeatRequest struct {
	Active bool `json:"is_active"`
}

func HeartbeatHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HeartbeatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_json")
			return
		}
		gameID := chi.URLParam(r, "game_id")
		if err := coord.Heartbeat(gameID, callerID(r), req.Active); err != nil {
			status, code := mapErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func LeaveGameHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "game_id")
		if err := coord.LeaveGame(r.Context(), gameID, callerID(r)); err != nil {
			status, code := mapErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func KickPlayerHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "game_id")
		target := chi.URLParam(r, "user_id")
		if err := coord.KickPlayer(r.Context(), gameID, callerID(r), target); err != nil {
			status, code := mapErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

func DeleteGameHandler(coord *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "game_id")
		if err := coord.DeleteGame(r.Context(), gameID, callerID(r)); err != nil {
			status, code := mapErr(err)
			writeErr(w, status, code)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}
