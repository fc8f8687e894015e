package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"storyloom/internal/game"
	"storyloom/internal/oracle"
	"storyloom/internal/store"
	"storyloom/internal/world"

	"github.com/rs/zerolog/log"
)

const (
	defaultInactivityGrace = 3 * time.Second
	defaultHostTimeout     = 15 * time.Second
	defaultOracleTimeout   = 90 * time.Second
	defaultStoreTimeout    = 5 * time.Second
	defaultSweepInterval   = time.Second
	eventBufferSize        = 500
)

// GameStore is the durable-store slice the coordinator needs. *store.Store
// satisfies it; tests substitute an in-memory fake.
type GameStore interface {
	CreateGame(ctx context.Context, g store.Game) error
	GetGameByCode(ctx context.Context, code string) (store.Game, error)
	CodeInUse(ctx context.Context, code string) (bool, error)
	SetWorldDescription(ctx context.Context, id, desc string) error
	UpdateGameStatus(ctx context.Context, id, status string) error
	DeleteGame(ctx context.Context, id string) error
	UpsertPlayer(ctx context.Context, p store.Player) error
	DeletePlayer(ctx context.Context, gameID, userID string) error
	CommitTurn(ctx context.Context, gameID, status string, state store.GameState) error
}

type gameRuntime struct {
	mu        sync.Mutex
	id        string
	code      string
	hostID    string
	eng       *game.Engine
	buffer    *EventBuffer
	createdAt time.Time
}

// Coordinator owns every live game. All engine access happens under the
// runtime lock; the coordinator lock only guards the maps.
type Coordinator struct {
	store  GameStore
	oracle oracle.Engine

	mu     sync.Mutex
	games  map[string]*gameRuntime
	byCode map[string]string

	inactivityGrace time.Duration
	hostTimeout     time.Duration
	oracleTimeout   time.Duration
	storeTimeout    time.Duration
}

func NewCoordinator(st GameStore, eng oracle.Engine) *Coordinator {
	return &Coordinator{
		store:           st,
		oracle:          eng,
		games:           map[string]*gameRuntime{},
		byCode:          map[string]string{},
		inactivityGrace: defaultInactivityGrace,
		hostTimeout:     defaultHostTimeout,
		oracleTimeout:   defaultOracleTimeout,
		storeTimeout:    defaultStoreTimeout,
	}
}

// Configure overrides the timing knobs; zero values keep the defaults.
func (c *Coordinator) Configure(inactivityGrace, hostTimeout, oracleTimeout, storeTimeout time.Duration) {
	if inactivityGrace > 0 {
		c.inactivityGrace = inactivityGrace
	}
	if hostTimeout > 0 {
		c.hostTimeout = hostTimeout
	}
	if oracleTimeout > 0 {
		c.oracleTimeout = oracleTimeout
	}
	if storeTimeout > 0 {
		c.storeTimeout = storeTimeout
	}
}

// boundedStore derives a context for store calls so a slow or unreachable
// database surfaces a timeout instead of hanging the caller.
func (c *Coordinator) boundedStore(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.storeTimeout)
}

// CreateGame starts a new session with the caller as host. The join code is
// generated and checked against existing games with a bounded number of
// retries.
func (c *Coordinator) CreateGame(ctx context.Context, userID, username string) (JoinResult, error) {
	if userID == "" {
		return JoinResult{}, ErrNotAuthenticated
	}
	if !game.ValidUsername(username) {
		return JoinResult{}, game.ErrInvalidUsername
	}

	code, err := c.reserveCode(ctx)
	if err != nil {
		return JoinResult{}, err
	}

	now := time.Now()
	rt := &gameRuntime{
		id:        store.NewID(),
		code:      code,
		hostID:    userID,
		eng:       game.NewEngine(),
		buffer:    NewEventBuffer(eventBufferSize),
		createdAt: now,
	}
	if _, err := rt.eng.Join(userID, username, now); err != nil {
		return JoinResult{}, err
	}

	c.mu.Lock()
	c.games[rt.id] = rt
	c.byCode[code] = rt.id
	c.mu.Unlock()

	sctx, cancel := c.boundedStore(ctx)
	defer cancel()
	if err := c.store.CreateGame(sctx, store.Game{
		ID:         rt.id,
		Code:       code,
		HostUserID: userID,
		Status:     string(game.StatusWaitingForWorld),
		CreatedAt:  now,
	}); err != nil {
		c.mu.Lock()
		delete(c.games, rt.id)
		delete(c.byCode, code)
		c.mu.Unlock()
		return JoinResult{}, wrapStoreErr(err)
	}
	if err := c.store.UpsertPlayer(sctx, playerRecord(rt.id, mustParticipant(rt.eng, userID))); err != nil {
		log.Error().Err(err).Str("game_id", rt.id).Msg("persist host player failed")
	}

	metricGameCreateTotal.Add(1)
	rt.buffer.Append(EventPlayerJoined, rt.id, map[string]any{"username": username})
	return JoinResult{
		Game:      c.infoLocked(rt),
		UserID:    userID,
		Username:  username,
		IsHost:    true,
		EventsURL: "/api/games/" + rt.id + "/events",
	}, nil
}

func (c *Coordinator) reserveCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := newJoinCode()
		c.mu.Lock()
		_, taken := c.byCode[code]
		c.mu.Unlock()
		if taken {
			continue
		}
		sctx, cancel := c.boundedStore(ctx)
		inUse, err := c.store.CodeInUse(sctx, code)
		cancel()
		if err != nil {
			return "", wrapStoreErr(err)
		}
		if !inUse {
			return code, nil
		}
	}
	return "", ErrCodeSpaceBusy
}

// JoinGame adds a participant to the game behind a join code. An empty
// username gets a generated suggestion. Joining an adventure already in
// progress flags the player for a narrative introduction instead of
// blocking the open turn.
func (c *Coordinator) JoinGame(ctx context.Context, code, userID, username string) (JoinResult, error) {
	if userID == "" {
		return JoinResult{}, ErrNotAuthenticated
	}
	normalized, ok := NormalizeJoinCode(code)
	if !ok {
		return JoinResult{}, ErrInvalidJoinCode
	}
	if username == "" {
		username = RandomUsername()
	}

	rt := c.runtimeByCode(normalized)
	if rt == nil {
		// A row may survive a server restart without a runtime; either
		// way the session is not joinable.
		sctx, cancel := c.boundedStore(ctx)
		_, err := c.store.GetGameByCode(sctx, normalized)
		cancel()
		if err != nil && err != store.ErrNotFound {
			return JoinResult{}, wrapStoreErr(err)
		}
		return JoinResult{}, ErrGameNotFound
	}

	now := time.Now()
	rt.mu.Lock()
	p, err := rt.eng.Join(userID, username, now)
	if err != nil {
		rt.mu.Unlock()
		return JoinResult{}, err
	}
	if p.LateJoiner {
		rt.eng.NoteLateArrival(p.Username)
	}
	rec := playerRecord(rt.id, p)
	res := JoinResult{
		Game:      c.infoLocked(rt),
		UserID:    userID,
		Username:  p.Username,
		IsHost:    userID == rt.hostID,
		EventsURL: "/api/games/" + rt.id + "/events",
	}
	rt.mu.Unlock()

	sctx, cancel := c.boundedStore(ctx)
	defer cancel()
	if err := c.store.UpsertPlayer(sctx, rec); err != nil {
		log.Error().Err(err).Str("game_id", rt.id).Msg("persist player failed")
	}

	metricJoinTotal.Add(1)
	rt.buffer.Append(EventPlayerJoined, rt.id, map[string]any{"username": p.Username})
	return res, nil
}

// LeaveGame removes the caller. A departing host takes the session down
// with them, exactly like an explicit delete.
func (c *Coordinator) LeaveGame(ctx context.Context, gameID, userID string) error {
	rt := c.runtime(gameID)
	if rt == nil {
		return ErrGameNotFound
	}
	if userID == rt.hostID {
		return c.teardown(ctx, rt, "host_left")
	}

	rt.mu.Lock()
	p, ok := rt.eng.Participant(userID)
	var username string
	if ok {
		username = p.Username
		rt.eng.Leave(userID)
	}
	rt.mu.Unlock()
	if !ok {
		return game.ErrNotInGame
	}

	sctx, cancel := c.boundedStore(ctx)
	defer cancel()
	if err := c.store.DeletePlayer(sctx, rt.id, userID); err != nil && err != store.ErrNotFound {
		log.Error().Err(err).Str("game_id", rt.id).Msg("delete player failed")
	}
	rt.buffer.Append(EventPlayerLeft, rt.id, map[string]any{"username": username})
	c.maybeResolve(rt)
	return nil
}

// KickPlayer is host-only: the target and their private files are removed.
func (c *Coordinator) KickPlayer(ctx context.Context, gameID, hostID, targetUserID string) error {
	rt := c.runtime(gameID)
	if rt == nil {
		return ErrGameNotFound
	}
	if hostID != rt.hostID {
		return ErrNotHost
	}

	rt.mu.Lock()
	p, ok := rt.eng.Participant(targetUserID)
	var username string
	if ok {
		username = p.Username
		delete(rt.eng.Files, world.PlayerFileName(username))
		rt.eng.Leave(targetUserID)
	}
	rt.mu.Unlock()
	if !ok {
		return game.ErrNotInGame
	}

	sctx, cancel := c.boundedStore(ctx)
	defer cancel()
	if err := c.store.DeletePlayer(sctx, rt.id, targetUserID); err != nil && err != store.ErrNotFound {
		log.Error().Err(err).Str("game_id", rt.id).Msg("delete kicked player failed")
	}
	rt.buffer.Append(EventPlayerKicked, rt.id, map[string]any{"username": username})
	c.maybeResolve(rt)
	return nil
}

// DeleteGame is the host-only teardown.
func (c *Coordinator) DeleteGame(ctx context.Context, gameID, userID string) error {
	rt := c.runtime(gameID)
	if rt == nil {
		return ErrGameNotFound
	}
	if userID != rt.hostID {
		return ErrNotHost
	}
	return c.teardown(ctx, rt, "host_deleted")
}

// teardown ends the game, notifies every subscriber terminally, removes the
// store rows and discards the runtime.
func (c *Coordinator) teardown(ctx context.Context, rt *gameRuntime, reason string) error {
	rt.mu.Lock()
	rt.eng.End()
	rt.mu.Unlock()

	rt.buffer.Append(EventGameDeleted, rt.id, map[string]any{"reason": reason})
	rt.buffer.Close()

	c.mu.Lock()
	delete(c.games, rt.id)
	delete(c.byCode, rt.code)
	c.mu.Unlock()

	sctx, cancel := c.boundedStore(ctx)
	defer cancel()
	if err := c.store.DeleteGame(sctx, rt.id); err != nil && err != store.ErrNotFound {
		log.Error().Err(err).Str("game_id", rt.id).Str("reason", reason).Msg("delete game row failed")
	}
	log.Info().Str("game_id", rt.id).Str("reason", reason).Msg("game deleted")
	return nil
}

func (c *Coordinator) runtime(gameID string) *gameRuntime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.games[gameID]
}

func (c *Coordinator) runtimeByCode(code string) *gameRuntime {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.byCode[code]; ok {
		return c.games[id]
	}
	return nil
}

// infoLocked snapshots game metadata; callers hold rt.mu or know the
// runtime is freshly built.
func (c *Coordinator) infoLocked(rt *gameRuntime) GameInfo {
	return GameInfo{
		ID:        rt.id,
		Code:      rt.code,
		HostID:    rt.hostID,
		Status:    rt.eng.Status,
		WorldTime: rt.eng.WorldTime,
		Turn:      rt.eng.Turn,
		CreatedAt: rt.createdAt,
	}
}

func playerRecord(gameID string, p *game.Participant) store.Player {
	return store.Player{
		ID:               store.NewID(),
		GameID:           gameID,
		UserID:           p.UserID,
		Username:         p.Username,
		Active:           p.Active,
		Submitted:        p.Submitted,
		CharacterCreated: p.CharacterCreated,
		Dead:             p.Dead,
		LastSeen:         p.LastSeen,
		JoinedAt:         p.JoinedAt,
	}
}

func mustParticipant(e *game.Engine, userID string) *game.Participant {
	p, _ := e.Participant(userID)
	return p
}

func marshalState(e *game.Engine) store.GameState {
	files, err := json.Marshal(e.Files)
	if err != nil {
		files = []byte("{}")
	}
	history, err := json.Marshal(e.History)
	if err != nil {
		history = []byte("[]")
	}
	return store.GameState{WorldTime: e.WorldTime, Files: files, History: history}
}

func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrStoreTimeout
	}
	return err
}
