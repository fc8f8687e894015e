// Command scripted-player joins a running game over HTTP and plays a canned
// sequence of actions. Useful for exercising a server by hand: start a game
// in one terminal, point the bot at its join code in another.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"storyloom/internal/config"

	"github.com/joho/godotenv"
)

var actions = []string{
	"I look around and take stock of my surroundings.",
	"I talk to the nearest person and ask about this place.",
	"I search the area for anything useful.",
	"I rest for a while and keep watch.",
	"I press on toward whatever looks interesting.",
}

type client struct {
	base   string
	userID string
	http   *http.Client
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.JoinCode == "" {
		log.Fatal("JOIN_CODE is required")
	}

	c := &client{base: cfg.ServerURL, userID: cfg.UserID, http: &http.Client{Timeout: 10 * time.Second}}

	var join struct {
		Game struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"game"`
		Username string `json:"username"`
	}
	if err := c.post("/api/games/join", map[string]string{
		"code":     cfg.JoinCode,
		"username": cfg.Username,
	}, &join); err != nil {
		log.Fatalf("join: %v", err)
	}
	log.Printf("joined game %s as %s", join.Game.ID, join.Username)

	gamePath := "/api/games/" + join.Game.ID

	if err := c.post(gamePath+"/actions", map[string]any{
		"input":              fmt.Sprintf("%s, a wandering adventurer with quick wits.", join.Username),
		"character_creation": true,
	}, nil); err != nil {
		log.Fatalf("character creation: %v", err)
	}
	log.Printf("character submitted")

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	lastTurn := -1
	for {
		time.Sleep(2 * time.Second)
		if err := c.post(gamePath+"/heartbeat", map[string]bool{"is_active": true}, nil); err != nil {
			log.Fatalf("heartbeat: %v", err)
		}

		var state struct {
			Game struct {
				Status string `json:"status"`
				Turn   int    `json:"turn"`
			} `json:"game"`
			You *struct {
				Submitted bool `json:"has_sent_turn"`
				Dead      bool `json:"is_dead"`
			} `json:"you"`
		}
		if err := c.get(gamePath+"/state", &state); err != nil {
			log.Fatalf("state: %v", err)
		}
		if state.Game.Status == "ended" {
			log.Printf("game over")
			return
		}
		if state.Game.Status != "active" || state.You == nil || state.You.Submitted || state.You.Dead {
			continue
		}
		if state.Game.Turn == lastTurn {
			continue
		}
		input := actions[rnd.Intn(len(actions))]
		if err := c.post(gamePath+"/actions", map[string]any{"input": input}, nil); err != nil {
			log.Fatalf("action: %v", err)
		}
		lastTurn = state.Game.Turn
		log.Printf("turn %d: %s", state.Game.Turn, input)
	}
}

func (c *client) post(path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", c.userID)
	return c.do(req, out)
}

func (c *client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-User-ID", c.userID)
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		return fmt.Errorf("%s %s: %d %s", req.Method, req.URL.Path, res.StatusCode, e.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
