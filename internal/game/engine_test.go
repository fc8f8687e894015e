package game

import (
	"errors"
	"testing"
	"time"

	"storyloom/internal/oracle"
	"storyloom/internal/world"
)

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func activeEngine(t *testing.T, usernames ...string) *Engine {
	t.Helper()
	e := NewEngine()
	if err := e.SetWorldDescription("a haunted manor"); err != nil {
		t.Fatalf("set world: %v", err)
	}
	for i, name := range usernames {
		if _, err := e.Join("u"+name, name, t0.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		if err := e.Submit("u"+name, "a character named "+name, true); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if !e.BarrierSatisfied() {
		t.Fatal("creation barrier should be satisfied")
	}
	if !e.BeginResolve() {
		t.Fatal("begin resolve")
	}
	e.ApplyResult(oracle.TurnResult{Narrative: "The manor awaits.", TimeDelta: 10}, t0)
	if e.Status != StatusActive {
		t.Fatalf("status = %s, want active", e.Status)
	}
	return e
}

func TestStatusTransitions(t *testing.T) {
	e := NewEngine()
	if e.Status != StatusWaitingForWorld {
		t.Fatalf("initial status = %s", e.Status)
	}
	if err := e.Submit("u1", "hello", false); !errors.Is(err, ErrWrongStatus) {
		t.Fatalf("submit before world: %v", err)
	}
	if err := e.SetWorldDescription("a manor"); err != nil {
		t.Fatalf("set world: %v", err)
	}
	if e.Status != StatusWaitingForCharacters {
		t.Fatalf("status = %s", e.Status)
	}
	if err := e.SetWorldDescription("again"); !errors.Is(err, ErrWrongStatus) {
		t.Fatal("second description accepted")
	}
	e.End()
	if err := e.Submit("u1", "x", false); !errors.Is(err, ErrGameEnded) {
		t.Fatalf("submit after end: %v", err)
	}
}

func TestJoinValidation(t *testing.T) {
	e := NewEngine()
	if _, err := e.Join("u1", "al", t0); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("short name: %v", err)
	}
	if _, err := e.Join("u1", "has spaces!", t0); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("bad chars: %v", err)
	}
	if _, err := e.Join("u1", "alice", t0); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := e.Join("u2", "alice", t0); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("dup name: %v", err)
	}
	// Same identity rejoining is fine.
	if _, err := e.Join("u1", "alice", t0.Add(time.Minute)); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
}

func TestCreationPhaseRejectsPlainSubmissions(t *testing.T) {
	e := NewEngine()
	if err := e.SetWorldDescription("a haunted manor"); err != nil {
		t.Fatalf("set world: %v", err)
	}
	e.Join("ualice", "alice", t0)
	e.Join("ubob", "bob", t0)

	if err := e.Submit("ualice", "look around", false); !errors.Is(err, ErrCharacterRequired) {
		t.Fatalf("plain submit without character: %v", err)
	}
	if err := e.Submit("ubob", "open the door", false); !errors.Is(err, ErrCharacterRequired) {
		t.Fatalf("plain submit without character: %v", err)
	}
	if e.BarrierSatisfied() {
		t.Fatal("barrier satisfied with zero characters created")
	}
	if e.Turn != 0 || e.Status != StatusWaitingForCharacters {
		t.Fatalf("progressed without characters: status=%s turn=%d", e.Status, e.Turn)
	}

	// One creation is not enough; the phase waits for everyone joined.
	if err := e.Submit("ualice", "a character named alice", true); err != nil {
		t.Fatalf("creation: %v", err)
	}
	if e.BarrierSatisfied() {
		t.Fatal("barrier satisfied with bob uncreated")
	}
	if err := e.Submit("ubob", "a character named bob", true); err != nil {
		t.Fatalf("creation: %v", err)
	}
	if !e.BarrierSatisfied() {
		t.Fatal("creation barrier should be satisfied")
	}
}

func TestUncreatedLateJoinerCannotAct(t *testing.T) {
	e := activeEngine(t, "alice")
	e.Join("ucarol", "carol", t0)

	if err := e.Submit("ucarol", "look around", false); !errors.Is(err, ErrCharacterRequired) {
		t.Fatalf("plain submit before introduction: %v", err)
	}
	if err := e.Submit("ucarol", "a wandering bard", true); err != nil {
		t.Fatalf("creation: %v", err)
	}
}

func TestBarrierRequiresAllActiveAlive(t *testing.T) {
	e := activeEngine(t, "alice", "bob", "carol")

	if e.BarrierSatisfied() {
		t.Fatal("barrier satisfied with no submissions")
	}
	if err := e.Submit("ualice", "look around", false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := e.Submit("ubob", "open the door", false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if e.BarrierSatisfied() {
		t.Fatal("barrier satisfied with carol pending")
	}

	// Marking carol inactive (debounced) drops the required count to 2.
	if err := e.Heartbeat("ucarol", false, t0); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if e.BarrierSatisfied() {
		t.Fatal("inactivity applied before grace window")
	}
	if !e.ApplyInactivity(3*time.Second, t0.Add(4*time.Second)) {
		t.Fatal("inactivity not applied after grace")
	}
	if !e.BarrierSatisfied() {
		t.Fatal("barrier should ignore inactive carol")
	}
}

func TestInactivityDebounceCancelledByHeartbeat(t *testing.T) {
	e := activeEngine(t, "alice")
	if err := e.Heartbeat("ualice", false, t0); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	// Focus comes back within the grace window.
	if err := e.Heartbeat("ualice", true, t0.Add(time.Second)); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if e.ApplyInactivity(3*time.Second, t0.Add(10*time.Second)) {
		t.Fatal("cancelled inactivity still applied")
	}
	p, _ := e.Participant("ualice")
	if !p.Active {
		t.Fatal("participant flipped inactive")
	}
}

func TestSingleFlightResolve(t *testing.T) {
	e := activeEngine(t, "alice")
	if err := e.Submit("ualice", "look", false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !e.BeginResolve() {
		t.Fatal("first claim failed")
	}
	if e.BeginResolve() {
		t.Fatal("second claim succeeded while in flight")
	}
	e.ApplyResult(oracle.TurnResult{Narrative: "done", TimeDelta: 5}, t0)
	if e.Resolving() {
		t.Fatal("flight flag not cleared")
	}
	if !e.BeginResolve() {
		t.Fatal("claim failed after commit")
	}
}

func TestApplyResultCommitsTurn(t *testing.T) {
	e := activeEngine(t, "alice")
	before := e.WorldTime
	if err := e.Submit("ualice", "look", false); err != nil {
		t.Fatalf("submit: %v", err)
	}
	e.BeginResolve()
	e.ApplyResult(oracle.TurnResult{
		Narrative:   "alice looks around.",
		LiveUpdates: []string{"Time +12s", "alice: Health -5", "quiet"},
		FileUpdates: []world.FileUpdate{
			{Name: "Location_Hall.txt", Content: "a dusty hall", Type: world.FileLocation, Op: world.OpCreate},
		},
		TimeDelta: 12,
	}, t0)

	if e.WorldTime != before+12 {
		t.Fatalf("world time = %d, want %d", e.WorldTime, before+12)
	}
	if _, ok := e.Files["Location_Hall.txt"]; !ok {
		t.Fatal("file batch not applied")
	}
	p, _ := e.Participant("ualice")
	if p.Submitted || p.PendingInput != "" {
		t.Fatal("submission flags not reset")
	}
	if e.LiveUpdates[0].Text != "quiet" || e.LiveUpdates[0].Tone != ToneNeutral {
		t.Fatalf("ticker head = %+v", e.LiveUpdates[0])
	}
	last := e.History[len(e.History)-1]
	if last.Kind != EntryNarrative || last.Text != "alice looks around." {
		t.Fatalf("history tail = %+v", last)
	}
}

func TestInitialTimeHonoredOnlyAtZero(t *testing.T) {
	e := NewEngine()
	e.SetWorldDescription("a manor")
	e.Join("u1", "alice", t0)
	e.Submit("u1", "a knight", true)
	e.BeginResolve()
	e.ApplyResult(oracle.TurnResult{Narrative: "n", TimeDelta: 5, InitialTime: "36000"}, t0)
	if e.WorldTime != 36000 {
		t.Fatalf("world time = %d, want initial 36000", e.WorldTime)
	}

	e.Submit("u1", "walk", false)
	e.BeginResolve()
	e.ApplyResult(oracle.TurnResult{Narrative: "n", TimeDelta: 5, InitialTime: "99"}, t0)
	if e.WorldTime != 36005 {
		t.Fatalf("world time = %d, initialTime must be ignored after turn zero", e.WorldTime)
	}
}

func TestOracleFailurePreservesFlags(t *testing.T) {
	e := activeEngine(t, "alice", "bob")
	e.Submit("ualice", "look", false)
	e.Submit("ubob", "listen", false)
	if !e.BeginResolve() {
		t.Fatal("claim")
	}
	e.FailResolve(errors.New("oracle unreachable"), t0)

	for _, id := range []string{"ualice", "ubob"} {
		p, _ := e.Participant(id)
		if !p.Submitted || p.PendingInput == "" {
			t.Fatalf("%s flags cleared on failure", id)
		}
	}
	last := e.History[len(e.History)-1]
	if last.Kind != EntryError {
		t.Fatalf("no error entry, tail = %+v", last)
	}
	// Host retry path: inputs still pending, force requests a resolve.
	if !e.ForceTurn() {
		t.Fatal("force with pending inputs should resolve")
	}
}

func TestForceTurnResetsFlagsWhenNothingPending(t *testing.T) {
	e := activeEngine(t, "alice", "bob")
	e.Submit("ualice", "look", false)
	p, _ := e.Participant("ualice")
	p.PendingInput = "" // submitted flag stuck without input
	if e.ForceTurn() {
		t.Fatal("force with no pending inputs should not resolve")
	}
	if p.Submitted {
		t.Fatal("submitted flag not reset")
	}
}

func TestLateJoinerDoesNotBlockBarrier(t *testing.T) {
	e := activeEngine(t, "alice", "bob")
	e.Submit("ualice", "look", false)
	e.Submit("ubob", "listen", false)

	// carol arrives mid-adventure before the barrier check runs.
	p, err := e.Join("ucarol", "carol", t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("late join: %v", err)
	}
	if !p.LateJoiner {
		t.Fatal("late joiner not flagged")
	}
	e.NoteLateArrival("carol")

	if !e.BarrierSatisfied() {
		t.Fatal("late joiner without a character blocked the barrier")
	}
	e.BeginResolve()
	req := e.BuildTurnRequest()
	found := false
	for _, note := range req.SystemNotes {
		if note == "carol has joined the adventure mid-story; introduce them into the scene." {
			found = true
		}
	}
	if !found {
		t.Fatalf("arrival note missing: %+v", req.SystemNotes)
	}
}

func TestSoloLateCreationCarriesTurn(t *testing.T) {
	e := activeEngine(t, "alice")
	// alice goes inactive; carol joins late and submits a character.
	e.Heartbeat("ualice", false, t0)
	e.ApplyInactivity(0, t0)
	e.Join("ucarol", "carol", t0)
	if err := e.Submit("ucarol", "a wandering bard", true); err != nil {
		t.Fatalf("creation submit: %v", err)
	}
	if !e.BarrierSatisfied() {
		t.Fatal("pending creation with empty required set should resolve")
	}
}

func TestDeathLifecycle(t *testing.T) {
	e := activeEngine(t, "alice", "bob")
	e.Submit("ualice", "charge the dragon", false)
	e.Submit("ubob", "hide", false)
	e.BeginResolve()
	died := e.ApplyResult(oracle.TurnResult{
		Narrative: "The dragon strikes alice down.",
		FileUpdates: []world.FileUpdate{
			{Name: world.PlayerFileName("alice"), Content: "Status: DEAD", Type: world.FilePlayer, Op: world.OpUpdate},
		},
		TimeDelta: 6,
	}, t0)

	if len(died) != 1 || died[0] != "alice" {
		t.Fatalf("died = %v", died)
	}
	if _, ok := e.Files[world.PlayerFileName("alice")]; ok {
		t.Fatal("dead player's private file not deleted")
	}
	p, _ := e.Participant("ualice")
	if !p.Dead {
		t.Fatal("participant not marked dead")
	}
	if err := e.Submit("ualice", "get up", false); !errors.Is(err, ErrPlayerDead) {
		t.Fatalf("dead submission accepted: %v", err)
	}
	// A new character creation lifts the bar.
	if err := e.Submit("ualice", "a vengeful twin", true); err != nil {
		t.Fatalf("creation after death rejected: %v", err)
	}
	if p.Dead {
		t.Fatal("death bar not cleared by creation")
	}
}

func TestBuildTurnRequestWindowAndOrder(t *testing.T) {
	e := activeEngine(t, "alice", "bob")
	for i := 0; i < 30; i++ {
		e.AppendLog(EntrySystem, "entry", t0)
	}
	e.Submit("ubob", "second", false)
	e.Submit("ualice", "first", false)
	req := e.BuildTurnRequest()

	if len(req.History) != 15 {
		t.Fatalf("history window = %d, want 15", len(req.History))
	}
	// Inputs follow join order regardless of submission order.
	if len(req.Inputs) != 2 || req.Inputs[0].Username != "alice" || req.Inputs[1].Username != "bob" {
		t.Fatalf("inputs = %+v", req.Inputs)
	}
	if len(req.Files) == 0 {
		t.Fatal("files missing from request")
	}
}

func TestClassifyUpdate(t *testing.T) {
	cases := []struct {
		text string
		want Tone
	}{
		{"Health -5", ToneBad},
		{"Gold +10", ToneGood},
		{"Health -5 Stamina +2", ToneBad},
		{"The rain stops", ToneNeutral},
	}
	for _, tc := range cases {
		if got := ClassifyUpdate(tc.text); got != tc.want {
			t.Fatalf("ClassifyUpdate(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestLiveUpdateCap(t *testing.T) {
	e := NewEngine()
	for i := 0; i < liveUpdateCap+10; i++ {
		e.AppendLiveUpdate("tick")
	}
	if len(e.LiveUpdates) != liveUpdateCap {
		t.Fatalf("ticker length = %d, want %d", len(e.LiveUpdates), liveUpdateCap)
	}
}
