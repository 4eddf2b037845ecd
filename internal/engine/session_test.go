package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/siggame/Cerveau-sub002/internal/delta"
	"github.com/siggame/Cerveau-sub002/internal/games/duel"
	"github.com/siggame/Cerveau-sub002/pkg/api"
)

// startDuel joins two clients into a fresh duel session and starts it.
func startDuel(t *testing.T, overrides map[string]string) (*Session, chan api.Message, chan api.Message) {
	t.Helper()
	s, err := NewSession(duel.Def(), overrides, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	_, c0, err := s.Join("alice", "test-client")
	if err != nil {
		t.Fatalf("Join alice: %v", err)
	}
	_, c1, err := s.Join("bob", "test-client")
	if err != nil {
		t.Fatalf("Join bob: %v", err)
	}
	if !s.Full() {
		t.Fatal("session not full after two joins")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		s.Leave(0)
		s.Leave(1)
	})
	return s, c0, c1
}

// await reads ch until event arrives, collecting any deltas seen on the way.
func await(t *testing.T, ch chan api.Message, event string, deltas *[]any) api.Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed while waiting for %q", event)
			}
			if m.Event == api.EventDelta && deltas != nil {
				var d any
				if err := json.Unmarshal(m.Data, &d); err != nil {
					t.Fatalf("unmarshaling delta: %v", err)
				}
				*deltas = append(*deltas, d)
			}
			if m.Event == event {
				return m
			}
			if m.Event == api.EventFatal && event != api.EventFatal {
				t.Fatalf("got fatal %s while waiting for %q", m.Data, event)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", event)
		}
	}
}

func decode[T any](t *testing.T, m api.Message) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(m.Data, &v); err != nil {
		t.Fatalf("decoding %s data: %v", m.Event, err)
	}
	return v
}

func run(caller, function string, args map[string]any) api.Message {
	return api.New(api.EventRun, api.RunData{
		Caller:       api.CallerRef{ID: caller},
		FunctionName: function,
		Args:         args,
	})
}

func finished(index int, returned any) api.Message {
	raw, _ := json.Marshal(returned)
	return api.New(api.EventFinished, api.FinishedData{OrderIndex: index, Returned: raw})
}

// pawnID finds the pawn owned by the player at the given slot. Object IDs
// are assigned in construction order: players first, then one pawn each.
func pawnID(t *testing.T, s *Session, playerIndex int) string {
	t.Helper()
	player := s.Game().Players[playerIndex]
	for _, o := range s.Game().Objects() {
		if p, ok := o.(*duel.Pawn); ok && p.Owner == player {
			return p.ObjectID()
		}
	}
	t.Fatalf("no pawn for player %d", playerIndex)
	return ""
}

func TestDuelEndToEnd(t *testing.T) {
	s, c0, c1 := startDuel(t, map[string]string{
		"trackLength":        "5",
		"playerStartingTime": "1000000000",
	})

	start0 := decode[api.StartData](t, await(t, c0, api.EventStart, nil))
	start1 := decode[api.StartData](t, await(t, c1, api.EventStart, nil))
	if start0.PlayerID == start1.PlayerID {
		t.Fatalf("both clients got player id %q", start0.PlayerID)
	}

	pawn0 := pawnID(t, s, 0)
	pawn1 := pawnID(t, s, 1)

	// every broadcast delta is collected from client 1's channel and
	// replayed over an empty snapshot at the end
	var deltas []any

	// turn 0: alice advances 3 and ends her turn
	order := decode[api.OrderData](t, await(t, c0, api.EventOrder, nil))
	if order.Name != "runTurn" {
		t.Fatalf("first order = %q, want runTurn", order.Name)
	}
	s.Deliver(0, run(pawn0, "advance", map[string]any{"steps": 3}))
	ran := await(t, c0, api.EventRan, nil)
	var ranValue any
	if err := json.Unmarshal(ran.Data, &ranValue); err != nil || ranValue != true {
		t.Fatalf("ran data = %s, want true", ran.Data)
	}
	s.Deliver(0, finished(order.Index, true))

	// turn 1: bob's order arrives, meaning the turn advanced
	order1 := decode[api.OrderData](t, await(t, c1, api.EventOrder, &deltas))
	s.Deliver(1, run(pawn1, "advance", map[string]any{"steps": 1}))
	await(t, c1, api.EventRan, &deltas)
	s.Deliver(1, finished(order1.Index, true))

	// turn 2: alice reaches the end of the track and wins
	order2 := decode[api.OrderData](t, await(t, c0, api.EventOrder, nil))
	s.Deliver(0, run(pawn0, "advance", map[string]any{"steps": 1}))
	await(t, c0, api.EventRan, nil)
	s.Deliver(0, finished(order2.Index, true))

	await(t, c1, api.EventOver, &deltas)
	<-s.Done()

	g := s.Game()
	if !g.Players[0].Won || g.Players[0].ReasonWon != "Reached the end of the track." {
		t.Errorf("winner state: won=%v reason=%q", g.Players[0].Won, g.Players[0].ReasonWon)
	}
	if !g.Players[1].Lost {
		t.Error("loser not marked lost")
	}

	// replaying the collected deltas over an empty snapshot must rebuild
	// the final state
	var state any = map[string]any{}
	sent := delta.DefaultSentinels()
	for _, d := range deltas {
		state = delta.Apply(state, d, sent)
	}
	root, ok := state.(map[string]any)
	if !ok {
		t.Fatalf("replayed state is %T", state)
	}
	objects, ok := root["gameObjects"].(map[string]any)
	if !ok {
		t.Fatalf("replayed state has no gameObjects: %v", root)
	}
	pawn, ok := objects[pawn0].(map[string]any)
	if !ok {
		t.Fatalf("replayed state has no pawn %q", pawn0)
	}
	if pos, _ := pawn["position"].(float64); pos != 4 {
		t.Errorf("replayed pawn position = %v, want 4", pawn["position"])
	}
	if turn, _ := root["currentTurn"].(float64); turn != 2 {
		t.Errorf("replayed currentTurn = %v, want 2", root["currentTurn"])
	}
}

func TestOffTurnRunIsInvalidAndMutatesNothing(t *testing.T) {
	s, c0, c1 := startDuel(t, nil)

	order := decode[api.OrderData](t, await(t, c0, api.EventOrder, nil))

	// bob tries to act during alice's turn
	pawn1 := pawnID(t, s, 1)
	s.Deliver(1, run(pawn1, "advance", map[string]any{"steps": 2}))

	invalid := decode[api.InvalidData](t, await(t, c1, api.EventInvalid, nil))
	if invalid.Message != "It is not your turn." {
		t.Errorf("invalid message = %q", invalid.Message)
	}
	// the blocked client still gets a ran so it can resume
	await(t, c1, api.EventRan, nil)

	// finish alice's turn without moving; the refused run must not have
	// produced a state delta for bob's pawn
	var deltas []any
	s.Deliver(0, finished(order.Index, true))
	await(t, c1, api.EventOrder, &deltas)
	for _, d := range deltas {
		raw, _ := json.Marshal(d)
		var probe struct {
			GameObjects map[string]map[string]any `json:"gameObjects"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		if p, ok := probe.GameObjects[pawn1]; ok {
			if _, moved := p["position"]; moved {
				t.Errorf("refused run moved the pawn: %v", p)
			}
		}
	}
}

func TestUnknownFunctionIsInvalidNotFatal(t *testing.T) {
	s, c0, _ := startDuel(t, nil)

	order := decode[api.OrderData](t, await(t, c0, api.EventOrder, nil))
	pawn0 := pawnID(t, s, 0)

	s.Deliver(0, run(pawn0, "teleport", map[string]any{"to": 9}))
	invalid := decode[api.InvalidData](t, await(t, c0, api.EventInvalid, nil))
	if invalid.Message == "" {
		t.Error("empty invalid message")
	}
	await(t, c0, api.EventRan, nil)

	// the client is still in the game and can finish its turn
	s.Deliver(0, finished(order.Index, true))
	if s.Over() {
		t.Error("session ended after a merely invalid run")
	}
}

func TestUnknownCallerDisconnects(t *testing.T) {
	s, c0, c1 := startDuel(t, nil)

	await(t, c0, api.EventOrder, nil)
	s.Deliver(0, run("999", "advance", map[string]any{"steps": 1}))

	await(t, c0, api.EventFatal, nil)
	await(t, c1, api.EventOver, nil)
	<-s.Done()

	g := s.Game()
	if !g.Players[0].Lost {
		t.Error("disconnected player not marked lost")
	}
	if !g.Players[1].Won || g.Players[1].ReasonWon != "All other players disconnected." {
		t.Errorf("remaining player: won=%v reason=%q", g.Players[1].Won, g.Players[1].ReasonWon)
	}
}

func TestOrderRetryCeilingDisconnects(t *testing.T) {
	s, c0, c1 := startDuel(t, nil)

	order := decode[api.OrderData](t, await(t, c0, api.EventOrder, nil))

	// answer the order with a non-boolean ten times; each of the first
	// nine must re-send the same order index, the tenth must disconnect
	for i := 0; i < OrderRetryLimit; i++ {
		s.Deliver(0, finished(order.Index, map[string]any{"not": "a bool"}))
		if i < OrderRetryLimit-1 {
			again := decode[api.OrderData](t, await(t, c0, api.EventOrder, nil))
			if again.Index != order.Index {
				t.Fatalf("retry %d re-sent index %d, want %d", i+1, again.Index, order.Index)
			}
		}
	}

	fatal := decode[api.FatalData](t, await(t, c0, api.EventFatal, nil))
	if fatal.Message == "" {
		t.Error("empty fatal reason")
	}
	await(t, c1, api.EventOver, nil)
	<-s.Done()

	// the order never resolved, so the turn never advanced
	if got := s.Game().CurrentTurn; got != 0 {
		t.Errorf("turn advanced to %d despite the order never resolving", got)
	}
	if !s.Game().Players[1].Won {
		t.Error("remaining player did not win")
	}
}

func TestLeaveDeclaresRemainingPlayerWinner(t *testing.T) {
	s, c0, c1 := startDuel(t, nil)

	await(t, c0, api.EventOrder, nil)
	s.Leave(0)

	await(t, c1, api.EventOver, nil)
	<-s.Done()

	g := s.Game()
	if !g.Players[0].Lost || g.Players[0].ReasonLost != "Disconnected during gameplay." {
		t.Errorf("leaver: lost=%v reason=%q", g.Players[0].Lost, g.Players[0].ReasonLost)
	}
	if !g.Players[1].Won {
		t.Error("remaining player did not win")
	}
}

func TestTimeoutForfeits(t *testing.T) {
	// 30ms budget, never answer the first order
	s, c0, c1 := startDuel(t, map[string]string{"playerStartingTime": "30000000"})

	await(t, c0, api.EventOrder, nil)
	fatal := decode[api.FatalData](t, await(t, c0, api.EventFatal, nil))
	if fatal.Message != "You ran out of time." {
		t.Errorf("fatal message = %q", fatal.Message)
	}
	await(t, c1, api.EventOver, nil)
	<-s.Done()

	g := s.Game()
	if !g.Players[0].Lost || g.Players[0].ReasonLost != "Ran out of time." {
		t.Errorf("timed-out player: lost=%v reason=%q", g.Players[0].Lost, g.Players[0].ReasonLost)
	}
	if g.Players[0].TimeRemaining != 0 {
		t.Errorf("timed-out player has %d ns left", g.Players[0].TimeRemaining)
	}
	if !g.Players[1].Won || g.Players[1].ReasonWon != "All other players timed out." {
		t.Errorf("remaining player: won=%v reason=%q", g.Players[1].Won, g.Players[1].ReasonWon)
	}
}

func TestSettingsRejectionFailsSessionCreation(t *testing.T) {
	if _, err := NewSession(duel.Def(), map[string]string{"nope": "1"}, nil); err == nil {
		t.Error("unknown setting accepted")
	}
	if _, err := NewSession(duel.Def(), map[string]string{"trackLength": "1"}, nil); err == nil {
		t.Error("out-of-range setting accepted")
	}
}
