package server

import (
	"net"
	"testing"
	"time"

	"github.com/siggame/Cerveau-sub002/internal/agent"
	"github.com/siggame/Cerveau-sub002/internal/storage"
	"github.com/siggame/Cerveau-sub002/pkg/api"
)

func startTCP(t *testing.T) (string, *Lobby, *storage.Service) {
	t.Helper()
	store, err := storage.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	lobby := NewLobby(store)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go NewTCPServer(lobby).Serve(ln)

	return ln.Addr().String(), lobby, store
}

func duelPlay(name string) api.PlayData {
	return api.PlayData{
		GameName:     "duel",
		PlayerName:   name,
		ClientType:   "go-bot",
		GameSettings: "trackLength=6",
	}
}

func TestDuelOverTCP(t *testing.T) {
	addr, _, store := startTCP(t)

	alice, err := agent.Dial(addr, duelPlay("alice"), agent.DuelHandler)
	if err != nil {
		t.Fatalf("dial alice: %v", err)
	}
	bob, err := agent.Dial(addr, duelPlay("bob"), agent.DuelHandler)
	if err != nil {
		t.Fatalf("dial bob: %v", err)
	}

	errs := make(chan error, 2)
	go func() { errs <- alice.Play() }()
	go func() { errs <- bob.Play() }()
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			if err != nil {
				t.Fatalf("bot game error: %v", err)
			}
		case <-time.After(15 * time.Second):
			t.Fatal("game did not finish")
		}
	}

	if alice.Session == "" || alice.Session != bob.Session {
		t.Fatalf("bots were not paired: %q vs %q", alice.Session, bob.Session)
	}
	if alice.PlayerID == bob.PlayerID {
		t.Fatalf("bots share player id %q", alice.PlayerID)
	}
	if alice.GamelogFilename == "" {
		t.Fatal("over event carried no gamelog filename")
	}

	// the over event precedes persisting, so poll briefly for the file
	var glog *api.Gamelog
	deadline := time.Now().Add(2 * time.Second)
	for {
		glog, err = store.Load(alice.GamelogFilename)
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("loading gamelog: %v", err)
	}
	if glog.GameName != "duel" || glog.GameSession != alice.Session {
		t.Errorf("gamelog header: %+v", glog)
	}
	if len(glog.Winners) != 1 || len(glog.Losers) != 1 {
		t.Errorf("gamelog outcome: winners=%v losers=%v", glog.Winners, glog.Losers)
	}
	if len(glog.Deltas) == 0 {
		t.Error("gamelog has no deltas")
	}

	// the bots' replayed local state must contain a finished pawn
	finished := false
	for _, id := range alice.FindAll("Pawn") {
		if pos, _ := alice.Object(id)["position"].(float64); pos == 5 {
			finished = true
		}
	}
	if !finished {
		t.Error("no pawn reached the end of the track in the replayed state")
	}
}

func TestUnknownGameIsRefused(t *testing.T) {
	addr, _, _ := startTCP(t)

	bot, err := agent.Dial(addr, api.PlayData{GameName: "chess", PlayerName: "x"}, agent.DuelHandler)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := bot.Play(); err == nil {
		t.Fatal("unknown game was accepted")
	}
}

func TestBadSettingsAreRefused(t *testing.T) {
	addr, _, _ := startTCP(t)

	bot, err := agent.Dial(addr, api.PlayData{
		GameName:     "duel",
		GameSettings: "trackLength=0",
	}, agent.DuelHandler)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := bot.Play(); err == nil {
		t.Fatal("out-of-range setting was accepted")
	}
}

func TestParseSettings(t *testing.T) {
	got, err := parseSettings("maxTurns=20&trackLength=12")
	if err != nil {
		t.Fatalf("parseSettings: %v", err)
	}
	if got["maxTurns"] != "20" || got["trackLength"] != "12" {
		t.Errorf("parseSettings = %v", got)
	}

	if got, err := parseSettings(""); err != nil || got != nil {
		t.Errorf("empty settings = %v, %v", got, err)
	}
	if _, err := parseSettings("%zz"); err == nil {
		t.Error("malformed query accepted")
	}
}
