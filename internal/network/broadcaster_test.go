package network

import (
	"testing"

	"github.com/siggame/Cerveau-sub002/pkg/api"
)

func TestSendToReachesOnlyTheTarget(t *testing.T) {
	b := NewBroadcaster()
	ch0 := b.Register(0)
	ch1 := b.Register(1)

	b.SendTo(0, api.New("delta", nil))

	select {
	case m := <-ch0:
		if m.Event != "delta" {
			t.Errorf("event = %q", m.Event)
		}
	default:
		t.Fatal("target did not receive the message")
	}
	select {
	case <-ch1:
		t.Fatal("unicast leaked to another subscriber")
	default:
	}
}

func TestBroadcastReachesEveryone(t *testing.T) {
	b := NewBroadcaster()
	chans := []chan api.Message{b.Register(0), b.Register(1), b.Register(2)}

	b.Broadcast(api.New("over", nil))

	for i, ch := range chans {
		select {
		case <-ch:
		default:
			t.Errorf("subscriber %d missed the broadcast", i)
		}
	}
}

func TestUnregisterClosesTheChannel(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Register(0)
	b.Unregister(0)

	if _, ok := <-ch; ok {
		t.Error("channel not closed on unregister")
	}
	if b.HasSubscriber(0) {
		t.Error("subscriber still present after unregister")
	}

	// отправка в пустой слот не должна паниковать
	b.SendTo(0, api.New("delta", nil))
}

func TestReRegisterReplacesTheChannel(t *testing.T) {
	b := NewBroadcaster()
	old := b.Register(0)
	fresh := b.Register(0)

	if _, ok := <-old; ok {
		t.Error("old channel not closed on re-register")
	}
	b.SendTo(0, api.New("delta", nil))
	select {
	case <-fresh:
	default:
		t.Error("fresh channel did not receive")
	}
	if b.Count() != 1 {
		t.Errorf("Count() = %d, want 1", b.Count())
	}
}
