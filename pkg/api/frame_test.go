package api

import (
	"bytes"
	"io"
	"testing"
)

// drip feeds the underlying reader one byte at a time to exercise frame
// reassembly from partial reads.
type drip struct{ r io.Reader }

func (d drip) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return d.r.Read(p)
}

func TestFramerReassemblesPartialReads(t *testing.T) {
	var buf bytes.Buffer
	first := New(EventPlay, PlayData{GameName: "duel", PlayerName: "alice"})
	second := New(EventFinished, FinishedData{OrderIndex: 3})
	if err := WriteMessage(&buf, first); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if err := WriteMessage(&buf, second); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	f := NewFramer(drip{&buf})

	got, err := f.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if got.Event != EventPlay {
		t.Errorf("first event = %q", got.Event)
	}

	got, err = f.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if got.Event != EventFinished {
		t.Errorf("second event = %q", got.Event)
	}

	if _, err := f.ReadMessage(); err != io.EOF {
		t.Errorf("after last frame err = %v, want EOF", err)
	}
}

func TestFramerRejectsMalformedFrame(t *testing.T) {
	f := NewFramer(bytes.NewReader(append([]byte("{not json"), EOT)))
	if _, err := f.ReadMessage(); err == nil {
		t.Error("malformed frame accepted")
	}
}

func TestPlayDataValidate(t *testing.T) {
	if err := (PlayData{}).Validate(); err == nil {
		t.Error("empty gameName accepted")
	}
	if err := (PlayData{GameName: "duel"}).Validate(); err != nil {
		t.Errorf("valid play rejected: %v", err)
	}
}
