package game

import (
	"io"
	"log"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"candy-rush/models"
)

type sentEvent struct {
	Type string
	Data any
}

type fakeConn struct {
	events chan sentEvent
	closed atomic.Bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan sentEvent, 8192)}
}

func (f *fakeConn) Send(msgType string, data any) error {
	select {
	case f.events <- sentEvent{Type: msgType, Data: data}:
	default:
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.closed.Store(true)
	return nil
}

// waitFor skips events until one of msgType arrives.
func (f *fakeConn) waitFor(t *testing.T, msgType string) sentEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-f.events:
			if ev.Type == msgType {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", msgType)
		}
	}
}

// drainFor collects every event sent during d.
func (f *fakeConn) drainFor(d time.Duration) []sentEvent {
	var out []sentEvent
	timeout := time.After(d)
	for {
		select {
		case ev := <-f.events:
			out = append(out, ev)
		case <-timeout:
			return out
		}
	}
}

func payload(t *testing.T, ev sentEvent) map[string]any {
	t.Helper()
	m, ok := ev.Data.(map[string]any)
	if !ok {
		t.Fatalf("%s payload is %T, want map", ev.Type, ev.Data)
	}
	return m
}

func errorCode(t *testing.T, ev sentEvent) string {
	t.Helper()
	code, _ := payload(t, ev)["code"].(string)
	return code
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// fastTuning shrinks every delay so real-time room tests finish quickly.
func fastTuning() Tuning {
	tuning := DefaultTuning()
	tuning.TickRate = 5 * time.Millisecond
	tuning.SpawnPoll = 5 * time.Millisecond
	tuning.StartGrace = 10 * time.Millisecond
	tuning.ResetDelay = 60 * time.Millisecond
	tuning.CandyInterval = 10 * time.Millisecond
	tuning.MinCandyInterval = 10 * time.Millisecond
	tuning.ObstacleInterval = 10 * time.Millisecond
	tuning.MinObstacleInterval = 10 * time.Millisecond
	return tuning
}

func newTestSession(mode models.Mode) *Session {
	return NewSession("TEST01", mode, DefaultTuning(), rand.New(rand.NewSource(1)))
}

// activeSession seats n players and starts the match at start.
func activeSession(t *testing.T, mode models.Mode, n int, start time.Time) *Session {
	t.Helper()
	s := newTestSession(mode)
	for i := 0; i < n; i++ {
		if _, err := s.AddPlayer(string(rune('a'+i)), "", ""); err != nil {
			t.Fatalf("add player %d: %v", i, err)
		}
	}
	if err := s.StartCustomization(); err != nil {
		t.Fatalf("start customization: %v", err)
	}
	for _, p := range s.Players() {
		if _, _, err := s.MarkReady(p.ID); err != nil {
			t.Fatalf("ready %s: %v", p.ID, err)
		}
	}
	if err := s.BeginMatch(start); err != nil {
		t.Fatalf("begin match: %v", err)
	}
	return s
}
