package commands

import (
	"bytes"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kamisado/internal/client/session"
	"kamisado/internal/server/board"
	serverhttp "kamisado/internal/server/http"
	"kamisado/internal/server/processor"
	"kamisado/internal/server/service"
	"kamisado/internal/server/storage"
)

// scriptedPrompter answers prompts in order
type scriptedPrompter struct {
	answers []string
}

func (p *scriptedPrompter) next() string {
	if len(p.answers) == 0 {
		return ""
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a
}

func (p *scriptedPrompter) Line(string) (string, error)     { return p.next(), nil }
func (p *scriptedPrompter) Password(string) (string, error) { return p.next(), nil }

// startServer runs the full API on a loopback port
func startServer(t *testing.T, withStorage bool) string {
	t.Helper()

	var store *storage.Store
	if withStorage {
		var err error
		store, err = storage.NewStore(filepath.Join(t.TempDir(), "kamisado.db"), false)
		if err != nil {
			t.Fatalf("store: %v", err)
		}
		if err := store.InitDB(); err != nil {
			t.Fatalf("init: %v", err)
		}
	}

	svc := service.New(board.Default(), store, []byte("test-secret-minimum-32-characters-long"))
	proc := processor.New(svc, 1)
	app := serverhttp.NewFiberApp(proc, svc, true)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go app.Listener(ln)

	t.Cleanup(func() {
		app.Shutdown()
		proc.Close()
		svc.Shutdown(time.Second)
		if store != nil {
			store.Close()
		}
	})
	return "http://" + ln.Addr().String()
}

func newTestRegistry(t *testing.T, url string, answers ...string) (*Registry, *session.Session, *bytes.Buffer) {
	t.Helper()
	s := session.New(url)
	r := NewRegistry(s, &scriptedPrompter{answers: answers})
	buf := &bytes.Buffer{}
	r.SetOutput(buf)
	return r, s, buf
}

func TestParsePlayer(t *testing.T) {
	tests := []struct {
		arg     string
		typ     int
		level   int
		search  int
		wantErr bool
	}{
		{"", 1, 0, 0, false},
		{"h", 1, 0, 0, false},
		{"c", 2, defaultLevel, defaultSearchTime, false},
		{"c3", 2, 3, defaultSearchTime, false},
		{"C1/500", 2, 1, 500, false},
		{"c/250", 2, defaultLevel, 250, false},
		{"cx", 0, 0, 0, true},
		{"c2/fast", 0, 0, 0, true},
		{"robot", 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			cfg, err := parsePlayer(tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if int(cfg.Type) != tt.typ || cfg.Level != tt.level || cfg.SearchTime != tt.search {
				t.Fatalf("unexpected config %+v", cfg)
			}
		})
	}
}

func TestParseColumn(t *testing.T) {
	for in, want := range map[string]int{"a": 0, "d": 3, "h": 7, "0": 0, "7": 7} {
		if got, err := parseColumn(in); err != nil || got != want {
			t.Fatalf("parseColumn(%q) = %d, %v", in, got, err)
		}
	}
	for _, bad := range []string{"i", "8", "-1", "dd"} {
		if _, err := parseColumn(bad); err == nil {
			t.Fatalf("parseColumn(%q): expected error", bad)
		}
	}
}

func TestRegistryDispatch(t *testing.T) {
	r, _, buf := newTestRegistry(t, "http://127.0.0.1:1")

	if !r.Execute("bogus") || !strings.Contains(buf.String(), "Unknown command") {
		t.Fatalf("unknown command not reported:\n%s", buf)
	}

	buf.Reset()
	r.Execute("help")
	for _, name := range []string{"select", "computer", "logout", "health"} {
		if !strings.Contains(buf.String(), name) {
			t.Fatalf("help missing %q:\n%s", name, buf)
		}
	}

	buf.Reset()
	r.Execute("move d5")
	if !strings.Contains(buf.String(), "no current game") {
		t.Fatalf("expected missing game error:\n%s", buf)
	}

	if r.Execute("exit") {
		t.Fatalf("exit should stop the loop")
	}
	if r.Execute("x") {
		t.Fatalf("short exit should stop the loop")
	}
}

func TestHumanGameFlow(t *testing.T) {
	url := startServer(t, false)
	r, s, buf := newTestRegistry(t, url)

	r.Execute("new h h")
	if s.CurrentGame == "" {
		t.Fatalf("game not tracked:\n%s", buf)
	}

	r.Execute("select d")
	if s.GameState.Turn.Color != "pink" || len(s.GameState.LegalMoves) == 0 {
		t.Fatalf("selection not applied: %+v", s.GameState.Turn)
	}

	buf.Reset()
	r.Execute("move d5")
	if !strings.Contains(buf.String(), "Move accepted") || s.LastMoveCount != 1 {
		t.Fatalf("move not applied:\n%s", buf)
	}
	if s.GameState.Turn.Side != "b" || s.GameState.Turn.Color != "brown" {
		t.Fatalf("unexpected turn %+v", s.GameState.Turn)
	}

	buf.Reset()
	r.Execute("show")
	if !strings.Contains(buf.String(), "History: 1.d1d5") {
		t.Fatalf("show missing history:\n%s", buf)
	}

	buf.Reset()
	r.Execute("computer")
	if !strings.Contains(buf.String(), "Error:") {
		t.Fatalf("computer move on human turn should fail:\n%s", buf)
	}

	r.Execute("undo")
	if s.LastMoveCount != 0 || s.GameState.Turn.Phase != "start" {
		t.Fatalf("undo not applied: %+v", s.GameState.Turn)
	}

	id := s.CurrentGame
	r.Execute("delete")
	if s.CurrentGame != "" {
		t.Fatalf("current game not cleared")
	}
	buf.Reset()
	r.Execute("join " + id)
	if !strings.Contains(buf.String(), "404") {
		t.Fatalf("deleted game still joinable:\n%s", buf)
	}
}

func TestComputerOpensForWhite(t *testing.T) {
	url := startServer(t, false)
	r, s, buf := newTestRegistry(t, url)

	// Interactive player prompts
	r.in = &scriptedPrompter{answers: []string{"c0/100", "h"}}
	r.Execute("new")

	if s.LastMoveCount != 1 {
		t.Fatalf("computer did not open:\n%s", buf)
	}
	if !strings.Contains(buf.String(), "Computer played:") {
		t.Fatalf("computer move not reported:\n%s", buf)
	}
	if s.GameState.Turn.Side != "b" || s.GameState.State != "ongoing" {
		t.Fatalf("unexpected state after computer move: %+v %s", s.GameState.Turn, s.GameState.State)
	}
}

func TestAccountCommands(t *testing.T) {
	url := startServer(t, true)
	r, s, buf := newTestRegistry(t, url, "alice", "secret123", "")

	r.Execute("register")
	if !s.Authenticated() || s.Username != "alice" {
		t.Fatalf("registration failed:\n%s", buf)
	}

	buf.Reset()
	r.Execute("whoami")
	if !strings.Contains(buf.String(), "Username: alice") {
		t.Fatalf("whoami output:\n%s", buf)
	}

	r.Execute("new h h")
	if s.PlayerSide != "w" {
		t.Fatalf("owned game should track the user's side, got %q", s.PlayerSide)
	}

	r.Execute("logout")
	if s.Authenticated() || s.PlayerSide != "" {
		t.Fatalf("logout did not clear credentials: %+v", s)
	}

	r.in = &scriptedPrompter{answers: []string{"alice", "secret123"}}
	r.Execute("login")
	if !s.Authenticated() {
		t.Fatalf("login failed:\n%s", buf)
	}

	buf.Reset()
	r.Execute("health")
	if !strings.Contains(buf.String(), "Storage: ok") {
		t.Fatalf("health output:\n%s", buf)
	}
}
