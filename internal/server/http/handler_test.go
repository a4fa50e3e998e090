package http

import (
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kamisado/internal/server/board"
	"kamisado/internal/server/core"
	"kamisado/internal/server/processor"
	"kamisado/internal/server/service"
	"kamisado/internal/server/storage"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "kamisado.db"), false)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.InitDB(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	svc := service.New(board.Default(), store, []byte("test-secret-test-secret-test-secret"))
	proc := processor.New(svc, 1)
	t.Cleanup(func() {
		proc.Close()
		svc.Shutdown(time.Second)
	})
	return NewFiberApp(proc, svc, true)
}

// do sends a request and decodes the JSON response into out, if given
func do(t *testing.T, app *fiber.App, method, path, body, token string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

const humanGame = `{"white":{"type":1},"black":{"type":1}}`

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	var body map[string]any
	if status := do(t, app, "GET", "/health", "", "", &body); status != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["storage"] != "ok" {
		t.Fatalf("unexpected health %v", body)
	}
}

func TestGameFlow(t *testing.T) {
	app := newTestApp(t)

	var g core.GameResponse
	if status := do(t, app, "POST", "/api/v1/games", humanGame, "", &g); status != nethttp.StatusCreated {
		t.Fatalf("create: expected 201, got %d", status)
	}
	base := "/api/v1/games/" + g.GameID

	var errResp core.ErrorResponse
	if status := do(t, app, "POST", base+"/moves", `{"x":3,"y":4}`, "", &errResp); status != nethttp.StatusBadRequest || errResp.Code != core.ErrInvalidMove {
		t.Fatalf("move before selection: %d %+v", status, errResp)
	}

	if status := do(t, app, "POST", base+"/select", `{"x":3}`, "", &g); status != nethttp.StatusOK {
		t.Fatalf("select: %d", status)
	}
	if g.Turn.Color != "pink" {
		t.Fatalf("expected pink selected, got %+v", g.Turn)
	}

	if status := do(t, app, "POST", base+"/moves", `{"x":3,"y":4}`, "", &g); status != nethttp.StatusOK {
		t.Fatalf("move: %d", status)
	}
	if len(g.Moves) != 1 || g.Moves[0] != "d1d5" || g.Turn.Side != "b" {
		t.Fatalf("unexpected game after move %+v", g)
	}

	var b core.BoardResponse
	if status := do(t, app, "GET", base+"/board", "", "", &b); status != nethttp.StatusOK || !strings.Contains(b.Board, "a b c d e f g h") {
		t.Fatalf("board: %d %q", status, b.Board)
	}

	// Client already saw one move: long poll returns without waiting
	if status := do(t, app, "GET", base+"?wait=true&moveCount=0", "", "", &g); status != nethttp.StatusOK || len(g.Moves) != 1 {
		t.Fatalf("long poll: %d %+v", status, g.Moves)
	}

	if status := do(t, app, "POST", base+"/undo", `{"count":1}`, "", &g); status != nethttp.StatusOK || len(g.Moves) != 0 {
		t.Fatalf("undo: %d %+v", status, g.Moves)
	}

	if status := do(t, app, "DELETE", base, "", "", nil); status != nethttp.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", status)
	}
	if status := do(t, app, "GET", base, "", "", &errResp); status != nethttp.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", status)
	}
}

func TestRequestValidation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"BadGameID", "GET", "/api/v1/games/not-a-uuid", "", nethttp.StatusBadRequest},
		{"UnknownPlayerType", "POST", "/api/v1/games", `{"white":{"type":3},"black":{"type":1}}`, nethttp.StatusBadRequest},
		{"LevelTooHigh", "POST", "/api/v1/games", `{"white":{"type":2,"level":9},"black":{"type":1}}`, nethttp.StatusBadRequest},
		{"MalformedJSON", "POST", "/api/v1/games", `{"white":`, nethttp.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp core.ErrorResponse
			if status := do(t, app, tt.method, tt.path, tt.body, "", &errResp); status != tt.status {
				t.Fatalf("expected %d, got %d (%+v)", tt.status, status, errResp)
			}
		})
	}

	var g core.GameResponse
	do(t, app, "POST", "/api/v1/games", humanGame, "", &g)
	base := "/api/v1/games/" + g.GameID

	var errResp core.ErrorResponse
	if status := do(t, app, "POST", base+"/moves", `{"x":3,"y":8}`, "", &errResp); status != nethttp.StatusBadRequest || errResp.Code != core.ErrInvalidRequest {
		t.Fatalf("out of range move: %d %+v", status, errResp)
	}
	if status := do(t, app, "POST", base+"/select", `{}`, "", &errResp); status != nethttp.StatusBadRequest {
		t.Fatalf("missing x: %d", status)
	}
	if status := do(t, app, "POST", base+"/computer", "", "", &errResp); status != nethttp.StatusConflict || errResp.Code != core.ErrNotHumanTurn {
		t.Fatalf("computer on human game: %d %+v", status, errResp)
	}

	req := httptest.NewRequest("POST", base+"/select", strings.NewReader(`x=3`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("form request: %v", err)
	}
	if resp.StatusCode != nethttp.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.StatusCode)
	}
}

func TestAuthAndOwnership(t *testing.T) {
	app := newTestApp(t)

	var reg AuthResponse
	if status := do(t, app, "POST", "/api/v1/auth/register", `{"username":"Erin","password":"secret123"}`, "", &reg); status != nethttp.StatusCreated {
		t.Fatalf("register: %d", status)
	}
	if reg.Username != "erin" || reg.Token == "" {
		t.Fatalf("unexpected registration %+v", reg)
	}

	var errResp core.ErrorResponse
	if status := do(t, app, "POST", "/api/v1/auth/register", `{"username":"erin","password":"secret123"}`, "", &errResp); status != nethttp.StatusConflict {
		t.Fatalf("duplicate register: %d", status)
	}
	if status := do(t, app, "POST", "/api/v1/auth/register", `{"username":"frank","password":"onlyletters"}`, "", &errResp); status != nethttp.StatusBadRequest {
		t.Fatalf("weak password: %d", status)
	}
	if status := do(t, app, "POST", "/api/v1/auth/login", `{"identifier":"erin","password":"wrong1234"}`, "", &errResp); status != nethttp.StatusUnauthorized {
		t.Fatalf("bad login: %d", status)
	}

	var login AuthResponse
	if status := do(t, app, "POST", "/api/v1/auth/login", `{"identifier":"ERIN","password":"secret123"}`, "", &login); status != nethttp.StatusOK {
		t.Fatalf("login: %d", status)
	}

	var me service.User
	if status := do(t, app, "GET", "/api/v1/auth/me", "", login.Token, &me); status != nethttp.StatusOK || me.Username != "erin" {
		t.Fatalf("me: %d %+v", status, me)
	}
	if status := do(t, app, "GET", "/api/v1/auth/me", "", reg.Token, &errResp); status != nethttp.StatusUnauthorized {
		t.Fatalf("registration token should be revoked by login, got %d", status)
	}

	var g core.GameResponse
	do(t, app, "POST", "/api/v1/games", humanGame, login.Token, &g)
	if g.Players.White.UserID != login.UserID {
		t.Fatalf("white slot not bound to creator: %+v", g.Players.White)
	}
	base := "/api/v1/games/" + g.GameID

	if status := do(t, app, "POST", base+"/select", `{"x":0}`, "", &errResp); status != nethttp.StatusForbidden {
		t.Fatalf("anonymous select on owned game: expected 403, got %d", status)
	}
	if status := do(t, app, "POST", base+"/select", `{"x":0}`, login.Token, &g); status != nethttp.StatusOK {
		t.Fatalf("owner select: %d", status)
	}

	if status := do(t, app, "PUT", base+"/players", humanGame, "", &errResp); status != nethttp.StatusForbidden {
		t.Fatalf("anonymous reconfigure on owned game: expected 403, got %d", status)
	}
	if status := do(t, app, "POST", base+"/undo", `{"count":1}`, "", &errResp); status != nethttp.StatusForbidden {
		t.Fatalf("anonymous undo on owned game: expected 403, got %d", status)
	}
	if status := do(t, app, "DELETE", base, "", "", &errResp); status != nethttp.StatusForbidden {
		t.Fatalf("anonymous delete on owned game: expected 403, got %d", status)
	}
	if status := do(t, app, "PUT", base+"/players", humanGame, login.Token, &g); status != nethttp.StatusOK || g.Players.Black.UserID != login.UserID {
		t.Fatalf("owner reconfigure: %d %+v", status, g.Players.Black)
	}

	if status := do(t, app, "POST", "/api/v1/auth/logout", "", login.Token, nil); status != nethttp.StatusNoContent {
		t.Fatalf("logout: %d", status)
	}
	if status := do(t, app, "GET", "/api/v1/auth/me", "", login.Token, &errResp); status != nethttp.StatusUnauthorized {
		t.Fatalf("token valid after logout: %d", status)
	}
}

func TestConfigurePlayersEndpoint(t *testing.T) {
	app := newTestApp(t)

	var g core.GameResponse
	do(t, app, "POST", "/api/v1/games", humanGame, "", &g)
	base := "/api/v1/games/" + g.GameID

	body := `{"white":{"type":1},"black":{"type":2,"level":2,"searchTime":500}}`
	if status := do(t, app, "PUT", base+"/players", body, "", &g); status != nethttp.StatusOK {
		t.Fatalf("configure: %d", status)
	}
	if b := g.Players.Black; b.Type != core.PlayerComputer || b.Level != 2 || b.SearchTime != 500 {
		t.Fatalf("unexpected black player %+v", b)
	}

	var errResp core.ErrorResponse
	if status := do(t, app, "PUT", base+"/players", `{"white":{"type":1}}`, "", &errResp); status != nethttp.StatusBadRequest {
		t.Fatalf("missing black: expected 400, got %d", status)
	}
}

func TestLongPollWakesOnMove(t *testing.T) {
	app := newTestApp(t)

	var g core.GameResponse
	do(t, app, "POST", "/api/v1/games", humanGame, "", &g)
	base := "/api/v1/games/" + g.GameID
	do(t, app, "POST", base+"/select", `{"x":3}`, "", &g)

	type result struct {
		game core.GameResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := app.Test(httptest.NewRequest("GET", base+"?wait=true&moveCount=0", nil), -1)
		if err != nil {
			done <- result{err: err}
			return
		}
		defer resp.Body.Close()
		var polled core.GameResponse
		err = json.NewDecoder(resp.Body).Decode(&polled)
		done <- result{game: polled, err: err}
	}()

	time.Sleep(50 * time.Millisecond)
	if status := do(t, app, "POST", base+"/moves", `{"x":3,"y":4}`, "", &g); status != nethttp.StatusOK {
		t.Fatalf("move: %d", status)
	}

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("long poll: %v", r.err)
		}
		if len(r.game.Moves) != 1 {
			t.Fatalf("expected the move in the polled game, got %v", r.game.Moves)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("long poll not woken by move")
	}
}
