package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/search"
	"github.com/zyrachess/zyra/internal/tt"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine := search.New(search.Options{TT: tt.New(tt.MinEntries * 16), Logger: zerolog.Nop()})
	h, err := NewRouter(Options{Engine: engine, MaxPlayouts: 150, MoveTime: 5 * time.Second, Seed: 1, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string, out any) int {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func get(t *testing.T, srv *httptest.Server, path string, out any) (int, http.Header) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode, resp.Header
}

func TestNewGame(t *testing.T) {
	srv := newTestServer(t)
	var st StateResponse
	if code := post(t, srv, "/api/new", `{}`, &st); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if st.FEN != board.StartFEN || len(st.History) != 0 || st.SideToMove != "w" || st.Style != "default" {
		t.Errorf("new game state %+v", st)
	}

	if code := post(t, srv, "/api/new", `{"style":"aggressive","movetime_ms":250}`, &st); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if st.Style != "aggressive" || st.MoveTimeMS != 250 {
		t.Errorf("style %q movetime %d", st.Style, st.MoveTimeMS)
	}

	if code := post(t, srv, "/api/new", `{"style":{"material":2}}`, &st); code != http.StatusOK || st.Style != "custom" {
		t.Errorf("custom style: status %d style %q", code, st.Style)
	}

	var e ErrorResponse
	for _, body := range []string{`{"style":"reckless"}`, `{"style":{"tempo":1}}`, `{"fen":"8/8/8"}`, `{`} {
		if code := post(t, srv, "/api/new", body, &e); code != http.StatusBadRequest || e.Detail == "" {
			t.Errorf("%s: status %d detail %q", body, code, e.Detail)
		}
	}
}

func TestMoveAndEngineReply(t *testing.T) {
	srv := newTestServer(t)
	post(t, srv, "/api/new", `{}`, nil)

	var st StateResponse
	if code := post(t, srv, "/api/move", `{"uci":"e2e4"}`, &st); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(st.History) != 2 || st.History[0] != "e2e4" || st.EngineMove != st.History[1] {
		t.Errorf("history %v engine move %q", st.History, st.EngineMove)
	}
	if st.EvalCP == nil || st.Search == nil || st.Search.Playouts != 150 {
		t.Errorf("missing eval or search info: %+v", st)
	}
	if st.SideToMove != "w" {
		t.Errorf("side to move %q after the reply", st.SideToMove)
	}
}

func TestMoveRejected(t *testing.T) {
	srv := newTestServer(t)
	post(t, srv, "/api/new", `{}`, nil)

	tests := []struct {
		body   string
		detail string
	}{
		{`{"uci":"z9z9"}`, "Invalid move"},
		{`{"uci":"e2e5"}`, "Illegal move"},
		{`{}`, "Invalid move"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var e ErrorResponse
			if code := post(t, srv, "/api/move", tt.body, &e); code != http.StatusBadRequest {
				t.Errorf("status %d", code)
			}
			if !strings.HasPrefix(e.Detail, tt.detail) {
				t.Errorf("detail %q, want prefix %q", e.Detail, tt.detail)
			}
		})
	}

	var st StateResponse
	get(t, srv, "/api/state", &st)
	if st.FEN != board.StartFEN {
		t.Errorf("rejected moves changed the game: %s", st.FEN)
	}
}

func TestMoveAfterGameOver(t *testing.T) {
	srv := newTestServer(t)
	post(t, srv, "/api/new", `{"fen":"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"}`, nil)
	var e ErrorResponse
	if code := post(t, srv, "/api/move", `{"uci":"h8g8"}`, &e); code != http.StatusConflict {
		t.Errorf("status %d detail %q", code, e.Detail)
	}
}

func TestMatingReplyEndsGame(t *testing.T) {
	srv := newTestServer(t)
	post(t, srv, "/api/new", `{"fen":"6k1/5ppp/8/n7/8/8/5PPP/3R2K1 b - - 0 1"}`, nil)
	var st StateResponse
	if code := post(t, srv, "/api/move", `{"uci":"a5c4"}`, &st); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if st.EngineMove != "d1d8" || st.Status != "checkmate" {
		t.Errorf("engine move %q status %q, want d1d8 checkmate", st.EngineMove, st.Status)
	}
}

func TestLegal(t *testing.T) {
	srv := newTestServer(t)
	post(t, srv, "/api/new", `{}`, nil)

	var lr LegalResponse
	if code, _ := get(t, srv, "/api/legal?from=g1", &lr); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if strings.Join(lr.Targets, ",") != "h3,f3" && strings.Join(lr.Targets, ",") != "f3,h3" {
		t.Errorf("g1 targets %v", lr.Targets)
	}
	if get(t, srv, "/api/legal?from=e5", &lr); len(lr.Targets) != 0 {
		t.Errorf("empty square has targets %v", lr.Targets)
	}
	if code, _ := get(t, srv, "/api/legal?from=z1", nil); code != http.StatusBadRequest {
		t.Errorf("bad square status %d", code)
	}
}

func TestExplain(t *testing.T) {
	srv := newTestServer(t)
	var ex ExplainResponse
	path := "/api/explain?style=aggressive&fen=" + strings.ReplaceAll("2r3k1/5ppp/8/3q4/8/2N5/5PPP/3R2K1 w - - 0 1", " ", "+")
	if code, _ := get(t, srv, path, &ex); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if ex.Style != "aggressive" || len(ex.Terms) != 7 {
		t.Fatalf("explain %+v", ex)
	}
	var sum float64
	for _, term := range ex.Terms {
		sum += term.Contribution
	}
	if diff := sum - ex.Total; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("contributions sum to %v, total %v", sum, ex.Total)
	}
	if ex.Terms["material"].Raw != -580 {
		t.Errorf("material = %v, want -580", ex.Terms["material"].Raw)
	}
}

func TestBoardSVG(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/board.svg?size=20")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	body := buf.String()
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type %q", ct)
	}
	if !strings.Contains(body, `width="160"`) || strings.Count(body, "<rect") != 64 || strings.Count(body, "<text") != 32 {
		t.Errorf("unexpected svg:\n%s", body)
	}
	if code, _ := get(t, srv, "/api/board.svg?size=1000", nil); code != http.StatusBadRequest {
		t.Errorf("oversized board status %d", code)
	}
}

func TestHealthStatsAndHeaders(t *testing.T) {
	srv := newTestServer(t)
	code, hdr := get(t, srv, "/healthz", nil)
	if code != http.StatusOK {
		t.Errorf("healthz status %d", code)
	}
	if len(hdr.Get(RequestIDHeader)) != 8 || hdr.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("headers %v", hdr)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "client-supplied-id" {
		t.Errorf("request id %q not echoed", got)
	}

	var stats map[string]any
	if code, _ := get(t, srv, "/api/stats", &stats); code != http.StatusOK || stats["engine"] == nil {
		t.Errorf("stats status %d body %v", code, stats)
	}
}

func TestAnalyzeWebSocket(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/analyze"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(analyzeRequest{Playouts: lo.ToPtr(300), ProgressEvery: 100, Seed: 5}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	progress := 0
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "progress" {
			progress++
			continue
		}
		if msg.Type != "result" {
			t.Fatalf("unexpected message %+v", msg)
		}
		if msg.Playouts != 300 || msg.Best == "" || len(msg.Children) != 20 {
			t.Errorf("result %+v", msg)
		}
		break
	}
	if progress < 3 {
		t.Errorf("got %d progress frames, want at least 3", progress)
	}

	bad := []struct {
		name string
		req  string
	}{
		{"bad fen", `{"fen": "bad fen"}`},
		{"zero playouts", `{"playouts": 0}`},
		{"negative playouts", `{"playouts": -10}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.req)); err != nil {
				t.Fatal(err)
			}
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil || msg.Type != "error" {
				t.Errorf("reply %+v err %v", msg, err)
			}
		})
	}
}

func TestAnalysisLeavesReplyEngineAlone(t *testing.T) {
	engine := search.New(search.Options{TT: tt.New(tt.MinEntries * 16), Logger: zerolog.Nop()})
	analysis := search.New(search.Options{TT: tt.New(tt.MinEntries * 16), Logger: zerolog.Nop()})
	h, err := NewRouter(Options{Engine: engine, Analysis: analysis, MaxPlayouts: 150, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/analyze", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(analyzeRequest{Playouts: lo.ToPtr(200), Seed: 2}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "result" {
			break
		}
		if msg.Type == "error" {
			t.Fatalf("analysis failed: %s", msg.Error)
		}
	}

	if n := engine.TT().Len(); n != 0 {
		t.Errorf("reply table holds %d entries after analysis", n)
	}
	if st := engine.Stats(); st.Searches != 0 {
		t.Errorf("reply engine ran %d searches", st.Searches)
	}
	if st := analysis.Stats(); st.Searches != 1 || analysis.TT().Len() == 0 {
		t.Errorf("analysis engine stats %+v, table %d", st, analysis.TT().Len())
	}
}
