package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/search"
)

const (
	wsWriteWait    = 5 * time.Second
	maxAnalyzeTime = 60 * time.Second
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// analyzeRequest asks for one search. Empty FEN analyses the session game;
// absent playouts fall back to the reply move time.
type analyzeRequest struct {
	FEN           string `json:"fen"`
	Playouts      *int   `json:"playouts"`
	MoveTimeMS    int64  `json:"movetime_ms"`
	Style         string `json:"style"`
	Seed          uint64 `json:"seed"`
	ProgressEvery int    `json:"progress_every"`
}

// wsMessage is every frame sent to the client.
type wsMessage struct {
	Type      string             `json:"type"` // progress, result, error
	Phase     string             `json:"phase,omitempty"`
	Playouts  int                `json:"playouts,omitempty"`
	Nodes     int                `json:"nodes,omitempty"`
	ElapsedMS int64              `json:"elapsed_ms,omitempty"`
	Best      string             `json:"best,omitempty"`
	ScoreCP   int                `json:"score_cp"`
	PV        []string           `json:"pv,omitempty"`
	Children  []search.ChildStat `json:"children,omitempty"`
	Stop      search.StopReason  `json:"stop,omitempty"`
	Notices   []string           `json:"notices,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func uciMoves(moves []board.Move) []string {
	return lo.Map(moves, func(m board.Move, _ int) string { return m.String() })
}

// analyzeWS streams search progress. Each request message starts a search;
// a message sent while one runs cancels it first. Closing the socket
// cancels the running search.
func (h *Handler) analyzeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	log := h.log.With().Str("rid", GetRequestID(r.Context())).Logger()

	var writeMu sync.Mutex
	send := func(msg wsMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(msg); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
		}
	}

	ctx, cancelAll := context.WithCancel(r.Context())
	defer cancelAll()
	var wg sync.WaitGroup
	cancel := context.CancelFunc(func() {})
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		var req analyzeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		cancel()
		wg.Wait()

		pos, cfg, err := h.analyzeConfig(req)
		if err != nil {
			send(wsMessage{Type: "error", Error: err.Error()})
			continue
		}
		cfg.Progress = func(p search.Progress) {
			send(wsMessage{
				Type:      "progress",
				Phase:     p.Phase.String(),
				Playouts:  p.Playouts,
				Nodes:     p.Nodes,
				ElapsedMS: p.Elapsed.Milliseconds(),
				Best:      p.Best.String(),
				ScoreCP:   search.ValueToCP(p.Value),
				PV:        uciMoves(p.PV),
			})
		}

		var sctx context.Context
		sctx, cancel = context.WithTimeout(ctx, maxAnalyzeTime)
		wg.Add(1)
		go func(sctx context.Context) {
			defer wg.Done()
			res, err := h.analysis.Search(sctx, pos, cfg)
			if err != nil {
				send(wsMessage{Type: "error", Error: err.Error(), Notices: res.Notices})
				return
			}
			send(wsMessage{
				Type:      "result",
				Playouts:  res.Playouts,
				Nodes:     res.Nodes,
				ElapsedMS: res.Elapsed.Milliseconds(),
				Best:      res.Move.String(),
				ScoreCP:   res.ScoreCP,
				PV:        uciMoves(res.PV),
				Children:  res.Children,
				Stop:      res.Stop,
				Notices:   res.Notices,
			})
		}(sctx)
	}
}

func (h *Handler) analyzeConfig(req analyzeRequest) (*board.Position, search.Config, error) {
	h.mu.Lock()
	pos := h.sess.game.Position()
	history := h.sess.game.PriorHashes()
	style := h.sess.style
	h.mu.Unlock()

	if req.FEN != "" {
		p, err := board.ParseFEN(req.FEN)
		if err != nil {
			return nil, search.Config{}, err
		}
		pos, history = p, nil
	}
	if req.Playouts != nil {
		if err := search.CheckPlayouts(*req.Playouts); err != nil {
			return nil, search.Config{}, err
		}
	}
	cfg := search.Config{
		MaxPlayouts:   lo.FromPtr(req.Playouts),
		MoveTime:      time.Duration(req.MoveTimeMS) * time.Millisecond,
		Seed:          req.Seed,
		Style:         style.Name,
		History:       history,
		ProgressEvery: req.ProgressEvery,
	}
	switch {
	case req.Style != "":
		cfg.Style = req.Style
	case style.Name == "custom":
		cfg.Style = ""
		cfg.Weights = &style.Weights
	}
	if cfg.MaxPlayouts == 0 && cfg.MoveTime == 0 {
		cfg.MoveTime = h.opts.MoveTime
	}
	if err := cfg.Validate(); err != nil {
		return nil, search.Config{}, err
	}
	return pos, cfg, nil
}
