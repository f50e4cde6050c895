package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/eco"
	"github.com/zyrachess/zyra/internal/eval"
	"github.com/zyrachess/zyra/internal/game"
	"github.com/zyrachess/zyra/internal/search"
)

// DefaultMoveTime is the engine's thinking time per reply.
const DefaultMoveTime = 500 * time.Millisecond

// analysisTTEntries sizes the table of the analysis engine when
// Options.Analysis is nil.
const analysisTTEntries = 1 << 18

// Options configure the web front end.
type Options struct {
	Engine *search.Engine
	// Analysis runs websocket analysis so it never touches the table that
	// Engine replies from. Nil allocates a small private engine.
	Analysis *search.Engine
	// ECO is optional; when set, states carry the opening name.
	ECO         *eco.Database
	Style       string
	MoveTime    time.Duration
	MaxPlayouts int
	Seed        uint64
	Logger      zerolog.Logger
}

// session is the single game served by the API.
type session struct {
	game     *game.Game
	style    eval.Style
	moveTime time.Duration
	lastEval *float64
	last     *search.Result
}

// Handler serves one game session against the engine.
type Handler struct {
	mu   sync.Mutex
	sess session

	engine   *search.Engine
	analysis *search.Engine
	ecoDB  *eco.Database
	opts   Options
	log    zerolog.Logger
}

// NewRouter creates the HTTP router.
func NewRouter(opts Options) (http.Handler, error) {
	h, err := newHandler(opts)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(h.log))
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/new", h.newGame)
		r.Post("/move", h.move)
		r.Get("/state", h.state)
		r.Get("/legal", h.legal)
		r.Get("/explain", h.explain)
		r.Get("/board.svg", h.boardSVG)
		r.Get("/stats", h.stats)
	})
	r.Get("/ws/analyze", h.analyzeWS)
	return r, nil
}

func newHandler(opts Options) (*Handler, error) {
	if opts.Engine == nil {
		return nil, errors.New("httpapi: engine required")
	}
	style, err := eval.LookupStyle(opts.Style)
	if err != nil {
		return nil, fmt.Errorf("httpapi: %w", err)
	}
	if opts.MoveTime <= 0 {
		opts.MoveTime = DefaultMoveTime
	}
	if opts.Analysis == nil {
		opts.Analysis = search.New(search.Options{TTEntries: analysisTTEntries, Logger: opts.Logger})
	}
	h := &Handler{
		engine:   opts.Engine,
		analysis: opts.Analysis,
		ecoDB:    opts.ECO,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "http").Logger(),
	}
	h.sess = session{game: game.New(), style: style, moveTime: opts.MoveTime}
	return h, nil
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type newGameRequest struct {
	Style      json.RawMessage `json:"style"`
	MoveTimeMS *int64          `json:"movetime_ms"`
	FEN        string          `json:"fen"`
}

// parseStyle accepts a profile name or a map of term weights.
func parseStyle(raw json.RawMessage) (eval.Style, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return eval.Style{}, false, nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		s, err := eval.LookupStyle(strings.ToLower(name))
		return s, true, err
	}
	var weights map[string]float64
	if err := json.Unmarshal(raw, &weights); err != nil {
		return eval.Style{}, false, fmt.Errorf("style must be a name or a weight map")
	}
	w, err := eval.ParseWeights(weights)
	if err != nil {
		return eval.Style{}, false, err
	}
	return eval.CustomStyle(w), true, nil
}

func (h *Handler) newGame(w http.ResponseWriter, r *http.Request) {
	var req newGameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	style, ok, err := parseStyle(req.Style)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid style: "+err.Error())
		return
	}
	g := game.New()
	if req.FEN != "" {
		if g, err = game.FromFEN(req.FEN); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sess.game = g
	h.sess.lastEval = nil
	h.sess.last = nil
	if ok {
		h.sess.style = style
	}
	if req.MoveTimeMS != nil && *req.MoveTimeMS > 0 {
		h.sess.moveTime = time.Duration(*req.MoveTimeMS) * time.Millisecond
	}
	h.engine.NewGame()
	h.log.Info().Str("style", h.sess.style.Name).Str("fen", g.FEN()).Msg("new game")
	writeJSON(w, http.StatusOK, h.stateLocked(""))
}

type moveRequest struct {
	UCI       string `json:"uci"`
	Promotion string `json:"promotion"`
}

// move plays the client's move and the engine's reply.
func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	uci := strings.ToLower(strings.TrimSpace(req.UCI))
	if len(uci) == 4 && req.Promotion != "" {
		uci += strings.ToLower(req.Promotion)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	g := h.sess.game
	if st := g.Status(); st.Terminal() {
		writeError(w, http.StatusConflict, "game is over: "+st.String())
		return
	}
	if err := g.ApplyUCI(uci); err != nil {
		switch {
		case errors.Is(err, board.ErrIllegalMove):
			writeError(w, http.StatusBadRequest, "Illegal move: "+uci)
		default:
			writeError(w, http.StatusBadRequest, "Invalid move: "+err.Error())
		}
		return
	}

	reply := ""
	if !g.Status().Terminal() {
		cfg := search.Config{
			MaxPlayouts: h.opts.MaxPlayouts,
			MoveTime:    h.sess.moveTime,
			Seed:        h.opts.Seed,
			Style:       h.sess.style.Name,
			History:     g.PriorHashes(),
		}
		if h.sess.style.Name == "custom" {
			cfg.Style = ""
			cfg.Weights = &h.sess.style.Weights
		}
		res, err := h.engine.Search(r.Context(), g.Position(), cfg)
		if err != nil {
			h.log.Error().Err(err).Str("fen", g.FEN()).Msg("engine search failed")
			writeError(w, http.StatusInternalServerError, "engine: "+err.Error())
			return
		}
		if err := g.Apply(res.Move); err != nil {
			h.log.Error().Err(err).Str("move", res.Move.String()).Msg("engine move rejected")
			writeError(w, http.StatusInternalServerError, "engine: "+err.Error())
			return
		}
		reply = res.Move.String()
		h.sess.last = &res
		cp := eval.Score(g.Position(), h.sess.style.Weights)
		h.sess.lastEval = &cp
	}
	writeJSON(w, http.StatusOK, h.stateLocked(reply))
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := eval.Score(h.sess.game.Position(), h.sess.style.Weights)
	h.sess.lastEval = &cp
	writeJSON(w, http.StatusOK, h.stateLocked(""))
}

func (h *Handler) stateLocked(engineMove string) StateResponse {
	g := h.sess.game
	pos := g.Position()
	resp := StateResponse{
		FEN:        g.FEN(),
		History:    g.MovesUCI(),
		SideToMove: pos.SideToMove().String(),
		Status:     g.Status().String(),
		EvalCP:     h.sess.lastEval,
		Style:      h.sess.style.Name,
		MoveTimeMS: h.sess.moveTime.Milliseconds(),
		EngineMove: engineMove,
	}
	if engineMove != "" && h.sess.last != nil {
		res := h.sess.last
		resp.Search = &SearchInfo{
			Playouts:  res.Playouts,
			Nodes:     res.Nodes,
			ElapsedMS: res.Elapsed.Milliseconds(),
			ScoreCP:   res.ScoreCP,
			PV:        lo.Map(res.PV, func(m board.Move, _ int) string { return m.String() }),
			Stop:      res.Stop,
			Children:  res.Children,
			Notices:   res.Notices,
		}
	}
	if h.ecoDB != nil {
		resp.Opening = h.ecoDB.Lookup(pos)
	}
	return resp
}

func (h *Handler) legal(w http.ResponseWriter, r *http.Request) {
	from := strings.ToLower(r.URL.Query().Get("from"))
	sq, ok := board.ParseSquare(from)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid from square")
		return
	}
	h.mu.Lock()
	moves := h.sess.game.Position().LegalMoves()
	h.mu.Unlock()

	fromSq := lo.Filter(moves, func(m board.Move, _ int) bool { return m.From() == sq })
	targets := lo.Uniq(lo.Map(fromSq, func(m board.Move, _ int) string { return m.To().String() }))
	writeJSON(w, http.StatusOK, LegalResponse{From: from, Targets: targets})
}

func (h *Handler) explain(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	pos := h.sess.game.Position()
	style := h.sess.style
	h.mu.Unlock()

	if fen := r.URL.Query().Get("fen"); fen != "" {
		p, err := board.ParseFEN(fen)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		pos = p
	}
	if name := r.URL.Query().Get("style"); name != "" {
		s, err := eval.LookupStyle(strings.ToLower(name))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		style = s
	}

	res := eval.Evaluate(pos, style.Weights)
	resp := ExplainResponse{
		FEN:   pos.FEN(),
		Style: style.Name,
		Total: res.Total,
		Terms: make(map[string]TermResponse, eval.NumTerms),
	}
	for t := eval.Term(0); t < eval.NumTerms; t++ {
		resp.Terms[t.String()] = TermResponse{
			Raw:          res.Terms[t],
			Weight:       res.Weights[t],
			Contribution: res.Contribution(t),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	ply := h.sess.game.Ply()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"engine":   h.engine.Stats(),
		"analysis": h.analysis.Stats(),
		"ply":      ply,
	})
}

// decodeBody reads an optional JSON body; an empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
