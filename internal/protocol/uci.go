// Package protocol speaks UCI over a line-oriented reader and writer.
//
// Searches run on their own goroutine so that "stop", "isready" and "quit"
// are answered while the engine thinks. Only one search runs at a time; a
// new "go" or "position" waits for the previous search to finish.
package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/eval"
	"github.com/zyrachess/zyra/internal/game"
	"github.com/zyrachess/zyra/internal/search"
	"github.com/zyrachess/zyra/internal/tt"
)

const (
	EngineName   = "Zyra"
	EngineAuthor = "the Zyra authors"

	DefaultHashMB = 64
	maxHashMB     = 4096

	// moveOverhead is kept back from the clock for communication lag.
	moveOverhead     = 30 * time.Millisecond
	minThinkTime     = 10 * time.Millisecond
	defaultMovesToGo = 30
)

// options are the values settable with setoption.
type options struct {
	style        string
	seed         uint64
	temperature  float64
	explorationC float64
	hashMB       int
}

// Handler runs a UCI session.
type Handler struct {
	outMu sync.Mutex
	out   io.Writer
	base  zerolog.Logger
	log   zerolog.Logger

	engine *search.Engine
	game   *game.Game
	opts   options

	cancel   context.CancelFunc
	done     chan struct{}
	infinite bool
}

// New returns a handler writing responses to out. A nil engine allocates
// one with a DefaultHashMB table.
func New(engine *search.Engine, out io.Writer, logger zerolog.Logger) *Handler {
	h := &Handler{
		out:  out,
		base: logger,
		log:  logger.With().Str("component", "uci").Logger(),
		game: game.New(),
		opts: options{style: "default", hashMB: DefaultHashMB},
	}
	if engine == nil {
		engine = search.New(search.Options{TT: tt.NewMB(DefaultHashMB), Logger: logger})
	} else {
		h.opts.hashMB = engine.TT().Capacity() * 24 >> 20
	}
	h.engine = engine
	return h
}

// Engine returns the engine currently used for searches.
func (h *Handler) Engine() *search.Engine { return h.engine }

// Run reads commands until "quit", end of input or ctx is done. A running
// search is stopped before Run returns.
func (h *Handler) Run(ctx context.Context, in io.Reader) error {
	defer h.stop()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go readLines(ctx, in, lines, scanErr)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if !h.infinite {
					h.wait()
				}
				return <-scanErr
			}
			if !h.Execute(ctx, line) {
				return nil
			}
		}
	}
}

// readLines feeds lines from in until end of input or ctx is done, then
// closes lines. Exactly one error, possibly nil, goes to errc.
func readLines(ctx context.Context, in io.Reader, lines chan<- string, errc chan<- error) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			errc <- ctx.Err()
			return
		}
	}
	errc <- scanner.Err()
}

// Execute handles one command line. It returns false on "quit".
func (h *Handler) Execute(ctx context.Context, line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return true
	}
	h.log.Debug().Str("cmd", line).Msg("received")

	switch strings.ToLower(tokens[0]) {
	case "uci":
		h.identify()
	case "isready":
		h.send("readyok")
	case "ucinewgame":
		h.stop()
		h.engine.NewGame()
		h.game = game.New()
	case "setoption":
		h.stop()
		h.setOption(tokens[1:])
	case "position":
		h.stop()
		h.position(tokens[1:])
	case "go":
		h.stop()
		h.goSearch(ctx, tokens[1:])
	case "stop":
		h.stop()
	case "d":
		h.display()
	case "quit":
		return false
	default:
		h.info("unknown command %s", tokens[0])
	}
	return true
}

func (h *Handler) identify() {
	h.send("id name " + EngineName)
	h.send("id author " + EngineAuthor)
	h.send(fmt.Sprintf("option name Style type combo default %s%s", h.opts.style,
		strings.Join(lo.Map(eval.StyleNames(), func(s string, _ int) string { return " var " + s }), "")))
	h.send("option name Seed type spin default 0 min 0 max 2147483647")
	h.send("option name Temperature type string default 0")
	h.send("option name ExplorationC type string default 0")
	h.send(fmt.Sprintf("option name Hash type spin default %d min 1 max %d", DefaultHashMB, maxHashMB))
	h.send("uciok")
}

// setOption handles "name <id> [value <x>]". Names may contain spaces.
func (h *Handler) setOption(args []string) {
	var name, value []string
	cur := &name
	for _, tok := range args {
		switch strings.ToLower(tok) {
		case "name":
			cur = &name
		case "value":
			cur = &value
		default:
			*cur = append(*cur, tok)
		}
	}
	key := strings.ToLower(strings.Join(name, " "))
	val := strings.Join(value, " ")

	switch key {
	case "style":
		if _, err := eval.LookupStyle(strings.ToLower(val)); err != nil {
			h.info("%v", err)
			return
		}
		h.opts.style = strings.ToLower(val)
	case "seed":
		seed, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			h.info("invalid Seed %q", val)
			return
		}
		h.opts.seed = seed
	case "temperature", "explorationc":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			h.info("invalid %s %q", strings.Join(name, " "), val)
			return
		}
		if key == "temperature" {
			h.opts.temperature = f
		} else {
			h.opts.explorationC = f
		}
	case "hash":
		mb, err := strconv.Atoi(val)
		if err != nil || mb < 1 || mb > maxHashMB {
			h.info("invalid Hash %q", val)
			return
		}
		h.opts.hashMB = mb
		h.engine = search.New(search.Options{TT: tt.NewMB(mb), Logger: h.base})
	default:
		h.info("unknown option %s", strings.Join(name, " "))
	}
}

// position handles "startpos|fen <fen> [moves ...]". The game is replaced
// only when every move applies.
func (h *Handler) position(args []string) {
	if len(args) == 0 {
		h.info("malformed position command")
		return
	}
	movesAt := len(args)
	for i, tok := range args {
		if tok == "moves" {
			movesAt = i
			break
		}
	}

	var g *game.Game
	switch strings.ToLower(args[0]) {
	case "startpos":
		g = game.New()
	case "fen":
		var err error
		g, err = game.FromFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			h.info("%v", err)
			return
		}
	default:
		h.info("invalid position subcommand %s", args[0])
		return
	}

	if movesAt < len(args) {
		for _, mv := range args[movesAt+1:] {
			if err := g.ApplyUCI(mv); err != nil {
				h.info("%v", err)
				return
			}
		}
	}
	h.game = g
}

// goParams are the parsed arguments of a go command.
type goParams struct {
	moveTime  time.Duration
	nodes     int
	nodesSet  bool
	depth     int
	wtime     time.Duration
	btime     time.Duration
	winc      time.Duration
	binc      time.Duration
	movesToGo int
	infinite  bool
}

func parseGo(args []string) (goParams, []string) {
	var p goParams
	var problems []string
	for i := 0; i < len(args); i++ {
		key := strings.ToLower(args[i])
		if key == "infinite" {
			p.infinite = true
			continue
		}
		if key == "ponder" {
			continue
		}
		if i+1 >= len(args) {
			problems = append(problems, "missing value for "+key)
			break
		}
		n, err := strconv.Atoi(args[i+1])
		if key == "nodes" && err == nil {
			p.nodes, p.nodesSet = n, true
			i++
			continue
		}
		if err != nil || n < 0 {
			problems = append(problems, fmt.Sprintf("invalid %s %q", key, args[i+1]))
			i++
			continue
		}
		i++
		ms := time.Duration(n) * time.Millisecond
		switch key {
		case "movetime":
			p.moveTime = ms
		case "depth":
			p.depth = n
		case "wtime":
			p.wtime = ms
		case "btime":
			p.btime = ms
		case "winc":
			p.winc = ms
		case "binc":
			p.binc = ms
		case "movestogo":
			p.movesToGo = n
		default:
			problems = append(problems, "unknown go parameter "+key)
		}
	}
	return p, problems
}

// budget turns clock parameters into a move time for the side to move.
func (p goParams) budget(side board.Color) time.Duration {
	if p.moveTime > 0 {
		return p.moveTime
	}
	left, inc := p.wtime, p.winc
	if side == board.Black {
		left, inc = p.btime, p.binc
	}
	if left <= 0 {
		return 0
	}
	togo := p.movesToGo
	if togo <= 0 {
		togo = defaultMovesToGo
	}
	t := left/time.Duration(togo) + inc*3/4
	t = min(t, left-moveOverhead)
	return max(t, minThinkTime)
}

func (h *Handler) goSearch(ctx context.Context, args []string) {
	params, problems := parseGo(args)
	for _, msg := range problems {
		h.info("%s", msg)
	}
	if params.nodesSet {
		if err := search.CheckPlayouts(params.nodes); err != nil {
			h.info("%v", err)
			h.send("bestmove 0000")
			return
		}
	}

	pos := h.game.Position()
	cfg := search.Config{
		MaxPlayouts:  params.nodes,
		MoveTime:     params.budget(pos.SideToMove()),
		Seed:         h.opts.seed,
		Style:        h.opts.style,
		Temperature:  h.opts.temperature,
		ExplorationC: h.opts.explorationC,
		Depth:        params.depth,
		History:      h.game.PriorHashes(),
	}
	if params.infinite {
		cfg.MaxPlayouts = math.MaxInt
		cfg.MoveTime = 0
	}

	start := time.Now()
	cfg.Progress = func(pr search.Progress) {
		h.send(infoLine(pr.Playouts, pr.Nodes, pr.Elapsed, search.ValueToCP(pr.Value), pr.PV))
	}

	sctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	h.cancel, h.done, h.infinite = cancel, done, params.infinite
	engine := h.engine

	go func() {
		defer close(done)
		defer cancel()
		res, err := engine.Search(sctx, pos, cfg)
		for _, n := range res.Notices {
			h.info("%s", n)
		}
		switch {
		case errors.Is(err, search.ErrNoLegalMove):
			h.info("no legal move in %s", pos.FEN())
			h.send("bestmove 0000")
			return
		case err != nil:
			h.info("%v", err)
			h.send("bestmove 0000")
			return
		}
		if params.infinite {
			<-sctx.Done()
		}
		h.log.Info().
			Str("move", res.Move.String()).
			Int("playouts", res.Playouts).
			Dur("elapsed", time.Since(start)).
			Str("stop", string(res.Stop)).
			Msg("bestmove")
		h.send(infoLine(res.Playouts, res.Nodes, res.Elapsed, res.ScoreCP, res.PV))
		h.send("bestmove " + res.Move.String())
	}()
}

func infoLine(playouts, nodes int, elapsed time.Duration, cp int, pv []board.Move) string {
	ms := elapsed.Milliseconds()
	nps := int64(float64(playouts) / max(elapsed.Seconds(), 1e-3))
	line := fmt.Sprintf("info nodes %d time %d nps %d score cp %d", nodes, ms, nps, cp)
	if len(pv) > 0 {
		line += " pv " + strings.Join(lo.Map(pv, func(m board.Move, _ int) string { return m.String() }), " ")
	}
	return line
}

// stop cancels a running search and waits for its bestmove.
func (h *Handler) stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wait()
}

func (h *Handler) wait() {
	if h.done != nil {
		<-h.done
		h.done, h.cancel = nil, nil
	}
}

func (h *Handler) display() {
	pos := h.game.Position()
	for _, line := range strings.Split(strings.TrimRight(pos.String(), "\n"), "\n") {
		h.send(line)
	}
	h.send("Fen: " + pos.FEN())
	h.send(fmt.Sprintf("Key: %016x", pos.Hash()))
	h.send("Status: " + h.game.Status().String())
}

func (h *Handler) info(format string, args ...any) {
	h.send("info string " + fmt.Sprintf(format, args...))
}

func (h *Handler) send(line string) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	fmt.Fprintln(h.out, line)
}
