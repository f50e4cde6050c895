// Package search implements Monte Carlo tree search over board positions.
//
// One Search call runs select, expand, simulate and backpropagate
// iterations on a single goroutine until the playout cap, the move time or
// the context ends it. Stop conditions are checked between iterations only,
// so a search always completes at least one iteration and may overrun its
// time budget by one.
//
// All randomness comes from one RNG keyed by Config.Seed. Two searches with
// the same seed, position, configuration and playout cap make identical
// choices provided the transposition table starts in the same state, which
// holds for a fresh Engine or after NewGame.
package search

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/eval"
	"github.com/zyrachess/zyra/internal/tt"
)

var (
	// ErrNoLegalMove is returned when the root position has no legal move.
	ErrNoLegalMove = errors.New("no legal move")
	// ErrInvalidOrdering is returned when an OrderingHook does not return a
	// permutation of its input.
	ErrInvalidOrdering = errors.New("ordering hook did not return a permutation of the legal moves")
)

// valueScale maps centipawns to a leaf value via tanh(cp/valueScale).
const valueScale = 600.0

// maxTreeNodes caps the arena; once reached, iterations simulate from the
// selected leaf without adding nodes.
const maxTreeNodes = 4_000_000

// Phase is the engine state, reported through Progress.
type Phase int32

const (
	Idle Phase = iota
	Selecting
	Expanding
	Simulating
	Backpropagating
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Expanding:
		return "expanding"
	case Simulating:
		return "simulating"
	case Backpropagating:
		return "backpropagating"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// StopReason says which bound ended a search.
type StopReason string

const (
	StopPlayouts  StopReason = "playouts"
	StopMoveTime  StopReason = "movetime"
	StopCancelled StopReason = "cancelled"
)

// ChildStat summarises one root move.
type ChildStat struct {
	Move   board.Move `json:"-"`
	UCI    string     `json:"move"`
	Visits uint32     `json:"visits"`
	Mean   float64    `json:"mean"`
	Mate   bool       `json:"mate,omitempty"`
}

// TraceStep records one iteration: the moves from the root to the node that
// was simulated and the value backed up from it (for the side that moved
// into that node).
type TraceStep struct {
	Path  []board.Move
	Value float64
}

// Progress is delivered to Config.Progress during a search.
type Progress struct {
	Phase    Phase
	Playouts int
	Nodes    int
	Elapsed  time.Duration
	Best     board.Move
	Value    float64
	PV       []board.Move
}

// Result is the outcome of one search.
type Result struct {
	Move     board.Move
	Playouts int
	Nodes    int
	Elapsed  time.Duration
	// Value is the mean of the chosen move for the side to move, in [-1, 1].
	Value    float64
	ScoreCP  int
	PV       []board.Move
	Children []ChildStat
	Stop     StopReason
	Notices  []string
	Trace    []TraceStep
}

// Options configure an Engine.
type Options struct {
	// TT is shared by every search of the engine. Nil allocates a table of
	// TTEntries slots.
	TT        *tt.Table
	TTEntries int
	Logger    zerolog.Logger
}

// Engine owns a transposition table and runs searches one at a time.
type Engine struct {
	mu    sync.Mutex
	table *tt.Table
	log   zerolog.Logger

	phase     atomic.Int32
	searches  atomic.Uint64
	playouts  atomic.Uint64
	lastNPS   atomic.Uint64
	lastNodes atomic.Int64
}

// New returns an engine.
func New(opts Options) *Engine {
	table := opts.TT
	if table == nil {
		entries := opts.TTEntries
		if entries == 0 {
			entries = 1 << 20
		}
		table = tt.New(entries)
	}
	return &Engine{
		table: table,
		log:   opts.Logger.With().Str("component", "search").Logger(),
	}
}

// TT returns the engine's transposition table.
func (e *Engine) TT() *tt.Table { return e.table }

// NewGame clears the transposition table.
func (e *Engine) NewGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.table.Clear()
}

// Phase returns the current state of the running search.
func (e *Engine) Phase() Phase { return Phase(e.phase.Load()) }

// EngineStats are cumulative counters of an engine.
type EngineStats struct {
	Searches  uint64   `json:"searches"`
	Playouts  uint64   `json:"playouts"`
	LastNPS   uint64   `json:"last_nps"`
	LastNodes int64    `json:"last_nodes"`
	Phase     string   `json:"phase"`
	TT        tt.Stats `json:"tt"`
}

// Stats returns engine counters. Safe to call during a search.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		Searches:  e.searches.Load(),
		Playouts:  e.playouts.Load(),
		LastNPS:   e.lastNPS.Load(),
		LastNodes: e.lastNodes.Load(),
		Phase:     e.Phase().String(),
		TT:        e.table.Stats(),
	}
}

// run holds the state of one Search call.
type run struct {
	e     *Engine
	cfg   settings
	pos   *board.Position
	tree  *tree
	rng   *RNG
	hist  *board.History
	undos []board.Undo
	path  []board.Move

	moveBuf  []board.Move
	scoreBuf []float64
}

// Search picks a move for pos. pos is not modified.
func (e *Engine) Search(ctx context.Context, pos *board.Position, cfg Config) (Result, error) {
	s, err := cfg.resolve()
	if err != nil {
		return Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.phase.Store(int32(Idle))

	for _, n := range s.notices {
		e.log.Warn().Str("fen", pos.FEN()).Msg(n)
	}

	r := &run{
		e:    e,
		cfg:  s,
		pos:  pos.Clone(),
		rng:  NewRNG(s.seed),
		hist: board.NewHistory(s.history...),
	}
	r.hist.Push(r.pos.Hash())

	rootMoves := r.pos.LegalMoves()
	if len(rootMoves) == 0 {
		return Result{Move: board.NoMove, Notices: s.notices}, ErrNoLegalMove
	}
	capHint := min(s.maxPlayouts, 1<<16) + 1
	r.tree = newTree(capHint)
	root := r.tree.add(node{parent: noNode, hash: r.pos.Hash()})
	if err := r.generate(root, rootMoves); err != nil {
		return Result{Notices: s.notices}, err
	}

	start := time.Now()
	var deadline time.Time
	if s.moveTime > 0 {
		deadline = start.Add(s.moveTime)
	}

	var trace []TraceStep
	playouts := 0
	var stop StopReason
	for {
		step, err := r.iterate(root)
		if err != nil {
			return Result{Notices: s.notices}, err
		}
		playouts++
		if s.trace {
			trace = append(trace, step)
		}
		if s.progress != nil && playouts%s.progressEvery == 0 {
			s.progress(r.progress(root, playouts, time.Since(start)))
		}

		if playouts >= s.maxPlayouts {
			stop = StopPlayouts
			break
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			stop = StopMoveTime
			break
		}
		if ctx.Err() != nil {
			stop = StopCancelled
			break
		}
	}
	e.phase.Store(int32(Stopped))
	elapsed := time.Since(start)

	res := r.result(root)
	res.Playouts = playouts
	res.Elapsed = elapsed
	res.Stop = stop
	res.Notices = s.notices
	res.Trace = trace
	e.table.SetHint(r.pos.Hash(), res.Move)

	nps := uint64(float64(playouts) / max(elapsed.Seconds(), 1e-9))
	e.searches.Add(1)
	e.playouts.Add(uint64(playouts))
	e.lastNPS.Store(nps)
	e.lastNodes.Store(int64(res.Nodes))
	if s.progress != nil {
		s.progress(r.progress(root, playouts, elapsed))
	}
	e.log.Debug().
		Str("move", res.Move.String()).
		Int("playouts", playouts).
		Int("nodes", res.Nodes).
		Uint64("nps", nps).
		Str("stop", string(stop)).
		Float64("value", res.Value).
		Msg("search complete")
	return res, nil
}

// generate fills the untried moves of n, ordering them with the hook or the
// built-in policy. The position must be at n.
func (r *run) generate(idx int32, moves []board.Move) error {
	n := r.tree.at(idx)
	n.generated = true
	if r.cfg.ordering != nil {
		ordered := r.cfg.ordering(r.pos, append([]board.Move(nil), moves...))
		if !validPermutation(moves, ordered) {
			return ErrInvalidOrdering
		}
		n.untried = ordered
		return nil
	}
	n.untried = OrderMoves(r.pos, moves, r.cfg.weights)
	return nil
}

func (r *run) makeMove(m board.Move) {
	r.undos = append(r.undos, r.pos.Make(m))
	r.path = append(r.path, m)
	r.hist.Push(r.pos.Hash())
}

func (r *run) rewind() {
	for i := len(r.undos) - 1; i >= 0; i-- {
		r.pos.Unmake(r.undos[i])
		r.hist.Pop()
	}
	r.undos = r.undos[:0]
	r.path = r.path[:0]
}

// iterate runs one select, expand, simulate and backpropagate cycle.
func (r *run) iterate(root int32) (TraceStep, error) {
	e := r.e
	e.phase.Store(int32(Selecting))
	cur := root
	for {
		n := r.tree.at(cur)
		if n.terminal || !n.generated || len(n.untried) > 0 || len(n.children) == 0 {
			break
		}
		cur = r.tree.selectChild(cur, r.cfg.explorationC)
		r.makeMove(r.tree.at(cur).move)
	}

	e.phase.Store(int32(Expanding))
	if n := r.tree.at(cur); !n.terminal && r.tree.len() < maxTreeNodes {
		if !n.generated {
			r.moveBuf = r.pos.AppendLegalMoves(r.moveBuf[:0])
			if err := r.generate(cur, r.moveBuf); err != nil {
				r.rewind()
				return TraceStep{}, err
			}
		}
		if n := r.tree.at(cur); len(n.untried) > 0 {
			m := n.untried[0]
			n.untried = n.untried[1:]
			r.makeMove(m)
			cur = r.addChild(cur, m)
		}
	}

	e.phase.Store(int32(Simulating))
	var value float64
	if n := r.tree.at(cur); n.terminal {
		value = terminalValue(n.status)
	} else {
		value = r.simulate()
	}

	var step TraceStep
	if r.cfg.trace {
		step = TraceStep{Path: append([]board.Move(nil), r.path...), Value: value}
	}

	e.phase.Store(int32(Backpropagating))
	r.backpropagate(cur, value)
	r.rewind()
	return step, nil
}

// addChild creates the node reached by m from parent. The position must
// already be past m.
func (r *run) addChild(parent int32, m board.Move) int32 {
	hash := r.pos.Hash()
	n := node{move: m, parent: parent, hash: hash}
	n.status = r.pos.Status(r.hist)
	n.terminal = n.status.Terminal()
	if w := r.cfg.ttPriorWeight; w > 0 {
		if ent, ok := r.e.table.Probe(hash); ok {
			n.prior = ent.Value / float64(ent.Visits)
			n.priorWeight = w
		}
	}
	return r.tree.add(n)
}

// terminalValue scores a finished game for the side that made the last move.
func terminalValue(s board.Status) float64 {
	if s == board.Checkmate {
		return 1
	}
	return 0
}

// simulate plays a style-weighted random game from the current position
// and returns its value for the side that moved into it.
func (r *run) simulate() float64 {
	pos := r.pos
	mover := pos.SideToMove().Other()
	base := len(r.undos)
	white := 0.0
	decided := false

	for ply := 0; ply < r.cfg.playoutDepth; ply++ {
		if ply > 0 && ply%r.cfg.cutoffInterval == 0 && (r.cfg.winCP > 0 || r.cfg.lossCP > 0) {
			cp := eval.Score(pos, r.cfg.weights)
			if r.cfg.winCP > 0 && cp >= r.cfg.winCP {
				white, decided = 1, true
				break
			}
			if r.cfg.lossCP > 0 && cp <= -r.cfg.lossCP {
				white, decided = -1, true
				break
			}
		}
		r.moveBuf = pos.AppendLegalMoves(r.moveBuf[:0])
		if len(r.moveBuf) == 0 {
			if pos.InCheck() {
				white = -1
				if pos.SideToMove() == board.Black {
					white = 1
				}
			}
			decided = true
			break
		}
		if pos.HalfmoveClock() >= 100 || pos.InsufficientMaterial() {
			decided = true
			break
		}
		r.scoreBuf = r.scoreBuf[:0]
		for _, m := range r.moveBuf {
			r.scoreBuf = append(r.scoreBuf, eval.ScoreMove(pos, m, r.cfg.weights))
		}
		i := SampleMove(r.rng, r.scoreBuf, r.cfg.temperature, r.cfg.minRandomness)
		r.undos = append(r.undos, pos.Make(r.moveBuf[i]))
	}
	if !decided {
		white = math.Tanh(eval.Score(pos, r.cfg.weights) / valueScale)
	}
	for i := len(r.undos) - 1; i >= base; i-- {
		pos.Unmake(r.undos[i])
	}
	r.undos = r.undos[:base]

	if mover == board.White {
		return white
	}
	return -white
}

// backpropagate adds value to every node from leaf to the root, flipping
// its sign at each level, and mirrors the update into the table.
func (r *run) backpropagate(leaf int32, value float64) {
	for cur := leaf; cur != noNode; {
		n := r.tree.at(cur)
		n.visits++
		n.value += value
		r.e.table.Store(n.hash, 1, value)
		value = -value
		cur = n.parent
	}
}

func (r *run) result(root int32) Result {
	t := r.tree
	best := t.robustChild(root)
	res := Result{Nodes: t.len(), Move: board.NoMove}
	if best == noNode {
		return res
	}
	b := t.at(best)
	res.Move = b.move
	res.Value = b.mean()
	if b.mated() {
		res.Value = 1
	}
	res.ScoreCP = ValueToCP(res.Value)
	res.PV = t.principalVariation(best, 32)
	for _, ci := range t.at(root).children {
		c := t.at(ci)
		res.Children = append(res.Children, ChildStat{
			Move:   c.move,
			UCI:    c.move.String(),
			Visits: c.visits,
			Mean:   c.mean(),
			Mate:   c.mated(),
		})
	}
	return res
}

func (r *run) progress(root int32, playouts int, elapsed time.Duration) Progress {
	p := Progress{
		Phase:    r.e.Phase(),
		Playouts: playouts,
		Nodes:    r.tree.len(),
		Elapsed:  elapsed,
		Best:     board.NoMove,
	}
	if best := r.tree.robustChild(root); best != noNode {
		p.Best = r.tree.at(best).move
		p.Value = r.tree.at(best).mean()
		p.PV = r.tree.principalVariation(best, 16)
	}
	return p
}

// ValueToCP converts a mean value in [-1, 1] to centipawns for display.
func ValueToCP(v float64) int {
	v = max(-0.999, min(0.999, v))
	return int(math.Round(math.Atanh(v) * valueScale))
}
