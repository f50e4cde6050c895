package search

import (
	"math"
	"sort"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/eval"
)

const (
	// MinTemperature is the lowest softmax temperature, in centipawns,
	// playouts will use.
	MinTemperature = 1.0
	// MinRandomnessFloor is the smallest uniform share mixed into every
	// playout choice.
	MinRandomnessFloor = 0.01
)

// Move classes, highest first in the ordering.
const (
	classQuiet = iota
	classCheck
	classCapture
	classPromotion
	classMate
)

type rankedMove struct {
	move  board.Move
	class int
	key   int
	score float64
	index int
}

// OrderMoves returns moves sorted for expansion: mate in one, promotions,
// captures by most valuable victim then least valuable attacker, checks,
// quiet moves. Within a class moves are ranked by the style-weighted score
// for the mover, then by generation order. moves must be legal in p; p is
// restored before returning.
func OrderMoves(p *board.Position, moves []board.Move, w eval.Weights) []board.Move {
	ranked := make([]rankedMove, len(moves))
	for i, m := range moves {
		ranked[i] = rankMove(p, m, w, i)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.class != b.class {
			return a.class > b.class
		}
		if a.key != b.key {
			return a.key > b.key
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.index < b.index
	})
	out := make([]board.Move, len(ranked))
	for i, r := range ranked {
		out[i] = r.move
	}
	return out
}

func rankMove(p *board.Position, m board.Move, w eval.Weights, index int) rankedMove {
	r := rankedMove{move: m, index: index, score: eval.ScoreMove(p, m, w)}
	u := p.Make(m)
	check := p.InCheck()
	mate := check && !p.HasLegalMove()
	p.Unmake(u)

	switch {
	case mate:
		r.class = classMate
	case m.IsPromotion():
		r.class = classPromotion
		r.key = m.Promo().Value()
	case m.IsCapture():
		r.class = classCapture
		victim := board.Pawn.Value()
		if !m.IsEnPassant() {
			victim = p.PieceAt(m.To()).Type().Value()
		}
		r.key = victim*16 - p.PieceAt(m.From()).Type().Value()/10
	case check:
		r.class = classCheck
	}
	return r
}

// validPermutation reports whether ordered holds exactly the moves of orig.
func validPermutation(orig, ordered []board.Move) bool {
	if len(orig) != len(ordered) {
		return false
	}
	a := append([]board.Move(nil), orig...)
	b := append([]board.Move(nil), ordered...)
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SampleMove draws an index from a softmax over scores at the given
// temperature, mixed with a uniform distribution of weight floor. The
// temperature is clamped to MinTemperature and floor to
// [MinRandomnessFloor, 1], so every move keeps a nonzero probability.
func SampleMove(rng *RNG, scores []float64, temperature, floor float64) int {
	n := len(scores)
	if n <= 1 {
		return 0
	}
	var buf [256]float64
	probs := buf[:0]
	if n > len(buf) {
		probs = make([]float64, 0, n)
	}
	probs = appendProbabilities(probs, scores, temperature, floor)
	u := rng.Float64()
	var acc float64
	for i, p := range probs {
		acc += p
		if u < acc {
			return i
		}
	}
	return n - 1
}

// Probabilities returns the distribution SampleMove draws from.
func Probabilities(scores []float64, temperature, floor float64) []float64 {
	return appendProbabilities(make([]float64, 0, len(scores)), scores, temperature, floor)
}

func appendProbabilities(dst, scores []float64, temperature, floor float64) []float64 {
	n := len(scores)
	if n == 0 {
		return dst
	}
	t := max(temperature, MinTemperature)
	f := min(max(floor, MinRandomnessFloor), 1)
	best := math.Inf(-1)
	for _, s := range scores {
		best = max(best, s)
	}
	start := len(dst)
	var sum float64
	for _, s := range scores {
		e := math.Exp((s - best) / t)
		dst = append(dst, e)
		sum += e
	}
	uniform := f / float64(n)
	for i := start; i < len(dst); i++ {
		dst[i] = (1-f)*dst[i]/sum + uniform
	}
	return dst
}
