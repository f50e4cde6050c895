package eval

import (
	"github.com/zyrachess/zyra/internal/board"
)

// Result is an evaluation with its explainable breakdown. Terms holds the raw
// (unweighted) centipawn value of each term.
type Result struct {
	Total   float64
	Terms   [NumTerms]float64
	Weights Weights
}

// Contribution returns the weighted value of one term.
func (r Result) Contribution(t Term) float64 { return r.Terms[t] * r.Weights[t] }

// Breakdown returns the raw term values keyed by name.
func (r Result) Breakdown() map[string]float64 {
	out := make(map[string]float64, NumTerms)
	for i, v := range r.Terms {
		out[termNames[i]] = v
	}
	return out
}

var centerSquares = [4]board.Square{
	board.SquareAt(3, 3), board.SquareAt(4, 3),
	board.SquareAt(3, 4), board.SquareAt(4, 4),
}

const (
	centerBonus   = 10
	openFileBonus = 15
	semiOpenBonus = 8
	shieldBonus   = 8
)

// Evaluate scores p under weights w.
func Evaluate(p *board.Position, w Weights) Result {
	r := Result{Weights: w}
	r.Terms[Material] = float64(material(p))
	r.Terms[AttackingMotifs] = float64(attackingMotifs(p))
	r.Terms[CenterControl] = float64(centerControl(p))
	r.Terms[RookFiles] = float64(rookFiles(p))
	mob := p.PseudoMoveCount(board.White) - p.PseudoMoveCount(board.Black)
	r.Terms[Mobility] = float64(mob)
	r.Terms[KingSafety] = float64(kingSafety(p))
	r.Terms[Initiative] = float64(int(0.5 * float64(mob)))
	for i, v := range r.Terms {
		r.Total += v * w[i]
	}
	return r
}

// Score is Evaluate without the breakdown.
func Score(p *board.Position, w Weights) float64 {
	return Evaluate(p, w).Total
}

func sign(c board.Color) int {
	if c == board.White {
		return 1
	}
	return -1
}

func forEachPiece(p *board.Position, fn func(sq board.Square, pc board.Piece)) {
	for sq := board.Square(0); sq < 128; sq++ {
		if !sq.OnBoard() {
			sq += 7
			continue
		}
		if pc := p.PieceAt(sq); pc != board.NoPiece {
			fn(sq, pc)
		}
	}
}

func material(p *board.Position) int {
	score := 0
	forEachPiece(p, func(_ board.Square, pc board.Piece) {
		score += sign(pc.Color()) * pc.Type().Value()
	})
	return score
}

// motifBonus scores an attack by a piece worth attackerVal on a target worth
// targetVal. exposed marks an attacker that is itself attacked.
func motifBonus(attackerVal, targetVal int, exposed bool) int {
	b := max(5, targetVal/20)
	if exposed && targetVal > attackerVal {
		b += max(3, (targetVal-attackerVal)/50)
	}
	return b
}

func attackingMotifs(p *board.Position) int {
	score := 0
	var buf [32]board.Square
	forEachPiece(p, func(sq board.Square, pc board.Piece) {
		if pc.Type() == board.King {
			return
		}
		c := pc.Color()
		exposed := -1
		for _, t := range p.AttackTargets(sq, pc, buf[:0]) {
			tp := p.PieceAt(t)
			if tp == board.NoPiece || tp.Color() == c {
				continue
			}
			tv := tp.Type().Value()
			if tv == 0 {
				continue
			}
			av := pc.Type().Value()
			if tv > av && exposed < 0 {
				exposed = 0
				if p.IsAttacked(sq, c.Other()) {
					exposed = 1
				}
			}
			score += sign(c) * motifBonus(av, tv, exposed == 1)
		}
	})
	return score
}

func centerControl(p *board.Position) int {
	score := 0
	for _, sq := range centerSquares {
		if pc := p.PieceAt(sq); pc != board.NoPiece {
			score += sign(pc.Color()) * centerBonus
		}
	}
	return score
}

func fileBonus(p *board.Position, file int, c board.Color) int {
	var pawns [2]bool
	for rank := 0; rank < 8; rank++ {
		pc := p.PieceAt(board.SquareAt(file, rank))
		if pc.Type() == board.Pawn {
			pawns[pc.Color()] = true
		}
	}
	switch {
	case !pawns[board.White] && !pawns[board.Black]:
		return openFileBonus
	case !pawns[c]:
		return semiOpenBonus
	}
	return 0
}

func rookFiles(p *board.Position) int {
	score := 0
	forEachPiece(p, func(sq board.Square, pc board.Piece) {
		if pc.Type() == board.Rook {
			score += sign(pc.Color()) * fileBonus(p, sq.File(), pc.Color())
		}
	})
	return score
}

// shield counts friendly pawns on the three squares in front of a king of
// color c standing on sq.
func shield(p *board.Position, sq board.Square, c board.Color) int {
	forward := 16
	if c == board.Black {
		forward = -16
	}
	pawn := board.MakePiece(c, board.Pawn)
	n := 0
	for _, d := range [3]int{forward - 1, forward, forward + 1} {
		if s := sq.Offset(d); s != board.NoSquare && p.PieceAt(s) == pawn {
			n++
		}
	}
	return n
}

func kingSafety(p *board.Position) int {
	w := shield(p, p.KingSquare(board.White), board.White)
	b := shield(p, p.KingSquare(board.Black), board.Black)
	return (w - b) * shieldBonus
}
