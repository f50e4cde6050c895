package eval

import (
	"github.com/zyrachess/zyra/internal/board"
)

// ScoreMove estimates how much the legal move m changes the weighted
// evaluation, from the mover's point of view. It only looks at terms the
// moving piece touches directly, plus the material the piece stands to lose
// on its destination square. p is restored before returning.
func ScoreMove(p *board.Position, m board.Move, w Weights) float64 {
	from, to := m.From(), m.To()
	pc := p.PieceAt(from)
	if pc == board.NoPiece {
		return 0
	}
	us := pc.Color()
	var d [NumTerms]float64

	switch {
	case m.IsEnPassant():
		d[Material] += float64(board.Pawn.Value())
	case m.IsCapture():
		d[Material] += float64(p.PieceAt(to).Type().Value())
	}
	moved := pc
	if promo := m.Promo(); promo != board.NoPieceType {
		d[Material] += float64(promo.Value() - board.Pawn.Value())
		moved = board.MakePiece(us, promo)
	}

	d[Material] -= float64(exchangeLoss(p, m, moved))

	for _, sq := range centerSquares {
		if sq == to {
			d[CenterControl] += centerBonus
		}
		if sq == from {
			d[CenterControl] -= centerBonus
		}
	}

	switch pc.Type() {
	case board.Rook:
		d[RookFiles] += float64(fileBonus(p, to.File(), us) - fileBonus(p, from.File(), us))
	case board.King:
		d[KingSafety] += float64((shield(p, to, us) - shield(p, from, us)) * shieldBonus)
	}
	if moved.Type() == board.Rook && pc.Type() != board.Rook {
		d[RookFiles] += float64(fileBonus(p, to.File(), us))
	}

	var buf [32]board.Square
	before := p.AttackTargets(from, pc, buf[:0])
	nBefore := len(before)
	motifBefore := targetMotifs(p, before, pc)
	after := p.AttackTargets(to, moved, buf[:0])
	d[AttackingMotifs] += float64(targetMotifs(p, after, moved) - motifBefore)
	if pc.Type() != board.Pawn && pc.Type() != board.King {
		d[Mobility] += float64(len(after) - nBefore)
		d[Initiative] += 0.5 * float64(len(after)-nBefore)
	}

	var total float64
	for i, v := range d {
		total += v * w[i]
	}
	return total
}

// exchangeLoss is the material the moved piece loses on its destination:
// all of it when the square is attacked and undefended, the difference to
// the cheapest attacker when it is defended. Kings never lose material.
func exchangeLoss(p *board.Position, m board.Move, moved board.Piece) int {
	if moved.Type() == board.King {
		return 0
	}
	us := moved.Color()
	to := m.To()
	u := p.Make(m)
	defer p.Unmake(u)

	attacker := p.LeastAttacker(to, us.Other())
	if attacker == board.NoPieceType {
		return 0
	}
	val := moved.Type().Value()
	if !p.IsAttacked(to, us) {
		return val
	}
	if attacker == board.King {
		return 0
	}
	return max(val-attacker.Value(), 0)
}

func targetMotifs(p *board.Position, targets []board.Square, pc board.Piece) int {
	if pc.Type() == board.King {
		return 0
	}
	n := 0
	for _, t := range targets {
		tp := p.PieceAt(t)
		if tp == board.NoPiece || tp.Color() == pc.Color() || tp.Type() == board.King {
			continue
		}
		n += motifBonus(pc.Type().Value(), tp.Type().Value(), false)
	}
	return n
}
