package board

import "fmt"

// Undo holds what Make overwrote so Unmake can restore it exactly.
type Undo struct {
	Move     Move
	Captured Piece
	Castle   CastleRights
	EP       Square
	Halfmove int
	Hash     uint64
}

func (p *Position) put(sq Square, pc Piece) {
	p.squares[sq] = pc
	p.hash ^= zobristPiece[pc][sq]
}

func (p *Position) remove(sq Square) Piece {
	pc := p.squares[sq]
	p.squares[sq] = NoPiece
	p.hash ^= zobristPiece[pc][sq]
	return pc
}

func castleRookSquares(kingTo Square) (from, to Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	case C8:
		return A8, D8
	}
	panic(fmt.Sprintf("board: castle to %s", kingTo))
}

// Make plays m, which must be legal in p, and returns the record needed to
// take it back. Moves are not validated here; use Apply for untrusted input.
func (p *Position) Make(m Move) Undo {
	u := Undo{Move: m, Castle: p.castle, EP: p.ep, Halfmove: p.halfmove, Hash: p.hash}
	from, to := m.From(), m.To()
	us := p.side
	moving := p.squares[from]

	if p.ep != NoSquare {
		p.hash ^= zobristEPFile[p.ep.File()]
		p.ep = NoSquare
	}
	p.hash ^= zobristCastle[p.castle]

	if m.IsEnPassant() {
		capSq := to - 16
		if us == Black {
			capSq = to + 16
		}
		u.Captured = p.remove(capSq)
	} else if p.squares[to] != NoPiece {
		u.Captured = p.remove(to)
	}

	p.remove(from)
	if promo := m.Promo(); promo != NoPieceType {
		p.put(to, MakePiece(us, promo))
	} else {
		p.put(to, moving)
	}
	if moving.Type() == King {
		p.kings[us] = to
		if m.IsCastle() {
			rf, rt := castleRookSquares(to)
			p.put(rt, p.remove(rf))
		}
	}

	p.castle &= castleMask[from] & castleMask[to]
	p.hash ^= zobristCastle[p.castle]

	if m.Has(FlagDouble) {
		p.ep = Square((int(from) + int(to)) / 2)
		p.hash ^= zobristEPFile[p.ep.File()]
	}

	if moving.Type() == Pawn || u.Captured != NoPiece {
		p.halfmove = 0
	} else {
		p.halfmove++
	}
	if us == Black {
		p.fullmove++
	}
	p.side = us.Other()
	p.hash ^= zobristSide
	return u
}

// Unmake reverts the move recorded in u. The record must come from the most
// recent Make on this position; anything else is a programming error and
// panics.
func (p *Position) Unmake(u Undo) {
	m := u.Move
	from, to := m.From(), m.To()
	us := p.side.Other()
	moved := p.squares[to]
	if moved == NoPiece || moved.Color() != us || p.squares[from] != NoPiece {
		panic(fmt.Sprintf("board: unmake %s does not match position %s", m, p.FEN()))
	}

	p.side = us
	if us == Black {
		p.fullmove--
	}
	if m.Promo() != NoPieceType {
		moved = MakePiece(us, Pawn)
	}
	p.squares[to] = NoPiece
	p.squares[from] = moved
	if moved.Type() == King {
		p.kings[us] = from
		if m.IsCastle() {
			rf, rt := castleRookSquares(to)
			p.squares[rf] = p.squares[rt]
			p.squares[rt] = NoPiece
		}
	}
	if u.Captured != NoPiece {
		capSq := to
		if m.IsEnPassant() {
			capSq = to - 16
			if us == Black {
				capSq = to + 16
			}
		}
		p.squares[capSq] = u.Captured
	}
	p.castle = u.Castle
	p.ep = u.EP
	p.halfmove = u.Halfmove
	p.hash = u.Hash
}

// ResolveMove returns the legal move matching m by from, to and promotion.
func (p *Position) ResolveMove(m Move) (Move, error) {
	var scratch [256]Move
	for _, lm := range p.AppendLegalMoves(scratch[:0]) {
		if lm.Same(m) {
			return lm, nil
		}
	}
	return NoMove, &IllegalMoveError{Move: m.String(), FEN: p.FEN()}
}

// Apply validates m against the legal moves and plays it. On error the
// position is left untouched.
func (p *Position) Apply(m Move) (Undo, error) {
	lm, err := p.ResolveMove(m)
	if err != nil {
		return Undo{}, err
	}
	return p.Make(lm), nil
}

// ApplyUCI parses and applies a move in UCI text form.
func (p *Position) ApplyUCI(s string) (Undo, error) {
	m, err := ParseMove(s)
	if err != nil {
		return Undo{}, err
	}
	return p.Apply(m)
}
