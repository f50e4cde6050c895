package board

var promoOrder = [4]PieceType{Queen, Rook, Bishop, Knight}

// appendPseudo appends the pseudo-legal moves of color c. Castling is only
// generated when c is the side to move.
func (p *Position) appendPseudo(c Color, buf []Move) []Move {
	for sq := Square(0); sq < 128; sq++ {
		if !sq.OnBoard() {
			sq += 7
			continue
		}
		pc := p.squares[sq]
		if pc == NoPiece || pc.Color() != c {
			continue
		}
		switch pc.Type() {
		case Pawn:
			buf = p.appendPawnMoves(sq, c, buf)
		case Knight:
			buf = p.appendSteps(sq, c, knightOffsets[:], buf)
		case King:
			buf = p.appendSteps(sq, c, kingOffsets[:], buf)
			if c == p.side {
				buf = p.appendCastles(sq, c, buf)
			}
		default:
			buf = p.appendSlides(sq, c, slideDirs(pc.Type()), buf)
		}
	}
	return buf
}

func (p *Position) appendSteps(from Square, c Color, offsets []int, buf []Move) []Move {
	for _, d := range offsets {
		to := from.Offset(d)
		if to == NoSquare {
			continue
		}
		target := p.squares[to]
		switch {
		case target == NoPiece:
			buf = append(buf, NewMove(from, to, NoPieceType, FlagQuiet))
		case target.Color() != c:
			buf = append(buf, NewMove(from, to, NoPieceType, FlagCapture))
		}
	}
	return buf
}

func (p *Position) appendSlides(from Square, c Color, dirs []int, buf []Move) []Move {
	for _, d := range dirs {
		for to := from.Offset(d); to != NoSquare; to = to.Offset(d) {
			target := p.squares[to]
			if target == NoPiece {
				buf = append(buf, NewMove(from, to, NoPieceType, FlagQuiet))
				continue
			}
			if target.Color() != c {
				buf = append(buf, NewMove(from, to, NoPieceType, FlagCapture))
			}
			break
		}
	}
	return buf
}

func (p *Position) appendPawnMoves(from Square, c Color, buf []Move) []Move {
	forward, startRank, lastRank := 16, 1, 7
	if c == Black {
		forward, startRank, lastRank = -16, 6, 0
	}
	if to := from.Offset(forward); to != NoSquare && p.squares[to] == NoPiece {
		if to.Rank() == lastRank {
			buf = appendPromotions(from, to, FlagQuiet, buf)
		} else {
			buf = append(buf, NewMove(from, to, NoPieceType, FlagQuiet))
			if from.Rank() == startRank {
				if to2 := to.Offset(forward); p.squares[to2] == NoPiece {
					buf = append(buf, NewMove(from, to2, NoPieceType, FlagDouble))
				}
			}
		}
	}
	for _, side := range [2]int{-1, 1} {
		to := from.Offset(forward + side)
		if to == NoSquare {
			continue
		}
		target := p.squares[to]
		switch {
		case target != NoPiece && target.Color() != c:
			if to.Rank() == lastRank {
				buf = appendPromotions(from, to, FlagCapture, buf)
			} else {
				buf = append(buf, NewMove(from, to, NoPieceType, FlagCapture))
			}
		case to == p.ep && c == p.side:
			buf = append(buf, NewMove(from, to, NoPieceType, FlagCapture|FlagEnPassant))
		}
	}
	return buf
}

func appendPromotions(from, to Square, flags MoveFlag, buf []Move) []Move {
	for _, pt := range promoOrder {
		buf = append(buf, NewMove(from, to, pt, flags|FlagPromotion))
	}
	return buf
}

func (p *Position) appendCastles(from Square, c Color, buf []Move) []Move {
	if p.castle == NoCastling {
		return buf
	}
	home, kingSide, queenSide := E1, WhiteKingSide, WhiteQueenSide
	if c == Black {
		home, kingSide, queenSide = E8, BlackKingSide, BlackQueenSide
	}
	if from != home {
		return buf
	}
	them := c.Other()
	if p.castle&kingSide != 0 &&
		p.squares[home+1] == NoPiece && p.squares[home+2] == NoPiece &&
		!p.IsAttacked(home, them) && !p.IsAttacked(home+1, them) && !p.IsAttacked(home+2, them) {
		buf = append(buf, NewMove(home, home+2, NoPieceType, FlagCastle))
	}
	if p.castle&queenSide != 0 &&
		p.squares[home-1] == NoPiece && p.squares[home-2] == NoPiece && p.squares[home-3] == NoPiece &&
		!p.IsAttacked(home, them) && !p.IsAttacked(home-1, them) && !p.IsAttacked(home-2, them) {
		buf = append(buf, NewMove(home, home-2, NoPieceType, FlagCastle))
	}
	return buf
}

// AppendLegalMoves appends the strictly legal moves of the side to move to
// buf in a deterministic order.
func (p *Position) AppendLegalMoves(buf []Move) []Move {
	start := len(buf)
	buf = p.appendPseudo(p.side, buf)
	legal := buf[:start]
	us := p.side
	for _, m := range buf[start:] {
		u := p.Make(m)
		if !p.IsAttacked(p.kings[us], us.Other()) {
			legal = append(legal, m)
		}
		p.Unmake(u)
	}
	return legal
}

// LegalMoves returns the strictly legal moves of the side to move.
func (p *Position) LegalMoves() []Move {
	return p.AppendLegalMoves(make([]Move, 0, 48))
}

// HasLegalMove reports whether the side to move has any legal move. It stops
// at the first one found.
func (p *Position) HasLegalMove() bool {
	var scratch [256]Move
	us := p.side
	for _, m := range p.appendPseudo(us, scratch[:0]) {
		u := p.Make(m)
		ok := !p.IsAttacked(p.kings[us], us.Other())
		p.Unmake(u)
		if ok {
			return true
		}
	}
	return false
}

// PseudoMoveCount counts the pseudo-legal moves of color c, castling
// excluded when c is not to move. Evaluation uses it as mobility.
func (p *Position) PseudoMoveCount(c Color) int {
	var scratch [256]Move
	return len(p.appendPseudo(c, scratch[:0]))
}
