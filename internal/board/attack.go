package board

// IsAttacked reports whether any piece of color by attacks sq.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	if !sq.OnBoard() {
		return false
	}
	// Pawns attack diagonally forward, so look backwards from sq.
	pawn := MakePiece(by, Pawn)
	if by == White {
		if s := sq.Offset(-15); s != NoSquare && p.squares[s] == pawn {
			return true
		}
		if s := sq.Offset(-17); s != NoSquare && p.squares[s] == pawn {
			return true
		}
	} else {
		if s := sq.Offset(15); s != NoSquare && p.squares[s] == pawn {
			return true
		}
		if s := sq.Offset(17); s != NoSquare && p.squares[s] == pawn {
			return true
		}
	}

	knight := MakePiece(by, Knight)
	for _, d := range knightOffsets {
		if s := sq.Offset(d); s != NoSquare && p.squares[s] == knight {
			return true
		}
	}
	king := MakePiece(by, King)
	for _, d := range kingOffsets {
		if s := sq.Offset(d); s != NoSquare && p.squares[s] == king {
			return true
		}
	}

	bishop, rook, queen := MakePiece(by, Bishop), MakePiece(by, Rook), MakePiece(by, Queen)
	for _, d := range bishopDirs {
		for s := sq.Offset(d); s != NoSquare; s = s.Offset(d) {
			pc := p.squares[s]
			if pc == NoPiece {
				continue
			}
			if pc == bishop || pc == queen {
				return true
			}
			break
		}
	}
	for _, d := range rookDirs {
		for s := sq.Offset(d); s != NoSquare; s = s.Offset(d) {
			pc := p.squares[s]
			if pc == NoPiece {
				continue
			}
			if pc == rook || pc == queen {
				return true
			}
			break
		}
	}
	return false
}

// LeastAttacker returns the type of the cheapest piece of color by that
// attacks sq, or NoPieceType. Kings rank last. Pins are ignored.
func (p *Position) LeastAttacker(sq Square, by Color) PieceType {
	if !sq.OnBoard() {
		return NoPieceType
	}
	pawn := MakePiece(by, Pawn)
	pawnFrom := [2]int{-15, -17}
	if by == Black {
		pawnFrom = [2]int{15, 17}
	}
	for _, d := range pawnFrom {
		if s := sq.Offset(d); s != NoSquare && p.squares[s] == pawn {
			return Pawn
		}
	}
	knight := MakePiece(by, Knight)
	for _, d := range knightOffsets {
		if s := sq.Offset(d); s != NoSquare && p.squares[s] == knight {
			return Knight
		}
	}

	best := NoPieceType
	for _, d := range queenDirs {
		diagonal := d == 17 || d == 15 || d == -15 || d == -17
		for s := sq.Offset(d); s != NoSquare; s = s.Offset(d) {
			pc := p.squares[s]
			if pc == NoPiece {
				continue
			}
			if pc.Color() == by {
				switch t := pc.Type(); {
				case t == Queen,
					t == Bishop && diagonal,
					t == Rook && !diagonal:
					if best == NoPieceType || t.Value() < best.Value() {
						best = t
					}
				}
			}
			break
		}
	}
	if best != NoPieceType {
		return best
	}
	king := MakePiece(by, King)
	for _, d := range kingOffsets {
		if s := sq.Offset(d); s != NoSquare && p.squares[s] == king {
			return King
		}
	}
	return NoPieceType
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.IsAttacked(p.kings[p.side], p.side.Other())
}

// GivesCheck reports whether the legal move m leaves the opponent in check.
func (p *Position) GivesCheck(m Move) bool {
	u := p.Make(m)
	check := p.InCheck()
	p.Unmake(u)
	return check
}

// AttackTargets appends the squares attacked by the piece on from, as if it
// stood there, to buf. Pawns report their capture squares only.
func (p *Position) AttackTargets(from Square, pc Piece, buf []Square) []Square {
	switch pc.Type() {
	case Pawn:
		dirs := [2]int{15, 17}
		if pc.Color() == Black {
			dirs = [2]int{-15, -17}
		}
		for _, d := range dirs {
			if s := from.Offset(d); s != NoSquare {
				buf = append(buf, s)
			}
		}
	case Knight:
		for _, d := range knightOffsets {
			if s := from.Offset(d); s != NoSquare {
				buf = append(buf, s)
			}
		}
	case King:
		for _, d := range kingOffsets {
			if s := from.Offset(d); s != NoSquare {
				buf = append(buf, s)
			}
		}
	case Bishop, Rook, Queen:
		for _, d := range slideDirs(pc.Type()) {
			for s := from.Offset(d); s != NoSquare; s = s.Offset(d) {
				buf = append(buf, s)
				if p.squares[s] != NoPiece && s != from {
					break
				}
			}
		}
	}
	return buf
}

func slideDirs(pt PieceType) []int {
	switch pt {
	case Bishop:
		return bishopDirs[:]
	case Rook:
		return rookDirs[:]
	case Queen:
		return queenDirs[:]
	}
	return nil
}

var queenDirs = [8]int{17, 16, 15, 1, -1, -15, -16, -17}
