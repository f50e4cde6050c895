package board

import (
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is the complete game state. It is mutated in place by Make and
// Unmake and is not safe for concurrent use.
type Position struct {
	squares  [128]Piece
	kings    [2]Square
	side     Color
	castle   CastleRights
	ep       Square
	halfmove int
	fullmove int
	hash     uint64
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, err := ParseFEN(StartFEN)
	if err != nil {
		panic("board: start position: " + err.Error())
	}
	return p
}

// Clone returns an independent copy.
func (p *Position) Clone() *Position {
	c := *p
	return &c
}

func (p *Position) SideToMove() Color { return p.side }
func (p *Position) Castling() CastleRights { return p.castle }
func (p *Position) EnPassant() Square { return p.ep }
func (p *Position) HalfmoveClock() int { return p.halfmove }
func (p *Position) FullmoveNumber() int { return p.fullmove }
func (p *Position) Hash() uint64 { return p.hash }
func (p *Position) KingSquare(c Color) Square { return p.kings[c] }

// PieceAt returns the piece on sq, or NoPiece for empty or off-board squares.
func (p *Position) PieceAt(sq Square) Piece {
	if !sq.OnBoard() {
		return NoPiece
	}
	return p.squares[sq]
}

// Equal reports whether two positions agree in every field, hash included.
func (p *Position) Equal(o *Position) bool {
	return *p == *o
}

// ParseFEN parses a FEN string. The placement, side and castling fields are
// required; en passant defaults to "-", the clocks to 0 and 1.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 3 || len(fields) > 6 {
		return nil, positionError(fen, "expected 3 to 6 fields, got %d", len(fields))
	}
	p := &Position{ep: NoSquare, fullmove: 1, kings: [2]Square{NoSquare, NoSquare}}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, positionError(fen, "expected 8 ranks, got %d", len(ranks))
	}
	kingCount := [2]int{}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			ch := row[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pc, ok := pieceFromChar(ch)
			if !ok {
				return nil, positionError(fen, "invalid piece %q", ch)
			}
			if file > 7 {
				return nil, positionError(fen, "rank %d overflows", rank+1)
			}
			if pc.Type() == Pawn && (rank == 0 || rank == 7) {
				return nil, positionError(fen, "pawn on rank %d", rank+1)
			}
			sq := SquareAt(file, rank)
			p.squares[sq] = pc
			if pc.Type() == King {
				kingCount[pc.Color()]++
				p.kings[pc.Color()] = sq
			}
			file++
		}
		if file != 8 {
			return nil, positionError(fen, "rank %d has %d files", rank+1, file)
		}
	}
	if kingCount[White] != 1 || kingCount[Black] != 1 {
		return nil, positionError(fen, "need exactly one king per side")
	}

	switch fields[1] {
	case "w":
		p.side = White
	case "b":
		p.side = Black
	default:
		return nil, positionError(fen, "invalid side to move %q", fields[1])
	}

	castle, err := parseCastling(p, fields[2])
	if err != nil {
		return nil, positionError(fen, "%s", err.Error())
	}
	p.castle = castle

	if len(fields) > 3 && fields[3] != "-" {
		sq, ok := ParseSquare(fields[3])
		if !ok {
			return nil, positionError(fen, "invalid en passant square %q", fields[3])
		}
		want := 5
		if p.side == Black {
			want = 2
		}
		if sq.Rank() != want {
			return nil, positionError(fen, "en passant square %s on wrong rank", fields[3])
		}
		p.ep = sq
	}
	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, positionError(fen, "invalid halfmove clock %q", fields[4])
		}
		p.halfmove = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, positionError(fen, "invalid fullmove number %q", fields[5])
		}
		p.fullmove = n
	}

	if p.IsAttacked(p.kings[p.side.Other()], p.side) {
		return nil, positionError(fen, "side not to move is in check")
	}
	p.hash = p.ComputeHash()
	return p, nil
}

type castleError string

func (e castleError) Error() string { return string(e) }

func parseCastling(p *Position, s string) (CastleRights, error) {
	if s == "-" {
		return NoCastling, nil
	}
	var cr CastleRights
	for i := 0; i < len(s); i++ {
		var right CastleRights
		var king, rook Square
		var c Color
		switch s[i] {
		case 'K':
			right, king, rook, c = WhiteKingSide, E1, H1, White
		case 'Q':
			right, king, rook, c = WhiteQueenSide, E1, A1, White
		case 'k':
			right, king, rook, c = BlackKingSide, E8, H8, Black
		case 'q':
			right, king, rook, c = BlackQueenSide, E8, A8, Black
		default:
			return 0, castleError("invalid castling field " + strconv.Quote(s))
		}
		if cr&right != 0 {
			return 0, castleError("duplicate castling right " + string(s[i]))
		}
		if p.squares[king] != MakePiece(c, King) || p.squares[rook] != MakePiece(c, Rook) {
			return 0, castleError("castling right " + string(s[i]) + " without king and rook on home squares")
		}
		cr |= right
	}
	return cr, nil
}

// FEN serialises the position with all six fields.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.squares[SquareAt(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pc.Char())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(p.side.String())
	sb.WriteByte(' ')
	sb.WriteString(p.castle.String())
	sb.WriteByte(' ')
	sb.WriteString(p.ep.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.halfmove))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.fullmove))
	return sb.String()
}

// NormalizeFEN parses and re-serialises a FEN string.
func NormalizeFEN(fen string) (string, error) {
	p, err := ParseFEN(fen)
	if err != nil {
		return "", err
	}
	return p.FEN(), nil
}

// String renders an ASCII diagram followed by the FEN.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		for file := 0; file < 8; file++ {
			sb.WriteByte(' ')
			sb.WriteByte(p.squares[SquareAt(file, rank)].Char())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	sb.WriteString(p.FEN())
	return sb.String()
}
