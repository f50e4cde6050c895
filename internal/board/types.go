// Package board implements the 0x88 position representation, legal move
// generation, reversible make/unmake and Zobrist hashing.
//
// Squares use the 0x88 layout: index = rank<<4 | file with a1 = 0 and
// h8 = 0x77. Any index with a bit of 0x88 set is off the board, which lets
// ray walks test boundaries with a single mask.
package board

// Color is the side owning a piece or having the move.
type Color uint8

const (
	White Color = 0
	Black Color = 1
)

// Other returns the opposing color.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "w"
	}
	return "b"
}

// PieceType is a colorless piece kind.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceTypeChars = [...]byte{' ', 'p', 'n', 'b', 'r', 'q', 'k'}

// Char returns the lowercase letter for the piece type.
func (pt PieceType) Char() byte {
	if int(pt) >= len(pieceTypeChars) {
		return '?'
	}
	return pieceTypeChars[pt]
}

// Value returns the conventional material value in centipawns.
// Kings have no material value.
func (pt PieceType) Value() int {
	switch pt {
	case Pawn:
		return 100
	case Knight:
		return 320
	case Bishop:
		return 330
	case Rook:
		return 500
	case Queen:
		return 900
	}
	return 0
}

// Piece packs a type and a color: bits 0-2 type, bit 3 color.
type Piece uint8

const NoPiece Piece = 0

// MakePiece combines a color and a piece type.
func MakePiece(c Color, pt PieceType) Piece { return Piece(uint8(pt) | uint8(c)<<3) }

func (p Piece) Type() PieceType { return PieceType(p & 7) }
func (p Piece) Color() Color { return Color(p >> 3) }

// Char returns the FEN letter for the piece (uppercase for white).
func (p Piece) Char() byte {
	if p == NoPiece {
		return '.'
	}
	ch := p.Type().Char()
	if p.Color() == White {
		ch -= 'a' - 'A'
	}
	return ch
}

func pieceFromChar(ch byte) (Piece, bool) {
	c := White
	if ch >= 'a' && ch <= 'z' {
		c = Black
		ch -= 'a' - 'A'
	}
	switch ch {
	case 'P':
		return MakePiece(c, Pawn), true
	case 'N':
		return MakePiece(c, Knight), true
	case 'B':
		return MakePiece(c, Bishop), true
	case 'R':
		return MakePiece(c, Rook), true
	case 'Q':
		return MakePiece(c, Queen), true
	case 'K':
		return MakePiece(c, King), true
	}
	return NoPiece, false
}

// Square is a 0x88 board index.
type Square uint8

const NoSquare Square = 0x80

// Named squares used by castling and tests.
const (
	A1 Square = 0x00
	B1 Square = 0x01
	C1 Square = 0x02
	D1 Square = 0x03
	E1 Square = 0x04
	F1 Square = 0x05
	G1 Square = 0x06
	H1 Square = 0x07
	A8 Square = 0x70
	B8 Square = 0x71
	C8 Square = 0x72
	D8 Square = 0x73
	E8 Square = 0x74
	F8 Square = 0x75
	G8 Square = 0x76
	H8 Square = 0x77
)

// SquareAt returns the square for file 0-7 and rank 0-7.
func SquareAt(file, rank int) Square { return Square(rank<<4 | file) }

func (s Square) File() int { return int(s) & 7 }
func (s Square) Rank() int { return int(s) >> 4 }

// OnBoard reports whether s is a real square.
func (s Square) OnBoard() bool { return s&0x88 == 0 }

// Index64 returns the square as 0-63 (a1 = 0, h8 = 63).
func (s Square) Index64() int { return s.Rank()*8 + s.File() }

func (s Square) String() string {
	if !s.OnBoard() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare parses an algebraic square such as "e4".
func ParseSquare(s string) (Square, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, false
	}
	return SquareAt(int(s[0]-'a'), int(s[1]-'1')), true
}

// CastleRights is a bitmask of remaining castling rights.
type CastleRights uint8

const (
	WhiteKingSide CastleRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide

	NoCastling  CastleRights = 0
	AllCastling              = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

func (cr CastleRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	b := make([]byte, 0, 4)
	if cr&WhiteKingSide != 0 {
		b = append(b, 'K')
	}
	if cr&WhiteQueenSide != 0 {
		b = append(b, 'Q')
	}
	if cr&BlackKingSide != 0 {
		b = append(b, 'k')
	}
	if cr&BlackQueenSide != 0 {
		b = append(b, 'q')
	}
	return string(b)
}

// castleMask[sq] is ANDed into the rights whenever a move touches sq, so a
// king or rook leaving (or a rook being captured on) its home square drops
// the matching right.
var castleMask [128]CastleRights

func init() {
	for i := range castleMask {
		castleMask[i] = AllCastling
	}
	castleMask[E1] &^= WhiteKingSide | WhiteQueenSide
	castleMask[H1] &^= WhiteKingSide
	castleMask[A1] &^= WhiteQueenSide
	castleMask[E8] &^= BlackKingSide | BlackQueenSide
	castleMask[H8] &^= BlackKingSide
	castleMask[A8] &^= BlackQueenSide
}

// Direction offsets in 0x88 space.
var (
	knightOffsets = [8]int{33, 31, 18, 14, -14, -18, -31, -33}
	kingOffsets   = [8]int{17, 16, 15, 1, -1, -15, -16, -17}
	bishopDirs    = [4]int{17, 15, -15, -17}
	rookDirs      = [4]int{16, 1, -1, -16}
)

// Offset steps s by d, returning NoSquare when the step leaves the board.
func (s Square) Offset(d int) Square {
	t := int(s) + d
	if t < 0 || t&0x88 != 0 {
		return NoSquare
	}
	return Square(t)
}
