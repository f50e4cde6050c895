package board

// Move encoding (uint32):
//   bits 0-6:   from square (0x88 index)
//   bits 7-13:  to square (0x88 index)
//   bits 14-16: promotion piece type (0 = none)
//   bits 17-21: flags

const (
	moveFromMask   = 0x7F
	moveToShift    = 7
	moveToMask     = 0x7F << moveToShift
	movePromoShift = 14
	movePromoMask  = 0x7 << movePromoShift
	moveFlagShift  = 17

	// identityMask covers the fields a move is compared by.
	identityMask = moveFromMask | moveToMask | movePromoMask
)

// MoveFlag classifies a move.
type MoveFlag uint8

const (
	FlagQuiet     MoveFlag = 0
	FlagCapture   MoveFlag = 1 << 0
	FlagDouble    MoveFlag = 1 << 1
	FlagEnPassant MoveFlag = 1 << 2
	FlagCastle    MoveFlag = 1 << 3
	FlagPromotion MoveFlag = 1 << 4
)

// Move is a compact value type. It is only meaningful relative to the
// position it was generated from.
type Move uint32

// NoMove is the null move, rendered as "0000".
const NoMove Move = 0

// NewMove packs a move.
func NewMove(from, to Square, promo PieceType, flags MoveFlag) Move {
	return Move(uint32(from)&moveFromMask |
		uint32(to)<<moveToShift |
		uint32(promo)<<movePromoShift |
		uint32(flags)<<moveFlagShift)
}

func (m Move) From() Square { return Square(m & moveFromMask) }
func (m Move) To() Square { return Square((m & moveToMask) >> moveToShift) }
func (m Move) Promo() PieceType { return PieceType((m & movePromoMask) >> movePromoShift) }
func (m Move) Flags() MoveFlag { return MoveFlag(m >> moveFlagShift) }
func (m Move) Has(f MoveFlag) bool { return m.Flags()&f != 0 }
func (m Move) IsCapture() bool { return m.Has(FlagCapture) }
func (m Move) IsCastle() bool { return m.Has(FlagCastle) }
func (m Move) IsPromotion() bool { return m.Has(FlagPromotion) }
func (m Move) IsEnPassant() bool { return m.Has(FlagEnPassant) }
func (m Move) withoutFlags() Move { return m & identityMask }
func (m Move) Same(other Move) bool { return m.withoutFlags() == other.withoutFlags() }

// String renders the move in UCI notation (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	b := []byte(m.From().String() + m.To().String())
	if p := m.Promo(); p != NoPieceType {
		b = append(b, p.Char())
	}
	return string(b)
}

// ParseMove parses UCI text into a move carrying only from, to and
// promotion. Use Position.ResolveMove to obtain the fully flagged legal move.
func ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, &FormatError{Kind: "move", Input: s, Reason: "expected 4 or 5 characters"}
	}
	from, ok := ParseSquare(s[0:2])
	if !ok {
		return NoMove, &FormatError{Kind: "move", Input: s, Reason: "invalid from square"}
	}
	to, ok := ParseSquare(s[2:4])
	if !ok {
		return NoMove, &FormatError{Kind: "move", Input: s, Reason: "invalid to square"}
	}
	if from == to {
		return NoMove, &FormatError{Kind: "move", Input: s, Reason: "from and to squares are equal"}
	}
	promo := NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'Q':
			promo = Queen
		case 'r', 'R':
			promo = Rook
		case 'b', 'B':
			promo = Bishop
		case 'n', 'N':
			promo = Knight
		default:
			return NoMove, &FormatError{Kind: "move", Input: s, Reason: "invalid promotion piece"}
		}
	}
	return NewMove(from, to, promo, FlagQuiet), nil
}
