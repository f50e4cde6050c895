package board

// Status is the outcome state of a position.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	FiftyMove
	Repetition
	InsufficientMaterial
)

func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case FiftyMove:
		return "fifty-move"
	case Repetition:
		return "repetition"
	case InsufficientMaterial:
		return "insufficient-material"
	}
	return "unknown"
}

// Terminal reports whether the game is over.
func (s Status) Terminal() bool { return s != Ongoing }

// Draw reports whether the status is a drawn terminal state.
func (s Status) Draw() bool { return s != Ongoing && s != Checkmate }

// History is a stack of position hashes, most recent last, owned by the
// caller. The position it describes is expected to be the last entry.
type History struct {
	hashes []uint64
}

// NewHistory returns a history seeded with the given hashes.
func NewHistory(hashes ...uint64) *History {
	return &History{hashes: append([]uint64(nil), hashes...)}
}

func (h *History) Push(hash uint64) { h.hashes = append(h.hashes, hash) }

func (h *History) Pop() {
	if len(h.hashes) > 0 {
		h.hashes = h.hashes[:len(h.hashes)-1]
	}
}

func (h *History) Len() int { return len(h.hashes) }

// Hashes returns a copy of the stack, oldest first.
func (h *History) Hashes() []uint64 { return append([]uint64(nil), h.hashes...) }

// Clone returns an independent copy.
func (h *History) Clone() *History {
	if h == nil {
		return &History{}
	}
	return NewHistory(h.hashes...)
}

// Count returns how often hash occurs in the last window entries. A window of
// zero or less scans the whole history.
func (h *History) Count(hash uint64, window int) int {
	if h == nil {
		return 0
	}
	start := 0
	if window > 0 && window < len(h.hashes) {
		start = len(h.hashes) - window
	}
	n := 0
	for _, x := range h.hashes[start:] {
		if x == hash {
			n++
		}
	}
	return n
}

// Status classifies the position. hist may be nil, in which case repetition
// is never reported. Threefold repetition only looks back over the reversible
// plies counted by the halfmove clock.
func (p *Position) Status(hist *History) Status {
	if !p.HasLegalMove() {
		if p.InCheck() {
			return Checkmate
		}
		return Stalemate
	}
	if p.halfmove >= 100 {
		return FiftyMove
	}
	if hist != nil && hist.Count(p.hash, p.halfmove+1) >= 3 {
		return Repetition
	}
	if p.InsufficientMaterial() {
		return InsufficientMaterial
	}
	return Ongoing
}

// InsufficientMaterial reports K v K, K+minor v K and K+B v K+B with bishops
// on the same color.
func (p *Position) InsufficientMaterial() bool {
	minors := 0
	bishopColors := [2]int{}
	bishops := 0
	for sq := Square(0); sq < 128; sq++ {
		if !sq.OnBoard() {
			sq += 7
			continue
		}
		switch p.squares[sq].Type() {
		case NoPieceType, King:
		case Knight:
			minors++
		case Bishop:
			minors++
			bishops++
			bishopColors[(sq.File()+sq.Rank())&1]++
		default:
			return false
		}
	}
	if minors <= 1 {
		return true
	}
	return bishops == minors && (bishopColors[0] == 0 || bishopColors[1] == 0)
}
