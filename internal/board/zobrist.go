package board

// zobristSeed fixes the key tables so hashes are stable across runs and
// processes; persisted transposition tables depend on it.
const zobristSeed = 0x9E3779B97F4A7C15

var (
	zobristPiece  [16][128]uint64
	zobristSide   uint64
	zobristCastle [16]uint64
	zobristEPFile [8]uint64
)

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func init() {
	rng := splitmix64{state: zobristSeed}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			p := MakePiece(c, pt)
			for sq := 0; sq < 128; sq++ {
				if sq&0x88 == 0 {
					zobristPiece[p][sq] = rng.next()
				}
			}
		}
	}
	zobristSide = rng.next()
	var rights [4]uint64
	for i := range rights {
		rights[i] = rng.next()
	}
	for mask := range zobristCastle {
		var h uint64
		for i := range rights {
			if mask&(1<<i) != 0 {
				h ^= rights[i]
			}
		}
		zobristCastle[mask] = h
	}
	for f := range zobristEPFile {
		zobristEPFile[f] = rng.next()
	}
}

// ComputeHash recomputes the Zobrist hash from scratch. Make and Unmake
// maintain the same value incrementally.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for sq := Square(0); sq < 128; sq++ {
		if !sq.OnBoard() {
			continue
		}
		if pc := p.squares[sq]; pc != NoPiece {
			h ^= zobristPiece[pc][sq]
		}
	}
	if p.side == Black {
		h ^= zobristSide
	}
	h ^= zobristCastle[p.castle]
	if p.ep != NoSquare {
		h ^= zobristEPFile[p.ep.File()]
	}
	return h
}
