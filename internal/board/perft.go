package board

import "sort"

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(p *Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	var scratch [256]Move
	moves := p.AppendLegalMoves(scratch[:0])
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		u := p.Make(m)
		nodes += Perft(p, depth-1)
		p.Unmake(u)
	}
	return nodes
}

// DivideEntry is the perft count below one root move.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// Divide runs perft below each root move, sorted by move text.
func Divide(p *Position, depth int) []DivideEntry {
	if depth < 1 {
		depth = 1
	}
	moves := p.LegalMoves()
	out := make([]DivideEntry, 0, len(moves))
	for _, m := range moves {
		u := p.Make(m)
		out = append(out, DivideEntry{Move: m, Nodes: Perft(p, depth-1)})
		p.Unmake(u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Move.String() < out[j].Move.String() })
	return out
}
