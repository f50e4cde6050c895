package board

import (
	"fmt"
	"testing"
)

var perftPositions = []struct {
	name  string
	fen   string
	nodes []uint64
}{
	{"start", StartFEN, []uint64{20, 400, 8902, 197281}},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", []uint64{48, 2039, 97862}},
	{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", []uint64{14, 191, 2812, 43238}},
	{"position4", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []uint64{6, 264, 9467}},
	{"position5", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []uint64{44, 1486, 62379}},
	{"position6", "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10", []uint64{46, 2079, 89890}},
}

func TestPerft(t *testing.T) {
	for _, tc := range perftPositions {
		for i, want := range tc.nodes {
			depth := i + 1
			if testing.Short() && want > 10000 {
				continue
			}
			t.Run(fmt.Sprintf("%s/d%d", tc.name, depth), func(t *testing.T) {
				p, err := ParseFEN(tc.fen)
				if err != nil {
					t.Fatalf("ParseFEN: %v", err)
				}
				before := p.FEN()
				if got := Perft(p, depth); got != want {
					t.Errorf("Perft(%d) = %d, want %d", depth, got, want)
				}
				if p.FEN() != before || p.Hash() != p.ComputeHash() {
					t.Error("perft did not restore the position")
				}
			})
		}
	}
}

func TestDivideSumsToPerft(t *testing.T) {
	p, err := ParseFEN(perftPositions[1].fen)
	if err != nil {
		t.Fatal(err)
	}
	entries := Divide(p, 2)
	if len(entries) != 48 {
		t.Fatalf("Divide returned %d root moves, want 48", len(entries))
	}
	var sum uint64
	for i, e := range entries {
		sum += e.Nodes
		if i > 0 && entries[i-1].Move.String() >= e.Move.String() {
			t.Errorf("entries not sorted at %d: %s >= %s", i, entries[i-1].Move, e.Move)
		}
	}
	if sum != 2039 {
		t.Errorf("divide sum = %d, want 2039", sum)
	}
}
