package board

import (
	"sort"
	"testing"

	"github.com/notnil/chess"
)

func oracleMoves(t *testing.T, fen string) []string {
	t.Helper()
	opt, err := chess.FEN(fen)
	if err != nil {
		t.Fatalf("oracle rejected %q: %v", fen, err)
	}
	g := chess.NewGame(opt)
	var out []string
	for _, m := range g.ValidMoves() {
		out = append(out, m.String())
	}
	sort.Strings(out)
	return out
}

func ourMoves(p *Position) []string {
	var out []string
	for _, m := range p.LegalMoves() {
		out = append(out, m.String())
	}
	sort.Strings(out)
	return out
}

// TestLegalMovesMatchOracle compares move generation against an independent
// implementation along random lines from the perft positions.
func TestLegalMovesMatchOracle(t *testing.T) {
	for _, tc := range perftPositions {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			rng := splitmix64{state: 7}
			for ply := 0; ply < 30; ply++ {
				fen := p.FEN()
				got, want := ourMoves(p), oracleMoves(t, fen)
				if len(got) != len(want) {
					t.Fatalf("%s: %d moves %v, oracle %d moves %v", fen, len(got), got, len(want), want)
				}
				for i := range got {
					if got[i] != want[i] {
						t.Fatalf("%s: move %d is %s, oracle %s", fen, i, got[i], want[i])
					}
				}
				moves := p.LegalMoves()
				if len(moves) == 0 {
					break
				}
				p.Make(moves[rng.next()%uint64(len(moves))])
			}
		})
	}
}
