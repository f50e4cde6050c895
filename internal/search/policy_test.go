package search

import (
	"math"
	"reflect"
	"testing"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/eval"
)

func uciList(moves []board.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}

func TestOrderMovesMateFirst(t *testing.T) {
	p := mustFEN(t, "6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1")
	ordered := OrderMoves(p, p.LegalMoves(), eval.Uniform())
	if got := ordered[0].String(); got != "d1d8" {
		t.Errorf("first move %s, want the mate d1d8 (order %v)", got, uciList(ordered))
	}
}

func TestOrderMovesCapturesByVictim(t *testing.T) {
	p := mustFEN(t, "4k3/8/8/1r1q4/2P5/2N5/8/4K3 w - - 0 1")
	before := p.FEN()
	ordered := uciList(OrderMoves(p, p.LegalMoves(), eval.Uniform()))
	want := []string{"c4d5", "c3d5", "c4b5", "c3b5"}
	if !reflect.DeepEqual(ordered[:4], want) {
		t.Errorf("captures ordered %v, want %v", ordered[:4], want)
	}
	if p.FEN() != before {
		t.Error("OrderMoves left the position modified")
	}
}

func TestOrderMovesPromotionsBeforeCaptures(t *testing.T) {
	p := mustFEN(t, "7k/P7/8/8/8/2p5/1P6/K7 w - - 0 1")
	ordered := uciList(OrderMoves(p, p.LegalMoves(), eval.Uniform()))
	want := []string{"a7a8q", "a7a8r", "a7a8b", "a7a8n", "b2c3"}
	if !reflect.DeepEqual(ordered[:5], want) {
		t.Errorf("ordered %v, want prefix %v", ordered, want)
	}
}

func TestOrderMovesDeterministic(t *testing.T) {
	p := mustFEN(t, "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10")
	agg, _ := eval.LookupStyle("aggressive")
	a := OrderMoves(p, p.LegalMoves(), agg.Weights)
	b := OrderMoves(p, p.LegalMoves(), agg.Weights)
	if !reflect.DeepEqual(a, b) {
		t.Error("ordering is not deterministic")
	}
	if !validPermutation(p.LegalMoves(), a) {
		t.Error("ordering is not a permutation of the legal moves")
	}
}

func TestProbabilitiesKeepFloor(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		temp   float64
		floor  float64
	}{
		{"greedy", []float64{10000, 0, 0}, 0, 0},
		{"hot", []float64{50, 0, -50}, 1e6, 0.05},
		{"floor above one", []float64{1, 2}, 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs := Probabilities(tt.scores, tt.temp, tt.floor)
			var sum float64
			minP := MinRandomnessFloor / float64(len(probs))
			for i, p := range probs {
				sum += p
				if p < minP-1e-12 {
					t.Errorf("probability %d = %v below floor %v", i, p, minP)
				}
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("probabilities sum to %v", sum)
			}
		})
	}
}

func TestSampleMoveReproducible(t *testing.T) {
	scores := []float64{30, 10, -20, 0, 55}
	a, b := NewRNG(11), NewRNG(11)
	counts := make([]int, len(scores))
	for i := 0; i < 2000; i++ {
		x, y := SampleMove(a, scores, 25, 0.05), SampleMove(b, scores, 25, 0.05)
		if x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
		counts[x]++
	}
	for i, c := range counts {
		if c == 0 {
			t.Errorf("move %d never sampled", i)
		}
	}
	if counts[4] <= counts[2] {
		t.Errorf("best move sampled %d times, worst %d", counts[4], counts[2])
	}
}
