package board

import "testing"

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want Status
	}{
		{"start", StartFEN, Ongoing},
		{"fools mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", Checkmate},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Stalemate},
		{"fifty moves", "4k3/8/8/8/8/8/4P3/4K3 w - - 100 80", FiftyMove},
		{"bare kings", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", InsufficientMaterial},
		{"king and knight", "4k3/8/8/8/8/8/8/4KN2 w - - 0 1", InsufficientMaterial},
		{"same colour bishops", "4kb2/8/8/8/8/8/8/2B1K3 w - - 0 1", InsufficientMaterial},
		{"opposite colour bishops", "4k1b1/8/8/8/8/8/8/2B1K3 w - - 0 1", Ongoing},
		{"two knights", "4k3/8/8/8/8/8/8/3NKN2 w - - 0 1", Ongoing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseFEN(tt.fen)
			if err != nil {
				t.Fatal(err)
			}
			if got := p.Status(nil); got != tt.want {
				t.Errorf("Status = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusRepetition(t *testing.T) {
	p := NewPosition()
	hist := NewHistory(p.Hash())
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"}
	for i, mv := range shuffle {
		if _, err := p.ApplyUCI(mv); err != nil {
			t.Fatalf("%s: %v", mv, err)
		}
		hist.Push(p.Hash())
		want := Ongoing
		if i == len(shuffle)-1 {
			want = Repetition
		}
		if got := p.Status(hist); got != want {
			t.Errorf("after %d plies: Status = %v, want %v", i+1, got, want)
		}
	}
	if n := hist.Count(p.Hash(), 0); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
	hist.Pop()
	if n := hist.Count(p.Hash(), 0); n != 2 {
		t.Errorf("Count after Pop = %d, want 2", n)
	}
}
