package board

import "testing"

func TestLeastAttacker(t *testing.T) {
	d4, d2 := SquareAt(3, 3), SquareAt(3, 1)
	tests := []struct {
		name string
		fen  string
		sq   Square
		by   Color
		want PieceType
	}{
		{"rook only", "3rk3/8/8/8/8/8/8/4K3 w - - 0 1", d4, Black, Rook},
		{"bishop beats rook", "3rk3/6b1/8/8/8/8/8/4K3 w - - 0 1", d4, Black, Bishop},
		{"knight", "3rk3/6b1/2n5/8/8/8/8/4K3 w - - 0 1", d4, Black, Knight},
		{"pawn", "3rk3/6b1/2n5/4p3/8/8/8/4K3 w - - 0 1", d4, Black, Pawn},
		{"blocked rook", "3rk3/3p4/8/8/8/8/8/4K3 w - - 0 1", d4, Black, NoPieceType},
		{"king last", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", d2, White, King},
		{"white pawn", "4k3/8/8/8/8/8/2P5/4K3 w - - 0 1", SquareAt(3, 2), White, Pawn},
		{"nothing", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", d4, White, NoPieceType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseFEN(tt.fen)
			if err != nil {
				t.Fatal(err)
			}
			got := p.LeastAttacker(tt.sq, tt.by)
			if got != tt.want {
				t.Errorf("LeastAttacker(%s) = %v, want %v", tt.sq, got, tt.want)
			}
			if (got != NoPieceType) != p.IsAttacked(tt.sq, tt.by) {
				t.Errorf("LeastAttacker and IsAttacked disagree on %s", tt.sq)
			}
		})
	}
}
