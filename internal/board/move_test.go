package board

import (
	"errors"
	"testing"
)

func TestNewMove(t *testing.T) {
	tests := []struct {
		name  string
		from  Square
		to    Square
		promo PieceType
		flags MoveFlag
	}{
		{"e2e4", SquareAt(4, 1), SquareAt(4, 3), NoPieceType, FlagDouble},
		{"e7e8q", SquareAt(4, 6), E8, Queen, FlagPromotion},
		{"a1h8", A1, H8, NoPieceType, FlagCapture},
		{"e1g1", E1, G1, NoPieceType, FlagCastle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMove(tt.from, tt.to, tt.promo, tt.flags)
			if m.From() != tt.from || m.To() != tt.to || m.Promo() != tt.promo || m.Flags() != tt.flags {
				t.Errorf("NewMove(%v, %v, %d, %d) decodes to (%v, %v, %d, %d)",
					tt.from, tt.to, tt.promo, tt.flags, m.From(), m.To(), m.Promo(), m.Flags())
			}
			if got := m.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
		})
	}
}

func TestMoveSameIgnoresFlags(t *testing.T) {
	a := NewMove(E1, G1, NoPieceType, FlagCastle)
	b := NewMove(E1, G1, NoPieceType, FlagQuiet)
	if !a.Same(b) {
		t.Error("moves differing only in flags should be the same")
	}
	c := NewMove(SquareAt(0, 6), A8, Queen, FlagPromotion)
	d := NewMove(SquareAt(0, 6), A8, Knight, FlagPromotion)
	if c.Same(d) {
		t.Error("moves with different promotions should differ")
	}
}

func TestNoMoveString(t *testing.T) {
	if got := NoMove.String(); got != "0000" {
		t.Errorf("NoMove.String() = %q, want 0000", got)
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"e2e4", "e2e4", false},
		{"a7a8Q", "a7a8q", false},
		{"h2h1n", "h2h1n", false},
		{"e2", "", true},
		{"e2e9", "", true},
		{"i2e4", "", true},
		{"e2e2", "", true},
		{"e7e8k", "", true},
		{"e2e4qq", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMove(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrFormat) {
					t.Fatalf("ParseMove(%q) error = %v, want ErrFormat", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMove(%q): %v", tt.in, err)
			}
			if m.String() != tt.want {
				t.Errorf("ParseMove(%q) = %s, want %s", tt.in, m, tt.want)
			}
		})
	}
}

func TestSquareOffset(t *testing.T) {
	if got := H1.Offset(1); got != NoSquare {
		t.Errorf("h1+1 = %v, want off board", got)
	}
	if got := A1.Offset(-1); got != NoSquare {
		t.Errorf("a1-1 = %v, want off board", got)
	}
	if got := H8.Offset(16); got != NoSquare {
		t.Errorf("h8+16 = %v, want off board", got)
	}
	if got := E1.Offset(17); got.String() != "f2" {
		t.Errorf("e1+17 = %v, want f2", got)
	}
}
