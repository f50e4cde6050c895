package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"4k3/8/8/8/8/8/8/4K3 b - - 37 90",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			p, err := ParseFEN(fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			if got := p.FEN(); got != fen {
				t.Errorf("FEN() = %q, want %q", got, fen)
			}
			if p.Hash() != p.ComputeHash() {
				t.Error("hash not initialised from placement")
			}
		})
	}
}

func TestFENNormalisation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w kqKQ", StartFEN},
		{"4k3/8/8/8/8/8/8/4K3 w -", "4k3/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"4k3/8/8/8/8/8/8/4K3   b  -  -  5", "4k3/8/8/8/8/8/8/4K3 b - - 5 1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeFEN(tt.in)
			if err != nil {
				t.Fatalf("NormalizeFEN: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeFEN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFENErrors(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"too few fields", "8/8/8/8/8/8/8/8 w"},
		{"seven ranks", "8/8/8/8/8/8/8 w - - 0 1"},
		{"bad piece", "rnbqkbnr/ppppxppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"overflow rank", "rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"short rank", "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"no black king", "8/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"two white kings", "4k3/8/8/8/8/8/8/3KK3 w - - 0 1"},
		{"pawn on first rank", "4k3/8/8/8/8/8/8/P3K3 w - - 0 1"},
		{"bad side", "4k3/8/8/8/8/8/8/4K3 x - - 0 1"},
		{"bad castling letter", "4k3/8/8/8/8/8/8/4K3 w X - 0 1"},
		{"castling without rook", "4k3/8/8/8/8/8/8/4K3 w K - 0 1"},
		{"duplicate castling", "r3k2r/8/8/8/8/8/8/R3K2R w KK - 0 1"},
		{"bad ep square", "4k3/8/8/8/8/8/8/4K3 w - e9 0 1"},
		{"ep wrong rank", "4k3/8/8/8/8/8/8/4K3 w - e3 0 1"},
		{"negative halfmove", "4k3/8/8/8/8/8/8/4K3 w - - -1 1"},
		{"zero fullmove", "4k3/8/8/8/8/8/8/4K3 w - - 0 0"},
		{"opponent in check", "4k3/8/8/8/8/8/8/4R1K1 w - - 0 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFEN(tt.fen)
			if err == nil {
				t.Fatalf("ParseFEN(%q) succeeded", tt.fen)
			}
			if !errors.Is(err, ErrFormat) {
				t.Errorf("error %v does not match ErrFormat", err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) || fe.Kind != "position" {
				t.Errorf("error %v is not a position FormatError", err)
			}
		})
	}
}
