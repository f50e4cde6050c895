package selfplay

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/search"
	"github.com/zyrachess/zyra/internal/tt"
)

func newEngine() *search.Engine {
	return search.New(search.Options{TT: tt.New(tt.MinEntries * 16), Logger: zerolog.Nop()})
}

func TestPlayShortGame(t *testing.T) {
	out, err := Play(context.Background(), newEngine(), Options{MaxPlies: 6, Playouts: 60, Seed: 9, WhiteStyle: "aggressive", BlackStyle: "defensive"})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(out.Moves) != 6 || out.Result != "*" || out.Status != "ongoing" {
		t.Errorf("outcome %+v", out)
	}
	if out.Playouts != 6*60 {
		t.Errorf("playouts %d, want 360", out.Playouts)
	}
}

func TestPlayDeliversMate(t *testing.T) {
	out, err := Play(context.Background(), newEngine(), Options{
		StartFEN: "6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
		MaxPlies: 10,
		Playouts: 200,
		Seed:     1,
	})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if out.Result != "1-0" || len(out.Moves) != 1 || out.Moves[0] != "d1d8" {
		t.Errorf("outcome %+v", out)
	}
}

func TestPlayFromFinishedPosition(t *testing.T) {
	out, err := Play(context.Background(), newEngine(), Options{StartFEN: "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Playouts: 10})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(out.Moves) != 0 || out.Result != "1/2-1/2" || out.Status != "stalemate" {
		t.Errorf("outcome %+v", out)
	}
}

func TestPlayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := Play(ctx, newEngine(), Options{MaxPlies: 10, Playouts: 10})
	if err != context.Canceled || len(out.Moves) != 0 {
		t.Errorf("moves %v err %v", out.Moves, err)
	}
}

func TestResultString(t *testing.T) {
	tests := []struct {
		st   board.Status
		side board.Color
		want string
	}{
		{board.Checkmate, board.White, "0-1"},
		{board.Checkmate, board.Black, "1-0"},
		{board.FiftyMove, board.White, "1/2-1/2"},
		{board.Repetition, board.Black, "1/2-1/2"},
		{board.Ongoing, board.White, "*"},
	}
	for _, tt := range tests {
		if got := resultString(tt.st, tt.side); got != tt.want {
			t.Errorf("resultString(%v, %v) = %q, want %q", tt.st, tt.side, got, tt.want)
		}
	}
}

func TestPlayRejectsBadFEN(t *testing.T) {
	if _, err := Play(context.Background(), newEngine(), Options{StartFEN: "nope"}); err == nil {
		t.Error("Play accepted a malformed FEN")
	}
}
