package game

import (
	"context"
	"fmt"

	"github.com/freeeve/pgn/v3"
)

// Record is one game read from a PGN file.
type Record struct {
	Index int
	Tags  map[string]string
	Game  *Game
	// Err is set when the FEN tag or a move could not be replayed; Game then
	// holds the moves up to the failure.
	Err error
}

// ReplayPGN streams the games of a .pgn or .pgn.zst file, replays each into
// a Game and passes it to fn. Games with a FEN tag start from that position. Returning an error from fn stops the scan.
func ReplayPGN(ctx context.Context, path string, fn func(Record) error) error {
	parser := pgn.Games(path)
	stopped := false
	stop := func() {
		if !stopped {
			parser.Stop()
			stopped = true
		}
	}

	index := 0
	for pg := range parser.Games {
		if ctx.Err() != nil {
			stop()
			break
		}
		rec := Record{Index: index, Tags: pg.Tags, Game: New()}
		index++
		if fen := pg.Tags["FEN"]; fen != "" {
			g, err := FromFEN(fen)
			if err != nil {
				rec.Err = fmt.Errorf("game %d: %w", rec.Index, err)
			} else {
				rec.Game = g
			}
		}
		for i, mv := range pg.Moves {
			if rec.Err != nil {
				break
			}
			uci := UCIFromPGN(mv)
			if err := rec.Game.ApplyUCI(uci); err != nil {
				rec.Err = fmt.Errorf("game %d ply %d (%s): %w", rec.Index, i+1, uci, err)
				break
			}
		}
		if err := fn(rec); err != nil {
			stop()
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return parser.Err()
}

// UCIFromPGN converts a parser move to UCI notation.
func UCIFromPGN(mv pgn.Mv) string {
	files := "abcdefgh"
	ranks := "12345678"

	uci := string(files[mv.From%8]) + string(ranks[mv.From/8]) +
		string(files[mv.To%8]) + string(ranks[mv.To/8])

	switch mv.Promo {
	case pgn.PromoQueen:
		uci += "q"
	case pgn.PromoRook:
		uci += "r"
	case pgn.PromoBishop:
		uci += "b"
	case pgn.PromoKnight:
		uci += "n"
	}
	return uci
}
