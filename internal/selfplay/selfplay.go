// Package selfplay runs engine-versus-engine games.
package selfplay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/game"
	"github.com/zyrachess/zyra/internal/search"
)

// Options configure one game. Zero Playouts and MoveTime fall back to the
// search defaults.
type Options struct {
	StartFEN   string
	MaxPlies   int
	Playouts   int
	MoveTime   time.Duration
	WhiteStyle string
	BlackStyle string
	// Seed of the first ply; ply n searches with Seed+n.
	Seed uint64
}

// Outcome is a finished or truncated game.
type Outcome struct {
	Moves    []string      `json:"moves"`
	Status   string        `json:"status"`
	Result   string        `json:"result"`
	FinalFEN string        `json:"final_fen"`
	Playouts int           `json:"playouts"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Play alternates searches until the game ends, MaxPlies is reached or ctx
// is done.
func Play(ctx context.Context, engine *search.Engine, opts Options) (Outcome, error) {
	g := game.New()
	if opts.StartFEN != "" {
		var err error
		if g, err = game.FromFEN(opts.StartFEN); err != nil {
			return Outcome{}, err
		}
	}
	if opts.MaxPlies <= 0 {
		opts.MaxPlies = 40
	}

	var out Outcome
	start := time.Now()
	for ply := 0; ply < opts.MaxPlies && ctx.Err() == nil; ply++ {
		if g.Status().Terminal() {
			break
		}
		pos := g.Position()
		style := opts.WhiteStyle
		if pos.SideToMove() == board.Black {
			style = opts.BlackStyle
		}
		res, err := engine.Search(ctx, pos, search.Config{
			MaxPlayouts: opts.Playouts,
			MoveTime:    opts.MoveTime,
			Seed:        opts.Seed + uint64(ply),
			Style:       style,
			History:     g.PriorHashes(),
		})
		if errors.Is(err, search.ErrNoLegalMove) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("ply %d: %w", ply+1, err)
		}
		if err := g.Apply(res.Move); err != nil {
			return out, fmt.Errorf("ply %d: engine chose %s: %w", ply+1, res.Move, err)
		}
		out.Playouts += res.Playouts
	}

	st := g.Status()
	out.Moves = g.MovesUCI()
	out.Status = st.String()
	out.Result = resultString(st, g.Position().SideToMove())
	out.FinalFEN = g.FEN()
	out.Elapsed = time.Since(start)
	return out, ctx.Err()
}

// resultString maps a status to PGN result notation.
func resultString(st board.Status, toMove board.Color) string {
	switch {
	case st == board.Checkmate && toMove == board.White:
		return "0-1"
	case st == board.Checkmate:
		return "1-0"
	case st.Draw():
		return "1/2-1/2"
	}
	return "*"
}
