// Package game tracks a played game: the current position, the hash history
// used for repetition, and the move list.
package game

import (
	"github.com/samber/lo"

	"github.com/zyrachess/zyra/internal/board"
)

// Game is a sequence of legal moves from a starting position. It is not safe
// for concurrent use.
type Game struct {
	startFEN string
	pos      *board.Position
	hist     *board.History
	moves    []board.Move
	undos    []board.Undo
}

// New starts a game from the standard position.
func New() *Game {
	g, err := FromFEN(board.StartFEN)
	if err != nil {
		panic("game: start position: " + err.Error())
	}
	return g
}

// FromFEN starts a game from fen.
func FromFEN(fen string) (*Game, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Game{
		startFEN: pos.FEN(),
		pos:      pos,
		hist:     board.NewHistory(pos.Hash()),
	}, nil
}

// Position returns a copy of the current position.
func (g *Game) Position() *board.Position { return g.pos.Clone() }

func (g *Game) FEN() string      { return g.pos.FEN() }
func (g *Game) StartFEN() string { return g.startFEN }

// Moves returns the moves played so far.
func (g *Game) Moves() []board.Move { return append([]board.Move(nil), g.moves...) }

// MovesUCI returns the moves played so far in UCI notation.
func (g *Game) MovesUCI() []string {
	return lo.Map(g.moves, func(m board.Move, _ int) string { return m.String() })
}

// Ply returns the number of moves played.
func (g *Game) Ply() int { return len(g.moves) }

// Status classifies the current position with the game's history.
func (g *Game) Status() board.Status { return g.pos.Status(g.hist) }

// PriorHashes returns the hashes of every position before the current one,
// oldest first.
func (g *Game) PriorHashes() []uint64 {
	h := g.hist.Hashes()
	return h[:len(h)-1]
}

// Apply plays m after validating it. On error the game is unchanged.
func (g *Game) Apply(m board.Move) error {
	u, err := g.pos.Apply(m)
	if err != nil {
		return err
	}
	g.push(u)
	return nil
}

// ApplyUCI parses and plays a move in UCI notation. Malformed text fails
// with board.ErrFormat, an illegal move with board.ErrIllegalMove; either
// way the game is unchanged.
func (g *Game) ApplyUCI(s string) error {
	u, err := g.pos.ApplyUCI(s)
	if err != nil {
		return err
	}
	g.push(u)
	return nil
}

func (g *Game) push(u board.Undo) {
	g.moves = append(g.moves, u.Move)
	g.undos = append(g.undos, u)
	g.hist.Push(g.pos.Hash())
}

// TakeBack undoes the last move. It reports false when no move was played.
func (g *Game) TakeBack() bool {
	n := len(g.undos)
	if n == 0 {
		return false
	}
	g.pos.Unmake(g.undos[n-1])
	g.undos = g.undos[:n-1]
	g.moves = g.moves[:n-1]
	g.hist.Pop()
	return true
}

// Clone returns an independent copy.
func (g *Game) Clone() *Game {
	return &Game{
		startFEN: g.startFEN,
		pos:      g.pos.Clone(),
		hist:     g.hist.Clone(),
		moves:    append([]board.Move(nil), g.moves...),
		undos:    append([]board.Undo(nil), g.undos...),
	}
}
