package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/zyrachess/zyra/internal/board"
)

const (
	defaultSquarePx = 48
	lightSquare     = "fill:#f0d9b5"
	darkSquare      = "fill:#b58863"
	lastMoveSquare  = "fill:#cdd26a"
)

// pieceGlyphs maps FEN letters to Unicode chess symbols.
var pieceGlyphs = map[byte]string{
	'K': "♔", 'Q': "♕", 'R': "♖", 'B': "♗", 'N': "♘", 'P': "♙",
	'k': "♚", 'q': "♛", 'r': "♜", 'b': "♝", 'n': "♞", 'p': "♟",
}

// RenderBoard draws pos as an SVG diagram, White at the bottom unless
// flipped. The squares of last are highlighted when it is a move.
func RenderBoard(w io.Writer, pos *board.Position, size int, flipped bool, last board.Move) {
	if size <= 0 {
		size = defaultSquarePx
	}
	canvas := svg.New(w)
	canvas.Start(8*size, 8*size)
	canvas.Title("position " + pos.FEN())

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			file, rank := col, 7-row
			if flipped {
				file, rank = 7-col, row
			}
			sq := board.SquareAt(file, rank)
			style := lightSquare
			if (file+rank)%2 == 0 {
				style = darkSquare
			}
			if last != board.NoMove && (last.From() == sq || last.To() == sq) {
				style = lastMoveSquare
			}
			x, y := col*size, row*size
			canvas.Rect(x, y, size, size, style)

			if pc := pos.PieceAt(sq); pc != board.NoPiece {
				canvas.Text(x+size/2, y+size*4/5, pieceGlyphs[pc.Char()],
					fmt.Sprintf("text-anchor:middle;font-size:%dpx;font-family:serif", size*4/5))
			}
		}
	}
	canvas.End()
}

func (h *Handler) boardSVG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	size := defaultSquarePx
	if s := q.Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 8 || n > 256 {
			writeError(w, http.StatusBadRequest, "size must be between 8 and 256")
			return
		}
		size = n
	}
	flipped := strings.EqualFold(q.Get("orientation"), "black")

	h.mu.Lock()
	pos := h.sess.game.Position()
	last := board.NoMove
	if moves := h.sess.game.Moves(); len(moves) > 0 {
		last = moves[len(moves)-1]
	}
	h.mu.Unlock()

	if fen := q.Get("fen"); fen != "" {
		p, err := board.ParseFEN(fen)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		pos, last = p, board.NoMove
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	RenderBoard(w, pos, size, flipped, last)
}
