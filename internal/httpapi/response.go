package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/zyrachess/zyra/internal/eco"
	"github.com/zyrachess/zyra/internal/search"
)

// StateResponse describes the session game.
type StateResponse struct {
	FEN        string       `json:"fen"`
	History    []string     `json:"history"`
	SideToMove string       `json:"side_to_move"`
	Status     string       `json:"status"`
	EvalCP     *float64     `json:"eval_cp"`
	Style      string       `json:"style"`
	MoveTimeMS int64        `json:"movetime_ms"`
	EngineMove string       `json:"engine_move,omitempty"`
	Search     *SearchInfo  `json:"search,omitempty"`
	Opening    *eco.Opening `json:"opening,omitempty"`
}

// SearchInfo summarises the engine's last reply.
type SearchInfo struct {
	Playouts  int                `json:"playouts"`
	Nodes     int                `json:"nodes"`
	ElapsedMS int64              `json:"elapsed_ms"`
	ScoreCP   int                `json:"score_cp"`
	PV        []string           `json:"pv"`
	Stop      search.StopReason  `json:"stop"`
	Children  []search.ChildStat `json:"children,omitempty"`
	Notices   []string           `json:"notices,omitempty"`
}

// TermResponse is one evaluation term of an explanation.
type TermResponse struct {
	Raw          float64 `json:"raw"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// ExplainResponse breaks the static evaluation into its terms.
type ExplainResponse struct {
	FEN   string                  `json:"fen"`
	Style string                  `json:"style"`
	Total float64                 `json:"total"`
	Terms map[string]TermResponse `json:"terms"`
}

// LegalResponse lists the target squares of one origin square.
type LegalResponse struct {
	From    string   `json:"from"`
	Targets []string `json:"targets"`
}

// ErrorResponse is the body of every 4xx and 5xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
