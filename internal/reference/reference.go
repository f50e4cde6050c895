// Package reference scores positions with an external UCI engine such as
// Stockfish. It is used to grade the moves the search picks.
package reference

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/freeeve/uci"
	"github.com/rs/zerolog"
)

// ErrNoEngine is returned when no engine binary is configured.
var ErrNoEngine = errors.New("reference engine path required")

// Config configures the external engine.
type Config struct {
	Path    string // engine binary; empty reads STOCKFISH_PATH
	Depth   int    // default search depth
	HashMB  int
	Threads int
	Nice    int
	Logger  zerolog.Logger
}

// Score is an evaluation from White's point of view.
type Score struct {
	CP     int  `json:"cp"`
	Mate   int  `json:"mate,omitempty"`
	IsMate bool `json:"is_mate"`
	Depth  int  `json:"depth"`
}

// Engine is a running external engine. Evaluate calls are serialised.
type Engine struct {
	mu     sync.Mutex
	engine *uci.Engine
	cfg    Config
	log    zerolog.Logger
}

// New starts the engine and applies the options.
func New(cfg Config) (*Engine, error) {
	if cfg.Path == "" {
		cfg.Path = os.Getenv("STOCKFISH_PATH")
	}
	if cfg.Path == "" {
		return nil, ErrNoEngine
	}
	if cfg.Depth == 0 {
		cfg.Depth = 16
	}
	if cfg.HashMB == 0 {
		cfg.HashMB = 64
	}
	if cfg.Threads == 0 {
		cfg.Threads = 1
	}

	engine, err := uci.NewEngine(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	opts := uci.Options{
		Hash:    cfg.HashMB,
		Threads: cfg.Threads,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}
	if err := engine.SetOptions(opts); err != nil {
		engine.Close()
		return nil, fmt.Errorf("set options: %w", err)
	}
	log := cfg.Logger.With().Str("component", "reference").Logger()
	if cfg.Nice > 0 {
		if err := engine.SetNice(min(cfg.Nice, 19)); err != nil {
			log.Warn().Err(err).Int("nice", cfg.Nice).Msg("failed to set nice value")
		}
	}
	log.Info().Str("path", cfg.Path).Int("depth", cfg.Depth).Msg("reference engine started")
	return &Engine{engine: engine, cfg: cfg, log: log}, nil
}

// Close stops the engine process.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.engine != nil {
		e.engine.Close()
		e.engine = nil
	}
	return nil
}

// Evaluate searches fen to depth (zero uses the configured depth).
func (e *Engine) Evaluate(fen string, depth int) (Score, error) {
	if depth <= 0 {
		depth = e.cfg.Depth
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.engine == nil {
		return Score{}, fmt.Errorf("evaluate: engine closed")
	}

	if err := e.engine.SetFEN(fen); err != nil {
		return Score{}, fmt.Errorf("set FEN: %w", err)
	}
	results, err := e.engine.GoDepth(depth, uci.HighestDepthOnly)
	if err != nil {
		return Score{}, fmt.Errorf("engine eval: %w", err)
	}
	if len(results.Results) == 0 {
		return Score{}, fmt.Errorf("no results from engine")
	}

	best := results.Results[0]
	for _, r := range results.Results {
		if r.Depth > best.Depth {
			best = r
		}
	}
	s := normalize(fen, best.Score, best.Mate, best.Depth)
	e.log.Debug().Str("fen", fen).Int("cp", s.CP).Int("mate", s.Mate).Msg("evaluated")
	return s, nil
}

// normalize turns a side-to-move score into one from White's side.
func normalize(fen string, score int, mate bool, depth int) Score {
	if strings.Contains(fen, " b ") {
		score = -score
	}
	if mate {
		return Score{Mate: score, IsMate: true, Depth: depth}
	}
	return Score{CP: score, Depth: depth}
}

// ForMover returns the score from the point of view of color, "w" or "b".
func (s Score) ForMover(color string) Score {
	if color == "b" {
		s.CP, s.Mate = -s.CP, -s.Mate
	}
	return s
}
