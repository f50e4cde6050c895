package search

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/zyrachess/zyra/internal/board"
	"github.com/zyrachess/zyra/internal/eval"
)

// Defaults applied to zero-valued Config fields.
const (
	// DefaultPlayouts bounds a search that sets neither MaxPlayouts nor
	// MoveTime.
	DefaultPlayouts       = 10000
	DefaultExplorationC   = 1.414
	DefaultPlayoutDepth   = 50
	DefaultRolloutCP      = 500
	DefaultCutoffInterval = 4
	DefaultTTPriorWeight  = 1.0
	DefaultMinRandomness  = 0.05
	DefaultProgressEvery  = 1000
)

// ErrConfig matches every ConfigError.
var ErrConfig = errors.New("invalid search configuration")

// ConfigError reports a rejected Config field. It unwraps to the underlying
// cause when there is one, such as eval.ErrUnknownStyle.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search config %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("search config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }
func (e *ConfigError) Unwrap() error { return e.Err }

// OrderingHook replaces the built-in move ordering at expansion. It must
// return a permutation of moves.
type OrderingHook func(p *board.Position, moves []board.Move) []board.Move

// Config controls one search call. Zero values select the defaults above.
// For RolloutWinCP, RolloutLossCP and TTPriorWeight a negative value
// disables the feature.
type Config struct {
	MaxPlayouts int
	MoveTime    time.Duration
	Seed        uint64

	// Style names a built-in profile. Weights, when set, replaces the
	// profile's weights; the profile still supplies the temperature.
	Style   string
	Weights *eval.Weights

	// Temperature is the playout softmax temperature in centipawns.
	Temperature float64
	// MinRandomness is the share of every playout choice drawn uniformly.
	// It never drops below MinRandomnessFloor.
	MinRandomness float64

	ExplorationC float64
	PlayoutDepth int

	// Rollouts stop early once the evaluation passes these thresholds,
	// checked every CutoffInterval plies.
	RolloutWinCP   float64
	RolloutLossCP  float64
	CutoffInterval int

	// TTPriorWeight is how many virtual visits a transposition table entry
	// contributes to a new node's mean.
	TTPriorWeight float64

	// Depth is accepted for protocol compatibility and ignored.
	Depth int

	OrderingHook OrderingHook

	// History holds the hashes of the game positions before the root,
	// oldest first, for repetition detection inside the tree.
	History []uint64

	Trace         bool
	Progress      func(Progress)
	ProgressEvery int
}

// settings is a validated Config with defaults filled in.
type settings struct {
	maxPlayouts    int
	moveTime       time.Duration
	seed           uint64
	style          eval.Style
	weights        eval.Weights
	temperature    float64
	minRandomness  float64
	explorationC   float64
	playoutDepth   int
	winCP, lossCP  float64
	cutoffInterval int
	ttPriorWeight  float64
	ordering       OrderingHook
	history        []uint64
	trace          bool
	progress       func(Progress)
	progressEvery  int
	notices        []string
}

func badField(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// CheckPlayouts validates a playout cap supplied explicitly by a caller.
// Config itself reads a zero MaxPlayouts as unset.
func CheckPlayouts(n int) error {
	if n <= 0 {
		return badField("MaxPlayouts", "must be positive")
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate checks c without searching.
func (c Config) Validate() error {
	_, err := c.resolve()
	return err
}

func (c Config) resolve() (settings, error) {
	var s settings
	if c.MaxPlayouts < 0 {
		return s, badField("MaxPlayouts", "must not be negative")
	}
	if c.MoveTime < 0 {
		return s, badField("MoveTime", "must not be negative")
	}
	style, err := eval.LookupStyle(c.Style)
	if err != nil {
		return s, &ConfigError{Field: "Style", Reason: "unknown profile", Err: err}
	}
	s.style = style
	s.weights = style.Weights
	if c.Weights != nil {
		for i, v := range c.Weights {
			if !finite(v) || v < 0 {
				return s, &ConfigError{Field: "Weights", Reason: eval.Term(i).String(), Err: eval.ErrInvalidWeight}
			}
		}
		s.weights = *c.Weights
	}
	if !finite(c.Temperature) || c.Temperature < 0 {
		return s, badField("Temperature", "must be a non-negative number")
	}
	if !finite(c.MinRandomness) || c.MinRandomness < 0 || c.MinRandomness > 1 {
		return s, badField("MinRandomness", "must be within [0, 1]")
	}
	if !finite(c.ExplorationC) || c.ExplorationC < 0 {
		return s, badField("ExplorationC", "must be a non-negative number")
	}
	if c.PlayoutDepth < 0 {
		return s, badField("PlayoutDepth", "must not be negative")
	}
	if c.CutoffInterval < 0 {
		return s, badField("CutoffInterval", "must not be negative")
	}
	if c.ProgressEvery < 0 {
		return s, badField("ProgressEvery", "must not be negative")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"RolloutWinCP", c.RolloutWinCP},
		{"RolloutLossCP", c.RolloutLossCP},
		{"TTPriorWeight", c.TTPriorWeight},
	} {
		if !finite(f.v) {
			return s, badField(f.name, "must be finite")
		}
	}

	s.maxPlayouts = c.MaxPlayouts
	s.moveTime = c.MoveTime
	if s.maxPlayouts == 0 {
		if s.moveTime > 0 {
			s.maxPlayouts = math.MaxInt
		} else {
			s.maxPlayouts = DefaultPlayouts
		}
	}
	s.seed = c.Seed
	s.temperature = orDefault(c.Temperature, style.Temperature)
	s.minRandomness = max(orDefault(c.MinRandomness, DefaultMinRandomness), MinRandomnessFloor)
	s.explorationC = orDefault(c.ExplorationC, DefaultExplorationC)
	s.playoutDepth = c.PlayoutDepth
	if s.playoutDepth == 0 {
		s.playoutDepth = DefaultPlayoutDepth
	}
	s.winCP = enabledOrDefault(c.RolloutWinCP, DefaultRolloutCP)
	s.lossCP = enabledOrDefault(c.RolloutLossCP, DefaultRolloutCP)
	s.cutoffInterval = c.CutoffInterval
	if s.cutoffInterval == 0 {
		s.cutoffInterval = DefaultCutoffInterval
	}
	s.ttPriorWeight = enabledOrDefault(c.TTPriorWeight, DefaultTTPriorWeight)
	s.ordering = c.OrderingHook
	s.history = c.History
	s.trace = c.Trace
	s.progress = c.Progress
	s.progressEvery = c.ProgressEvery
	if s.progressEvery == 0 {
		s.progressEvery = DefaultProgressEvery
	}
	if c.Depth > 0 {
		s.notices = append(s.notices, fmt.Sprintf("depth %d ignored: search is bounded by playouts and time only", c.Depth))
	}
	return s, nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// enabledOrDefault maps zero to def and negative values to 0 (disabled).
func enabledOrDefault(v, def float64) float64 {
	switch {
	case v == 0:
		return def
	case v < 0:
		return 0
	}
	return v
}
