// Package eval scores positions as a weighted sum of explainable terms.
//
// Scores are centipawns from White's point of view. A style scales each term
// by a multiplier; the search engine reads both the total and the per-term
// breakdown, so Total always equals the weighted sum of Terms.
package eval

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Term identifies one evaluation component.
type Term int

const (
	Material Term = iota
	AttackingMotifs
	CenterControl
	RookFiles
	Mobility
	KingSafety
	Initiative

	NumTerms
)

var termNames = [NumTerms]string{
	Material:        "material",
	AttackingMotifs: "attacking_motifs",
	CenterControl:   "center_control",
	RookFiles:       "rook_files",
	Mobility:        "mobility",
	KingSafety:      "king_safety",
	Initiative:      "initiative",
}

func (t Term) String() string {
	if t < 0 || t >= NumTerms {
		return fmt.Sprintf("term(%d)", int(t))
	}
	return termNames[t]
}

// ParseTerm maps a term name to its identifier.
func ParseTerm(name string) (Term, bool) {
	for i, n := range termNames {
		if n == name {
			return Term(i), true
		}
	}
	return 0, false
}

// TermNames lists every term name in enumeration order.
func TermNames() []string {
	out := make([]string, NumTerms)
	copy(out, termNames[:])
	return out
}

// Weights holds one multiplier per term.
type Weights [NumTerms]float64

// Uniform returns weights of 1.0 for every term.
func Uniform() Weights {
	var w Weights
	for i := range w {
		w[i] = 1
	}
	return w
}

var (
	// ErrUnknownTerm is returned for weight maps naming a term that does not exist.
	ErrUnknownTerm = errors.New("unknown evaluation term")
	// ErrInvalidWeight is returned for negative or non-finite weights.
	ErrInvalidWeight = errors.New("invalid term weight")
)

// ParseWeights builds weights from a name→multiplier map. Terms missing from
// the map keep a weight of 1.0.
func ParseWeights(m map[string]float64) (Weights, error) {
	w := Uniform()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t, ok := ParseTerm(k)
		if !ok {
			return Weights{}, fmt.Errorf("%w: %q", ErrUnknownTerm, k)
		}
		v := m[k]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Weights{}, fmt.Errorf("%w: %s=%v", ErrInvalidWeight, k, v)
		}
		w[t] = v
	}
	return w, nil
}

// Map returns the weights keyed by term name.
func (w Weights) Map() map[string]float64 {
	out := make(map[string]float64, NumTerms)
	for i, v := range w {
		out[termNames[i]] = v
	}
	return out
}
