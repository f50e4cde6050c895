package eval

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownStyle is returned by LookupStyle for names with no profile.
var ErrUnknownStyle = errors.New("unknown style")

// DefaultTemperature is the playout softmax temperature in centipawns used by
// styles that do not set their own.
const DefaultTemperature = 100.0

// Style is a named weight profile plus the playout temperature it prefers.
type Style struct {
	Name        string
	Weights     Weights
	Temperature float64
}

var profiles = map[string]Style{
	"default": {
		Name:        "default",
		Weights:     Uniform(),
		Temperature: DefaultTemperature,
	},
	"aggressive": {
		Name: "aggressive",
		Weights: Weights{
			Material:        1.0,
			AttackingMotifs: 1.3,
			CenterControl:   1.1,
			RookFiles:       1.05,
			Mobility:        1.0,
			KingSafety:      1.0,
			Initiative:      1.0,
		},
		Temperature: 80,
	},
	"defensive": {
		Name: "defensive",
		Weights: Weights{
			Material:        1.05,
			AttackingMotifs: 0.9,
			CenterControl:   1.0,
			RookFiles:       1.0,
			Mobility:        0.95,
			KingSafety:      1.3,
			Initiative:      0.9,
		},
		Temperature: 120,
	},
	"experimental": {
		Name: "experimental",
		Weights: Weights{
			Material:        0.95,
			AttackingMotifs: 1.2,
			CenterControl:   1.05,
			RookFiles:       1.05,
			Mobility:        1.25,
			KingSafety:      0.9,
			Initiative:      1.1,
		},
		Temperature: 150,
	},
}

// LookupStyle returns the named profile. The empty name selects "default".
func LookupStyle(name string) (Style, error) {
	if name == "" {
		name = "default"
	}
	s, ok := profiles[name]
	if !ok {
		return Style{}, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	return s, nil
}

// StyleNames lists the built-in profiles in sorted order.
func StyleNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CustomStyle wraps explicit weights as an unnamed style.
func CustomStyle(w Weights) Style {
	return Style{Name: "custom", Weights: w, Temperature: DefaultTemperature}
}
