package search

import (
	"math"

	"github.com/zyrachess/zyra/internal/board"
)

const noNode int32 = -1

// node is one position in the search tree. Nodes live in an arena and refer
// to each other by index; parent is only used for backpropagation.
//
// value accumulates results from the point of view of the side that made
// move, so a parent picks the child with the highest mean.
type node struct {
	move     board.Move
	parent   int32
	children []int32
	untried  []board.Move
	hash     uint64

	visits uint32
	value  float64

	// prior and priorWeight come from the transposition table when the
	// node is created.
	prior       float64
	priorWeight float64

	generated bool
	terminal  bool
	status    board.Status
}

func (n *node) mean() float64 {
	d := float64(n.visits) + n.priorWeight
	if d == 0 {
		return 0
	}
	return (n.value + n.prior*n.priorWeight) / d
}

// mated reports whether the move into n delivered checkmate.
func (n *node) mated() bool { return n.terminal && n.status == board.Checkmate }

type tree struct {
	nodes []node
}

func newTree(capacity int) *tree {
	return &tree{nodes: make([]node, 0, capacity)}
}

func (t *tree) add(n node) int32 {
	t.nodes = append(t.nodes, n)
	idx := int32(len(t.nodes) - 1)
	if n.parent != noNode {
		p := &t.nodes[n.parent]
		p.children = append(p.children, idx)
	}
	return idx
}

func (t *tree) at(i int32) *node { return &t.nodes[i] }

func (t *tree) len() int { return len(t.nodes) }

// uct scores child c of a parent with parentVisits visits.
func uct(c *node, parentVisits uint32, explorationC float64) float64 {
	if c.mated() {
		return math.Inf(1)
	}
	if c.visits == 0 && c.priorWeight == 0 {
		return math.Inf(1)
	}
	explore := explorationC * math.Sqrt(math.Log(float64(parentVisits)+1)/(1+float64(c.visits)))
	return c.mean() + explore
}

// selectChild returns the child of parent with the highest UCT score; ties
// go to the earlier child.
func (t *tree) selectChild(parent int32, explorationC float64) int32 {
	p := t.at(parent)
	best, bestScore := noNode, math.Inf(-1)
	for _, ci := range p.children {
		s := uct(t.at(ci), p.visits, explorationC)
		if best == noNode || s > bestScore {
			best, bestScore = ci, s
		}
	}
	return best
}

// robustChild picks the root move: a mating child if any, otherwise the
// most visited child, then the higher mean, then the earlier child.
func (t *tree) robustChild(parent int32) int32 {
	p := t.at(parent)
	best := noNode
	for _, ci := range p.children {
		c := t.at(ci)
		if c.mated() {
			return ci
		}
		if best == noNode {
			best = ci
			continue
		}
		b := t.at(best)
		if c.visits > b.visits || (c.visits == b.visits && c.mean() > b.mean()) {
			best = ci
		}
	}
	return best
}

// principalVariation follows the most visited children from start.
func (t *tree) principalVariation(start int32, limit int) []board.Move {
	var pv []board.Move
	for cur := start; cur != noNode && len(pv) < limit; cur = t.robustChild(cur) {
		n := t.at(cur)
		if n.visits == 0 {
			break
		}
		pv = append(pv, n.move)
	}
	return pv
}
