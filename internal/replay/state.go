// Package replay rebuilds the visual state of a trace at any step index by
// folding steps 0..index. The fold never looks ahead and never mutates the
// steps it reads.
package replay

import (
	"github.com/awmpietro/algotrace/internal/trace"
)

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type TableConfig struct {
	Rows      int      `json:"rows"`
	Cols      int      `json:"cols"`
	RowLabels []string `json:"rowLabels,omitempty"`
	ColLabels []string `json:"colLabels,omitempty"`
}

// GreedyDecision is one PICK or REJECT in visitation order.
type GreedyDecision struct {
	ItemID       int     `json:"itemId"`
	Weight       int     `json:"weight"`
	Value        int     `json:"value"`
	Ratio        float64 `json:"ratio"`
	Picked       bool    `json:"picked"`
	CurrentTotal int     `json:"currentTotal"`
}

// ForestNode is a Huffman node. Char is nil for internal nodes. Nodes are
// replaced, never modified in place, so copies may share the pointers.
type ForestNode struct {
	ID       int     `json:"id"`
	Char     *string `json:"char"`
	Freq     int     `json:"freq"`
	LeftID   *int    `json:"leftId,omitempty"`
	RightID  *int    `json:"rightId,omitempty"`
	ParentID *int    `json:"parentId,omitempty"`
}

type Forest struct {
	Nodes map[int]ForestNode `json:"nodes"`
	Roots []int              `json:"roots"`
	Focus *trace.MergeFocus  `json:"focus,omitempty"`
}

// State is the derived view after folding steps 0..Index. Index is -1 before
// the first step.
type State struct {
	Index int         `json:"index"`
	Step  *trace.Step `json:"step"`

	TableConfig     TableConfig `json:"tableConfig"`
	DPTable         [][]int     `json:"dpTable"`
	HighlightedCell *Cell       `json:"highlightedCell"`

	GreedyDecisions []GreedyDecision  `json:"greedyDecisions"`
	Candidates      *trace.Candidates `json:"candidates,omitempty"`

	Forest *Forest `json:"forest,omitempty"`

	Graph    *trace.GraphState `json:"graph,omitempty"`
	Topology *trace.GraphState `json:"topology,omitempty"`

	Solution *trace.Solution `json:"solution,omitempty"`
	Note     string          `json:"note,omitempty"`
}

func emptyState() State {
	return State{
		Index:           -1,
		DPTable:         [][]int{},
		GreedyDecisions: []GreedyDecision{},
	}
}

// clone copies everything the fold mutates in place. Payload pointers are
// shared: steps are immutable.
func (s State) clone() State {
	out := s
	if s.DPTable != nil {
		out.DPTable = make([][]int, len(s.DPTable))
		for i, row := range s.DPTable {
			out.DPTable[i] = append(make([]int, 0, len(row)), row...)
		}
	}
	if s.GreedyDecisions != nil {
		out.GreedyDecisions = append([]GreedyDecision{}, s.GreedyDecisions...)
	}
	if s.Forest != nil {
		f := &Forest{
			Nodes: make(map[int]ForestNode, len(s.Forest.Nodes)),
			Roots: append([]int{}, s.Forest.Roots...),
			Focus: s.Forest.Focus,
		}
		for id, n := range s.Forest.Nodes {
			f.Nodes[id] = n
		}
		out.Forest = f
	}
	return out
}
