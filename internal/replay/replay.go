package replay

import (
	"github.com/awmpietro/algotrace/internal/trace"
)

// Clamp bounds upto to [-1, n-1].
func Clamp(upto, n int) int {
	if upto < -1 {
		return -1
	}
	if upto > n-1 {
		return n - 1
	}
	return upto
}

// Replay folds steps[0..upto]. Out-of-range indexes are clamped; it never
// panics on a malformed step, it ignores what it cannot apply.
func Replay(steps []trace.Step, upto int) State {
	upto = Clamp(upto, len(steps))
	s := emptyState()
	for i := 0; i <= upto; i++ {
		apply(&s, i, &steps[i])
	}
	return s
}

func apply(s *State, i int, step *trace.Step) {
	s.Index = i
	s.Step = step

	switch p := step.Payload.(type) {
	case *trace.TableInit:
		if step.Kind != trace.KindInit {
			return
		}
		s.TableConfig = TableConfig{Rows: p.Rows, Cols: p.Cols, RowLabels: p.RowLabels, ColLabels: p.ColLabels}
		s.DPTable = make([][]int, max(p.Rows, 0))
		for r := range s.DPTable {
			s.DPTable[r] = make([]int, max(p.Cols, 0))
		}
		s.HighlightedCell = nil

	case *trace.CellUpdate:
		if p.I >= 0 && p.I < len(s.DPTable) && p.J >= 0 && p.J < len(s.DPTable[p.I]) {
			s.DPTable[p.I][p.J] = p.Value
		}
		s.HighlightedCell = &Cell{Row: p.I, Col: p.J}

	case *trace.CellFocus:
		s.HighlightedCell = &Cell{Row: p.I, Col: p.J}

	case *trace.Candidates:
		s.Candidates = p

	case *trace.Decision:
		s.GreedyDecisions = append(s.GreedyDecisions, GreedyDecision{
			ItemID:       p.ItemID,
			Weight:       p.Weight,
			Value:        p.Value,
			Ratio:        p.Ratio,
			Picked:       step.Kind == trace.KindPick,
			CurrentTotal: p.TotalValue,
		})

	case *trace.ForestInit:
		f := &Forest{Nodes: make(map[int]ForestNode, len(p.Nodes)), Roots: make([]int, 0, len(p.Nodes))}
		for _, leaf := range p.Nodes {
			char := leaf.Char
			f.Nodes[leaf.ID] = ForestNode{ID: leaf.ID, Char: &char, Freq: leaf.Freq}
			f.Roots = append(f.Roots, leaf.ID)
		}
		s.Forest = f

	case *trace.MergeFocus:
		if s.Forest != nil {
			s.Forest.Focus = p
		}

	case *trace.Merge:
		if s.Forest != nil {
			merge(s.Forest, p)
		}

	case *trace.GraphState:
		s.Graph = p
		switch step.Kind {
		case trace.KindInit:
			s.Topology = p
		case trace.KindPick, trace.KindReject:
			if p.Candidate != nil {
				s.GreedyDecisions = append(s.GreedyDecisions, GreedyDecision{
					ItemID:       p.Candidate.ID,
					Weight:       p.Candidate.Weight,
					Value:        p.Candidate.Weight,
					Picked:       step.Kind == trace.KindPick,
					CurrentTotal: p.Total,
				})
			}
		}

	case *trace.Solution:
		s.Solution = p

	case *trace.Note:
		s.Note = p.Text
	}
}

func merge(f *Forest, m *trace.Merge) {
	id := m.NewNodeID
	left, right := m.LeftChildID, m.RightChildID
	f.Nodes[id] = ForestNode{ID: id, Freq: m.Freq, LeftID: &left, RightID: &right}

	for _, child := range []int{left, right} {
		if n, ok := f.Nodes[child]; ok {
			parent := id
			n.ParentID = &parent
			f.Nodes[child] = n
		}
	}

	roots := make([]int, 0, len(f.Roots))
	for _, r := range f.Roots {
		if r != left && r != right {
			roots = append(roots, r)
		}
	}
	f.Roots = append(roots, id)
	f.Focus = nil
}
