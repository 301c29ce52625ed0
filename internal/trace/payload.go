package trace

import "fmt"

// Shape discriminates the payload variant carried by a step.
type Shape string

const (
	ShapeTable      Shape = "table"
	ShapeCellUpdate Shape = "cell_update"
	ShapeCellFocus  Shape = "cell_focus"
	ShapeCandidates Shape = "candidates"
	ShapeDecision   Shape = "decision"
	ShapeGraph      Shape = "graph"
	ShapeForest     Shape = "forest"
	ShapeMergeFocus Shape = "merge_focus"
	ShapeMerge      Shape = "merge"
	ShapeSolution   Shape = "solution"
	ShapeNote       Shape = "note"
)

// Payload is implemented by every step payload variant.
type Payload interface {
	Shape() Shape
}

func newPayload(s Shape) (Payload, error) {
	switch s {
	case ShapeTable:
		return &TableInit{}, nil
	case ShapeCellUpdate:
		return &CellUpdate{}, nil
	case ShapeCellFocus:
		return &CellFocus{}, nil
	case ShapeCandidates:
		return &Candidates{}, nil
	case ShapeDecision:
		return &Decision{}, nil
	case ShapeGraph:
		return &GraphState{}, nil
	case ShapeForest:
		return &ForestInit{}, nil
	case ShapeMergeFocus:
		return &MergeFocus{}, nil
	case ShapeMerge:
		return &Merge{}, nil
	case ShapeSolution:
		return &Solution{}, nil
	case ShapeNote:
		return &Note{}, nil
	}
	return nil, fmt.Errorf("unknown payload shape %q", s)
}

var allowedShapes = map[Kind][]Shape{
	KindInit:      {ShapeTable, ShapeCandidates, ShapeForest, ShapeGraph},
	KindUpdate:    {ShapeCellUpdate, ShapeMerge, ShapeGraph},
	KindHighlight: {ShapeCellFocus, ShapeMergeFocus, ShapeGraph},
	KindPick:      {ShapeDecision, ShapeGraph},
	KindReject:    {ShapeDecision, ShapeGraph},
	KindSolution:  {ShapeSolution},
	KindInfo:      {ShapeNote},
	KindSort:      {ShapeCandidates, ShapeNote},
}

// Allows reports whether a payload shape may travel under kind k.
func (k Kind) Allows(s Shape) bool {
	for _, allowed := range allowedShapes[k] {
		if allowed == s {
			return true
		}
	}
	return false
}

// TableInit establishes a rows x cols DP table.
type TableInit struct {
	Rows      int      `json:"rows"`
	Cols      int      `json:"cols"`
	RowLabels []string `json:"row_labels,omitempty"`
	ColLabels []string `json:"col_labels,omitempty"`
}

func (*TableInit) Shape() Shape { return ShapeTable }

// CellUpdate sets table[I][J] = Value.
type CellUpdate struct {
	I      int    `json:"i"`
	J      int    `json:"j"`
	Value  int    `json:"value"`
	Action string `json:"action,omitempty"`
	Split  *int   `json:"split,omitempty"`
}

func (*CellUpdate) Shape() Shape { return ShapeCellUpdate }

// CellFocus moves the highlighted cell without writing it.
type CellFocus struct {
	I         int    `json:"i"`
	J         int    `json:"j"`
	K         *int   `json:"k,omitempty"`
	Candidate *int   `json:"candidate,omitempty"`
	Compare   string `json:"compare,omitempty"`
}

func (*CellFocus) Shape() Shape { return ShapeCellFocus }

type Candidate struct {
	ItemID int     `json:"item_id"`
	Weight int     `json:"weight"`
	Value  int     `json:"value"`
	Ratio  float64 `json:"ratio"`
}

// Candidates is the greedy visitation order, already sorted by Key.
type Candidates struct {
	Key   string      `json:"key"`
	Items []Candidate `json:"items"`
}

func (*Candidates) Shape() Shape { return ShapeCandidates }

// Decision records one accepted or skipped greedy candidate.
type Decision struct {
	ItemID     int     `json:"item_id"`
	Weight     int     `json:"weight"`
	Value      int     `json:"value"`
	Ratio      float64 `json:"ratio"`
	TotalValue int     `json:"total_value"`
	Count      int     `json:"count,omitempty"`
}

func (*Decision) Shape() Shape { return ShapeDecision }

type Edge struct {
	ID     int    `json:"id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}

// GraphState is a full snapshot of a graph algorithm. Unlike table payloads
// it is never a delta: each step carries everything a consumer needs.
type GraphState struct {
	Nodes            []string          `json:"nodes,omitempty"`
	Edges            []Edge            `json:"edges,omitempty"`
	Start            string            `json:"start,omitempty"`
	CurrentNode      string            `json:"current_node,omitempty"`
	CheckingNeighbor string            `json:"checking_neighbor,omitempty"`
	EdgeWeight       *int              `json:"edge_weight,omitempty"`
	Distances        map[string]int    `json:"distances,omitempty"`
	Previous         map[string]string `json:"previous,omitempty"`
	Visited          []string          `json:"visited"`
	MSTEdges         []Edge            `json:"mst_edges,omitempty"`
	Candidate        *Edge             `json:"candidate,omitempty"`
	Path             []string          `json:"path,omitempty"`
	Total            int               `json:"total"`
}

func (*GraphState) Shape() Shape { return ShapeGraph }

type Leaf struct {
	ID   int    `json:"id"`
	Char string `json:"char"`
	Freq int    `json:"freq"`
}

// ForestInit establishes the Huffman leaf forest.
type ForestInit struct {
	Nodes []Leaf `json:"nodes"`
}

func (*ForestInit) Shape() Shape { return ShapeForest }

type MergeFocus struct {
	LeftID  int `json:"left_id"`
	RightID int `json:"right_id"`
}

func (*MergeFocus) Shape() Shape { return ShapeMergeFocus }

// Merge replaces two forest roots with a new internal node.
type Merge struct {
	NewNodeID    int `json:"new_node_id"`
	Freq         int `json:"freq"`
	LeftChildID  int `json:"left_child_id"`
	RightChildID int `json:"right_child_id"`
}

func (*Merge) Shape() Shape { return ShapeMerge }

// Solution summarises the answer. Found is false for invalid input and for
// unsatisfiable problems.
type Solution struct {
	Value            int               `json:"value"`
	Found            bool              `json:"found"`
	Reason           string            `json:"reason,omitempty"`
	Selected         []int             `json:"selected,omitempty"`
	Text             string            `json:"text,omitempty"`
	Codes            map[string]string `json:"codes,omitempty"`
	Path             []string          `json:"path,omitempty"`
	Distances        map[string]int    `json:"distances,omitempty"`
	Operations       []string          `json:"operations,omitempty"`
	Cuts             []int             `json:"cuts,omitempty"`
	Parenthesization string            `json:"parenthesization,omitempty"`
}

func (*Solution) Shape() Shape { return ShapeSolution }

type Note struct {
	Text string `json:"text"`
}

func (*Note) Shape() Shape { return ShapeNote }

// IntPtr is a helper for optional integer payload fields.
func IntPtr(v int) *int { return &v }
