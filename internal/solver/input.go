package solver

type Item struct {
	ID     int `json:"id" yaml:"id"`
	Weight int `json:"weight" yaml:"weight"`
	Value  int `json:"value" yaml:"value"`
}

type KnapsackInput struct {
	Capacity int    `json:"capacity" yaml:"capacity"`
	Items    []Item `json:"items" yaml:"items"`
}

type CoinChangeInput struct {
	Amount int   `json:"amount" yaml:"amount"`
	Coins  []int `json:"coins" yaml:"coins"`
}

type Interval struct {
	ID    int `json:"id" yaml:"id"`
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

type IntervalInput struct {
	Intervals []Interval `json:"intervals" yaml:"intervals"`
}

// TextPairInput feeds LCS and edit distance.
type TextPairInput struct {
	Text1 string `json:"text1" yaml:"text1"`
	Text2 string `json:"text2" yaml:"text2"`
}

type HuffmanInput struct {
	Text string `json:"text" yaml:"text"`
}

type MatrixChainInput struct {
	Dimensions []int `json:"dimensions" yaml:"dimensions"`
}

type LISInput struct {
	Sequence []int `json:"sequence" yaml:"sequence"`
}

type RodCuttingInput struct {
	Length int   `json:"length" yaml:"length"`
	Prices []int `json:"prices" yaml:"prices"`
}

// GraphInput feeds Dijkstra, Prim and Kruskal. GraphDOT is used only when
// Graph is empty.
type GraphInput struct {
	Graph     Graph  `json:"graph" yaml:"graph"`
	StartNode string `json:"start_node" yaml:"start_node"`
	EndNode   string `json:"end_node,omitempty" yaml:"end_node,omitempty"`
	GraphDOT  string `json:"graph_dot,omitempty" yaml:"graph_dot,omitempty"`
}
