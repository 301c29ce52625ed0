package solver

import (
	"sort"
	"strings"

	"github.com/awmpietro/algotrace/internal/trace"
)

type huffNode struct {
	char        string
	freq        int
	left, right int
}

// Huffman builds a prefix code for the characters of text. Leaves are
// numbered 0..k-1 in (frequency, first appearance) order and internal nodes
// continue from k, so equal frequencies always merge in creation order.
func Huffman(in HuffmanInput) *trace.Trace {
	const timeC, spaceC = "O(n + k log k)", "O(k)"
	r := trace.NewRecorder()

	if in.Text == "" {
		r.Init(&trace.ForestInit{Nodes: []trace.Leaf{}}, "Invalid input: text is empty")
		return r.Finish(&trace.Solution{Reason: "text is empty"}, 0, nil, timeC, spaceC)
	}

	var (
		order []rune
		freq  = map[rune]int{}
	)
	for _, c := range in.Text {
		if _, ok := freq[c]; !ok {
			order = append(order, c)
		}
		freq[c]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		r.Compare(1)
		return freq[order[i]] < freq[order[j]]
	})

	nodes := make([]huffNode, 0, 2*len(order))
	leaves := make([]trace.Leaf, 0, len(order))
	for id, c := range order {
		nodes = append(nodes, huffNode{char: string(c), freq: freq[c], left: -1, right: -1})
		leaves = append(leaves, trace.Leaf{ID: id, Char: string(c), Freq: freq[c]})
	}
	r.Init(&trace.ForestInit{Nodes: leaves}, "Created %d leaves sorted by frequency", len(leaves))

	pq := newMinQueue[int](r)
	for id, n := range nodes {
		pq.pushSeq(n.freq, id, id)
	}

	for pq.Len() > 1 {
		_, left := pq.pop()
		_, right := pq.pop()
		r.Highlight(&trace.MergeFocus{LeftID: left, RightID: right},
			"Lowest frequencies: node %d (%d) and node %d (%d)", left, nodes[left].freq, right, nodes[right].freq)

		id := len(nodes)
		f := nodes[left].freq + nodes[right].freq
		nodes = append(nodes, huffNode{freq: f, left: left, right: right})
		pq.pushSeq(f, id, id)
		r.Update(&trace.Merge{NewNodeID: id, Freq: f, LeftChildID: left, RightChildID: right},
			"Merged %d and %d into node %d with frequency %d", left, right, id, f)
	}

	codes := map[string]string{}
	root := len(nodes) - 1
	if len(order) == 1 {
		codes[nodes[0].char] = "0"
	} else {
		assignCodes(nodes, root, "", codes)
	}

	var (
		bits int
		sb   strings.Builder
	)
	for _, c := range in.Text {
		code := codes[string(c)]
		bits += len(code)
		sb.WriteString(code)
	}
	r.Info("Encoded %d characters in %d bits", len([]rune(in.Text)), bits)

	return r.Finish(&trace.Solution{Value: bits, Found: true, Codes: codes, Text: sb.String()}, bits, nil, timeC, spaceC)
}

func assignCodes(nodes []huffNode, id int, prefix string, codes map[string]string) {
	n := nodes[id]
	if n.left < 0 {
		codes[n.char] = prefix
		return
	}
	assignCodes(nodes, n.left, prefix+"0", codes)
	assignCodes(nodes, n.right, prefix+"1", codes)
}
