// Package render turns replayed states into Graphviz DOT, plain-text tables
// and terminal charts.
package render

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/awmpietro/algotrace/internal/replay"
	"github.com/awmpietro/algotrace/internal/trace"
)

var ErrNoGraph = errors.New("state has no graph")

const (
	colorVisited = "lightblue"
	colorCurrent = "orange"
	colorFocus   = "red"
)

type edgeKey struct{ from, to string }

// GraphDOT draws the graph topology with the current snapshot overlaid:
// visited nodes filled, the current node highlighted, tree and path edges
// bold and the candidate edge red.
func GraphDOT(st replay.State, directed bool) (string, error) {
	if st.Topology == nil {
		return "", ErrNoGraph
	}
	snap := st.Graph
	if snap == nil {
		snap = st.Topology
	}

	g := gographviz.NewGraph()
	if err := g.SetName("algotrace"); err != nil {
		return "", err
	}
	if err := g.SetDir(directed); err != nil {
		return "", err
	}

	visited := make(map[string]bool, len(snap.Visited))
	for _, n := range snap.Visited {
		visited[n] = true
	}

	for _, n := range st.Topology.Nodes {
		attrs := map[string]string{"label": strconv.Quote(nodeLabel(n, snap.Distances))}
		switch {
		case n == snap.CurrentNode:
			attrs["style"] = "filled"
			attrs["fillcolor"] = colorCurrent
		case visited[n]:
			attrs["style"] = "filled"
			attrs["fillcolor"] = colorVisited
		}
		if n == snap.CheckingNeighbor {
			attrs["color"] = colorFocus
		}
		if err := g.AddNode("algotrace", strconv.Quote(n), attrs); err != nil {
			return "", fmt.Errorf("add node %s: %w", n, err)
		}
	}

	bold := map[edgeKey]bool{}
	for _, e := range snap.MSTEdges {
		bold[edgeKey{e.From, e.To}] = true
	}
	for i := 1; i < len(snap.Path); i++ {
		bold[edgeKey{snap.Path[i-1], snap.Path[i]}] = true
	}
	isBold := func(e trace.Edge) bool {
		if bold[edgeKey{e.From, e.To}] {
			return true
		}
		return !directed && bold[edgeKey{e.To, e.From}]
	}
	isCandidate := func(e trace.Edge) bool {
		c := snap.Candidate
		if c == nil {
			return false
		}
		if c.From == e.From && c.To == e.To {
			return true
		}
		return !directed && c.From == e.To && c.To == e.From
	}

	for _, e := range st.Topology.Edges {
		attrs := map[string]string{"label": strconv.Quote(strconv.Itoa(e.Weight))}
		if isBold(e) {
			attrs["penwidth"] = "3"
		}
		if isCandidate(e) {
			attrs["color"] = colorFocus
		}
		if err := g.AddEdge(strconv.Quote(e.From), strconv.Quote(e.To), directed, attrs); err != nil {
			return "", fmt.Errorf("add edge %s -> %s: %w", e.From, e.To, err)
		}
	}

	return g.String(), nil
}

func nodeLabel(n string, dist map[string]int) string {
	d, ok := dist[n]
	if !ok {
		return n
	}
	return fmt.Sprintf("%s (%s)", n, formatValue(d))
}

// ForestDOT draws the Huffman forest. Edges to left children are labelled 0
// and to right children 1. The two roots about to merge are highlighted.
func ForestDOT(f *replay.Forest) (string, error) {
	if f == nil {
		return "", errors.New("state has no forest")
	}

	g := gographviz.NewGraph()
	if err := g.SetName("huffman"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	ids := make([]int, 0, len(f.Nodes))
	for id := range f.Nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	focus := map[int]bool{}
	if f.Focus != nil {
		focus[f.Focus.LeftID] = true
		focus[f.Focus.RightID] = true
	}

	name := func(id int) string { return "n" + strconv.Itoa(id) }
	for _, id := range ids {
		n := f.Nodes[id]
		label := strconv.Itoa(n.Freq)
		if n.Char != nil {
			label = fmt.Sprintf("%q:%d", *n.Char, n.Freq)
		}
		attrs := map[string]string{"label": strconv.Quote(label)}
		if n.Char != nil {
			attrs["shape"] = "box"
		}
		if focus[id] {
			attrs["style"] = "filled"
			attrs["fillcolor"] = colorCurrent
		}
		if err := g.AddNode("huffman", name(id), attrs); err != nil {
			return "", fmt.Errorf("add node %d: %w", id, err)
		}
	}

	for _, id := range ids {
		n := f.Nodes[id]
		for bit, child := range []*int{n.LeftID, n.RightID} {
			if child == nil {
				continue
			}
			attrs := map[string]string{"label": strconv.Quote(strconv.Itoa(bit))}
			if err := g.AddEdge(name(id), name(*child), true, attrs); err != nil {
				return "", fmt.Errorf("add edge %d -> %d: %w", id, *child, err)
			}
		}
	}

	return g.String(), nil
}
