package solver

import (
	"github.com/awmpietro/algotrace/internal/trace"
)

type nodePair struct{ a, b string }

func pairOf(u, v string) nodePair {
	if u > v {
		u, v = v, u
	}
	return nodePair{u, v}
}

// undirected collapses the graph into one edge per node pair. The first
// weight seen for a pair wins and self loops are dropped.
func undirected(g Graph) ([]trace.Edge, map[string][]trace.Edge) {
	var (
		edges []trace.Edge
		seen  = map[nodePair]bool{}
		adj   = map[string][]trace.Edge{}
	)
	for _, e := range graphEdges(g) {
		if e.From == e.To {
			continue
		}
		p := pairOf(e.From, e.To)
		if seen[p] {
			continue
		}
		seen[p] = true
		e.ID = len(edges)
		edges = append(edges, e)
		adj[e.From] = append(adj[e.From], e)
		adj[e.To] = append(adj[e.To], trace.Edge{ID: e.ID, From: e.To, To: e.From, Weight: e.Weight})
	}
	return edges, adj
}

// Prim grows a minimum spanning tree from the start node. Equal weights are
// taken in discovery order.
func Prim(in GraphInput) *trace.Trace {
	const timeC, spaceC = "O(E log E)", "O(V + E)"
	r := trace.NewRecorder()

	g, reason := in.validate(true)
	if reason != "" {
		return invalidGraph(r, reason, timeC, spaceC)
	}

	edges, adj := undirected(g)
	start := in.StartNode
	inTree := map[string]bool{start: true}
	visited := []string{start}
	mst := []trace.Edge{}
	total := 0

	snapshot := func(cand trace.Edge) *trace.GraphState {
		return &trace.GraphState{
			Start:            start,
			CurrentNode:      cand.From,
			CheckingNeighbor: cand.To,
			EdgeWeight:       trace.IntPtr(cand.Weight),
			Visited:          copyStrings(visited),
			MSTEdges:         copyEdges(mst),
			Candidate:        &cand,
			Total:            total,
		}
	}

	r.Init(&trace.GraphState{
		Nodes:   g.Nodes(),
		Edges:   copyEdges(edges),
		Start:   start,
		Visited: copyStrings(visited),
	}, "Starting tree at %s", start)

	pq := newMinQueue[trace.Edge](r)
	frontier := func(n string) {
		for _, e := range adj[n] {
			if !inTree[e.To] {
				pq.push(e.Weight, e)
			}
		}
	}
	frontier(start)

	for pq.Len() > 0 {
		_, e := pq.pop()
		r.Highlight(snapshot(e), "Considering edge %s-%s (weight %d)", e.From, e.To, e.Weight)
		r.Compare(1)
		if inTree[e.To] {
			r.Highlight(snapshot(e), "Skipping %s-%s: %s is already in the tree", e.From, e.To, e.To)
			continue
		}
		inTree[e.To] = true
		visited = append(visited, e.To)
		mst = append(mst, e)
		total += e.Weight
		r.Update(snapshot(e), "Added %s-%s (weight %d): total %d", e.From, e.To, e.Weight, total)
		frontier(e.To)
	}

	sol := &trace.Solution{Value: total, Found: true}
	if len(visited) < g.Len() {
		r.Info("Tree spans %d of %d nodes; the rest are unreachable from %s", len(visited), g.Len(), start)
		sol.Text = "partial spanning tree"
	} else {
		sol.Text = "spanning tree"
	}
	return r.Finish(sol, total, nil, timeC, spaceC)
}
