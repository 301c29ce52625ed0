package solver

import (
	"github.com/awmpietro/algotrace/internal/trace"
)

type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind(nodes []string) *unionFind {
	uf := &unionFind{parent: make(map[string]string, len(nodes)), rank: make(map[string]int, len(nodes))}
	for _, n := range nodes {
		uf.parent[n] = n
	}
	return uf
}

func (uf *unionFind) find(n string) string {
	root := n
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for n != root {
		next := uf.parent[n]
		uf.parent[n] = root
		n = next
	}
	return root
}

// union merges the sets of a and b and reports whether they were disjoint.
func (uf *unionFind) union(a, b string) bool {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return false
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
	return true
}

// Kruskal builds a minimum spanning forest. Edges are sorted once by weight
// and every edge gets exactly one PICK or REJECT.
func Kruskal(in GraphInput) *trace.Trace {
	const timeC, spaceC = "O(E log E)", "O(V + E)"
	r := trace.NewRecorder()

	g, reason := in.validate(false)
	if reason != "" {
		return invalidGraph(r, reason, timeC, spaceC)
	}

	edges, _ := undirected(g)
	stableSort(r, edges, func(a, b trace.Edge) bool { return a.Weight < b.Weight })
	for i := range edges {
		edges[i].ID = i
	}

	r.Init(&trace.GraphState{
		Nodes:   g.Nodes(),
		Edges:   copyEdges(edges),
		Start:   in.StartNode,
		Visited: []string{},
	}, "Sorted %d edges by weight", len(edges))

	uf := newUnionFind(g.order)
	inForest := map[string]bool{}
	visited := []string{}
	mst := []trace.Edge{}
	total := 0

	for _, e := range edges {
		r.Compare(1)
		joined := uf.union(e.From, e.To)
		if joined {
			for _, n := range []string{e.From, e.To} {
				if !inForest[n] {
					inForest[n] = true
					visited = append(visited, n)
				}
			}
			mst = append(mst, e)
			total += e.Weight
		}
		cand := e
		st := &trace.GraphState{
			CurrentNode:      e.From,
			CheckingNeighbor: e.To,
			EdgeWeight:       trace.IntPtr(e.Weight),
			Visited:          copyStrings(visited),
			MSTEdges:         copyEdges(mst),
			Candidate:        &cand,
			Total:            total,
		}
		if joined {
			r.Decide(true, st, "Picked %s-%s (weight %d): total %d", e.From, e.To, e.Weight, total)
			continue
		}
		r.Decide(false, st, "Rejected %s-%s (weight %d): would form a cycle", e.From, e.To, e.Weight)
	}

	components := 0
	for _, n := range g.order {
		if uf.find(n) == n {
			components++
		}
	}
	sol := &trace.Solution{Value: total, Found: true, Text: "spanning tree"}
	if components > 1 {
		sol.Text = "spanning forest"
		r.Info("Graph has %d components; result is a spanning forest", components)
	}
	return r.Finish(sol, total, nil, timeC, spaceC)
}
