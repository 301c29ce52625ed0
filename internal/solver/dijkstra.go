package solver

import (
	"fmt"

	"github.com/awmpietro/algotrace/internal/trace"
)

// graphEdges lists every directed edge in node then neighbor insertion order.
func graphEdges(g Graph) []trace.Edge {
	var edges []trace.Edge
	for _, from := range g.order {
		for _, nb := range g.adj[from] {
			edges = append(edges, trace.Edge{ID: len(edges), From: from, To: nb.Node, Weight: nb.Weight})
		}
	}
	return edges
}

func (in GraphInput) validate(needStart bool) (Graph, string) {
	g, reason := in.resolve()
	if reason != "" {
		return g, reason
	}
	if (needStart || in.StartNode != "") && !g.Has(in.StartNode) {
		return g, fmt.Sprintf("start node %q is not in the graph", in.StartNode)
	}
	return g, ""
}

// Dijkstra computes single-source shortest paths. Every step carries a full
// copy of distances, predecessors and the visited set.
func Dijkstra(in GraphInput) *trace.Trace {
	const timeC, spaceC = "O((V+E) log V)", "O(V + E)"
	r := trace.NewRecorder()

	g, reason := in.validate(true)
	if reason == "" && in.EndNode != "" && !g.Has(in.EndNode) {
		reason = fmt.Sprintf("end node %q is not in the graph", in.EndNode)
	}
	if reason != "" {
		return invalidGraph(r, reason, timeC, spaceC)
	}

	start := in.StartNode
	dist := make(map[string]int, g.Len())
	for _, n := range g.order {
		dist[n] = trace.Unreachable
	}
	dist[start] = 0
	prev := map[string]string{}
	visited := []string{}
	done := map[string]bool{}

	snapshot := func(cur, nb string, w *int) *trace.GraphState {
		return &trace.GraphState{
			Start:            start,
			CurrentNode:      cur,
			CheckingNeighbor: nb,
			EdgeWeight:       w,
			Distances:        copyDistances(dist),
			Previous:         copyPrevious(prev),
			Visited:          copyStrings(visited),
		}
	}

	r.Init(&trace.GraphState{
		Nodes:     g.Nodes(),
		Edges:     graphEdges(g),
		Start:     start,
		Distances: copyDistances(dist),
		Visited:   []string{},
	}, "Initialized distances: %s = 0, all others ∞", start)

	pq := newMinQueue[string](r)
	pq.push(0, start)
	for pq.Len() > 0 {
		d, u := pq.pop()
		if done[u] {
			continue
		}
		done[u] = true
		visited = append(visited, u)
		r.Highlight(snapshot(u, "", nil), "Visiting %s at distance %d", u, d)

		for _, nb := range g.Neighbors(u) {
			if done[nb.Node] {
				continue
			}
			w := nb.Weight
			nd := d + w
			r.Highlight(snapshot(u, nb.Node, trace.IntPtr(w)),
				"Checking %s -> %s (weight %d): %d vs %s", u, nb.Node, w, nd, fmtDist(dist[nb.Node]))
			r.Compare(1)
			if nd >= dist[nb.Node] {
				continue
			}
			dist[nb.Node] = nd
			prev[nb.Node] = u
			pq.push(nd, nb.Node)
			r.Update(snapshot(u, nb.Node, trace.IntPtr(w)), "Updated %s to %d via %s", nb.Node, nd, u)
		}
	}

	sol := &trace.Solution{Found: true, Distances: copyDistances(dist)}
	if in.EndNode != "" {
		target := dist[in.EndNode]
		sol.Value = target
		if target == trace.Unreachable {
			sol.Found = false
			sol.Reason = fmt.Sprintf("%s is unreachable from %s", in.EndNode, start)
			return r.Finish(sol, trace.Unreachable, nil, timeC, spaceC)
		}
		sol.Path = shortestPath(prev, start, in.EndNode)
		r.Info("Shortest path %v with distance %d", sol.Path, target)
		return r.Finish(sol, target, nil, timeC, spaceC)
	}

	farthest := 0
	for _, n := range g.order {
		if d := dist[n]; d != trace.Unreachable && d > farthest {
			farthest = d
		}
	}
	sol.Value = farthest
	return r.Finish(sol, farthest, nil, timeC, spaceC)
}

func shortestPath(prev map[string]string, start, end string) []string {
	path := []string{end}
	for n := end; n != start; {
		n = prev[n]
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
