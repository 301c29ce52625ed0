package solver

import (
	"fmt"
	"strings"

	"github.com/awalterschulze/gographviz"
)

// ParseDOT builds a Graph from Graphviz source. An undirected "graph" adds
// both directions. Edge weights come from the weight attribute, then label,
// and default to 1.
func ParseDOT(dot string) (Graph, error) {
	ast, err := gographviz.ParseString(dot)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to parse DOT: %w", err)
	}

	g := gographviz.NewGraph()
	if err := gographviz.Analyse(ast, g); err != nil {
		return Graph{}, fmt.Errorf("failed to analyze DOT: %w", err)
	}

	var out Graph
	for _, n := range g.Nodes.Nodes {
		out.AddNode(unquote(n.Name))
	}

	// Edges keeps statement order, which becomes neighbor order.
	for _, e := range g.Edges.Edges {
		from, to := unquote(e.Src), unquote(e.Dst)
		w, err := edgeWeight(e.Attrs)
		if err != nil {
			return Graph{}, fmt.Errorf("edge %s -> %s: %w", from, to, err)
		}
		out.SetEdge(from, to, w)
		if !g.Directed {
			out.SetEdge(to, from, w)
		}
	}

	return out, nil
}

func edgeWeight(attrs gographviz.Attrs) (int, error) {
	for _, key := range []string{"weight", "label"} {
		if raw := getAttr(attrs, key); raw != "" {
			return parseWeight(raw)
		}
	}
	return 1, nil
}

// getAttr reads a Graphviz attribute, which usually keeps its quotes.
func getAttr(attrs gographviz.Attrs, key string) string {
	val, ok := attrs[gographviz.Attr(key)]
	if !ok {
		return ""
	}
	return unquote(val)
}

func unquote(val string) string {
	val = strings.TrimSpace(val)
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	}
	return val
}
