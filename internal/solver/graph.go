package solver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/awmpietro/algotrace/internal/trace"
)

type Neighbor struct {
	Node   string
	Weight int
}

// Graph is a weighted adjacency map that remembers insertion order. Node and
// neighbor order drive tie-breaking, so decoding must not go through a Go map.
type Graph struct {
	order []string
	adj   map[string][]Neighbor
}

func (g *Graph) AddNode(n string) {
	if g.adj == nil {
		g.adj = map[string][]Neighbor{}
	}
	if _, ok := g.adj[n]; ok {
		return
	}
	g.adj[n] = nil
	g.order = append(g.order, n)
}

// SetEdge adds from->to, replacing the weight if the edge already exists.
func (g *Graph) SetEdge(from, to string, weight int) {
	g.AddNode(from)
	g.AddNode(to)
	for i, nb := range g.adj[from] {
		if nb.Node == to {
			g.adj[from][i].Weight = weight
			return
		}
	}
	g.adj[from] = append(g.adj[from], Neighbor{Node: to, Weight: weight})
}

func (g Graph) Len() int { return len(g.order) }

func (g Graph) Has(n string) bool {
	_, ok := g.adj[n]
	return ok
}

// Nodes returns node names in first-seen order.
func (g Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Neighbors returns the outgoing edges of n in insertion order. The slice
// must not be modified.
func (g Graph) Neighbors(n string) []Neighbor {
	return g.adj[n]
}

func (g Graph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(n)
		buf.Write(key)
		buf.WriteString(":{")
		for j, nb := range g.adj[n] {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, _ := json.Marshal(nb.Node)
			buf.Write(k)
			buf.WriteByte(':')
			buf.WriteString(strconv.Itoa(nb.Weight))
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (g *Graph) UnmarshalJSON(b []byte) error {
	*g = Graph{}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("graph must be an object of adjacency objects")
	}

	for dec.More() {
		node, err := stringToken(dec)
		if err != nil {
			return err
		}
		g.AddNode(node)

		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if tok == nil {
			continue
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return fmt.Errorf("neighbors of %q must be an object", node)
		}
		for dec.More() {
			nb, err := stringToken(dec)
			if err != nil {
				return err
			}
			var raw json.Number
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("weight %s -> %s: %w", node, nb, err)
			}
			w, err := parseWeight(raw.String())
			if err != nil {
				return fmt.Errorf("weight %s -> %s: %w", node, nb, err)
			}
			g.SetEdge(node, nb, w)
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

func (g *Graph) UnmarshalYAML(value *yaml.Node) error {
	*g = Graph{}
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: graph must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		node := value.Content[i].Value
		g.AddNode(node)

		nbs := value.Content[i+1]
		if nbs.Kind == yaml.ScalarNode && nbs.Tag == "!!null" {
			continue
		}
		if nbs.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: neighbors of %q must be a mapping", nbs.Line, node)
		}
		for j := 0; j+1 < len(nbs.Content); j += 2 {
			nb := nbs.Content[j].Value
			w, err := parseWeight(nbs.Content[j+1].Value)
			if err != nil {
				return fmt.Errorf("line %d: weight %s -> %s: %w", nbs.Content[j+1].Line, node, nb, err)
			}
			g.SetEdge(node, nb, w)
		}
	}
	return nil
}

func (g Graph) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, n := range g.order {
		nbs := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
		for _, nb := range g.adj[n] {
			nbs.Content = append(nbs.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: nb.Node},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(nb.Weight)},
			)
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: n}, nbs)
	}
	return root, nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected node name, got %v", tok)
	}
	return s, nil
}

// parseWeight accepts integral numbers, including forms like 2.0, whose
// magnitude is below trace.Unreachable.
func parseWeight(raw string) (int, error) {
	if v, err := strconv.Atoi(raw); err == nil {
		if v >= trace.Unreachable || v <= -trace.Unreachable {
			return 0, fmt.Errorf("weight %q is out of range", raw)
		}
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q", raw)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("weight %q must be an integer", raw)
	}
	if math.Abs(f) >= trace.Unreachable {
		return 0, fmt.Errorf("weight %q is out of range", raw)
	}
	return int(f), nil
}

// resolve picks the adjacency map or the DOT source and checks the graph is
// usable. A non-empty reason means the input is invalid.
func (in GraphInput) resolve() (Graph, string) {
	g := in.Graph
	if g.Len() == 0 && in.GraphDOT != "" {
		parsed, err := ParseDOT(in.GraphDOT)
		if err != nil {
			return Graph{}, fmt.Sprintf("invalid graph_dot: %v", err)
		}
		g = parsed
	}
	if g.Len() == 0 {
		return g, "graph is empty"
	}
	// Any simple path or spanning tree weighs at most the sum of all edges,
	// so bounding the sum keeps every real distance below trace.Unreachable.
	total := 0
	for _, n := range g.order {
		for _, nb := range g.adj[n] {
			if nb.Weight < 0 {
				return g, fmt.Sprintf("negative edge weight %d on %s -> %s", nb.Weight, n, nb.Node)
			}
			total += nb.Weight
			if total >= trace.Unreachable {
				return g, fmt.Sprintf("total edge weight exceeds %d", trace.Unreachable-1)
			}
		}
	}
	return g, ""
}
