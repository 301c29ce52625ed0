package render

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/awmpietro/algotrace/internal/replay"
	"github.com/awmpietro/algotrace/internal/trace"
)

func formatValue(v int) string {
	if v == trace.Unreachable {
		return "∞"
	}
	return strconv.Itoa(v)
}

// Table renders the DP table with row and column labels. The highlighted
// cell is bracketed.
func Table(st replay.State) string {
	cfg := st.TableConfig
	if cfg.Rows == 0 || cfg.Cols == 0 {
		return ""
	}

	cells := make([][]string, cfg.Rows+1)
	cells[0] = make([]string, cfg.Cols+1)
	for j := 0; j < cfg.Cols; j++ {
		cells[0][j+1] = label(cfg.ColLabels, j)
	}
	for i := 0; i < cfg.Rows; i++ {
		row := make([]string, cfg.Cols+1)
		row[0] = label(cfg.RowLabels, i)
		for j := 0; j < cfg.Cols; j++ {
			v := "·"
			if i < len(st.DPTable) && j < len(st.DPTable[i]) {
				v = formatValue(st.DPTable[i][j])
			}
			if h := st.HighlightedCell; h != nil && h.Row == i && h.Col == j {
				v = "[" + v + "]"
			}
			row[j+1] = v
		}
		cells[i+1] = row
	}

	widths := make([]int, cfg.Cols+1)
	for _, row := range cells {
		for j, c := range row {
			if w := utf8.RuneCountInString(c); w > widths[j] {
				widths[j] = w
			}
		}
	}

	var sb strings.Builder
	for _, row := range cells {
		for j, c := range row {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(strings.Repeat(" ", widths[j]-utf8.RuneCountInString(c)))
			sb.WriteString(c)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func label(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return strconv.Itoa(i)
}

// Decisions renders the greedy chain, one line per PICK or REJECT.
func Decisions(st replay.State) string {
	var sb strings.Builder
	for _, d := range st.GreedyDecisions {
		mark := "✗"
		if d.Picked {
			mark = "✓"
		}
		fmt.Fprintf(&sb, "%s #%d  w=%d v=%d ratio=%.2f  total=%d\n",
			mark, d.ItemID, d.Weight, d.Value, d.Ratio, d.CurrentTotal)
	}
	return sb.String()
}

// Graph renders distances in node order with the visited set, or the
// spanning tree edges for MST traces.
func Graph(st replay.State) string {
	g := st.Graph
	if g == nil {
		return ""
	}
	var nodes []string
	if st.Topology != nil {
		nodes = st.Topology.Nodes
	}

	var sb strings.Builder
	if len(g.Distances) > 0 {
		for _, n := range nodes {
			d, ok := g.Distances[n]
			if !ok {
				continue
			}
			mark := " "
			switch {
			case n == g.CurrentNode:
				mark = "*"
			case slices.Contains(g.Visited, n):
				mark = "✓"
			}
			fmt.Fprintf(&sb, "%s %s = %s", mark, n, formatValue(d))
			if p, ok := g.Previous[n]; ok {
				fmt.Fprintf(&sb, "  via %s", p)
			}
			sb.WriteByte('\n')
		}
	}
	for _, e := range g.MSTEdges {
		fmt.Fprintf(&sb, "✓ %s-%s (%d)\n", e.From, e.To, e.Weight)
	}
	if g.Candidate != nil {
		fmt.Fprintf(&sb, "? %s-%s (%d)\n", g.Candidate.From, g.Candidate.To, g.Candidate.Weight)
	}
	if len(g.MSTEdges) > 0 {
		fmt.Fprintf(&sb, "total=%d\n", g.Total)
	}
	return sb.String()
}

// Forest lists the current Huffman roots by ascending id.
func Forest(st replay.State) string {
	f := st.Forest
	if f == nil {
		return ""
	}
	var sb strings.Builder
	for _, id := range f.Roots {
		n := f.Nodes[id]
		name := "·"
		if n.Char != nil {
			name = strconv.Quote(*n.Char)
		}
		mark := " "
		if f.Focus != nil && (f.Focus.LeftID == id || f.Focus.RightID == id) {
			mark = "*"
		}
		fmt.Fprintf(&sb, "%s n%d %s freq=%d\n", mark, id, name, n.Freq)
	}
	return sb.String()
}
