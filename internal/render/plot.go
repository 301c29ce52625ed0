package render

import (
	"github.com/guptarohit/asciigraph"

	"github.com/awmpietro/algotrace/internal/replay"
	"github.com/awmpietro/algotrace/internal/trace"
)

type PlotOptions struct {
	Width  int
	Height int
}

func (o PlotOptions) withDefaults() PlotOptions {
	if o.Width <= 0 {
		o.Width = 60
	}
	if o.Height <= 0 {
		o.Height = 10
	}
	return o
}

// CounterSeries returns the cumulative comparison count after each step.
// Steps without counters carry the previous value forward.
func CounterSeries(steps []trace.Step) []float64 {
	out := make([]float64, len(steps))
	last := 0
	for i, s := range steps {
		if s.Metrics != nil {
			last = s.Metrics.Comparisons
		}
		out[i] = float64(last)
	}
	return out
}

// Counters plots cumulative comparisons across the trace.
func Counters(steps []trace.Step, opts PlotOptions) string {
	if len(steps) == 0 {
		return ""
	}
	opts = opts.withDefaults()
	return asciigraph.Plot(CounterSeries(steps),
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption("comparisons"),
	)
}

// Series picks what to chart for a state: the last written DP row, or the
// finite distances in node order.
func Series(st replay.State) ([]float64, string) {
	if st.Graph != nil && len(st.Graph.Distances) > 0 && st.Topology != nil {
		var out []float64
		for _, n := range st.Topology.Nodes {
			if d, ok := st.Graph.Distances[n]; ok && d != trace.Unreachable {
				out = append(out, float64(d))
			}
		}
		return out, "distances"
	}

	row := -1
	if st.HighlightedCell != nil {
		row = st.HighlightedCell.Row
	} else if len(st.DPTable) > 0 {
		row = len(st.DPTable) - 1
	}
	if row < 0 || row >= len(st.DPTable) {
		return nil, ""
	}
	var out []float64
	for _, v := range st.DPTable[row] {
		if v != trace.Unreachable {
			out = append(out, float64(v))
		}
	}
	return out, "dp row " + label(st.TableConfig.RowLabels, row)
}

// ResultSeries plots Series(st), or returns "" when there is nothing to plot.
func ResultSeries(st replay.State, opts PlotOptions) string {
	data, caption := Series(st)
	if len(data) == 0 {
		return ""
	}
	opts = opts.withDefaults()
	return asciigraph.Plot(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	)
}
