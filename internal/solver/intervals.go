package solver

import (
	"fmt"

	"github.com/awmpietro/algotrace/internal/trace"
)

func (in IntervalInput) invalid() string {
	for _, iv := range in.Intervals {
		if iv.End < iv.Start {
			return fmt.Sprintf("interval %d ends (%d) before it starts (%d)", iv.ID, iv.End, iv.Start)
		}
	}
	return ""
}

func sortedByEnd(r *trace.Recorder, in []Interval) []Interval {
	out := append([]Interval(nil), in...)
	stableSort(r, out, func(a, b Interval) bool {
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Start < b.Start
	})
	return out
}

// IntervalSchedulingGreedy selects a maximum set of non-overlapping intervals
// by earliest finish time. Touching intervals (start == previous end) are
// compatible.
func IntervalSchedulingGreedy(in IntervalInput) *trace.Trace {
	const key, timeC, spaceC = "end time asc", "O(n log n)", "O(n)"
	r := trace.NewRecorder()

	if reason := in.invalid(); reason != "" {
		return invalidGreedy(r, key, reason, timeC, spaceC)
	}

	sorted := sortedByEnd(r, in.Intervals)
	cands := make([]trace.Candidate, 0, len(sorted))
	for _, iv := range sorted {
		cands = append(cands, trace.Candidate{ItemID: iv.ID, Weight: iv.Start, Value: iv.End, Ratio: float64(iv.End - iv.Start)})
	}
	r.Init(&trace.Candidates{Key: key, Items: cands},
		"Sorted %d intervals by end time, earliest finish first", len(sorted))

	selected := []int{}
	lastEnd, picked := 0, false
	for _, iv := range sorted {
		d := &trace.Decision{ItemID: iv.ID, Weight: iv.Start, Value: iv.End, Ratio: float64(iv.End - iv.Start)}
		r.Compare(1)
		if !picked || iv.Start >= lastEnd {
			picked = true
			lastEnd = iv.End
			selected = append(selected, iv.ID)
			d.TotalValue = len(selected)
			r.Decide(true, d, "Selected interval %d [%d, %d]: no overlap, %d selected", iv.ID, iv.Start, iv.End, len(selected))
			continue
		}
		d.TotalValue = len(selected)
		r.Decide(false, d, "Rejected interval %d [%d, %d]: overlaps previous ending at %d", iv.ID, iv.Start, iv.End, lastEnd)
	}

	count := len(selected)
	return r.Finish(&trace.Solution{Value: count, Found: true, Selected: selected}, count, selected, timeC, spaceC)
}

// IntervalSchedulingDP solves the same problem with dp[i] = max(dp[i-1],
// 1 + dp[p(i)]) over intervals sorted by end time, where p(i) is the number of
// earlier intervals compatible with interval i.
func IntervalSchedulingDP(in IntervalInput) *trace.Trace {
	const timeC, spaceC = "O(n²)", "O(n)"
	r := trace.NewRecorder()

	if reason := in.invalid(); reason != "" {
		return invalidTable(r, reason, timeC, spaceC)
	}
	if tooLarge(0, len(in.Intervals)) {
		return invalidTable(r, "table too large", timeC, spaceC)
	}

	sorted := sortedByEnd(r, in.Intervals)
	n := len(sorted)

	labels := make([]string, 0, n+1)
	labels = append(labels, "0")
	for _, iv := range sorted {
		labels = append(labels, fmt.Sprintf("[%d,%d]", iv.Start, iv.End))
	}
	r.Init(&trace.TableInit{Rows: 1, Cols: n + 1, RowLabels: []string{"max"}, ColLabels: labels},
		"Initialized table over %d intervals sorted by end time", n)

	dp := make([]int, n+1)
	prev := make([]int, n+1)
	take := make([]bool, n+1)
	r.Update(&trace.CellUpdate{I: 0, J: 0, Value: 0, Action: "base"}, "dp[0] = 0 with no intervals")

	for i := 1; i <= n; i++ {
		cur := sorted[i-1]
		p := i - 1
		for p > 0 {
			r.Compare(1)
			if sorted[p-1].End <= cur.Start {
				break
			}
			p--
		}
		prev[i] = p

		include, exclude := 1+dp[p], dp[i-1]
		r.Highlight(&trace.CellFocus{I: 0, J: i, K: trace.IntPtr(p), Candidate: trace.IntPtr(include), Compare: "include vs exclude"},
			"Interval %d [%d, %d]: include = 1 + dp[%d] = %d, exclude = dp[%d] = %d",
			cur.ID, cur.Start, cur.End, p, include, i-1, exclude)
		r.Compare(1)
		if include > exclude {
			dp[i], take[i] = include, true
			r.Update(&trace.CellUpdate{I: 0, J: i, Value: include, Action: "include"},
				"dp[%d] = %d (include interval %d)", i, include, cur.ID)
			continue
		}
		dp[i] = exclude
		r.Update(&trace.CellUpdate{I: 0, J: i, Value: exclude, Action: "exclude"},
			"dp[%d] = %d (exclude interval %d)", i, exclude, cur.ID)
	}

	selected := []int{}
	for i := n; i > 0; {
		if take[i] {
			selected = append(selected, sorted[i-1].ID)
			i = prev[i]
			continue
		}
		i--
	}
	reverseInts(selected)

	return r.Finish(&trace.Solution{Value: dp[n], Found: true, Selected: selected}, dp[n], selected, timeC, spaceC)
}
