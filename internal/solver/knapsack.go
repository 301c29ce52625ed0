package solver

import (
	"fmt"

	"github.com/awmpietro/algotrace/internal/trace"
)

func (in KnapsackInput) invalid() string {
	if in.Capacity < 0 {
		return fmt.Sprintf("capacity %d is negative", in.Capacity)
	}
	for _, it := range in.Items {
		if it.Weight <= 0 {
			return fmt.Sprintf("item %d has non-positive weight %d", it.ID, it.Weight)
		}
		if it.Value < 0 {
			return fmt.Sprintf("item %d has negative value %d", it.ID, it.Value)
		}
	}
	return ""
}

// KnapsackDP solves 0/1 knapsack with a row-major (items x capacity) table.
func KnapsackDP(in KnapsackInput) *trace.Trace {
	const timeC, spaceC = "O(n·W)", "O(n·W)"
	r := trace.NewRecorder()

	if reason := in.invalid(); reason != "" {
		return invalidTable(r, reason, timeC, spaceC)
	}
	n, capacity := len(in.Items), in.Capacity
	if tooLarge(n, capacity) {
		return invalidTable(r, "table too large", timeC, spaceC)
	}

	rowLabels := make([]string, 0, n+1)
	rowLabels = append(rowLabels, "-")
	for _, it := range in.Items {
		rowLabels = append(rowLabels, fmt.Sprintf("#%d (w%d,v%d)", it.ID, it.Weight, it.Value))
	}
	r.Init(&trace.TableInit{
		Rows:      n + 1,
		Cols:      capacity + 1,
		RowLabels: rowLabels,
		ColLabels: rangeLabels(0, capacity),
	}, "Initialized %dx%d table for %d items and capacity %d", n+1, capacity+1, n, capacity)

	dp := newTable(n+1, capacity+1)
	for w := 0; w <= capacity; w++ {
		r.Update(&trace.CellUpdate{I: 0, J: w, Value: 0, Action: "base"}, "dp[0][%d] = 0 with no items", w)
	}

	for i := 1; i <= n; i++ {
		it := in.Items[i-1]
		for w := 0; w <= capacity; w++ {
			exclude := dp[i-1][w]
			r.Compare(1)
			if it.Weight > w {
				r.Highlight(&trace.CellFocus{I: i, J: w, Compare: "skip"},
					"Item %d (weight %d) does not fit capacity %d", it.ID, it.Weight, w)
				dp[i][w] = exclude
				r.Update(&trace.CellUpdate{I: i, J: w, Value: exclude, Action: "skip"},
					"dp[%d][%d] = dp[%d][%d] = %d", i, w, i-1, w, exclude)
				continue
			}

			include := it.Value + dp[i-1][w-it.Weight]
			r.Highlight(&trace.CellFocus{I: i, J: w, Candidate: trace.IntPtr(include), Compare: "include vs exclude"},
				"Item %d at capacity %d: include = %d + dp[%d][%d] = %d, exclude = %d",
				it.ID, w, it.Value, i-1, w-it.Weight, include, exclude)
			r.Compare(1)
			if include > exclude {
				dp[i][w] = include
				r.Update(&trace.CellUpdate{I: i, J: w, Value: include, Action: "include"},
					"dp[%d][%d] = %d (include item %d)", i, w, include, it.ID)
			} else {
				dp[i][w] = exclude
				r.Update(&trace.CellUpdate{I: i, J: w, Value: exclude, Action: "exclude"},
					"dp[%d][%d] = %d (exclude item %d)", i, w, exclude, it.ID)
			}
		}
	}

	selected := []int{}
	w := capacity
	for i := n; i >= 1; i-- {
		r.Compare(1)
		if dp[i][w] != dp[i-1][w] {
			it := in.Items[i-1]
			selected = append(selected, it.ID)
			r.Info("Traceback: item %d taken since dp[%d][%d] = %d differs from dp[%d][%d] = %d",
				it.ID, i, w, dp[i][w], i-1, w, dp[i-1][w])
			w -= it.Weight
		}
	}
	reverseInts(selected)

	best := dp[n][capacity]
	return r.Finish(&trace.Solution{Value: best, Found: true, Selected: selected}, best, selected, timeC, spaceC)
}

// KnapsackGreedy visits items by value/weight ratio and takes every item that
// still fits. It is a 0/1 heuristic, so its value never exceeds KnapsackDP.
func KnapsackGreedy(in KnapsackInput) *trace.Trace {
	const key, timeC, spaceC = "value/weight desc", "O(n log n)", "O(n)"
	r := trace.NewRecorder()

	if reason := in.invalid(); reason != "" {
		return invalidGreedy(r, key, reason, timeC, spaceC)
	}

	cands := make([]trace.Candidate, 0, len(in.Items))
	for _, it := range in.Items {
		cands = append(cands, trace.Candidate{
			ItemID: it.ID,
			Weight: it.Weight,
			Value:  it.Value,
			Ratio:  float64(it.Value) / float64(it.Weight),
		})
	}
	stableSort(r, cands, func(a, b trace.Candidate) bool { return a.Ratio > b.Ratio })

	r.Init(&trace.Candidates{Key: key, Items: cands},
		"Sorted %d items by value/weight ratio, highest first", len(cands))

	remaining, total := in.Capacity, 0
	selected := []int{}
	for _, c := range cands {
		r.Compare(1)
		if c.Weight <= remaining {
			remaining -= c.Weight
			total += c.Value
			selected = append(selected, c.ItemID)
			r.Decide(true, &trace.Decision{ItemID: c.ItemID, Weight: c.Weight, Value: c.Value, Ratio: c.Ratio, TotalValue: total},
				"Picked item %d (ratio %.2f): total value %d, capacity left %d", c.ItemID, c.Ratio, total, remaining)
			continue
		}
		r.Decide(false, &trace.Decision{ItemID: c.ItemID, Weight: c.Weight, Value: c.Value, Ratio: c.Ratio, TotalValue: total},
			"Rejected item %d: weight %d exceeds remaining capacity %d", c.ItemID, c.Weight, remaining)
	}

	return r.Finish(&trace.Solution{Value: total, Found: true, Selected: selected}, total, selected, timeC, spaceC)
}
