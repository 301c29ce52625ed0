package solver

import (
	"fmt"

	"github.com/awmpietro/algotrace/internal/trace"
)

func (in RodCuttingInput) invalid() string {
	if in.Length < 0 {
		return fmt.Sprintf("length %d is negative", in.Length)
	}
	for i, p := range in.Prices {
		if p < 0 {
			return fmt.Sprintf("price for length %d is negative", i+1)
		}
	}
	return ""
}

// RodCutting maximises revenue for a rod of the given length, where
// prices[i] is the price of a piece of length i+1.
func RodCutting(in RodCuttingInput) *trace.Trace {
	const timeC, spaceC = "O(L²)", "O(L)"
	r := trace.NewRecorder()

	if reason := in.invalid(); reason != "" {
		return invalidTable(r, reason, timeC, spaceC)
	}
	length := in.Length
	if tooLarge(0, length) {
		return invalidTable(r, "table too large", timeC, spaceC)
	}

	r.Init(&trace.TableInit{Rows: 1, Cols: length + 1, RowLabels: []string{"revenue"}, ColLabels: rangeLabels(0, length)},
		"Initialized table for rod lengths 0..%d with %d prices", length, len(in.Prices))

	dp := make([]int, length+1)
	first := make([]int, length+1)
	r.Update(&trace.CellUpdate{I: 0, J: 0, Value: 0, Action: "base"}, "dp[0] = 0 for an empty rod")

	for l := 1; l <= length; l++ {
		best, bestCut := 0, 0
		for c := 1; c <= l && c <= len(in.Prices); c++ {
			cand := in.Prices[c-1] + dp[l-c]
			r.Highlight(&trace.CellFocus{I: 0, J: l, K: trace.IntPtr(c), Candidate: trace.IntPtr(cand), Compare: "max"},
				"Length %d, first piece %d: price %d + dp[%d] = %d", l, c, in.Prices[c-1], l-c, cand)
			r.Compare(1)
			if cand > best {
				best, bestCut = cand, c
			}
		}
		dp[l], first[l] = best, bestCut
		if bestCut == 0 {
			r.Update(&trace.CellUpdate{I: 0, J: l, Value: 0, Action: "uncut"}, "dp[%d] = 0: no priced piece fits", l)
			continue
		}
		r.Update(&trace.CellUpdate{I: 0, J: l, Value: best, Action: fmt.Sprintf("cut %d", bestCut), Split: trace.IntPtr(bestCut)},
			"dp[%d] = %d cutting a piece of %d first", l, best, bestCut)
	}

	cuts := []int{}
	for l := length; l > 0 && first[l] > 0; l -= first[l] {
		cuts = append(cuts, first[l])
	}
	if len(cuts) > 0 {
		r.Info("Traceback: pieces %v", cuts)
	}

	best := dp[length]
	return r.Finish(&trace.Solution{Value: best, Found: true, Selected: cuts, Cuts: cuts}, best, cuts, timeC, spaceC)
}
