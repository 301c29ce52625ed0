package solver

import (
	"strconv"
	"strings"

	"github.com/awmpietro/algotrace/internal/trace"
)

// LIS computes the length of the longest strictly increasing subsequence with
// the quadratic formulation dp[i] = 1 + max(dp[j]) over j < i, seq[j] < seq[i].
func LIS(in LISInput) *trace.Trace {
	const timeC, spaceC = "O(n²)", "O(n)"
	r := trace.NewRecorder()

	seq := in.Sequence
	n := len(seq)
	if tooLarge(0, n) {
		return invalidTable(r, "table too large", timeC, spaceC)
	}

	labels := make([]string, 0, n)
	for _, v := range seq {
		labels = append(labels, strconv.Itoa(v))
	}
	r.Init(&trace.TableInit{Rows: 1, Cols: n, RowLabels: []string{"len"}, ColLabels: labels},
		"Initialized table over %d values", n)

	dp := make([]int, n)
	prev := make([]int, n)
	for i := range n {
		dp[i], prev[i] = 1, -1
		for j := 0; j < i; j++ {
			r.Compare(1)
			if seq[j] >= seq[i] {
				continue
			}
			cand := dp[j] + 1
			r.Highlight(&trace.CellFocus{I: 0, J: i, K: trace.IntPtr(j), Candidate: trace.IntPtr(cand), Compare: "extend"},
				"%d < %d: extend dp[%d] = %d to %d", seq[j], seq[i], j, dp[j], cand)
			r.Compare(1)
			if cand > dp[i] {
				dp[i], prev[i] = cand, j
			}
		}
		action := "start"
		if prev[i] >= 0 {
			action = "extend " + strconv.Itoa(prev[i])
		}
		r.Update(&trace.CellUpdate{I: 0, J: i, Value: dp[i], Action: action},
			"dp[%d] = %d for value %d", i, dp[i], seq[i])
	}

	best, end := 0, -1
	for i, v := range dp {
		r.Compare(1)
		if v > best {
			best, end = v, i
		}
	}

	indices := []int{}
	for i := end; i >= 0; i = prev[i] {
		indices = append(indices, i)
	}
	reverseInts(indices)

	values := make([]string, 0, len(indices))
	for _, i := range indices {
		values = append(values, strconv.Itoa(seq[i]))
	}
	text := strings.Join(values, " ")
	if len(indices) > 0 {
		r.Info("Traceback: subsequence %s", text)
	}

	return r.Finish(&trace.Solution{Value: best, Found: true, Selected: indices, Text: text}, best, indices, timeC, spaceC)
}
