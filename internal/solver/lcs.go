package solver

import (
	"github.com/awmpietro/algotrace/internal/trace"
)

func charLabels(rs []rune) []string {
	out := make([]string, 0, len(rs)+1)
	out = append(out, "")
	for _, c := range rs {
		out = append(out, string(c))
	}
	return out
}

// LCS computes the longest common subsequence length, filling the table
// row-major over text1 then text2.
func LCS(in TextPairInput) *trace.Trace {
	const timeC, spaceC = "O(m·n)", "O(m·n)"
	r := trace.NewRecorder()

	a, b := []rune(in.Text1), []rune(in.Text2)
	m, n := len(a), len(b)
	if tooLarge(m, n) {
		return invalidTable(r, "table too large", timeC, spaceC)
	}

	r.Init(&trace.TableInit{Rows: m + 1, Cols: n + 1, RowLabels: charLabels(a), ColLabels: charLabels(b)},
		"Initialized %dx%d table for %q and %q", m+1, n+1, in.Text1, in.Text2)

	for j := 0; j <= n; j++ {
		r.Update(&trace.CellUpdate{I: 0, J: j, Value: 0, Action: "base"}, "dp[0][%d] = 0", j)
	}
	for i := 1; i <= m; i++ {
		r.Update(&trace.CellUpdate{I: i, J: 0, Value: 0, Action: "base"}, "dp[%d][0] = 0", i)
	}

	dp := newTable(m+1, n+1)
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			r.Compare(1)
			if a[i-1] == b[j-1] {
				r.Highlight(&trace.CellFocus{I: i, J: j, Compare: "match"},
					"%q matches at (%d, %d)", string(a[i-1]), i, j)
				dp[i][j] = dp[i-1][j-1] + 1
				r.Update(&trace.CellUpdate{I: i, J: j, Value: dp[i][j], Action: "match"},
					"dp[%d][%d] = dp[%d][%d] + 1 = %d", i, j, i-1, j-1, dp[i][j])
				continue
			}

			up, left := dp[i-1][j], dp[i][j-1]
			r.Highlight(&trace.CellFocus{I: i, J: j, Compare: "mismatch"},
				"%q != %q: max(up = %d, left = %d)", string(a[i-1]), string(b[j-1]), up, left)
			r.Compare(1)
			if up >= left {
				dp[i][j] = up
				r.Update(&trace.CellUpdate{I: i, J: j, Value: up, Action: "up"}, "dp[%d][%d] = %d from above", i, j, up)
			} else {
				dp[i][j] = left
				r.Update(&trace.CellUpdate{I: i, J: j, Value: left, Action: "left"}, "dp[%d][%d] = %d from left", i, j, left)
			}
		}
	}

	// Walk back from (m, n) to recover one subsequence.
	var (
		seq     []rune
		indices []int
	)
	for i, j := m, n; i > 0 && j > 0; {
		switch {
		case a[i-1] == b[j-1]:
			seq = append(seq, a[i-1])
			indices = append(indices, i-1)
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	for x, y := 0, len(seq)-1; x < y; x, y = x+1, y-1 {
		seq[x], seq[y] = seq[y], seq[x]
	}
	reverseInts(indices)
	if len(seq) > 0 {
		r.Info("Traceback: subsequence %q", string(seq))
	}

	length := dp[m][n]
	return r.Finish(&trace.Solution{Value: length, Found: true, Text: string(seq), Selected: indices}, length, indices, timeC, spaceC)
}
