package solver

import (
	"fmt"

	"github.com/awmpietro/algotrace/internal/trace"
)

// EditDistance computes the Levenshtein distance between text1 and text2
// and reconstructs one sequence of operations.
func EditDistance(in TextPairInput) *trace.Trace {
	const timeC, spaceC = "O(m·n)", "O(m·n)"
	r := trace.NewRecorder()

	a, b := []rune(in.Text1), []rune(in.Text2)
	m, n := len(a), len(b)
	if tooLarge(m, n) {
		return invalidTable(r, "table too large", timeC, spaceC)
	}

	r.Init(&trace.TableInit{Rows: m + 1, Cols: n + 1, RowLabels: charLabels(a), ColLabels: charLabels(b)},
		"Initialized %dx%d table to turn %q into %q", m+1, n+1, in.Text1, in.Text2)

	dp := newTable(m+1, n+1)
	for j := 0; j <= n; j++ {
		dp[0][j] = j
		r.Update(&trace.CellUpdate{I: 0, J: j, Value: j, Action: "insert"}, "dp[0][%d] = %d: insert %d characters", j, j, j)
	}
	for i := 1; i <= m; i++ {
		dp[i][0] = i
		r.Update(&trace.CellUpdate{I: i, J: 0, Value: i, Action: "delete"}, "dp[%d][0] = %d: delete %d characters", i, i, i)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			r.Compare(1)
			if a[i-1] == b[j-1] {
				r.Highlight(&trace.CellFocus{I: i, J: j, Compare: "match"},
					"%q == %q: no operation needed", string(a[i-1]), string(b[j-1]))
				dp[i][j] = dp[i-1][j-1]
				r.Update(&trace.CellUpdate{I: i, J: j, Value: dp[i][j], Action: "keep"},
					"dp[%d][%d] = dp[%d][%d] = %d", i, j, i-1, j-1, dp[i][j])
				continue
			}

			replace, del, ins := dp[i-1][j-1], dp[i-1][j], dp[i][j-1]
			r.Highlight(&trace.CellFocus{I: i, J: j, Compare: "mismatch"},
				"%q != %q: 1 + min(replace = %d, delete = %d, insert = %d)",
				string(a[i-1]), string(b[j-1]), replace, del, ins)

			best, action := replace, "replace"
			r.Compare(2)
			if del < best {
				best, action = del, "delete"
			}
			if ins < best {
				best, action = ins, "insert"
			}
			dp[i][j] = best + 1
			r.Update(&trace.CellUpdate{I: i, J: j, Value: dp[i][j], Action: action},
				"dp[%d][%d] = %d via %s", i, j, dp[i][j], action)
		}
	}

	ops := editOperations(a, b, dp)
	r.Info("Traceback: %d operations", len(ops))

	dist := dp[m][n]
	return r.Finish(&trace.Solution{Value: dist, Found: true, Operations: ops}, dist, nil, timeC, spaceC)
}

func editOperations(a, b []rune, dp [][]int) []string {
	var ops []string
	i, j := len(a), len(b)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && a[i-1] == b[j-1] && dp[i][j] == dp[i-1][j-1]:
			ops = append(ops, fmt.Sprintf("keep %q", string(a[i-1])))
			i--
			j--
		case i > 0 && j > 0 && dp[i][j] == dp[i-1][j-1]+1:
			ops = append(ops, fmt.Sprintf("replace %q with %q", string(a[i-1]), string(b[j-1])))
			i--
			j--
		case i > 0 && dp[i][j] == dp[i-1][j]+1:
			ops = append(ops, fmt.Sprintf("delete %q", string(a[i-1])))
			i--
		default:
			ops = append(ops, fmt.Sprintf("insert %q", string(b[j-1])))
			j--
		}
	}
	for x, y := 0, len(ops)-1; x < y; x, y = x+1, y-1 {
		ops[x], ops[y] = ops[y], ops[x]
	}
	return ops
}
