package solver

import (
	"fmt"
	"math"
	"strings"

	"github.com/awmpietro/algotrace/internal/trace"
)

func (in MatrixChainInput) invalid() string {
	if len(in.Dimensions) < 2 {
		return fmt.Sprintf("need at least 2 dimensions, got %d", len(in.Dimensions))
	}
	for i, d := range in.Dimensions {
		if d <= 0 {
			return fmt.Sprintf("dimension %d is %d, must be positive", i, d)
		}
		if d > MaxDimension {
			return fmt.Sprintf("dimension %d is %d, must be at most %d", i, d, MaxDimension)
		}
	}
	return ""
}

// MatrixChain finds the cheapest multiplication order for A1..An where Ai is
// dims[i-1] x dims[i]. Cells are filled by increasing chain length.
func MatrixChain(in MatrixChainInput) *trace.Trace {
	const timeC, spaceC = "O(n³)", "O(n²)"
	r := trace.NewRecorder()

	if reason := in.invalid(); reason != "" {
		return invalidTable(r, reason, timeC, spaceC)
	}
	dims := in.Dimensions
	n := len(dims) - 1
	if tooLarge(n, n) {
		return invalidTable(r, "table too large", timeC, spaceC)
	}

	labels := make([]string, 0, n+1)
	labels = append(labels, "")
	for i := 1; i <= n; i++ {
		labels = append(labels, fmt.Sprintf("A%d", i))
	}
	r.Init(&trace.TableInit{Rows: n + 1, Cols: n + 1, RowLabels: labels, ColLabels: labels},
		"Initialized table for %d matrices with dimensions %v", n, dims)

	for i := 1; i <= n; i++ {
		r.Update(&trace.CellUpdate{I: i, J: i, Value: 0, Action: "base"}, "dp[%d][%d] = 0: a single matrix costs nothing", i, i)
	}

	dp := newTable(n+1, n+1)
	split := newTable(n+1, n+1)
	for length := 2; length <= n; length++ {
		for i := 1; i+length-1 <= n; i++ {
			j := i + length - 1
			best, bestK := math.MaxInt, i
			for k := i; k < j; k++ {
				cost := dp[i][k] + dp[k+1][j] + dims[i-1]*dims[k]*dims[j]
				r.Highlight(&trace.CellFocus{I: i, J: j, K: trace.IntPtr(k), Candidate: trace.IntPtr(cost), Compare: "min"},
					"Split (A%d..A%d)(A%d..A%d): %d + %d + %d·%d·%d = %d",
					i, k, k+1, j, dp[i][k], dp[k+1][j], dims[i-1], dims[k], dims[j], cost)
				r.Compare(1)
				if cost < best {
					best, bestK = cost, k
				}
			}
			dp[i][j], split[i][j] = best, bestK
			r.Update(&trace.CellUpdate{I: i, J: j, Value: best, Action: fmt.Sprintf("split at %d", bestK), Split: trace.IntPtr(bestK)},
				"dp[%d][%d] = %d splitting after A%d", i, j, best, bestK)
		}
	}

	var sb strings.Builder
	parenthesize(&sb, split, 1, n)
	paren := sb.String()
	r.Info("Optimal order: %s", paren)

	cost := dp[1][n]
	return r.Finish(&trace.Solution{Value: cost, Found: true, Parenthesization: paren}, cost, nil, timeC, spaceC)
}

func parenthesize(sb *strings.Builder, split [][]int, i, j int) {
	if i == j {
		fmt.Fprintf(sb, "A%d", i)
		return
	}
	sb.WriteByte('(')
	parenthesize(sb, split, i, split[i][j])
	parenthesize(sb, split, split[i][j]+1, j)
	sb.WriteByte(')')
}
