// Package solver turns problem inputs into step traces. Every solver is a
// pure function that always returns a complete, replayable trace: invalid or
// unsatisfiable input is reported inside the SOLUTION step, never as an error.
package solver

import (
	"sort"
	"strconv"

	"github.com/awmpietro/algotrace/internal/trace"
)

// MaxTableCells bounds DP tables. Larger inputs are treated as invalid.
const MaxTableCells = 1 << 20

// MaxDimension bounds a single matrix-chain dimension so chain costs stay
// well inside int.
const MaxDimension = 1 << 16

// Family tells consumers which replay state a solver populates.
type Family string

const (
	FamilyTable  Family = "table"
	FamilyGreedy Family = "greedy"
	FamilyGraph  Family = "graph"
	FamilyForest Family = "forest"
)

// tooLarge reports whether a (rows+1) x (cols+1) table exceeds MaxTableCells.
// Callers pass the raw sizes so the +1 cannot overflow before the check.
func tooLarge(rows, cols int) bool {
	if rows < 0 || cols < 0 || rows >= MaxTableCells || cols >= MaxTableCells {
		return true
	}
	return (cols + 1) > MaxTableCells/(rows+1)
}

func invalidTable(r *trace.Recorder, reason, timeC, spaceC string) *trace.Trace {
	r.Init(&trace.TableInit{}, "Invalid input: %s", reason)
	return r.Finish(&trace.Solution{Reason: reason}, 0, nil, timeC, spaceC)
}

func invalidGreedy(r *trace.Recorder, key, reason, timeC, spaceC string) *trace.Trace {
	r.Init(&trace.Candidates{Key: key, Items: []trace.Candidate{}}, "Invalid input: %s", reason)
	return r.Finish(&trace.Solution{Reason: reason}, 0, nil, timeC, spaceC)
}

func invalidGraph(r *trace.Recorder, reason, timeC, spaceC string) *trace.Trace {
	r.Init(&trace.GraphState{Visited: []string{}}, "Invalid input: %s", reason)
	return r.Finish(&trace.Solution{Reason: reason}, 0, nil, timeC, spaceC)
}

func newTable(rows, cols int) [][]int {
	t := make([][]int, rows)
	for i := range t {
		t[i] = make([]int, cols)
	}
	return t
}

func rangeLabels(from, to int) []string {
	out := make([]string, 0, to-from+1)
	for v := from; v <= to; v++ {
		out = append(out, strconv.Itoa(v))
	}
	return out
}

// stableSort sorts with a comparison-counting less function.
func stableSort[T any](r *trace.Recorder, s []T, less func(a, b T) bool) {
	sort.SliceStable(s, func(i, j int) bool {
		r.Compare(1)
		return less(s[i], s[j])
	})
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func copyDistances(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyPrevious(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStrings(s []string) []string {
	return append([]string{}, s...)
}

func copyEdges(s []trace.Edge) []trace.Edge {
	return append([]trace.Edge{}, s...)
}

func fmtDist(d int) string {
	if d == trace.Unreachable {
		return "∞"
	}
	return strconv.Itoa(d)
}
