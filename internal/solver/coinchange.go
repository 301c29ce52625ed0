package solver

import (
	"fmt"
	"slices"
	"sort"

	"github.com/awmpietro/algotrace/internal/trace"
)

// usableCoins drops non-positive and duplicate denominations.
func usableCoins(coins []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(coins))
	for _, c := range coins {
		if c <= 0 || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// CoinChangeDP computes the minimum number of coins for every amount up to
// the target. Unreachable amounts hold trace.Unreachable; an unreachable
// target yields -1.
func CoinChangeDP(in CoinChangeInput) *trace.Trace {
	const timeC, spaceC = "O(A·k)", "O(A)"
	r := trace.NewRecorder()

	if in.Amount < 0 {
		return invalidTable(r, fmt.Sprintf("amount %d is negative", in.Amount), timeC, spaceC)
	}
	if tooLarge(0, in.Amount) {
		return invalidTable(r, "table too large", timeC, spaceC)
	}

	coins := usableCoins(in.Coins)
	sort.Ints(coins)
	amount := in.Amount

	r.Init(&trace.TableInit{Rows: 1, Cols: amount + 1, RowLabels: []string{"coins"}, ColLabels: rangeLabels(0, amount)},
		"Initialized table for amounts 0..%d with coins %v", amount, coins)

	dp := make([]int, amount+1)
	from := make([]int, amount+1)
	r.Update(&trace.CellUpdate{I: 0, J: 0, Value: 0, Action: "base"}, "dp[0] = 0: no coins needed for amount 0")

	for a := 1; a <= amount; a++ {
		best, bestCoin := trace.Unreachable, 0
		for _, c := range coins {
			r.Compare(1)
			if c > a {
				break
			}
			prev := dp[a-c]
			if prev == trace.Unreachable {
				r.Highlight(&trace.CellFocus{I: 0, J: a, K: trace.IntPtr(c), Compare: "unreachable"},
					"Amount %d with coin %d: dp[%d] is unreachable", a, c, a-c)
				continue
			}
			cand := prev + 1
			r.Highlight(&trace.CellFocus{I: 0, J: a, K: trace.IntPtr(c), Candidate: trace.IntPtr(cand), Compare: "min"},
				"Amount %d with coin %d: dp[%d] + 1 = %d", a, c, a-c, cand)
			r.Compare(1)
			if cand < best {
				best, bestCoin = cand, c
			}
		}
		dp[a], from[a] = best, bestCoin
		if best == trace.Unreachable {
			r.Update(&trace.CellUpdate{I: 0, J: a, Value: best, Action: "unreachable"},
				"dp[%d] = ∞: amount %d cannot be formed", a, a)
			continue
		}
		r.Update(&trace.CellUpdate{I: 0, J: a, Value: best, Action: fmt.Sprintf("coin %d", bestCoin)},
			"dp[%d] = %d using coin %d", a, best, bestCoin)
	}

	if dp[amount] == trace.Unreachable {
		reason := fmt.Sprintf("amount %d cannot be formed from %v", amount, coins)
		return r.Finish(&trace.Solution{Value: -1, Reason: reason}, -1, nil, timeC, spaceC)
	}

	used := []int{}
	for a := amount; a > 0; a -= from[a] {
		used = append(used, from[a])
	}
	r.Info("Traceback: coins used %v", used)

	return r.Finish(&trace.Solution{Value: dp[amount], Found: true, Selected: used}, dp[amount], used, timeC, spaceC)
}

// CoinChangeGreedy takes as many of the largest coin as possible, then the
// next, and so on. It can fail or use more coins than CoinChangeDP.
func CoinChangeGreedy(in CoinChangeInput) *trace.Trace {
	const key, timeC, spaceC = "denomination desc", "O(k log k)", "O(k)"
	r := trace.NewRecorder()

	if in.Amount < 0 {
		return invalidGreedy(r, key, fmt.Sprintf("amount %d is negative", in.Amount), timeC, spaceC)
	}

	coins := usableCoins(in.Coins)
	if len(coins) > 0 && in.Amount/slices.Min(coins) > MaxTableCells {
		return invalidGreedy(r, key, fmt.Sprintf("amount %d needs more than %d coins", in.Amount, MaxTableCells), timeC, spaceC)
	}
	stableSort(r, coins, func(a, b int) bool { return a > b })

	cands := make([]trace.Candidate, 0, len(coins))
	for _, c := range coins {
		cands = append(cands, trace.Candidate{ItemID: c, Weight: c, Value: c, Ratio: float64(c)})
	}
	r.Init(&trace.Candidates{Key: key, Items: cands},
		"Sorted %d coins by denomination, largest first; amount %d", len(coins), in.Amount)

	remaining, total := in.Amount, 0
	used := []int{}
	for _, c := range coins {
		r.Compare(1)
		if c > remaining {
			r.Decide(false, &trace.Decision{ItemID: c, Weight: c, Value: 0, Ratio: float64(c), TotalValue: total},
				"Rejected coin %d: larger than remaining %d", c, remaining)
			continue
		}
		count := remaining / c
		remaining -= count * c
		total += count
		for range count {
			used = append(used, c)
		}
		r.Decide(true, &trace.Decision{ItemID: c, Weight: c, Value: count * c, Ratio: float64(c), TotalValue: total, Count: count},
			"Took %d x %d: %d coins so far, %d left", count, c, total, remaining)
	}

	if remaining > 0 {
		reason := fmt.Sprintf("greedy leaves %d unpaid", remaining)
		return r.Finish(&trace.Solution{Value: -1, Reason: reason, Selected: used}, -1, used, timeC, spaceC)
	}
	return r.Finish(&trace.Solution{Value: total, Found: true, Selected: used}, total, used, timeC, spaceC)
}
