package race

import (
	"sort"
	"time"
)

// balanceGroups packs teams into at most n turn groups, balancing the
// measured bot runtimes so one slow bot cannot stall every tick. Teams
// are placed longest-first onto the currently lightest group; empty
// groups are dropped. The result is deterministic for equal costs.
func balanceGroups(teams []string, cost map[string]time.Duration, n int) [][]string {
	if n < 1 {
		n = 1
	}
	ordered := append([]string(nil), teams...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ci, cj := cost[ordered[i]], cost[ordered[j]]
		if ci != cj {
			return ci > cj
		}
		return ordered[i] < ordered[j]
	})

	groups := make([][]string, n)
	totals := make([]time.Duration, n)
	for _, team := range ordered {
		lightest := 0
		for i := 1; i < n; i++ {
			if totals[i] < totals[lightest] {
				lightest = i
			}
		}
		groups[lightest] = append(groups[lightest], team)
		totals[lightest] += cost[team]
	}

	out := make([][]string, 0, n)
	for _, g := range groups {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}
