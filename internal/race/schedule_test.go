package race

import (
	"testing"
	"time"
)

// TestBalanceGroupsSplitsLoad ensures slow bots end up in separate groups.
func TestBalanceGroupsSplitsLoad(t *testing.T) {
	cost := map[string]time.Duration{
		"slow-a": 100 * time.Millisecond,
		"slow-b": 90 * time.Millisecond,
		"fast-a": time.Millisecond,
		"fast-b": time.Millisecond,
	}
	groups := balanceGroups([]string{"fast-a", "slow-a", "fast-b", "slow-b"}, cost, 3)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	for _, g := range groups {
		slow := 0
		for _, team := range g {
			if team == "slow-a" || team == "slow-b" {
				slow++
			}
		}
		if slow > 1 {
			t.Fatalf("expected slow bots spread across groups, got %v", groups)
		}
	}
}

// TestBalanceGroupsDropsEmptyGroups ensures fewer teams than groups
// yields no empty group.
func TestBalanceGroupsDropsEmptyGroups(t *testing.T) {
	cost := map[string]time.Duration{"only": time.Millisecond}
	groups := balanceGroups([]string{"only"}, cost, 3)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0]) != 1 || groups[0][0] != "only" {
		t.Fatalf("unexpected grouping %v", groups)
	}
}

// TestBalanceGroupsIsDeterministic ensures equal costs keep a stable order.
func TestBalanceGroupsIsDeterministic(t *testing.T) {
	cost := map[string]time.Duration{}
	teams := []string{"delta", "bravo", "alpha", "charlie"}
	first := balanceGroups(teams, cost, 2)
	for i := 0; i < 10; i++ {
		again := balanceGroups(teams, cost, 2)
		if len(again) != len(first) {
			t.Fatalf("group count changed: %v vs %v", first, again)
		}
		for g := range first {
			if len(first[g]) != len(again[g]) {
				t.Fatalf("grouping changed: %v vs %v", first, again)
			}
			for j := range first[g] {
				if first[g][j] != again[g][j] {
					t.Fatalf("grouping changed: %v vs %v", first, again)
				}
			}
		}
	}
}

// TestBalanceGroupsEveryTeamPlacedOnce ensures no team is lost or doubled.
func TestBalanceGroupsEveryTeamPlacedOnce(t *testing.T) {
	teams := []string{"a", "b", "c", "d", "e"}
	cost := map[string]time.Duration{
		"a": 5 * time.Millisecond,
		"b": 4 * time.Millisecond,
		"c": 3 * time.Millisecond,
		"d": 2 * time.Millisecond,
		"e": time.Millisecond,
	}
	groups := balanceGroups(teams, cost, 3)
	seen := map[string]int{}
	for _, g := range groups {
		for _, team := range g {
			seen[team]++
		}
	}
	for _, team := range teams {
		if seen[team] != 1 {
			t.Fatalf("team %s placed %d times", team, seen[team])
		}
	}
}
