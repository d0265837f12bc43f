package timing

import "testing"

func TestRulesForReturnsTriggeredRulesInOrder(t *testing.T) {
	rules := []Rule{
		{Name: "a", Preceding: []int{1}, Following: []int{2}, Latency: 10},
		{Name: "b", Preceding: []int{1, 3}, Following: []int{4}, Latency: 20},
		{Name: "c", Preceding: []int{5}, Following: []int{6}, Latency: 30},
	}
	tab := NewTable(rules)

	got := tab.RulesFor(1)
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "b" {
		t.Fatalf("RulesFor(1) = %v, want rules a then b", got)
	}
	if tab.RulesFor(99) != nil {
		t.Fatalf("RulesFor on an unknown command should return nil")
	}
}

func TestRuleMatches(t *testing.T) {
	r := Rule{Preceding: []int{7, 8}}
	if !r.Matches(7) || !r.Matches(8) || r.Matches(9) {
		t.Fatalf("Matches should test membership in the preceding set")
	}
}

func TestWindowTracksNthPreviousIssue(t *testing.T) {
	w := NewWindow(4)
	if _, ok := w.NthPrevious(1); ok {
		t.Fatalf("empty window should report no previous issue")
	}

	for clk := int64(10); clk <= 50; clk += 10 {
		w.Record(clk)
	}

	// Five issues recorded, depth 4: the window holds 20..50.
	if got, ok := w.NthPrevious(1); !ok || got != 50 {
		t.Fatalf("NthPrevious(1) = %d, want 50", got)
	}
	if got, ok := w.NthPrevious(4); !ok || got != 20 {
		t.Fatalf("NthPrevious(4) = %d, want 20 (oldest retained)", got)
	}
	if _, ok := w.NthPrevious(5); ok {
		t.Fatalf("NthPrevious past the window depth should report absence")
	}
}
