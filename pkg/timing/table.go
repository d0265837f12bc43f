// Package timing implements the JEDEC-style timing-constraint table: the
// flat rule list that the DRAM device model consults on every command issue
// to push out the "next allowed time" of every node the rule touches.
//
// This generalizes the teacher CPU emulator's per-(mode,size) cycle-cost
// lookup (timing.go: eaFetchCycles/eaWriteCycles) from "a small fixed table
// of addressing-mode costs" to "a rule list scoped by hierarchy level with
// optional sibling propagation and N-th-previous-issue windows".
package timing

// Level is a generic hierarchy-level tag; callers supply their own enum
// values (this package is agnostic to what a level "means").
type Level int

// Rule is one entry of the timing-constraint table (spec.md §3):
// once any command in Preceding is issued at a node of Scope, every command
// in Following is forbidden at that node (or sibling nodes, when Sibling is
// set) until Latency cycles have elapsed. When Window > 0 the rule applies
// to the Window-th previous issue (four-activation-window style, e.g. nFAW).
type Rule struct {
	Scope      Level
	Preceding  []int // command identifiers, caller-defined space
	Following  []int
	Latency    int64
	Window     int  // 0 = applies to the most recent issue only
	Sibling    bool // propagate to peer nodes at the same level
	Name       string
}

// Matches reports whether cmd is among the rule's preceding commands.
func (r Rule) Matches(cmd int) bool {
	for _, c := range r.Preceding {
		if c == cmd {
			return true
		}
	}
	return false
}

// Table is an ordered list of rules, typically built once at startup from a
// timing preset and any configuration overrides.
type Table struct {
	Rules []Rule
	// byPreceding indexes rule positions by preceding-command id for fast
	// lookup on the (hot) issue_command path.
	byPreceding map[int][]int
}

// NewTable builds a Table from a rule list, indexing it for fast lookup.
func NewTable(rules []Rule) *Table {
	t := &Table{Rules: rules, byPreceding: make(map[int][]int)}
	for i, r := range rules {
		for _, c := range r.Preceding {
			t.byPreceding[c] = append(t.byPreceding[c], i)
		}
	}
	return t
}

// RulesFor returns the rules triggered by issuing cmd, in table order.
func (t *Table) RulesFor(cmd int) []Rule {
	idxs := t.byPreceding[cmd]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]Rule, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, t.Rules[i])
	}
	return out
}

// Window tracks the last N issue timestamps of a command at a node, used for
// four-activation-window style rules (nFAW): the rule's latency applies
// measured from the Window-th previous issue, not the most recent one.
type Window struct {
	depth   int
	history []int64
}

// NewWindow creates a ring tracking the last depth issue timestamps.
func NewWindow(depth int) *Window {
	return &Window{depth: depth}
}

// Record appends clk as the most recent issue timestamp.
func (w *Window) Record(clk int64) {
	w.history = append(w.history, clk)
	if len(w.history) > w.depth {
		w.history = w.history[len(w.history)-w.depth:]
	}
}

// NthPrevious returns the timestamp of the n-th previous issue (n=1 is the
// most recent), or (0, false) if fewer than n issues have been recorded.
func (w *Window) NthPrevious(n int) (int64, bool) {
	idx := len(w.history) - n
	if idx < 0 {
		return 0, false
	}
	return w.history[idx], true
}
