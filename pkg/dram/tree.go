package dram

import (
	"github.com/hanloveland/ramulator2-sub000/pkg/request"
	"github.com/hanloveland/ramulator2-sub000/pkg/timing"
)

// NodeState is the current state of a node, drawn from the subset of
// {Opened, Closed, PowerUp, Refreshing, N/A} applicable at that node's level.
type NodeState int

const (
	StateNA NodeState = iota
	StateClosed
	StateOpened
	StatePowerUp
	StateRefreshing
)

func (s NodeState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpened:
		return "opened"
	case StatePowerUp:
		return "powerup"
	case StateRefreshing:
		return "refreshing"
	default:
		return "n/a"
	}
}

// nodeID is an arena index. The tree never hands out pointers, avoiding the
// cyclic-ownership problem a parent-pointer tree would have (spec.md §9
// "Node tree with back-pointers").
type nodeID int32

const rootID nodeID = 0

type treeNode struct {
	level    Level
	parent   nodeID
	coord    int32 // this node's coordinate at its own level
	children map[int32]nodeID

	state   NodeState
	openRow int32 // Bank level only; -1 if closed or not a bank node

	nextAllowed map[Command]request.Clock
	windows     map[Command]*timing.Window
}

// tree is the arena-backed hierarchy of device nodes, one per level from
// Channel down to Bank.
type tree struct {
	nodes []treeNode
}

func newTree() *tree {
	t := &tree{}
	t.nodes = append(t.nodes, treeNode{
		level: Level(-1), parent: -1,
		children: make(map[int32]nodeID),
	})
	return t
}

func (t *tree) node(id nodeID) *treeNode { return &t.nodes[id] }

func (t *tree) newNode(parent nodeID, level Level, coord int32) nodeID {
	id := nodeID(len(t.nodes))
	n := treeNode{
		level:       level,
		parent:      parent,
		coord:       coord,
		children:    make(map[int32]nodeID),
		nextAllowed: make(map[Command]request.Clock),
		windows:     make(map[Command]*timing.Window),
	}
	if level == Bank {
		n.state = StateClosed
		n.openRow = request.Unspecified
	} else {
		n.state = StateNA
		n.openRow = request.Unspecified
	}
	t.nodes = append(t.nodes, n)
	if parent >= 0 {
		t.nodes[parent].children[coord] = id
	}
	return id
}

// populate pre-builds the full node tree for org's per-level counts, so
// that sibling-propagating timing rules always find every peer node (a
// lazily-created peer would otherwise miss constraints recorded before its
// first access).
func (t *tree) populate(org Org) {
	counts := [int(numTreeLevels)]int32{
		int32(org.Channels), int32(org.PseudoChannels),
		int32(org.NarrowIO), int32(org.WideIO),
		int32(org.Ranks), int32(org.BankGroups), int32(org.Banks),
	}
	var build func(parent nodeID, level Level)
	build = func(parent nodeID, level Level) {
		if level >= numTreeLevels {
			return
		}
		for c := int32(0); c < counts[level]; c++ {
			child, ok := t.nodes[parent].children[c]
			if !ok {
				child = t.newNode(parent, level, c)
			}
			build(child, level+1)
		}
	}
	build(rootID, Level(0))
}

// getOrCreate walks from the root through levels 0..level using vec's
// coordinates, creating any missing path nodes (the populated tree covers
// every in-org coordinate; creation only triggers for out-of-org or
// broadcast vectors).
func (t *tree) getOrCreate(vec request.AddrVec, level Level) nodeID {
	cur := rootID
	for l := Level(0); l <= level; l++ {
		c := vec[addrVecIndex(l)]
		if c == request.Unspecified {
			c = 0
		}
		child, ok := t.nodes[cur].children[c]
		if !ok {
			child = t.newNode(cur, l, c)
		}
		cur = child
	}
	return cur
}

// ancestorAt returns the ancestor of id at the given level (id itself if
// already at that level).
func (t *tree) ancestorAt(id nodeID, level Level) nodeID {
	cur := id
	for t.nodes[cur].level > level {
		cur = t.nodes[cur].parent
	}
	return cur
}

// siblings returns every other child of id's parent at id's own level.
func (t *tree) siblings(id nodeID) []nodeID {
	n := t.nodes[id]
	if n.parent < 0 {
		return nil
	}
	parent := t.nodes[n.parent]
	out := make([]nodeID, 0, len(parent.children)-1)
	for c, child := range parent.children {
		if child != id {
			_ = c
			out = append(out, child)
		}
	}
	return out
}

// descendantsAt returns every descendant of id at targetLevel (id itself if
// it is already at or past targetLevel).
func (t *tree) descendantsAt(id nodeID, targetLevel Level) []nodeID {
	n := t.nodes[id]
	if n.level >= targetLevel {
		return []nodeID{id}
	}
	var out []nodeID
	for _, child := range n.children {
		out = append(out, t.descendantsAt(child, targetLevel)...)
	}
	return out
}

func (t *tree) setNextAllowed(id nodeID, cmd Command, clk request.Clock) {
	n := &t.nodes[id]
	if cur, ok := n.nextAllowed[cmd]; !ok || clk > cur {
		n.nextAllowed[cmd] = clk
	}
}

func (t *tree) getNextAllowed(id nodeID, cmd Command) request.Clock {
	return t.nodes[id].nextAllowed[cmd]
}

func (t *tree) window(id nodeID, cmd Command, depth int) *timing.Window {
	n := &t.nodes[id]
	w, ok := n.windows[cmd]
	if !ok {
		w = timing.NewWindow(depth)
		n.windows[cmd] = w
	}
	return w
}
