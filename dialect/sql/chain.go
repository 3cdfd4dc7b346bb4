package sql

import (
	"github.com/syssam/sqlkit/expr"
	"github.com/syssam/sqlkit/schema"
)

// NodeKind tags a clause node.
type NodeKind uint8

// Node kinds.
const (
	KindFrom NodeKind = iota + 1
	KindJoin
	KindOn
	KindWhere
	KindSet
	KindGroupBy
	KindHaving
	KindOrderBy
	KindLimit
	KindTop
	KindOffset
	KindFetch
	KindDistinct
)

var kindNames = [...]string{
	KindFrom:     "From",
	KindJoin:     "Join",
	KindOn:       "On",
	KindWhere:    "Where",
	KindSet:      "Set",
	KindGroupBy:  "GroupBy",
	KindHaving:   "Having",
	KindOrderBy:  "OrderBy",
	KindLimit:    "Limit",
	KindTop:      "Top",
	KindOffset:   "Offset",
	KindFetch:    "Fetch",
	KindDistinct: "Distinct",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "NodeKind(?)"
}

// JoinType is the join keyword sequence.
type JoinType string

// Join types.
const (
	InnerJoin JoinType = "INNER JOIN"
	LeftJoin  JoinType = "LEFT JOIN"
	RightJoin JoinType = "RIGHT JOIN"
)

// Order is a single ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Node is one clause of a chain. Which fields are meaningful depends on
// Kind.
type Node struct {
	Kind NodeKind
	// Prev is the index of the predecessor node, -1 for a root.
	Prev int

	// From, Join.
	Meta  *schema.Metadata
	Table string
	Alias string
	Join  JoinType

	// On.
	Left, Right string

	// Where, Having.
	Triples []expr.Triple

	// Set.
	Column string
	Value  any

	// GroupBy.
	Columns []string

	// OrderBy.
	Orders []Order

	// Limit, Top, Offset, Fetch.
	N int
}

// table returns the table identifier of a From or Join node.
func (n *Node) table() string {
	if n.Table != "" {
		return n.Table
	}
	if n.Meta != nil {
		return n.Meta.Table
	}
	return ""
}

// Chain is an append-only arena of clause nodes. Nodes are addressed by
// index; a chain is walked from a tail index back through Prev links.
// Appending after an earlier index branches the chain without affecting
// nodes reachable from other tails.
//
// A Chain is not safe for concurrent use.
type Chain struct {
	nodes []Node
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{nodes: make([]Node, 0, 8)}
}

// Root starts a new chain branch with n as its root and returns its index.
func (c *Chain) Root(n Node) int {
	n.Prev = -1
	c.nodes = append(c.nodes, n)
	return len(c.nodes) - 1
}

// Append adds n after prev and returns the index of n.
func (c *Chain) Append(prev int, n Node) int {
	n.Prev = prev
	c.nodes = append(c.nodes, n)
	return len(c.nodes) - 1
}

// Node returns the node at index i.
func (c *Chain) Node(i int) *Node { return &c.nodes[i] }

// Len returns the number of nodes in the arena.
func (c *Chain) Len() int { return len(c.nodes) }

// Path returns the node indices from the root to tail.
func (c *Chain) Path(tail int) []int {
	var n int
	for i := tail; i >= 0; i = c.nodes[i].Prev {
		n++
	}
	path := make([]int, n)
	for i := tail; i >= 0; i = c.nodes[i].Prev {
		n--
		path[n] = i
	}
	return path
}

// Values returns the bound values reachable from tail in root-to-tail
// order. This is the order in which Assemble emits parameters.
func (c *Chain) Values(tail int) []any {
	var vs []any
	for _, i := range c.Path(tail) {
		n := &c.nodes[i]
		switch n.Kind {
		case KindSet:
			vs = append(vs, n.Value)
		case KindWhere, KindHaving:
			for _, t := range n.Triples {
				if !t.IsSep() {
					vs = append(vs, t.Value)
				}
			}
		}
	}
	return vs
}
