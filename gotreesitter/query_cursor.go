package gotreesitter

// QueryCursor executes a Query against a tree incrementally, restricting
// matches to a byte/point range and capping how many matches it will
// collect — mirroring tree-sitter's TSQueryCursor, which lets a caller
// (e.g. a syntax highlighter re-rendering only the visible viewport) avoid
// walking the whole tree on every keystroke.
type QueryCursor struct {
	query      *Query
	byteStart  uint32
	byteEnd    uint32
	hasByte    bool
	pointStart Point
	pointEnd   Point
	hasPoint   bool
	matchLimit int
}

// NewQueryCursor creates a cursor with no range restriction and no match
// limit.
func NewQueryCursor(q *Query) *QueryCursor {
	return &QueryCursor{query: q}
}

// SetByteRange restricts matches to nodes overlapping [start, end).
func (c *QueryCursor) SetByteRange(start, end uint32) {
	c.byteStart, c.byteEnd, c.hasByte = start, end, true
}

// SetPointRange restricts matches to nodes overlapping [start, end).
func (c *QueryCursor) SetPointRange(start, end Point) {
	c.pointStart, c.pointEnd, c.hasPoint = start, end, true
}

// SetMatchLimit caps the number of matches Matches/Captures will return. A
// limit of 0 means unlimited.
func (c *QueryCursor) SetMatchLimit(limit int) {
	c.matchLimit = limit
}

// Matches runs the query against tree, applying this cursor's range and
// match-limit restrictions.
func (c *QueryCursor) Matches(tree *Tree) []QueryMatch {
	all := c.query.Execute(tree)
	out := all[:0:0]
	for _, m := range all {
		if !c.matchInRange(m) {
			continue
		}
		out = append(out, m)
		if c.matchLimit > 0 && len(out) >= c.matchLimit {
			break
		}
	}
	return out
}

// Captures flattens every capture from every surviving match into a
// single stream, in match order.
func (c *QueryCursor) Captures(tree *Tree) []QueryCapture {
	var out []QueryCapture
	for _, m := range c.Matches(tree) {
		out = append(out, m.Captures...)
	}
	return out
}

func (c *QueryCursor) matchInRange(m QueryMatch) bool {
	if !c.hasByte && !c.hasPoint {
		return true
	}
	for _, qc := range m.Captures {
		n := qc.Node
		if c.hasByte && (n.EndByte() <= c.byteStart || n.StartByte() >= c.byteEnd) {
			continue
		}
		if c.hasPoint {
			endsBeforeStart := n.EndPoint().Less(c.pointStart) || n.EndPoint() == c.pointStart
			startsAfterEnd := c.pointEnd.Less(n.StartPoint()) || c.pointEnd == n.StartPoint()
			if endsBeforeStart || startsAfterEnd {
				continue
			}
		}
		return true
	}
	return false
}
