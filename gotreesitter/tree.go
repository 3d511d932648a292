package gotreesitter

// InputEdit describes a single text edit, in both byte offsets and
// row/column points, as tree-sitter's TSInputEdit does. StartByte is the
// same before and after the edit; OldEndByte/NewEndByte describe how far
// the replaced/replacement text reached.
type InputEdit struct {
	StartByte  uint32
	OldEndByte uint32
	NewEndByte uint32

	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// delta returns the byte and point deltas this edit applies to everything
// strictly after OldEndByte.
func (e InputEdit) delta() (int64, Point) {
	byteDelta := int64(e.NewEndByte) - int64(e.OldEndByte)
	var pointDelta Point
	if e.NewEndPoint.Row != e.OldEndPoint.Row {
		pointDelta = Point{
			Row:    e.NewEndPoint.Row - e.OldEndPoint.Row,
			Column: e.NewEndPoint.Column,
		}
	} else {
		pointDelta = Point{
			Row:    0,
			Column: e.NewEndPoint.Column - e.OldEndPoint.Column,
		}
	}
	return byteDelta, pointDelta
}

// Tree holds a complete syntax tree along with its source text and
// language. A Tree is immutable: Edit returns a new Tree rather than
// mutating the receiver, so callers (and any other Tree built from the
// same nodes via incremental reuse) never observe a node's span changing
// out from under them.
type Tree struct {
	root           *Node
	source         []byte
	language       *Language
	includedRanges []Range
	// edits accumulates InputEdits applied since this Tree's root was last
	// fully (re)parsed. Parser.ParseIncremental consumes these to decide
	// which old nodes are still safe to reuse.
	edits []InputEdit
}

// NewTree creates a new Tree.
func NewTree(root *Node, source []byte, lang *Language) *Tree {
	return &Tree{
		root:     root,
		source:   source,
		language: lang,
	}
}

// RootNode returns the tree's root node.
func (t *Tree) RootNode() *Node { return t.root }

// Source returns the original source text.
func (t *Tree) Source() []byte { return t.source }

// Language returns the language used to parse this tree.
func (t *Tree) Language() *Language { return t.language }

// IncludedRanges returns the ranges of the source this tree was parsed
// over (nil means "the whole source").
func (t *Tree) IncludedRanges() []Range { return t.includedRanges }

// PendingEdits returns the InputEdits recorded since the last full parse,
// in application order.
func (t *Tree) PendingEdits() []InputEdit { return append([]InputEdit(nil), t.edits...) }

// Copy returns a shallow copy of t sharing the same root and source. Since
// nodes are never mutated in place, sharing the root is always safe.
func (t *Tree) Copy() *Tree {
	c := *t
	c.edits = append([]InputEdit(nil), t.edits...)
	return &c
}

// Edit applies a single text edit to the tree, returning a new Tree whose
// node spans have been shifted to account for it. Nodes entirely before
// edit.StartByte are shared unchanged with the original tree; nodes that
// start at or after edit.OldEndByte are cloned with their spans shifted by
// the edit's byte/point delta; nodes that overlap [StartByte, OldEndByte)
// are cloned and marked HasChanges so Parser.ParseIncremental knows not to
// trust their text.
//
// This performs a walk over every node that is shifted or overlapped,
// which is O(affected descendants) rather than tree-sitter's O(tree
// height) amortized cost — the cost of keeping absolute offsets on Node.
// Parser.ParseIncremental still reuses unaffected subtrees wholesale, so
// in practice only the edited region and its ancestors are touched.
func (t *Tree) Edit(edit InputEdit) *Tree {
	newTree := &Tree{
		source:         t.source,
		language:       t.language,
		includedRanges: t.includedRanges,
		edits:          append(append([]InputEdit(nil), t.edits...), edit),
	}
	if t.root == nil {
		return newTree
	}
	newTree.root = editNode(t.root, edit)
	return newTree
}

// editNode returns a node reflecting edit's effect on n. Nodes entirely
// before the edit are returned unchanged (shared with the old tree).
// Nodes overlapping or after the edit are cloned.
func editNode(n *Node, edit InputEdit) *Node {
	byteDelta, pointDelta := edit.delta()

	if n.endByte <= edit.StartByte {
		return n
	}

	clone := n.cloneShallow()

	switch {
	case n.startByte >= edit.OldEndByte:
		// Entirely after the edit: shift both endpoints.
		clone.startByte = shiftByte(n.startByte, byteDelta)
		clone.endByte = shiftByte(n.endByte, byteDelta)
		clone.startPoint = shiftPoint(n.startPoint, edit.OldEndPoint, pointDelta)
		clone.endPoint = shiftPoint(n.endPoint, edit.OldEndPoint, pointDelta)
		clone.hasChanges = n.hasChanges

	case n.startByte >= edit.StartByte:
		// Starts inside the replaced region: its own start is not well
		// defined any more; mark changed and let the reduce boundary move.
		clone.startByte = edit.StartByte
		clone.endByte = shiftByte(n.endByte, byteDelta)
		clone.startPoint = edit.NewEndPoint
		if clone.startPoint.Less(edit.StartPoint) {
			clone.startPoint = edit.StartPoint
		}
		clone.endPoint = shiftPoint(n.endPoint, edit.OldEndPoint, pointDelta)
		clone.hasChanges = true

	default:
		// Straddles the edit: start stays, end shifts.
		clone.endByte = shiftByte(n.endByte, byteDelta)
		clone.endPoint = shiftPoint(n.endPoint, edit.OldEndPoint, pointDelta)
		clone.hasChanges = true
	}

	for i, c := range n.children {
		nc := editNode(c, edit)
		clone.children[i] = nc
		if nc != c {
			nc.parent = clone
			if nc.hasChanges {
				clone.hasChanges = true
			}
		}
	}

	return clone
}

func shiftByte(b uint32, delta int64) uint32 {
	v := int64(b) + delta
	if v < 0 {
		return 0
	}
	return uint32(v)
}

func shiftPoint(p, oldEnd, delta Point) Point {
	if p.Row > oldEnd.Row || (p.Row == oldEnd.Row && p.Column >= oldEnd.Column) {
		if delta.Row > 0 {
			if p.Row == oldEnd.Row {
				return Point{Row: p.Row + delta.Row, Column: p.Column - oldEnd.Column + delta.Column}
			}
			return Point{Row: p.Row + delta.Row, Column: p.Column}
		}
		if p.Row == oldEnd.Row {
			return Point{Row: p.Row, Column: uint32(int64(p.Column) + delta.Column)}
		}
		return Point{Row: uint32(int64(p.Row) + delta.Row), Column: p.Column}
	}
	return p
}

// Walk returns a new TreeCursor positioned at the tree's root.
func (t *Tree) Walk() *TreeCursor {
	return newTreeCursor(t.root)
}

// ChangedRanges returns the ranges of source text whose parsed structure
// differs between old and t, by descending both trees together and
// collecting spans where the node sequence diverges. Used to tell a
// caller (e.g. a syntax highlighter) the minimal region to re-render
// after an incremental reparse.
func (t *Tree) ChangedRanges(old *Tree) []Range {
	var out []Range
	changedRangesRec(old.root, t.root, &out)
	return mergeRanges(out)
}

func changedRangesRec(a, b *Node, out *[]Range) {
	if a == nil && b == nil {
		return
	}
	if a == nil || b == nil {
		appendDiff(a, b, out)
		return
	}
	if a == b {
		return
	}
	if a.symbol != b.symbol || len(a.children) == 0 || len(b.children) == 0 {
		appendDiff(a, b, out)
		return
	}
	if len(a.children) != len(b.children) {
		appendDiff(a, b, out)
		return
	}
	for i := range a.children {
		changedRangesRec(a.children[i], b.children[i], out)
	}
}

func appendDiff(a, b *Node, out *[]Range) {
	var r Range
	switch {
	case a == nil:
		r = b.Range()
	case b == nil:
		r = a.Range()
	default:
		r = Range{
			StartByte:  minu32(a.startByte, b.startByte),
			EndByte:    maxu32ranges(a.endByte, b.endByte),
			StartPoint: a.startPoint,
			EndPoint:   b.endPoint,
		}
	}
	*out = append(*out, r)
}

func minu32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func maxu32ranges(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// mergeRanges sorts and coalesces overlapping/adjacent ranges.
func mergeRanges(rs []Range) []Range {
	if len(rs) < 2 {
		return rs
	}
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j-1].StartByte > rs[j].StartByte; j-- {
			rs[j-1], rs[j] = rs[j], rs[j-1]
		}
	}
	out := rs[:1]
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.StartByte <= last.EndByte {
			if r.EndByte > last.EndByte {
				last.EndByte = r.EndByte
				last.EndPoint = r.EndPoint
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
