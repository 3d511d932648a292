package gotreesitter

// Node is a syntax tree node. It doubles as tree-sitter's "Subtree": the
// same struct is built fresh by the parser on every reduce/shift and is
// also what the incremental reuse index matches against on a later edit.
//
// Offsets are stored absolute (not parent-relative padding+size pairs, as
// real tree-sitter stores them) to keep the public Node API simple; see
// DESIGN.md for the tradeoff this costs on Tree.Edit.
type Node struct {
	symbol       Symbol
	startByte    uint32
	endByte      uint32
	startPoint   Point
	endPoint     Point
	children     []*Node
	fieldIDs     []FieldID // parallel to children, 0 = no field
	isNamed      bool
	isMissing    bool
	isExtra      bool
	hasError     bool
	hasChanges   bool
	productionID uint16
	parent       *Node

	// state is the parser state this node's production was reduced under.
	// Incremental reuse requires the state the new parse is in to accept
	// this node's starting symbol, so it is kept rather than recomputed.
	state StateID

	// lookaheadBytes is the number of bytes of lookahead the parser
	// consumed deciding to end this node (0 for most productions, >0 for
	// tokens whose lexing depended on what followed them). No code in this
	// package sets it, so it stays 0, and reuse decisions do not consult
	// it: an edit just past this node's end does not disqualify the node
	// from reuse.
	lookaheadBytes uint32

	// errorCost accumulates the recovery cost along the path that produced
	// this node: 0 for an error-free parse, positive wherever the parser
	// inserted a missing token or skipped extra input to recover. Used to
	// rank competing GLR heads when merging or when multiple heads reach
	// accept.
	errorCost int32

	// dynamicPrecedence is the grammar-declared precedence of the
	// production that built this node, summed with its children's. GLR
	// stack merges compare errorCost first (lower wins); on equal cost they
	// prefer the higher dynamic precedence, then the earlier-spawned head.
	dynamicPrecedence int32

	// descendantCount is the total number of descendant leaves (a leaf
	// counts itself), computed once at construction and reported by
	// DescendantCount.
	descendantCount uint32

	// isKeyword is the flag reported by IsKeyword. No code in this package
	// sets it, so it stays false even for leaves whose symbol the
	// keyword-capture DFA (Lexer.reclassifyKeyword) retagged, and subtree
	// reuse does not re-run that reclassification on a reused leaf.
	isKeyword bool

	// hasExternalTokens marks a subtree that contains at least one token
	// produced by the external scanner, forcing incremental reuse to carry
	// forward (or refuse to reuse, if edited) externalState.
	hasExternalTokens bool

	// externalState is the serialized external-scanner state in effect
	// when this node's token was lexed (leaf nodes only).
	externalState []byte

	// fragileLeft/fragileRight mark a node whose left/right edge was
	// produced under lexer or parser ambiguity (e.g. it ends exactly at a
	// reduce/shift conflict resolution, or its first/last token could lex
	// differently if adjacent text changes). Reuse refuses to reuse a node
	// across a fragile edge even when the edit falls strictly outside its
	// byte range.
	fragileLeft  bool
	fragileRight bool
}

// Symbol returns the node's grammar symbol.
func (n *Node) Symbol() Symbol { return n.symbol }

// IsNamed reports whether this is a named node (as opposed to anonymous syntax like punctuation).
func (n *Node) IsNamed() bool { return n.isNamed }

// IsMissing reports whether this node was inserted by error recovery.
func (n *Node) IsMissing() bool { return n.isMissing }

// IsExtra reports whether this node is an "extra" token (comments,
// whitespace-significant tokens the grammar allows anywhere).
func (n *Node) IsExtra() bool { return n.isExtra }

// HasError reports whether this node or any descendant contains a parse error.
func (n *Node) HasError() bool { return n.hasError }

// HasChanges reports whether this node or any descendant was built or
// reused differently than it was in whatever Tree it is being compared
// against, i.e. it falls within an edited region. This is distinct from
// HasError: a correctly-parsed edit still HasChanges, while an error can
// persist across unrelated edits with HasChanges()==false.
func (n *Node) HasChanges() bool { return n.hasChanges }

// IsKeyword reports whether this leaf's symbol was assigned by the
// language's keyword-capture lexer rather than the main token DFA.
func (n *Node) IsKeyword() bool { return n.isKeyword }

// HasExternalTokens reports whether this subtree contains a token
// produced by the language's external scanner.
func (n *Node) HasExternalTokens() bool { return n.hasExternalTokens }

// ErrorCost returns the accumulated error-recovery cost along the parse
// path that produced this node.
func (n *Node) ErrorCost() int32 { return n.errorCost }

// DynamicPrecedence returns the grammar-declared dynamic precedence
// accumulated for this node's production.
func (n *Node) DynamicPrecedence() int32 { return n.dynamicPrecedence }

// ParseState returns the parser state this node's production was reduced
// under (0 for nodes built outside a parse, e.g. by test helpers).
func (n *Node) ParseState() StateID { return n.state }

// DescendantCount returns the number of descendant leaves under this node.
func (n *Node) DescendantCount() uint32 { return n.descendantCount }

// StartByte returns the byte offset where this node begins.
func (n *Node) StartByte() uint32 { return n.startByte }

// EndByte returns the byte offset where this node ends (exclusive).
func (n *Node) EndByte() uint32 { return n.endByte }

// StartPoint returns the row/column position where this node begins.
func (n *Node) StartPoint() Point { return n.startPoint }

// EndPoint returns the row/column position where this node ends.
func (n *Node) EndPoint() Point { return n.endPoint }

// Range returns the full span of this node as a Range.
func (n *Node) Range() Range {
	return Range{
		StartByte:  n.startByte,
		EndByte:    n.endByte,
		StartPoint: n.startPoint,
		EndPoint:   n.endPoint,
	}
}

// Parent returns this node's parent, or nil if it is the root.
func (n *Node) Parent() *Node { return n.parent }

// ChildCount returns the number of children (both named and anonymous).
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child, or nil if i is out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// NamedChildCount returns the number of named children.
func (n *Node) NamedChildCount() int {
	count := 0
	for _, c := range n.children {
		if c.isNamed {
			count++
		}
	}
	return count
}

// NamedChild returns the i-th named child (skipping anonymous children),
// or nil if i is out of range.
func (n *Node) NamedChild(i int) *Node {
	count := 0
	for _, c := range n.children {
		if c.isNamed {
			if count == i {
				return c
			}
			count++
		}
	}
	return nil
}

// FieldIDAt returns the field ID assigned to the i-th child, or 0 if none.
func (n *Node) FieldIDAt(i int) FieldID {
	if i < 0 || i >= len(n.fieldIDs) {
		return 0
	}
	return n.fieldIDs[i]
}

// ChildByFieldName returns the first child assigned to the given field name,
// or nil if no child has that field. The Language is needed to resolve field
// names to IDs.
func (n *Node) ChildByFieldName(name string, lang *Language) *Node {
	fid := FieldID(0)
	for i, fn := range lang.FieldNames {
		if fn == name {
			fid = FieldID(i)
			break
		}
	}
	if fid == 0 {
		return nil
	}
	return n.ChildByFieldID(fid)
}

// ChildByFieldID returns the first child assigned to the given field ID,
// or nil if no child has that field.
func (n *Node) ChildByFieldID(fid FieldID) *Node {
	for i, id := range n.fieldIDs {
		if id == fid && i < len(n.children) {
			return n.children[i]
		}
	}
	return nil
}

// Children returns a slice of all children.
func (n *Node) Children() []*Node { return n.children }

// Text returns the source text covered by this node.
func (n *Node) Text(source []byte) string {
	return string(source[n.startByte:n.endByte])
}

// Type returns the node's type name from the language.
func (n *Node) Type(lang *Language) string {
	if int(n.symbol) < len(lang.SymbolNames) {
		return lang.SymbolNames[n.symbol]
	}
	return ""
}

// NewLeafNode creates a terminal/leaf node.
func NewLeafNode(sym Symbol, named bool, startByte, endByte uint32, startPoint, endPoint Point) *Node {
	return &Node{
		symbol:          sym,
		isNamed:         named,
		startByte:       startByte,
		endByte:         endByte,
		startPoint:      startPoint,
		endPoint:        endPoint,
		descendantCount: 1,
	}
}

// NewLeafNodeFromToken builds a leaf directly from a lexed Token, carrying
// forward external-scanner state and keyword reclassification so the
// incremental reuse index can make correct decisions about it later.
func NewLeafNodeFromToken(tok Token, named bool) *Node {
	n := NewLeafNode(tok.Symbol, named, tok.StartByte, tok.EndByte, tok.StartPoint, tok.EndPoint)
	n.hasExternalTokens = tok.IsExternal
	n.externalState = tok.ExternalState
	return n
}

// NewParentNode creates a non-terminal node with children.
// It sets parent pointers on all children and computes byte/point spans
// from the first and last children. If any child has an error, the parent
// is marked as having an error too.
func NewParentNode(sym Symbol, named bool, children []*Node, fieldIDs []FieldID, productionID uint16) *Node {
	n := &Node{
		symbol:       sym,
		isNamed:      named,
		children:     children,
		fieldIDs:     fieldIDs,
		productionID: productionID,
	}

	if len(children) > 0 {
		first := children[0]
		last := children[len(children)-1]
		n.startByte = first.startByte
		n.endByte = last.endByte
		n.startPoint = first.startPoint
		n.endPoint = last.endPoint

		for _, c := range children {
			c.parent = n
			if c.hasError {
				n.hasError = true
			}
			if c.hasExternalTokens {
				n.hasExternalTokens = true
			}
			n.descendantCount += maxu32(c.descendantCount, 1)
			n.errorCost += c.errorCost
			n.dynamicPrecedence += c.dynamicPrecedence
		}
	}

	return n
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// cloneShallow returns a copy of n with its own children slice (so callers
// can mutate spans/children without aliasing the original), sharing
// grandchildren pointers. Used by Tree.Edit to rebuild only the nodes on
// the path from the root to an edited region.
func (n *Node) cloneShallow() *Node {
	c := *n
	if n.children != nil {
		c.children = append([]*Node(nil), n.children...)
	}
	if n.fieldIDs != nil {
		c.fieldIDs = append([]FieldID(nil), n.fieldIDs...)
	}
	c.parent = nil
	return &c
}
