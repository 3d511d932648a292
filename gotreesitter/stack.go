package gotreesitter

// stackEntry is a single entry on a GLR stack version, pairing a parser
// state with the syntax tree node that was shifted or reduced into it.
type stackEntry struct {
	state StateID
	node  *Node
}

// glrHead is one version ("head") of the parser stack. When a (state,
// symbol) pair has more than one action, the driver forks the head that
// hit the ambiguity into one head per action; heads whose top state later
// converges are merged back together by mergeHeads.
//
// Heads keep an independently-owned entries slice (copy-on-fork) rather
// than sharing a persistent vertex DAG with common ancestors — a
// pragmatic simplification over tree-sitter's actual stack-graph
// representation, justified in DESIGN.md. Parse trees it produces and the
// merge/tie-break semantics it implements match the real algorithm; only
// the internal stack memory layout differs.
type glrHead struct {
	entries []stackEntry

	// errorCost accumulates recovery cost (missing-token insertion, token
	// skip) along this head's path. Lower is better.
	errorCost int32
	// dynPrec accumulates grammar-declared dynamic precedence from every
	// reduce this head has performed. Higher is better.
	dynPrec int32
	// spawnOrder is assigned when a head is created by forking; lower
	// values were spawned earlier and win ties ("earlier head wins").
	spawnOrder int

	dead     bool
	accepted bool

	// lookahead is this head's own current input token, fetched lazily
	// (see wantsToken). Keeping it on the head rather than in a variable
	// shared across every head in the driver loop is what lets one head
	// reuse a subtree and skip ahead in the input without corrupting the
	// lookahead any sibling head is still mid-way through processing.
	lookahead Token

	// wantsToken is true once this head's most recent step consumed the
	// current lookahead (shift, error-skip, recover) and false when it
	// just reduced in place, or just reused a subtree, and should see
	// lookahead again next step rather than fetch a new token.
	wantsToken bool
}

func newGLRHead(initial StateID, order int) *glrHead {
	return &glrHead{
		entries:    []stackEntry{{state: initial}},
		spawnOrder: order,
		wantsToken: true,
	}
}

func (h *glrHead) top() stackEntry {
	return h.entries[len(h.entries)-1]
}

// fork returns an independent copy of h suitable for taking a different
// action at the same position. The fork starts from h's current
// lookahead (the token the fork-triggering action was chosen under), not
// a freshly fetched one.
func (h *glrHead) fork(order int) *glrHead {
	entries := make([]stackEntry, len(h.entries))
	copy(entries, h.entries)
	return &glrHead{
		entries:    entries,
		errorCost:  h.errorCost,
		dynPrec:    h.dynPrec,
		spawnOrder: order,
		lookahead:  h.lookahead,
		wantsToken: h.wantsToken,
	}
}

// push appends an entry in place (no fork needed for the common
// unambiguous step).
func (h *glrHead) push(state StateID, node *Node) {
	h.entries = append(h.entries, stackEntry{state: state, node: node})
}

// popCount removes the last n entries, returning their nodes in original
// (bottom-to-top) order.
func (h *glrHead) popCount(n int) []*Node {
	nodes := make([]*Node, n)
	for i := n - 1; i >= 0; i-- {
		nodes[i] = h.entries[len(h.entries)-1].node
		h.entries = h.entries[:len(h.entries)-1]
	}
	return nodes
}

// betterThan reports whether h should win a merge tie-break against o:
// lower error cost first, then higher dynamic precedence, then whichever
// head was spawned earlier.
func (h *glrHead) betterThan(o *glrHead) bool {
	if h.errorCost != o.errorCost {
		return h.errorCost < o.errorCost
	}
	if h.dynPrec != o.dynPrec {
		return h.dynPrec > o.dynPrec
	}
	return h.spawnOrder < o.spawnOrder
}

// mergeHeads drops dead heads and collapses heads whose top state has
// converged, keeping the better-ranked head per convergence point.
func mergeHeads(heads []*glrHead) []*glrHead {
	alive := heads[:0]
	for _, h := range heads {
		if !h.dead {
			alive = append(alive, h)
		}
	}
	if len(alive) <= 1 {
		return alive
	}

	result := make([]*glrHead, 0, len(alive))
	bestAt := make(map[StateID]int, len(alive))
	for _, h := range alive {
		key := h.top().state
		if idx, ok := bestAt[key]; ok {
			if h.betterThan(result[idx]) {
				result[idx] = h
			}
			continue
		}
		bestAt[key] = len(result)
		result = append(result, h)
	}
	return result
}
