package gotreesitter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// errorSymbol is the well-known symbol ID used for error nodes.
const errorSymbol = Symbol(65535)

// maxGLRHeads bounds how many simultaneous interpretations the driver
// keeps alive. Real grammars rarely sustain more than a handful of
// genuine ambiguities at once; this is a backstop against pathological
// or malformed tables causing unbounded fork growth.
const maxGLRHeads = 64

// defaultOperationLimit bounds the number of parser steps taken before a
// parse is cancelled. NewParser always uses it, and NewParserWithConfig
// uses it whenever ParserConfig.OperationLimit is 0, whether or not a
// timeout or context deadline is also set.
const defaultOperationLimit = 50_000_000

// Logger receives diagnostic messages from the parser, mirroring
// tree-sitter's TSLogger callback.
type Logger interface {
	Log(kind string, message string)
}

// ParserConfig configures a Parser beyond just its Language.
type ParserConfig struct {
	Language        *Language
	IncludedRanges  []Range
	OperationLimit  int
	TimeoutDuration time.Duration
	Logger          Logger
}

// Parser is a GLR parser that reads parse tables from a Language and
// produces a syntax tree, forking into multiple stack "heads" when the
// table has more than one action for a (state, symbol) pair and merging
// heads back together when their top states converge.
type Parser struct {
	language       *Language
	includedRanges []Range
	operationLimit int
	timeout        time.Duration
	logger         Logger

	// id correlates this parser instance's log events across a process
	// that hosts many concurrently-running single-threaded parsers.
	id uuid.UUID
}

// ID returns the parser's correlation ID, generated once at construction.
func (p *Parser) ID() uuid.UUID {
	return p.id
}

// NewParser creates a new Parser for the given language.
func NewParser(lang *Language) *Parser {
	return &Parser{language: lang, operationLimit: defaultOperationLimit, id: uuid.New()}
}

// NewParserWithConfig creates a Parser from a full ParserConfig.
func NewParserWithConfig(cfg ParserConfig) *Parser {
	p := &Parser{
		language:       cfg.Language,
		includedRanges: cfg.IncludedRanges,
		operationLimit: cfg.OperationLimit,
		timeout:        cfg.TimeoutDuration,
		logger:         cfg.Logger,
		id:             uuid.New(),
	}
	if p.operationLimit == 0 {
		p.operationLimit = defaultOperationLimit
	}
	return p
}

// SetIncludedRanges restricts subsequent parses to the given sorted,
// non-overlapping ranges. An empty slice resets to "the whole input".
func (p *Parser) SetIncludedRanges(ranges []Range) error {
	for i := 1; i < len(ranges); i++ {
		if ranges[i].StartByte < ranges[i-1].EndByte {
			return &IncludedRangesError{Index: i}
		}
	}
	p.includedRanges = ranges
	return nil
}

func (p *Parser) log(kind, msg string) {
	if p.logger != nil {
		p.logger.Log(kind, "["+p.id.String()+"] "+msg)
	}
}

// TokenSource provides tokens to the parser. This interface abstracts over
// different lexer implementations: the built-in DFA lexer (for hand-built
// grammars) or custom bridges like GoTokenSource (for real grammars where
// we can't extract the C lexer DFA).
type TokenSource interface {
	// Next returns the next token. It should skip whitespace and comments
	// as appropriate for the language. Returns a zero-Symbol token at EOF.
	Next() Token
}

// ByteSkippableTokenSource lets a TokenSource fast-forward to an absolute
// byte offset, used when the parser reuses an old subtree and needs to
// resume lexing after its end without re-lexing every token inside it.
type ByteSkippableTokenSource interface {
	SkipToByte(byteOffset uint32) Token
}

// dfaTokenSource wraps the built-in DFA Lexer as a TokenSource.
// It tracks the current parser state to select the correct lex mode.
type dfaTokenSource struct {
	lexer    *Lexer
	language *Language
	state    StateID
}

func (d *dfaTokenSource) Next() Token {
	mode := LexMode{}
	if int(d.state) < len(d.language.LexModes) {
		mode = d.language.LexModes[d.state]
	}
	return d.lexer.Next(mode, nil)
}

func (d *dfaTokenSource) SkipToByte(byteOffset uint32) Token {
	pos, _ := d.lexer.Position()
	if byteOffset > pos {
		d.lexer.ResetTo(byteOffset, advancePointForSkip(d.lexer, byteOffset))
	}
	return d.Next()
}

// advancePointForSkip returns the lexer's current point as the point to
// resume at. byteOffset is not used, so the returned row/column do not
// account for the bytes being skipped.
func advancePointForSkip(l *Lexer, byteOffset uint32) Point {
	_, p := l.Position()
	return p
}

// Parse tokenizes and parses source using the built-in DFA lexer, returning
// a syntax tree. This works for hand-built grammars that provide LexStates.
// For real grammars that need a custom lexer, use ParseWithTokenSource.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Tree, error) {
	if p.language == nil {
		return nil, &NoLanguageSetError{}
	}
	if len(p.language.LexStates) == 0 {
		return NewTree(nil, source, p.language), nil
	}
	lexer := NewLexerWithRanges(p.language, &ByteSliceReader{Source: source}, p.includedRanges)
	ts := &dfaTokenSource{lexer: lexer, language: p.language}
	return p.parseInternal(ctx, source, ts, nil, nil)
}

// ParseWithTokenSource parses source using a custom token source.
// This is used for real grammars where the lexer DFA isn't available
// as data tables (e.g., a host-language grammar bridging an existing
// tokenizer).
func (p *Parser) ParseWithTokenSource(ctx context.Context, source []byte, ts TokenSource) (*Tree, error) {
	return p.parseInternal(ctx, source, ts, nil, nil)
}

// ParseIncremental reparses source given the previous tree, reusing
// unaffected subtrees of oldTree wherever the reuse rules in
// incremental.go allow it.
func (p *Parser) ParseIncremental(ctx context.Context, source []byte, oldTree *Tree) (*Tree, error) {
	if p.language == nil {
		return nil, &NoLanguageSetError{}
	}
	if len(p.language.LexStates) == 0 {
		return NewTree(nil, source, p.language), nil
	}
	lexer := NewLexerWithRanges(p.language, &ByteSliceReader{Source: source}, p.includedRanges)
	ts := &dfaTokenSource{lexer: lexer, language: p.language}
	return p.parseInternal(ctx, source, ts, oldTree, nil)
}

// ParseIncrementalWithTokenSource reparses using a custom token source,
// reusing subtrees from oldTree.
func (p *Parser) ParseIncrementalWithTokenSource(ctx context.Context, source []byte, ts TokenSource, oldTree *Tree) (*Tree, error) {
	return p.parseInternal(ctx, source, ts, oldTree, nil)
}

// isNamedSymbol checks whether a symbol is a named symbol using the
// language's symbol metadata.
func (p *Parser) isNamedSymbol(sym Symbol) bool {
	if int(sym) < len(p.language.SymbolMetadata) {
		return p.language.SymbolMetadata[sym].Named
	}
	return false
}

// lookupAction looks up the parse action entry for the given state and
// symbol.
func (p *Parser) lookupAction(state StateID, sym Symbol) *ParseActionEntry {
	idx := p.lookupActionIndex(state, sym)
	if idx == 0 {
		return nil
	}
	if int(idx) < len(p.language.ParseActions) {
		return &p.language.ParseActions[idx]
	}
	return nil
}

// lookupActionIndex returns the parse action index for (state, symbol).
// Returns 0 (the error/no-action entry) if not found.
func (p *Parser) lookupActionIndex(state StateID, sym Symbol) uint16 {
	useDense := false
	if p.language.LargeStateCount > 0 {
		useDense = uint32(state) < p.language.LargeStateCount
	} else if len(p.language.ParseTable) > 0 {
		useDense = int(state) < len(p.language.ParseTable)
	}

	if useDense {
		if int(state) < len(p.language.ParseTable) {
			row := p.language.ParseTable[state]
			if int(sym) < len(row) {
				return row[sym]
			}
		}
		return 0
	}

	smallIdx := int(state) - int(p.language.LargeStateCount)
	if smallIdx < 0 || smallIdx >= len(p.language.SmallParseTableMap) {
		return 0
	}
	offset := p.language.SmallParseTableMap[smallIdx]
	table := p.language.SmallParseTable
	if int(offset) >= len(table) {
		return 0
	}

	groupCount := table[offset]
	pos := int(offset) + 1
	for i := uint16(0); i < groupCount; i++ {
		if pos+1 >= len(table) {
			break
		}
		sectionValue := table[pos]
		symbolCount := table[pos+1]
		pos += 2
		for j := uint16(0); j < symbolCount; j++ {
			if pos >= len(table) {
				break
			}
			if table[pos] == uint16(sym) {
				return sectionValue
			}
			pos++
		}
	}
	return 0
}

// lookupGoto returns the GOTO target state for a nonterminal symbol.
func (p *Parser) lookupGoto(state StateID, sym Symbol) StateID {
	raw := p.lookupActionIndex(state, sym)
	if raw == 0 {
		return 0
	}
	if p.language.InitialState > 0 && p.language.TokenCount > 0 && uint32(sym) >= p.language.TokenCount {
		return StateID(raw)
	}
	if int(raw) < len(p.language.ParseActions) {
		entry := &p.language.ParseActions[raw]
		if len(entry.Actions) > 0 && entry.Actions[0].Type == ParseActionShift {
			return entry.Actions[0].State
		}
	}
	return 0
}

// parseInternal drives the GLR loop shared by every Parse* entry point.
func (p *Parser) parseInternal(ctx context.Context, source []byte, ts TokenSource, oldTree *Tree, scratch *reuseScratch) (*Tree, error) {
	if p.language == nil {
		return nil, &NoLanguageSetError{}
	}
	if err := p.language.CheckABI(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var idx *reuseIndex
	if oldTree != nil {
		idx = buildReuseIndex(oldTree, source, scratch)
	}

	initial := p.language.InitialState
	heads := []*glrHead{newGLRHead(initial, 0)}
	nextSpawnOrder := 1
	operations := 0

	for {
		operations++
		if operations > p.operationLimit {
			return nil, ErrCancelled
		}
		if operations%4096 == 0 {
			select {
			case <-ctx.Done():
				return nil, ErrCancelled
			default:
			}
		}

		if len(heads) == 0 {
			return nil, ErrCancelled
		}

		var forked []*glrHead
		anyAccepted := false

		for _, h := range heads {
			// Each head fetches its own lookahead lazily, selecting the
			// lex mode for its own current state rather than borrowing
			// whichever state happened to be on top of a different head.
			// A head that just reduced in place, or just reused a
			// subtree, already has a valid lookahead (wantsToken false)
			// and must see that same token again rather than advance.
			if h.wantsToken {
				if dts, ok := ts.(*dfaTokenSource); ok {
					dts.state = h.top().state
				}
				h.lookahead = ts.Next()
				h.wantsToken = false
			}
			tok := h.lookahead

			// Subtree reuse is only attempted while exactly one head is
			// live. A reused subtree can skip the shared token source far
			// ahead of its current position (see tryReuseSubtree), and
			// every TokenSource in this codebase — the built-in DFA lexer
			// and every grammars/*.go bridge — only seeks forward. With
			// more than one head, some other head may still need a token
			// at or behind the position reuse would jump past, which a
			// forward-only source could never hand back; restricting
			// reuse to the single-head case (by far the common case
			// during incremental reparse) avoids that class of corruption
			// entirely instead of risking it.
			if idx != nil && len(heads) == 1 {
				if newTok, ok := p.tryReuseSubtree(h, tok, ts, idx); ok {
					h.lookahead = newTok
					h.wantsToken = false
					continue
				}
			}

			current := h.top().state
			action := p.lookupAction(current, tok.Symbol)

			if action != nil && len(action.Actions) > 0 && action.Actions[0].Type == ParseActionShift && action.Actions[0].Extra {
				leaf := NewLeafNodeFromToken(tok, p.isNamedSymbol(tok.Symbol))
				leaf.isExtra = true
				h.push(current, leaf)
				h.wantsToken = true
				continue
			}

			if action == nil || len(action.Actions) == 0 {
				if tok.Symbol == 0 {
					h.accepted = true
					h.wantsToken = true
					anyAccepted = true
					continue
				}
				errNode := NewLeafNode(errorSymbol, false, tok.StartByte, tok.EndByte, tok.StartPoint, tok.EndPoint)
				errNode.hasError = true
				h.push(current, errNode)
				h.errorCost++
				h.wantsToken = true
				continue
			}

			// Fork once per extra action beyond the first; the first
			// action continues to drive this same head in place.
			for ai := 1; ai < len(action.Actions) && len(heads)+len(forked) < maxGLRHeads; ai++ {
				fork := h.fork(nextSpawnOrder)
				nextSpawnOrder++
				p.applyAction(fork, action.Actions[ai], tok)
				forked = append(forked, fork)
			}

			act := action.Actions[0]
			if act.Type == ParseActionAccept {
				h.accepted = true
				h.wantsToken = true
				anyAccepted = true
				continue
			}
			p.applyAction(h, act, tok)
		}

		heads = append(heads, forked...)
		heads = mergeHeads(heads)

		if anyAccepted {
			accepted := make([]*glrHead, 0, 1)
			for _, h := range heads {
				if h.accepted {
					accepted = append(accepted, h)
				}
			}
			if len(accepted) > 0 {
				best := accepted[0]
				for _, h := range accepted[1:] {
					if h.betterThan(best) {
						best = h
					}
				}
				return p.buildResult(best, source), nil
			}
		}

		// EOF reached with nothing accepted: stop once every surviving
		// head has settled on an EOF lookahead, to avoid spinning on
		// repeated EOF tokens with no progress.
		if p.allHeadsStalledOnEOF(heads) {
			best := heads[0]
			for _, h := range heads[1:] {
				if h.betterThan(best) {
					best = h
				}
			}
			return p.buildResult(best, source), nil
		}
	}
}

func (p *Parser) applyAction(h *glrHead, act ParseAction, tok Token) {
	switch act.Type {
	case ParseActionShift:
		leaf := NewLeafNodeFromToken(tok, p.isNamedSymbol(tok.Symbol))
		h.push(act.State, leaf)
		h.wantsToken = true

	case ParseActionReduce:
		children := h.popCount(int(act.ChildCount))
		named := p.isNamedSymbol(act.Symbol)
		parent := NewParentNode(act.Symbol, named, children, nil, act.ProductionID)
		parent.dynamicPrecedence += int32(act.DynamicPrecedence)
		h.dynPrec += int32(act.DynamicPrecedence)

		topState := h.top().state
		gotoState := p.lookupGoto(topState, act.Symbol)
		if gotoState == 0 {
			gotoState = topState
		}
		parent.state = gotoState
		h.push(gotoState, parent)
		h.wantsToken = false

	case ParseActionRecover:
		h.push(act.State, nil)
		h.errorCost++
		h.wantsToken = true

	default:
		h.wantsToken = true
	}
}

// allHeadsStalledOnEOF reports whether every surviving head has settled
// (wantsToken false, i.e. it already consumed its lookahead this round)
// with that lookahead being EOF, meaning no head can make further progress.
func (p *Parser) allHeadsStalledOnEOF(heads []*glrHead) bool {
	if len(heads) == 0 {
		return true
	}
	for _, h := range heads {
		if h.wantsToken || h.lookahead.Symbol != 0 {
			return false
		}
	}
	return true
}

// buildResult constructs the final Tree from a head's stack.
func (p *Parser) buildResult(h *glrHead, source []byte) *Tree {
	var nodes []*Node
	for _, entry := range h.entries {
		if entry.node != nil {
			nodes = append(nodes, entry.node)
		}
	}

	if len(nodes) == 0 {
		return NewTree(nil, source, p.language)
	}
	if len(nodes) == 1 {
		return NewTree(nodes[0], source, p.language)
	}

	root := NewParentNode(nodes[len(nodes)-1].symbol, true, nodes, nil, 0)
	root.hasError = true
	return NewTree(root, source, p.language)
}
