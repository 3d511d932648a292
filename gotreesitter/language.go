// Package gotreesitter implements a pure Go tree-sitter runtime.
//
// This file defines the core data structures that mirror tree-sitter's
// TSLanguage C struct and related types. They form the foundation on
// which the lexer, parser, query engine, and syntax tree are built.
package gotreesitter

// Symbol is a grammar symbol ID (terminal or nonterminal).
type Symbol uint16

// StateID is a parser state index.
type StateID uint16

// FieldID is a named field index.
type FieldID uint16

// ParseActionType identifies the kind of parse action.
type ParseActionType uint8

const (
	ParseActionShift  ParseActionType = iota
	ParseActionReduce
	ParseActionAccept
	ParseActionRecover
)

// ParseAction is a single parser action from the parse table.
type ParseAction struct {
	Type              ParseActionType
	State             StateID  // target state (shift/recover)
	Symbol            Symbol   // reduced symbol (reduce)
	ChildCount        uint8    // children consumed (reduce)
	DynamicPrecedence int16    // precedence (reduce)
	ProductionID      uint16   // which production (reduce)
	Extra             bool     // is this an extra token (shift)
	Repetition        bool     // is this a repetition (shift)
}

// ParseActionEntry is a group of actions for a (state, symbol) pair.
type ParseActionEntry struct {
	Reusable bool
	Actions  []ParseAction
}

// LexState is one state in the table-driven lexer DFA.
type LexState struct {
	AcceptToken Symbol // 0 if this state doesn't accept
	Skip        bool   // true if accepted chars are whitespace
	Transitions []LexTransition
	Default     int // default next state (-1 if none)
	EOF         int // state on EOF (-1 if none)
}

// LexTransition maps a character range to a next state.
type LexTransition struct {
	Lo, Hi    rune // inclusive character range
	NextState int
}

// LexMode maps a parser state to its lexer configuration.
type LexMode struct {
	LexState         uint16
	ExternalLexState uint16
}

// SymbolMetadata holds display information about a symbol.
type SymbolMetadata struct {
	Name      string
	Visible   bool
	Named     bool
	Supertype bool
}

// FieldMapEntry maps a child index to a field name.
type FieldMapEntry struct {
	FieldID    FieldID
	ChildIndex uint8
	Inherited  bool
}

// ExternalScanner is the interface for language-specific external scanners.
// Languages like Python and JavaScript need these for indent tracking,
// template literals, regex vs division, etc.
//
// The Scan method accepts an interface{} for the lexer parameter;
// RunExternalScanner passes an *ExternalLexer there.
type ExternalScanner interface {
	Create() interface{}
	Destroy(payload interface{})
	Serialize(payload interface{}, buf []byte) int
	Deserialize(payload interface{}, buf []byte)
	Scan(payload interface{}, lexer interface{}, validSymbols []bool) bool
}

// Language holds all data needed to parse a specific language.
// It mirrors tree-sitter's TSLanguage C struct, translated into
// idiomatic Go types with slice-based tables instead of raw pointers.
type Language struct {
	Name string

	// Counts
	SymbolCount        uint32
	TokenCount         uint32
	ExternalTokenCount uint32
	StateCount         uint32
	LargeStateCount    uint32
	FieldCount         uint32
	ProductionIDCount  uint32

	// Symbol metadata
	SymbolNames    []string
	SymbolMetadata []SymbolMetadata
	FieldNames     []string // index 0 is ""

	// Parse tables
	ParseTable         [][]uint16         // dense: [state][symbol] -> action index
	SmallParseTable    []uint16           // compressed sparse table
	SmallParseTableMap []uint32           // state -> offset into SmallParseTable
	ParseActions       []ParseActionEntry

	// Lex tables
	LexModes            []LexMode
	LexStates           []LexState // main lexer DFA
	KeywordLexStates    []LexState // keyword lexer DFA (optional)
	KeywordCaptureToken Symbol

	// Field mapping
	FieldMapSlices  [][2]uint16   // [production_id] -> (index, length)
	FieldMapEntries []FieldMapEntry

	// Alias sequences
	AliasSequences [][]Symbol // [production_id][child_index] -> alias symbol

	// Primary state IDs (for table dedup)
	PrimaryStateIDs []StateID

	// External scanner (nil if not needed)
	ExternalScanner ExternalScanner

	// InitialState is the parser's start state. In tree-sitter grammars
	// this is always 1 (state 0 is reserved for error recovery). For
	// hand-built grammars it defaults to 0.
	InitialState StateID

	// ABIVersion identifies the language table format version, mirroring
	// tree-sitter's LANGUAGE_VERSION field. A Parser refuses to run
	// against a Language whose ABIVersion falls outside
	// [MinCompatibleABI, MaxCompatibleABI].
	ABIVersion uint32

	symbolByName map[string]Symbol
	fieldByName  map[string]FieldID
}

// MinCompatibleABI and MaxCompatibleABI bound the language table versions
// this runtime understands, mirroring tree-sitter's
// TREE_SITTER_MIN_COMPATIBLE_LANGUAGE_VERSION /
// TREE_SITTER_LANGUAGE_VERSION constants.
const (
	MinCompatibleABI uint32 = 13
	MaxCompatibleABI uint32 = 15
)

// CheckABI validates the language's ABIVersion against the range this
// runtime supports. A zero ABIVersion (hand-built grammars that never set
// it) is always accepted.
func (l *Language) CheckABI() error {
	if l.ABIVersion == 0 {
		return nil
	}
	if l.ABIVersion < MinCompatibleABI || l.ABIVersion > MaxCompatibleABI {
		return &IncompatibleLanguageError{
			Got:          l.ABIVersion,
			MinSupported: MinCompatibleABI,
			MaxSupported: MaxCompatibleABI,
		}
	}
	return nil
}

// SymbolByName returns the symbol ID for a node type name, building (and
// caching) the reverse lookup map from SymbolNames on first use.
func (l *Language) SymbolByName(name string) (Symbol, bool) {
	if l.symbolByName == nil {
		l.symbolByName = make(map[string]Symbol, len(l.SymbolNames))
		for i, n := range l.SymbolNames {
			if n == "" {
				continue
			}
			// Earlier-declared symbols win on name collisions (matches
			// tree-sitter's own preference for the primary over aliased
			// duplicate-name terminals).
			if _, exists := l.symbolByName[n]; !exists {
				l.symbolByName[n] = Symbol(i)
			}
		}
	}
	sym, ok := l.symbolByName[name]
	return sym, ok
}

// TokenSymbolsByName returns every terminal symbol (index < TokenCount)
// whose name matches, in symbol-ID order. Token sources use this instead
// of SymbolByName when a lexeme maps to more than one terminal ID (tree-
// sitter grammars routinely alias distinct tokens to the same display
// name, e.g. two "(" productions with different precedence).
func (l *Language) TokenSymbolsByName(name string) []Symbol {
	limit := int(l.TokenCount)
	if limit > len(l.SymbolNames) {
		limit = len(l.SymbolNames)
	}
	var syms []Symbol
	for i := 0; i < limit; i++ {
		if l.SymbolNames[i] == name {
			syms = append(syms, Symbol(i))
		}
	}
	return syms
}

// FieldByName returns the field ID for a field name, building (and
// caching) the reverse lookup map from FieldNames on first use.
func (l *Language) FieldByName(name string) (FieldID, bool) {
	if l.fieldByName == nil {
		l.fieldByName = make(map[string]FieldID, len(l.FieldNames))
		for i, n := range l.FieldNames {
			if n == "" {
				continue
			}
			l.fieldByName[n] = FieldID(i)
		}
	}
	fid, ok := l.fieldByName[name]
	return fid, ok
}
