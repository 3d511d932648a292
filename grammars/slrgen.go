package grammars

import (
	"fmt"
	"sort"

	"github.com/odvcencio/tscore/gotreesitter"
)

// slrTerminal describes one terminal symbol in a hand-written grammar spec.
// name is the key productions reference it by; display is what ends up in
// Language.SymbolNames (defaults to name). A grammar needs two distinct
// terminals with the same display text when a lexer bridge hands back
// different symbol IDs for what prints the same way — Go's open- and
// close-quote are both literally `"` but are distinct token IDs, resolved
// positionally via Language.TokenSymbolsByName.
// named controls whether the resulting leaf nodes are visible to named-only
// tree walks (identifier, number_literal, and friends are named; punctuation
// and keywords are not).
type slrTerminal struct {
	name    string
	display string
	named   bool
}

// slrProduction is one grammar rule lhs -> rhs[0] rhs[1] ... Every distinct
// lhs becomes its own grammar symbol (and therefore its own node Type()), so
// two productions that should appear as different node kinds must use
// different lhs names even when one simply wraps the other.
type slrProduction struct {
	lhs               string
	rhs               []string
	dynamicPrecedence int16
}

// slrGrammar is a small hand-authored grammar compiled into a *gotreesitter.
// Language via buildSLRLanguage: a grammar description turned into parse
// tables, the same role a real tree-sitter code generator plays for the C
// grammars, except these tables are derived directly from an LR(0) automaton
// plus SLR(1) lookahead computed at language-construction time rather than
// read back from a generated parser.c.
type slrGrammar struct {
	name        string
	start       string
	terminals   []slrTerminal
	productions []slrProduction
}

// item is a dotted production: rhs[prod][0:dot] has been matched.
type item struct {
	prod int // index into augmented production list; 0 is the synthetic start
	dot  int
}

type slrProd struct {
	lhs string
	rhs []string
}

// buildSLRLanguage compiles a grammar spec into a *gotreesitter.Language
// with a dense SLR(1) parse table. It panics on grammar errors (undefined
// symbols, shift/reduce or reduce/reduce conflicts) since these only ever
// surface while developing a grammar, never from user input.
func buildSLRLanguage(g slrGrammar) *gotreesitter.Language {
	b := &slrBuilder{grammar: g}
	return b.build()
}

type slrBuilder struct {
	grammar slrGrammar

	symbolID   map[string]gotreesitter.Symbol
	symbolName []string
	named      []bool
	tokenCount int

	prods []slrProd // index 0 is the augmented start production

	nullable map[string]bool
	first    map[string]map[string]bool
	follow   map[string]map[string]bool
}

func (b *slrBuilder) build() *gotreesitter.Language {
	b.assignSymbols()
	b.collectProductions()
	b.computeNullable()
	b.computeFirst()
	b.computeFollow()

	states, trans, reduceOn, acceptState := b.buildAutomaton()

	numSymbols := len(b.symbolName)
	parseTable := make([][]uint16, len(states))
	for i := range parseTable {
		parseTable[i] = make([]uint16, numSymbols)
	}
	actions := []gotreesitter.ParseActionEntry{{Actions: nil}}

	allocate := func(a gotreesitter.ParseAction) uint16 {
		actions = append(actions, gotreesitter.ParseActionEntry{Actions: []gotreesitter.ParseAction{a}})
		return uint16(len(actions) - 1)
	}

	// Shift/goto actions: one per (state, symbol) transition edge, usable
	// for both terminal shifts and nonterminal GOTOs (see lookupGoto).
	for s, row := range trans {
		for sym, target := range row {
			idx := allocate(gotreesitter.ParseAction{Type: gotreesitter.ParseActionShift, State: gotreesitter.StateID(target)})
			parseTable[s][sym] = idx
		}
	}

	// Accept action on EOF from the augmented state.
	if acceptState >= 0 {
		idx := allocate(gotreesitter.ParseAction{Type: gotreesitter.ParseActionAccept})
		parseTable[acceptState][0] = idx
	}

	// Reduce actions, one allocation per (state, production) shared across
	// every terminal in that production's lookahead set.
	for s, reds := range reduceOn {
		for prodIdx, onTerms := range reds {
			p := b.prods[prodIdx]
			lhsSym := b.symbolID[p.lhs]
			idx := allocate(gotreesitter.ParseAction{
				Type:              gotreesitter.ParseActionReduce,
				Symbol:            lhsSym,
				ChildCount:        uint8(len(p.rhs)),
				ProductionID:      uint16(prodIdx - 1), // production 0 is synthetic
				DynamicPrecedence: b.grammar.productions[prodIdx-1].dynamicPrecedence,
			})
			for term := range onTerms {
				if existing := parseTable[s][term]; existing != 0 {
					panic(fmt.Sprintf("%s grammar: conflict at state %d on symbol %s (existing action %d, new reduce %s)",
						b.grammar.name, s, b.symbolName[term], existing, p.lhs))
				}
				parseTable[s][term] = idx
			}
		}
	}

	displayNames := append([]string(nil), b.symbolName...)
	for i, t := range b.grammar.terminals {
		if t.display != "" {
			displayNames[i+1] = t.display
		}
	}

	metadata := make([]gotreesitter.SymbolMetadata, numSymbols)
	for i, name := range displayNames {
		metadata[i] = gotreesitter.SymbolMetadata{
			Name:    name,
			Visible: i != 0,
			Named:   b.named[i],
		}
	}

	return &gotreesitter.Language{
		Name:              b.grammar.name,
		SymbolCount:       uint32(numSymbols),
		TokenCount:        uint32(b.tokenCount),
		StateCount:        uint32(len(states)),
		ProductionIDCount: uint32(len(b.grammar.productions)),
		SymbolNames:       displayNames,
		SymbolMetadata:    metadata,
		ParseTable:        parseTable,
		ParseActions:      actions,
	}
}

func (b *slrBuilder) assignSymbols() {
	b.symbolID = make(map[string]gotreesitter.Symbol)
	b.symbolName = []string{"end"}
	b.named = []bool{false}
	b.symbolID["end"] = 0

	for _, t := range b.grammar.terminals {
		if _, exists := b.symbolID[t.name]; exists {
			panic(fmt.Sprintf("%s grammar: duplicate terminal %q", b.grammar.name, t.name))
		}
		b.symbolID[t.name] = gotreesitter.Symbol(len(b.symbolName))
		b.symbolName = append(b.symbolName, t.name)
		b.named = append(b.named, t.named)
	}
	b.tokenCount = len(b.symbolName)

	seen := map[string]bool{}
	addNonterminal := func(name string) {
		if _, isTerm := b.symbolID[name]; isTerm {
			return
		}
		if seen[name] {
			return
		}
		seen[name] = true
		b.symbolID[name] = gotreesitter.Symbol(len(b.symbolName))
		b.symbolName = append(b.symbolName, name)
		b.named = append(b.named, true)
	}
	addNonterminal(b.grammar.start)
	for _, p := range b.grammar.productions {
		addNonterminal(p.lhs)
	}
}

func (b *slrBuilder) isTerminal(name string) bool {
	id, ok := b.symbolID[name]
	return ok && int(id) < b.tokenCount
}

func (b *slrBuilder) collectProductions() {
	// Production 0 is the synthetic augmenting rule start' -> start.
	b.prods = []slrProd{{lhs: "$accept", rhs: []string{b.grammar.start}}}
	for _, p := range b.grammar.productions {
		if _, ok := b.symbolID[p.lhs]; !ok {
			panic(fmt.Sprintf("%s grammar: production lhs %q is not a declared symbol", b.grammar.name, p.lhs))
		}
		for _, s := range p.rhs {
			if _, ok := b.symbolID[s]; !ok {
				panic(fmt.Sprintf("%s grammar: production %s references undefined symbol %q", b.grammar.name, p.lhs, s))
			}
		}
		b.prods = append(b.prods, slrProd{lhs: p.lhs, rhs: append([]string(nil), p.rhs...)})
	}
}

func (b *slrBuilder) nonterminalNames() []string {
	var names []string
	for _, name := range b.symbolName[b.tokenCount:] {
		names = append(names, name)
	}
	return names
}

func (b *slrBuilder) computeNullable() {
	b.nullable = make(map[string]bool)
	changed := true
	for changed {
		changed = false
		for _, p := range b.prods[1:] {
			if b.nullable[p.lhs] {
				continue
			}
			allNullable := true
			for _, s := range p.rhs {
				if b.isTerminal(s) || !b.nullable[s] {
					allNullable = false
					break
				}
			}
			if allNullable {
				b.nullable[p.lhs] = true
				changed = true
			}
		}
	}
}

func (b *slrBuilder) computeFirst() {
	b.first = make(map[string]map[string]bool)
	for _, name := range b.symbolName {
		b.first[name] = map[string]bool{}
	}
	for _, t := range b.grammar.terminals {
		b.first[t.name][t.name] = true
	}
	b.first["end"]["end"] = true

	changed := true
	for changed {
		changed = false
		for _, p := range b.prods[1:] {
			for _, s := range p.rhs {
				for sym := range b.first[s] {
					if !b.first[p.lhs][sym] {
						b.first[p.lhs][sym] = true
						changed = true
					}
				}
				if !b.nullable[s] {
					break
				}
			}
		}
	}
}

// firstOfSeq computes FIRST of a symbol sequence, used for FOLLOW set
// propagation across the symbols following a nonterminal in a production.
func (b *slrBuilder) firstOfSeq(seq []string) (set map[string]bool, nullable bool) {
	set = map[string]bool{}
	nullable = true
	for _, s := range seq {
		for sym := range b.first[s] {
			set[sym] = true
		}
		if !b.nullable[s] {
			nullable = false
			break
		}
	}
	return set, nullable
}

func (b *slrBuilder) computeFollow() {
	b.follow = make(map[string]map[string]bool)
	for _, name := range b.nonterminalNames() {
		b.follow[name] = map[string]bool{}
	}
	b.follow[b.grammar.start]["end"] = true

	changed := true
	for changed {
		changed = false
		for _, p := range b.prods[1:] {
			for i, s := range p.rhs {
				if b.isTerminal(s) {
					continue
				}
				rest := p.rhs[i+1:]
				firstRest, nullableRest := b.firstOfSeq(rest)
				for sym := range firstRest {
					if !b.follow[s][sym] {
						b.follow[s][sym] = true
						changed = true
					}
				}
				if nullableRest {
					for sym := range b.follow[p.lhs] {
						if !b.follow[s][sym] {
							b.follow[s][sym] = true
							changed = true
						}
					}
				}
			}
		}
	}
}

func (b *slrBuilder) closure(items map[item]bool) map[item]bool {
	result := map[item]bool{}
	for it := range items {
		result[it] = true
	}
	changed := true
	for changed {
		changed = false
		for it := range result {
			p := b.prods[it.prod]
			if it.dot >= len(p.rhs) {
				continue
			}
			next := p.rhs[it.dot]
			if b.isTerminal(next) {
				continue
			}
			for pi, prod := range b.prods {
				if pi == 0 || prod.lhs != next {
					continue
				}
				newItem := item{prod: pi, dot: 0}
				if !result[newItem] {
					result[newItem] = true
					changed = true
				}
			}
		}
	}
	return result
}

func itemSetKey(items map[item]bool) string {
	keys := make([]item, 0, len(items))
	for it := range items {
		keys = append(keys, it)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].prod != keys[j].prod {
			return keys[i].prod < keys[j].prod
		}
		return keys[i].dot < keys[j].dot
	})
	s := ""
	for _, it := range keys {
		s += fmt.Sprintf("%d.%d|", it.prod, it.dot)
	}
	return s
}

// buildAutomaton constructs the canonical LR(0) collection and, for every
// state, the terminals each complete item reduces on (computed from FOLLOW,
// giving SLR(1) lookahead). It returns the state list, a [state][symbol] ->
// target-state transition map, a [state][production] -> terminal-set reduce
// map, and the state from which the augmented item accepts (-1 if none,
// which never happens for a reachable grammar).
func (b *slrBuilder) buildAutomaton() (states []map[item]bool, trans []map[gotreesitter.Symbol]int, reduceOn []map[int]map[gotreesitter.Symbol]bool, acceptState int) {
	start := b.closure(map[item]bool{{prod: 0, dot: 0}: true})
	states = []map[item]bool{start}
	index := map[string]int{itemSetKey(start): 0}
	trans = []map[gotreesitter.Symbol]int{{}}
	acceptState = -1

	for si := 0; si < len(states); si++ {
		moves := map[gotreesitter.Symbol][]item{}
		for it := range states[si] {
			p := b.prods[it.prod]
			if it.dot >= len(p.rhs) {
				continue
			}
			sym := b.symbolID[p.rhs[it.dot]]
			moves[sym] = append(moves[sym], item{prod: it.prod, dot: it.dot + 1})
		}

		// Stable iteration order so generated state numbering is
		// deterministic across runs (map iteration above is not, but the
		// resulting automaton is identical regardless of symbol order).
		syms := make([]gotreesitter.Symbol, 0, len(moves))
		for sym := range moves {
			syms = append(syms, sym)
		}
		sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })

		for _, sym := range syms {
			kernel := map[item]bool{}
			for _, it := range moves[sym] {
				kernel[it] = true
			}
			target := b.closure(kernel)
			key := itemSetKey(target)
			ti, ok := index[key]
			if !ok {
				states = append(states, target)
				trans = append(trans, map[gotreesitter.Symbol]int{})
				index[key] = len(states) - 1
				ti = index[key]
			}
			trans[si][sym] = ti
		}
	}

	reduceOn = make([]map[int]map[gotreesitter.Symbol]bool, len(states))
	for si, set := range states {
		reduceOn[si] = map[int]map[gotreesitter.Symbol]bool{}
		for it := range set {
			p := b.prods[it.prod]
			if it.dot < len(p.rhs) {
				continue
			}
			if it.prod == 0 {
				// Augmented item $accept -> start . : accept on EOF.
				acceptState = si
				continue
			}
			if reduceOn[si][it.prod] == nil {
				reduceOn[si][it.prod] = map[gotreesitter.Symbol]bool{}
			}
			for term := range b.follow[p.lhs] {
				reduceOn[si][it.prod][b.symbolID[term]] = true
			}
		}
	}

	return states, trans, reduceOn, acceptState
}
