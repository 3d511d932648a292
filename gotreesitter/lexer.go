package gotreesitter

import "unicode/utf8"

// Token is a lexed token with position info.
type Token struct {
	Symbol     Symbol
	Text       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	// IsExternal marks a token produced by the language's external
	// scanner rather than the built-in DFA.
	IsExternal bool
	// ExternalState is the serialized external-scanner state in effect
	// when this token was produced (nil for DFA tokens). It is attached
	// to the leaf Node built from this token so it can be restored if the
	// leaf is later reused across an incremental parse.
	ExternalState []byte
}

// Lexer tokenizes source text read through an InputReader using a
// table-driven DFA, honoring included ranges and dispatching to an
// external scanner where the language calls for one.
type Lexer struct {
	lang   *Language
	cursor *chunkCursor

	includedRanges []Range
	rangeIndex     int

	externalState any
	hasExternal   bool
}

// NewLexer creates a Lexer over reader, starting at byte 0 / point (0,0)
// and treating the whole input as one included range.
func NewLexer(lang *Language, reader InputReader) *Lexer {
	return NewLexerWithRanges(lang, reader, nil)
}

// NewLexerWithRanges creates a Lexer restricted to the given sorted,
// non-overlapping included ranges. A nil/empty ranges slice means "the
// whole input".
func NewLexerWithRanges(lang *Language, reader InputReader, ranges []Range) *Lexer {
	l := &Lexer{lang: lang, includedRanges: ranges}
	startByte, startPoint := uint32(0), Point{}
	if len(ranges) > 0 {
		startByte, startPoint = ranges[0].StartByte, ranges[0].StartPoint
	}
	l.cursor = newChunkCursor(reader, startByte, startPoint)
	return l
}

// SetExternalScanner installs the language's external scanner payload to
// use for subsequent lexing. Pass nil to clear it.
func (l *Lexer) SetExternalScanner(payload any) {
	l.externalState = payload
	l.hasExternal = payload != nil
}

// ResetTo repositions the lexer at an arbitrary byte offset / point, as
// happens after a reused subtree advances the parser past previously
// lexed content.
func (l *Lexer) ResetTo(byteOffset uint32, point Point) {
	l.cursor.seek(byteOffset, point)
	l.rangeIndex = 0
	for l.rangeIndex < len(l.includedRanges)-1 && l.includedRanges[l.rangeIndex].EndByte <= byteOffset {
		l.rangeIndex++
	}
}

// Position returns the lexer's current absolute byte offset and point.
func (l *Lexer) Position() (uint32, Point) {
	return l.cursor.pos, Point{Row: l.cursor.row, Column: l.cursor.col}
}

// atRangeBoundary reports whether the lexer sits at the logical end of
// input (no more included ranges). If the current range is exhausted but
// another follows, it jumps straight to the next range's start.
func (l *Lexer) atRangeBoundary() bool {
	if len(l.includedRanges) == 0 {
		return false
	}
	cur := l.includedRanges[l.rangeIndex]
	if l.cursor.pos < cur.EndByte {
		return false
	}
	if l.rangeIndex+1 >= len(l.includedRanges) {
		return true
	}
	l.rangeIndex++
	next := l.includedRanges[l.rangeIndex]
	l.cursor.seek(next.StartByte, next.StartPoint)
	return false
}

// Next lexes the next token starting from the given lex mode. It
// automatically skips tokens from states where Skip=true (whitespace, or
// any "extra" token), and dispatches to the external scanner first when
// validExternal indicates the language's table wants it tried before the
// DFA. Returns a zero-Symbol token with StartByte==EndByte at EOF.
func (l *Lexer) Next(mode LexMode, validExternal []bool) Token {
	for {
		if l.atRangeBoundary() {
			return l.eofToken()
		}
		if _, ok := l.cursor.peekByte(); !ok {
			return l.eofToken()
		}

		if l.hasExternal && l.lang.ExternalScanner != nil && hasAnyTrue(validExternal) {
			if tok, ok := l.tryExternalScan(validExternal); ok {
				if tok.Symbol == 0 {
					continue
				}
				return tok
			}
		}

		tok, ok := l.scan(mode.LexState)
		if ok {
			if tok.Symbol == 0 {
				if l.cursor.pos <= tok.StartByte {
					l.skipOneRune()
				}
				continue
			}
			l.reclassifyKeyword(&tok)
			return tok
		}

		return l.errorToken()
	}
}

func hasAnyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}

func (l *Lexer) tryExternalScan(validSymbols []bool) (Token, bool) {
	start, startPoint := l.Position()
	ext := newExternalLexer(l.cursor, start, startPoint.Row, startPoint.Column)
	ok := RunExternalScanner(l.lang, l.externalState, ext, validSymbols)
	if !ok {
		return Token{}, false
	}
	tok, got := ext.token()
	if !got {
		return Token{}, false
	}
	l.cursor.seek(tok.EndByte, tok.EndPoint)
	tok.IsExternal = true
	if ser, ok := serializeExternalState(l.lang, l.externalState); ok {
		tok.ExternalState = ser
	}
	return tok, true
}

// reclassifyKeyword retags a generic identifier-class token as a keyword
// symbol when the language's keyword lexer recognizes the token's exact
// text. This mirrors tree-sitter's keyword-extraction optimization: the
// main DFA matches "identifier" greedily and a second, much smaller
// keyword table decides whether that text is actually e.g. "return".
func (l *Lexer) reclassifyKeyword(tok *Token) {
	if tok.Symbol != l.lang.KeywordCaptureToken || len(l.lang.KeywordLexStates) == 0 {
		return
	}
	if sym, ok := scanWholeToken(l.lang.KeywordLexStates, tok.Text); ok {
		tok.Symbol = sym
		tok.IsExternal = false
	}
}

// scanWholeToken runs states against text and reports the accepted symbol
// only if the entire text was consumed into one accepting state.
func scanWholeToken(states []LexState, text string) (Symbol, bool) {
	if len(states) == 0 {
		return 0, false
	}
	cur := 0
	for _, r := range text {
		st := &states[cur]
		next := -1
		for i := range st.Transitions {
			tr := &st.Transitions[i]
			if r >= tr.Lo && r <= tr.Hi {
				next = tr.NextState
				break
			}
		}
		if next < 0 {
			next = st.Default
		}
		if next < 0 {
			return 0, false
		}
		cur = next
	}
	st := &states[cur]
	if st.AcceptToken > 0 {
		return st.AcceptToken, true
	}
	return 0, false
}

// scan runs the DFA from the given start state at the cursor's current
// position. Returns a token and true if an accepting state was ever
// reached (Symbol==0 and ok==true means "skip this span, it was
// whitespace/extra"), or false if no accepting state was ever reached.
func (l *Lexer) scan(startState uint16) (Token, bool) {
	states := l.lang.LexStates
	if int(startState) >= len(states) {
		return Token{}, false
	}

	startPos := l.cursor.pos
	startRow, startCol := l.cursor.row, l.cursor.col

	curState := int(startState)
	scanPos := startPos
	scanRow, scanCol := startRow, startCol

	var acceptPos, acceptRow, acceptCol uint32
	acceptSymbol := Symbol(0)
	acceptSkip := false
	hasAccept := false

	markAccept := func(st *LexState) {
		if st.AcceptToken > 0 || st.Skip {
			acceptPos, acceptRow, acceptCol = scanPos, scanRow, scanCol
			acceptSymbol, acceptSkip = st.AcceptToken, st.Skip
			hasAccept = true
		}
	}

	markAccept(&states[curState])

	for {
		b, ok := l.cursor.byteAt(scanPos)
		if !ok {
			break
		}
		r, size := decodeRuneAt(l.cursor, scanPos, b)

		st := &states[curState]
		next := -1
		for i := range st.Transitions {
			tr := &st.Transitions[i]
			if r >= tr.Lo && r <= tr.Hi {
				next = tr.NextState
				break
			}
		}
		if next < 0 {
			next = st.Default
		}
		if next < 0 {
			break
		}

		scanPos += uint32(size)
		if r == '\n' {
			scanRow++
			scanCol = 0
		} else {
			scanCol++
		}
		curState = next
		markAccept(&states[curState])
	}

	if !hasAccept {
		return Token{}, false
	}

	l.cursor.seek(acceptPos, Point{Row: acceptRow, Column: acceptCol})

	if acceptSkip {
		return Token{StartByte: startPos, EndByte: acceptPos,
			StartPoint: Point{Row: startRow, Column: startCol},
			EndPoint:   Point{Row: acceptRow, Column: acceptCol}}, true
	}

	text := l.textBetween(startPos, acceptPos)
	return Token{
		Symbol: acceptSymbol, Text: text,
		StartByte: startPos, EndByte: acceptPos,
		StartPoint: Point{Row: startRow, Column: startCol},
		EndPoint:   Point{Row: acceptRow, Column: acceptCol},
	}, true
}

// textBetween materializes the token text, issuing reader reads as
// needed. For the common single-chunk case this is a direct slice copy.
func (l *Lexer) textBetween(start, end uint32) string {
	if end <= start {
		return ""
	}
	buf := make([]byte, 0, end-start)
	for pos := start; pos < end; pos++ {
		b, ok := l.cursor.byteAt(pos)
		if !ok {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}

func decodeRuneAt(c *chunkCursor, pos uint32, first byte) (rune, int) {
	if first < utf8.RuneSelf {
		return rune(first), 1
	}
	var buf [4]byte
	buf[0] = first
	n := 1
	for n < 4 {
		b, ok := c.byteAt(pos + uint32(n))
		if !ok {
			break
		}
		buf[n] = b
		n++
		if utf8.RuneStart(b) {
			break
		}
	}
	r, size := utf8.DecodeRune(buf[:n])
	if r == utf8.RuneError && size <= 1 {
		return rune(first), 1
	}
	return r, size
}

func (l *Lexer) skipOneRune() {
	b, ok := l.cursor.peekByte()
	if !ok {
		return
	}
	_, size := decodeRuneAt(l.cursor, l.cursor.pos, b)
	row, col := l.cursor.row, l.cursor.col
	if b == '\n' {
		row, col = row+1, 0
	} else {
		col++
	}
	l.cursor.seek(l.cursor.pos+uint32(size), Point{Row: row, Column: col})
}

func (l *Lexer) errorToken() Token {
	start := l.cursor.pos
	startPoint := Point{Row: l.cursor.row, Column: l.cursor.col}
	l.skipOneRune()
	end := l.cursor.pos
	endPoint := Point{Row: l.cursor.row, Column: l.cursor.col}
	return Token{
		Symbol: errorSymbol, StartByte: start, EndByte: end,
		StartPoint: startPoint, EndPoint: endPoint,
	}
}

func (l *Lexer) eofToken() Token {
	p := Point{Row: l.cursor.row, Column: l.cursor.col}
	return Token{StartByte: l.cursor.pos, EndByte: l.cursor.pos, StartPoint: p, EndPoint: p}
}
