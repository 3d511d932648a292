package gotreesitter

// InputReader is the pull-style source of text the lexer reads from. It
// mirrors tree-sitter's TSInput: given a byte offset and the point that
// corresponds to it, Read returns a chunk of bytes starting at that offset
// plus the chunk's length. An empty return signals EOF.
//
// The chunk's backing array must remain valid until the next call to Read
// on the same InputReader; the lexer may hold on to a previously returned
// slice only until it asks for the next one.
type InputReader interface {
	Read(byteOffset uint32, point Point) []byte
}

// ByteSliceReader adapts a single in-memory []byte as an InputReader. It is
// the common case for parsing a whole buffer at once; chunked readers
// (e.g. backed by a text-editor's piece table or an io.ReaderAt) implement
// InputReader directly instead of materializing the full text.
type ByteSliceReader struct {
	Source []byte
}

// Read implements InputReader by returning the tail of Source starting at
// byteOffset. It returns nil once byteOffset reaches the end of Source.
func (r *ByteSliceReader) Read(byteOffset uint32, _ Point) []byte {
	if int(byteOffset) >= len(r.Source) {
		return nil
	}
	return r.Source[byteOffset:]
}

// chunkCursor is a small helper that walks an InputReader one rune/byte at
// a time, re-requesting a chunk from the reader whenever the current one
// is exhausted. It is the thing the Lexer drives.
type chunkCursor struct {
	reader InputReader
	chunk  []byte
	// chunkStart is the absolute byte offset at which chunk[0] sits.
	chunkStart uint32
	pos        uint32
	row        uint32
	col        uint32
}

func newChunkCursor(reader InputReader, startByte uint32, startPoint Point) *chunkCursor {
	c := &chunkCursor{reader: reader, pos: startByte, row: startPoint.Row, col: startPoint.Column}
	c.reload()
	return c
}

// reload re-requests a chunk from the reader for the cursor's current
// position. Call after the current chunk has been exhausted or after a
// seek.
func (c *chunkCursor) reload() {
	c.chunk = c.reader.Read(c.pos, Point{Row: c.row, Column: c.col})
	c.chunkStart = c.pos
}

// seek repositions the cursor to an arbitrary (byte, point) pair, as
// happens when the lexer jumps between included ranges.
func (c *chunkCursor) seek(byteOffset uint32, point Point) {
	c.pos = byteOffset
	c.row = point.Row
	c.col = point.Column
	c.reload()
}

// eof reports whether the reader has no more bytes at the cursor's
// current position.
func (c *chunkCursor) eof() bool {
	return c.offsetInChunk() >= len(c.chunk)
}

func (c *chunkCursor) offsetInChunk() int {
	return int(c.pos - c.chunkStart)
}

// peekByte returns the byte at the cursor's current position without
// consuming it, reloading the chunk from the reader if the cursor has run
// past the end of the buffered chunk.
func (c *chunkCursor) peekByte() (byte, bool) {
	off := c.offsetInChunk()
	if off < 0 || off >= len(c.chunk) {
		c.reload()
		off = c.offsetInChunk()
		if off < 0 || off >= len(c.chunk) {
			return 0, false
		}
	}
	return c.chunk[off], true
}

// byteAt returns the byte at an arbitrary absolute offset, reloading from
// the reader if it falls outside the currently buffered chunk. Used by the
// DFA's multi-byte UTF-8 decode path.
func (c *chunkCursor) byteAt(offset uint32) (byte, bool) {
	off := int(offset) - int(c.chunkStart)
	if off >= 0 && off < len(c.chunk) {
		return c.chunk[off], true
	}
	saved := *c
	c.pos = offset
	c.reload()
	b, ok := c.peekByte()
	*c = saved
	return b, ok
}
