package gotreesitter

import (
	"unsafe"

	"github.com/mattn/go-pointer"
)

// externalScannerMaxStateBytes bounds the buffer handed to
// ExternalScanner.Serialize, matching tree-sitter's own
// TREE_SITTER_SERIALIZATION_BUFFER_SIZE limit.
const externalScannerMaxStateBytes = 1024

// externalScannerSession owns the lifetime of one external scanner
// payload for the duration of a single Parser.Parse/ParseIncremental
// call. The payload itself is an opaque Go value (commonly a small struct
// tracking indentation levels, template-literal nesting, etc.); it is
// handed out to the caller-visible Lexer only via a pointer.go handle so
// the scanner vtable's Create/Destroy pair can round-trip it the same way
// a cgo-backed scanner would round-trip a C pointer.
type externalScannerSession struct {
	lang    *Language
	payload any
	handle  unsafe.Pointer
}

func newExternalScannerSession(lang *Language) *externalScannerSession {
	if lang.ExternalScanner == nil {
		return nil
	}
	payload := lang.ExternalScanner.Create()
	return &externalScannerSession{
		lang:    lang,
		payload: payload,
		handle:  pointer.Save(payload),
	}
}

// Handle returns the opaque pointer identifying this session's payload,
// stable for the session's lifetime.
func (s *externalScannerSession) Handle() unsafe.Pointer {
	if s == nil {
		return nil
	}
	return s.handle
}

func (s *externalScannerSession) Close() {
	if s == nil {
		return
	}
	s.lang.ExternalScanner.Destroy(s.payload)
	if s.handle != nil {
		pointer.Unref(s.handle)
	}
}

// RunExternalScanner invokes the language's external scanner if present.
// Returns true if the scanner produced a token, false otherwise.
func RunExternalScanner(lang *Language, payload any, lexer *ExternalLexer, validSymbols []bool) bool {
	if lang.ExternalScanner == nil {
		return false
	}
	return lang.ExternalScanner.Scan(payload, lexer, validSymbols)
}

// serializeExternalState asks the language's external scanner to
// serialize payload, returning the resulting bytes. ok is false when the
// language has no external scanner.
func serializeExternalState(lang *Language, payload any) (data []byte, ok bool) {
	if lang.ExternalScanner == nil {
		return nil, false
	}
	buf := make([]byte, externalScannerMaxStateBytes)
	n := lang.ExternalScanner.Serialize(payload, buf)
	if n <= 0 {
		return nil, true
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	return out, true
}

// deserializeExternalState restores payload from previously serialized
// state, as happens when an incremental parse reuses a leaf that carries
// external-scanner state from the old tree.
func deserializeExternalState(lang *Language, payload any, data []byte) {
	if lang.ExternalScanner == nil || len(data) == 0 {
		return
	}
	lang.ExternalScanner.Deserialize(payload, data)
}
