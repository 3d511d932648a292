package gotreesitter

import "fmt"

// IncompatibleLanguageError is returned when a Language's ABI version falls
// outside the range this package can read.
type IncompatibleLanguageError struct {
	Got, MinSupported, MaxSupported uint32
}

func (e *IncompatibleLanguageError) Error() string {
	return fmt.Sprintf("gotreesitter: incompatible language ABI %d (supported range %d-%d)",
		e.Got, e.MinSupported, e.MaxSupported)
}

// NoLanguageSetError is returned when a parse is attempted before a
// Language has been configured on the Parser.
type NoLanguageSetError struct{}

func (e *NoLanguageSetError) Error() string { return "gotreesitter: no language set on parser" }

// IncludedRangesError is returned when a set of included ranges passed to
// Parser.SetIncludedRanges is unsorted, overlapping, or otherwise invalid.
type IncludedRangesError struct {
	Index int // index of the first offending range
}

func (e *IncludedRangesError) Error() string {
	return fmt.Sprintf("gotreesitter: invalid included range at index %d", e.Index)
}

// ErrCancelled is returned by a parse that was stopped by its context
// being done (including the parser's timeout), by an exhausted operation
// budget, or by every parse head dying. There is no progress-callback
// form of cancellation. No partial tree is returned alongside it.
var ErrCancelled = fmt.Errorf("gotreesitter: parse cancelled")

// QueryErrorKind identifies the stage at which query compilation failed.
type QueryErrorKind uint8

const (
	QueryErrorSyntax QueryErrorKind = iota
	QueryErrorNodeType
	QueryErrorField
	QueryErrorCapture
	QueryErrorPredicate
	QueryErrorStructure
)

func (k QueryErrorKind) String() string {
	switch k {
	case QueryErrorSyntax:
		return "syntax"
	case QueryErrorNodeType:
		return "node-type"
	case QueryErrorField:
		return "field"
	case QueryErrorCapture:
		return "capture"
	case QueryErrorPredicate:
		return "predicate"
	case QueryErrorStructure:
		return "structure"
	default:
		return "unknown"
	}
}

// QueryError is returned when compiling a query fails. ByteOffset points
// into the query source at the position where the failure was detected.
type QueryError struct {
	Kind       QueryErrorKind
	ByteOffset int
	Message    string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("gotreesitter: query %s error at byte %d: %s", e.Kind, e.ByteOffset, e.Message)
}

// ExternalScannerFailedError marks a lex-level failure from a language's
// external scanner. It is recoverable: the lexer treats the position as
// having no accepting token and falls back to error-token production.
type ExternalScannerFailedError struct {
	AtByte uint32
}

func (e *ExternalScannerFailedError) Error() string {
	return fmt.Sprintf("gotreesitter: external scanner failed at byte %d", e.AtByte)
}
