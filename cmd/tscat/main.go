// Command tscat parses a source file with tscore and prints it to the
// terminal with syntax highlighting, the way `bat`/`ccat` do, but driven
// entirely by the engine's own Query captures rather than a separate
// lexer: grammars/*.HighlightQuery decides what's a keyword or a string,
// and chroma only decides how that capture is painted.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/odvcencio/tscore/gotreesitter"
	"github.com/odvcencio/tscore/grammars"
)

func main() {
	lang := flag.String("lang", "", "language name (auto-detected from file extension if empty)")
	style := flag.String("style", "monokai", "chroma style name")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: tscat [-lang=go] [-style=monokai] <file>")
		os.Exit(1)
	}

	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}

	entry := resolveEntry(*lang, path)
	if entry == nil {
		fmt.Fprintf(os.Stderr, "tscat: no registered language for %s (pass -lang)\n", path)
		os.Exit(1)
	}

	if err := cat(entry, source, *style, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tscat: %v\n", err)
		os.Exit(1)
	}
}

func resolveEntry(langName, path string) *grammars.LangEntry {
	if langName != "" {
		for _, e := range grammars.AllLanguages() {
			if e.Name == langName {
				return &e
			}
		}
		return nil
	}
	return grammars.DetectLanguage(path)
}

func cat(entry *grammars.LangEntry, source []byte, styleName string, out *os.File) error {
	lang := entry.Language()
	if entry.HighlightQuery == "" {
		_, err := out.Write(source)
		return err
	}

	var opts []gotreesitter.HighlighterOption
	if len(lang.LexStates) == 0 {
		opts = append(opts, gotreesitter.WithTokenSourceFactory(func(src []byte) gotreesitter.TokenSource {
			return entry.TokenSourceFactory(src, lang)
		}))
	}

	h, err := gotreesitter.NewHighlighter(lang, entry.HighlightQuery, opts...)
	if err != nil {
		return fmt.Errorf("compile highlight query for %s: %w", entry.Name, err)
	}

	ranges := h.Highlight(source)
	tokens := rangesToTokens(source, ranges)

	chromaStyle := styles.Get(styleName)
	if chromaStyle == nil {
		chromaStyle = styles.Fallback
	}
	formatter := formatters.TTY256
	return formatter.Format(out, chromaStyle, chroma.Literator(tokens...))
}

// rangesToTokens converts non-overlapping HighlightRanges (which may leave
// gaps for unstyled source, e.g. whitespace and punctuation the query
// doesn't capture) into a gap-filled chroma.Token stream covering all of
// source.
func rangesToTokens(source []byte, ranges []gotreesitter.HighlightRange) []chroma.Token {
	var tokens []chroma.Token
	var cursor uint32
	emit := func(tt chroma.TokenType, start, end uint32) {
		if end <= start {
			return
		}
		tokens = append(tokens, chroma.Token{Type: tt, Value: string(source[start:end])})
	}
	for _, r := range ranges {
		if r.StartByte > cursor {
			emit(chroma.Text, cursor, r.StartByte)
		}
		emit(captureTokenType(r.Capture), r.StartByte, r.EndByte)
		cursor = r.EndByte
	}
	if uint32(len(source)) > cursor {
		emit(chroma.Text, cursor, uint32(len(source)))
	}
	return tokens
}

// captureTokenType maps a tree-sitter highlight capture name (the
// "@keyword"/"@string" convention, minus the leading @) to the closest
// chroma.TokenType. Unknown captures fall back to chroma.Text so an
// unrecognized query never breaks output, just leaves it unstyled.
func captureTokenType(capture string) chroma.TokenType {
	switch capture {
	case "keyword", "keyword.return", "keyword.function", "keyword.operator":
		return chroma.Keyword
	case "string", "string.special":
		return chroma.LiteralString
	case "comment":
		return chroma.Comment
	case "number", "float":
		return chroma.LiteralNumber
	case "function", "function.call", "function.method":
		return chroma.NameFunction
	case "type", "type.builtin":
		return chroma.KeywordType
	case "constant", "constant.builtin":
		return chroma.NameConstant
	case "variable", "variable.parameter":
		return chroma.NameVariable
	case "property", "field":
		return chroma.NameAttribute
	case "operator":
		return chroma.Operator
	case "punctuation", "punctuation.bracket", "punctuation.delimiter":
		return chroma.Punctuation
	case "tag":
		return chroma.NameTag
	default:
		return chroma.Text
	}
}
