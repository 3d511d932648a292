package gotreesitter

import (
	"context"
	"testing"
)

// mustParse runs Parser.Parse and fails the test on error, the way every
// caller in this package wants to treat an unexpected parse failure.
func mustParse(t *testing.T, p *Parser, source []byte) *Tree {
	t.Helper()
	tree, err := p.Parse(context.Background(), source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tree
}

func mustParseIncremental(t *testing.T, p *Parser, source []byte, old *Tree) *Tree {
	t.Helper()
	tree, err := p.ParseIncremental(context.Background(), source, old)
	if err != nil {
		t.Fatalf("ParseIncremental: %v", err)
	}
	return tree
}
