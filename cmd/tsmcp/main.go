// Command tsmcp exposes the tscore parsing engine over the Model Context
// Protocol, the spiritual successor to odvcencio-mane's editor-internal
// mcptools.EditorAccess.GetSyntaxTree/GetSymbols methods: an assistant
// talking to this server gets the same parse tree and query results the
// editor itself would have used, without embedding the editor.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/odvcencio/tscore/gotreesitter"
	"github.com/odvcencio/tscore/grammars"
)

func main() {
	s := server.NewMCPServer("tsmcp", "0.1.0")

	s.AddTool(
		mcp.NewTool("parse_file",
			mcp.WithDescription("Parse a source file and return its syntax tree as an S-expression"),
			mcp.WithString("path", mcp.Required(), mcp.Description("path to the source file")),
			mcp.WithString("lang", mcp.Description("language name; auto-detected from the file extension if omitted")),
		),
		handleParseFile,
	)

	s.AddTool(
		mcp.NewTool("query_file",
			mcp.WithDescription("Run a tree-sitter S-expression query against a source file and return the captures"),
			mcp.WithString("path", mcp.Required(), mcp.Description("path to the source file")),
			mcp.WithString("query", mcp.Required(), mcp.Description("tree-sitter query in .scm syntax")),
			mcp.WithString("lang", mcp.Description("language name; auto-detected from the file extension if omitted")),
		),
		handleQueryFile,
	)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("tsmcp: %v", err)
	}
}

func resolveEntry(langName, path string) (*grammars.LangEntry, error) {
	if langName != "" {
		for _, e := range grammars.AllLanguages() {
			if e.Name == langName {
				return &e, nil
			}
		}
		return nil, fmt.Errorf("unknown language %q", langName)
	}
	entry := grammars.DetectLanguage(path)
	if entry == nil {
		return nil, fmt.Errorf("no registered language for %s; pass lang explicitly", path)
	}
	return entry, nil
}

func parseEntry(ctx context.Context, entry *grammars.LangEntry, source []byte) (*gotreesitter.Tree, *gotreesitter.Language, error) {
	lang := entry.Language()
	parser := gotreesitter.NewParser(lang)
	if len(lang.LexStates) == 0 {
		ts := entry.TokenSourceFactory(source, lang)
		tree, err := parser.ParseWithTokenSource(ctx, source, ts)
		return tree, lang, err
	}
	tree, err := parser.Parse(ctx, source)
	return tree, lang, err
}

func handleParseFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	langName := request.GetString("lang", "")

	entry, err := resolveEntry(langName, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", path, err)), nil
	}

	tree, lang, err := parseEntry(ctx, entry, source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse %s: %v", path, err)), nil
	}
	if tree.RootNode() == nil {
		return mcp.NewToolResultText("(empty tree)"), nil
	}

	var sb strings.Builder
	writeSExpr(&sb, tree.RootNode(), lang, 0)
	return mcp.NewToolResultText(sb.String()), nil
}

func handleQueryFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	queryText, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	langName := request.GetString("lang", "")

	entry, err := resolveEntry(langName, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", path, err)), nil
	}

	tree, _, err := parseEntry(ctx, entry, source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse %s: %v", path, err)), nil
	}

	q, err := gotreesitter.NewQuery(queryText, entry.Language())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compile query: %v", err)), nil
	}

	cursor := gotreesitter.NewQueryCursor(q)
	captures := cursor.Captures(tree)
	if len(captures) == 0 {
		return mcp.NewToolResultText("(no captures)"), nil
	}

	var sb strings.Builder
	for _, c := range captures {
		fmt.Fprintf(&sb, "@%s [%d, %d) %q\n", c.Name, c.Node.StartByte(), c.Node.EndByte(), c.Node.Text(source))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func writeSExpr(sb *strings.Builder, n *gotreesitter.Node, lang *gotreesitter.Language, depth int) {
	if n == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(sb, "(%s", n.Type(lang))
	if n.ChildCount() > 0 {
		sb.WriteString("\n")
		for i := 0; i < n.ChildCount(); i++ {
			writeSExpr(sb, n.Child(i), lang, depth+1)
		}
		sb.WriteString(strings.Repeat("  ", depth))
	}
	sb.WriteString(")\n")
}
