package server

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var outlineParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

// extractOutline parses the document and returns the title (first level-1
// heading) and the heading outline recorded on the document record. This is
// presentation metadata only; chunk boundaries come from the core analyzer.
func extractOutline(content string) (string, []string) {
	source := []byte(content)
	doc := outlineParser.Parser().Parse(text.NewReader(source))

	title := ""
	var outline []string

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		headingText := nodeText(heading, source)
		if headingText == "" {
			return ast.WalkSkipChildren, nil
		}
		if title == "" && heading.Level == 1 {
			title = headingText
		}
		outline = append(outline, fmt.Sprintf("%s %s", strings.Repeat("#", heading.Level), headingText))

		return ast.WalkSkipChildren, nil
	})

	return title, outline
}

// nodeText collects the plain text of a node's inline children.
func nodeText(node ast.Node, source []byte) string {
	var sb strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if textNode, ok := child.(*ast.Text); ok {
			segment := textNode.Segment
			if segment.Stop <= len(source) {
				sb.Write(segment.Value(source))
			}
			continue
		}
		sb.WriteString(nodeText(child, source))
	}
	return strings.TrimSpace(sb.String())
}
