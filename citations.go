package pdfhelper

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// Citations returns the document names listed after DefaultCompletionMarker
// in a finished answer.
func Citations(answer string) []string {
	return CitationsAfter(answer, DefaultCompletionMarker)
}

// CitationsAfter returns the bold items (**name**) found after the last
// occurrence of marker, in order and without duplicates. It returns nil when
// the marker is absent.
func CitationsAfter(answer, marker string) []string {
	if marker == "" {
		return nil
	}
	i := strings.LastIndex(answer, marker)
	if i < 0 {
		return nil
	}
	src := []byte(answer[i+len(marker):])

	doc := markdown.Parser().Parse(text.NewReader(src))

	var names []string
	seen := map[string]bool{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		em, ok := n.(*ast.Emphasis)
		if !ok || em.Level != 2 {
			return ast.WalkContinue, nil
		}

		var sb strings.Builder
		for c := em.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(src))
			}
		}
		name := strings.TrimSpace(sb.String())
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return ast.WalkSkipChildren, nil
	})

	return names
}
