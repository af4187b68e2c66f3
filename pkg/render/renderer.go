// Package render turns a step's raw content into a flat sequence of typed
// text/break nodes, overlaying formatting segments and runtime placeholder
// values. Rendering never fails: every lookup miss degrades to unstyled
// text.
package render

import (
	"strings"

	"github.com/aretw0/roteiro/pkg/domain"
)

// Placeholders carries the runtime values substituted into step content,
// plus the operator's accessibility base size used to resolve size tokens.
type Placeholders struct {
	OperatorName      string
	CustomerFirstName string

	// BasePixelSize is the operator-adjustable base; zero means
	// DefaultBasePixelSize.
	BasePixelSize float64
}

// token is one placeholder pattern. The set is fixed and ordered; earlier
// entries win when two tokens start at the same offset.
type token struct {
	pattern string
	value   func(Placeholders) string
}

// cpfRedaction replaces the CPF token so a customer's document number is
// never echoed into the script text.
const cpfRedaction = "***.***.***-**"

// placeholderTokens is the fixed substitution set. The customer first-name
// token keeps two bracket spellings for compatibility with scripts written
// before the editor normalized casing.
var placeholderTokens = []token{
	{"[Nome do atendente]", func(p Placeholders) string { return p.OperatorName }},
	{"[Primeiro nome do cliente]", func(p Placeholders) string { return p.CustomerFirstName }},
	{"[Primeiro Nome do Cliente]", func(p Placeholders) string { return p.CustomerFirstName }},
	{"[CPF]", func(Placeholders) string { return cpfRedaction }},
}

// Render produces the node sequence for a step's content.
//
// Without segments, placeholder tokens are substituted (the substituted
// value is emitted bold) and the content is split on literal newlines.
//
// With segments, a cursor advances through the content: each segment is
// matched by first-occurrence search from the cursor, the gap before it is
// emitted plain, the match is emitted with the segment's formatting, and
// the cursor moves past it. A segment whose text is not found from the
// cursor onward is silently skipped; stale segments referencing edited
// content are tolerated, not errors. Trailing content is emitted plain.
func Render(content string, segments []domain.ContentSegment, ph Placeholders) []Node {
	if len(segments) == 0 {
		return renderPlain(content, ph)
	}

	var nodes []Node
	cursor := 0
	for _, seg := range segments {
		if seg.Text == "" {
			continue
		}
		idx := strings.Index(content[cursor:], seg.Text)
		if idx < 0 {
			// Stale segment: content was edited after the segment was
			// saved. Skip it and keep the cursor where it is.
			continue
		}
		start := cursor + idx
		if start > cursor {
			nodes = appendLines(nodes, content[cursor:start], nil)
		}
		style := styleFor(seg.Formatting, ph.BasePixelSize)
		nodes = appendLines(nodes, seg.Text, style)
		cursor = start + len(seg.Text)
	}
	if cursor < len(content) {
		nodes = appendLines(nodes, content[cursor:], nil)
	}
	return nodes
}

// renderPlain substitutes placeholders and splits on newlines. Substituted
// values come out as bold nodes so the operator can spot live data.
func renderPlain(content string, ph Placeholders) []Node {
	var nodes []Node
	rest := content
	for rest != "" {
		tok, idx := nextToken(rest)
		if idx < 0 {
			nodes = appendLines(nodes, rest, nil)
			break
		}
		if idx > 0 {
			nodes = appendLines(nodes, rest[:idx], nil)
		}
		if v := tok.value(ph); v != "" {
			nodes = appendLines(nodes, v, &Style{Bold: true, PixelSize: ScaleSize("", ph.BasePixelSize)})
		}
		rest = rest[idx+len(tok.pattern):]
	}
	return nodes
}

// nextToken finds the earliest placeholder occurrence in s. Ties on offset
// resolve in placeholderTokens order.
func nextToken(s string) (token, int) {
	best := -1
	var bestTok token
	for _, t := range placeholderTokens {
		if i := strings.Index(s, t.pattern); i >= 0 && (best < 0 || i < best) {
			best = i
			bestTok = t
		}
	}
	return bestTok, best
}

// appendLines splits text on literal newlines and appends the resulting
// text and break nodes. Empty runs between consecutive newlines produce
// only break nodes.
func appendLines(nodes []Node, text string, style *Style) []Node {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			nodes = append(nodes, breakNode())
		}
		if line == "" {
			continue
		}
		nodes = append(nodes, Node{Kind: NodeText, Text: line, Style: style})
	}
	return nodes
}
