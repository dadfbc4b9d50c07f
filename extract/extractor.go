package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxLines is the hard cap on extracted lines.
const DefaultMaxLines = 2000

// defaultRemoved lists the elements whose subtrees never carry recipe content.
// noscript is included because its body parses as raw markup text.
var defaultRemoved = []atom.Atom{
	atom.Script,
	atom.Style,
	atom.Nav,
	atom.Header,
	atom.Footer,
	atom.Noscript,
}

// ContentExtractor converts HTML to plain text. It holds no mutable state and
// is safe for concurrent use.
type ContentExtractor struct {
	maxLines int
	removed  map[atom.Atom]bool
}

// Option configures a ContentExtractor.
type Option func(*ContentExtractor)

// WithMaxLines overrides the line cap. Values below 1 keep the default.
func WithMaxLines(n int) Option {
	return func(e *ContentExtractor) {
		if n > 0 {
			e.maxLines = n
		}
	}
}

// New creates a ContentExtractor.
func New(opts ...Option) *ContentExtractor {
	e := &ContentExtractor{
		maxLines: DefaultMaxLines,
		removed:  make(map[atom.Atom]bool, len(defaultRemoved)),
	}
	for _, a := range defaultRemoved {
		e.removed[a] = true
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxLines returns the configured line cap.
func (e *ContentExtractor) MaxLines() int {
	return e.maxLines
}

// Text returns the visible text of rawHTML, one non-blank line per line,
// truncated to the first MaxLines lines.
func (e *ContentExtractor) Text(rawHTML string) string {
	return strings.Join(e.Lines(rawHTML), "\n")
}

// Lines is Text split into its lines.
func (e *ContentExtractor) Lines(rawHTML string) []string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return e.clip(rawHTML)
	}

	var b strings.Builder
	e.collect(doc, &b)
	return e.clip(b.String())
}

// collect appends every trimmed, non-empty text node under n, newline separated.
func (e *ContentExtractor) collect(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.ElementNode:
		if e.removed[n.DataAtom] {
			return
		}
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(text)
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.collect(c, b)
	}
}

// clip splits text into trimmed non-blank lines and keeps the first maxLines.
func (e *ContentExtractor) clip(text string) []string {
	lines := make([]string, 0, 64)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == e.maxLines {
			break
		}
	}
	return lines
}
