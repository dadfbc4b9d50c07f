package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_RemovesNonContent(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
  <title>Tomato Soup</title>
  <style>body { color: red; }</style>
  <script>var tracking = "nope";</script>
</head>
<body>
  <header>Site Header</header>
  <nav><a href="/">Home</a></nav>
  <!-- a comment -->
  <main>
    <h1>Tomato Soup</h1>
    <ul>
      <li>4 pcs tomato</li>
      <li>1 tsp salt</li>
    </ul>
    <p>Chop tomatoes.</p>
    <p>   </p>
    <p>Simmer 20 minutes.</p>
  </main>
  <noscript><img src="pixel.gif"></noscript>
  <footer>Copyright</footer>
</body>
</html>`

	got := New().Lines(page)
	assert.Equal(t, []string{
		"Tomato Soup",
		"Tomato Soup",
		"4 pcs tomato",
		"1 tsp salt",
		"Chop tomatoes.",
		"Simmer 20 minutes.",
	}, got)
}

func TestText_SplitsEmbeddedNewlines(t *testing.T) {
	page := "<pre>line one\n\n   line two  \n</pre><p>three</p>"
	assert.Equal(t, "line one\nline two\nthree", New().Text(page))
}

func TestText_Empty(t *testing.T) {
	assert.Equal(t, "", New().Text(""))
	assert.Empty(t, New().Lines("<html><body><script>x</script></body></html>"))
}

func paragraphs(n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>line %d</p>", i)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestText_TruncationBoundary(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{"below cap", 1999, 1999},
		{"exactly cap", 2000, 2000},
		{"one over", 2001, 2000},
		{"far over", 5000, 2000},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := e.Lines(paragraphs(tt.input))
			require.Len(t, lines, tt.want)
			assert.Equal(t, "line 0", lines[0])
			assert.Equal(t, fmt.Sprintf("line %d", tt.want-1), lines[len(lines)-1])

			text := e.Text(paragraphs(tt.input))
			assert.Equal(t, tt.want, strings.Count(text, "\n")+1)
		})
	}
}

func TestText_ExactlyCapUnchanged(t *testing.T) {
	e := New()
	once := e.Text(paragraphs(DefaultMaxLines))
	// Feeding the extracted text back in must not lose anything.
	assert.Equal(t, once, e.Text(once))
}

func TestWithMaxLines(t *testing.T) {
	e := New(WithMaxLines(3))
	assert.Equal(t, 3, e.MaxLines())
	assert.Len(t, e.Lines(paragraphs(10)), 3)

	assert.Equal(t, DefaultMaxLines, New(WithMaxLines(0)).MaxLines())
}
