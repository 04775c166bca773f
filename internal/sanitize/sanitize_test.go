package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTMLStripsScriptsAndHandlers(t *testing.T) {
	t.Parallel()

	got := string(HTML(`<p onclick="steal()">Hello <script>alert(1)</script><b>world</b></p><iframe src="https://evil.example"></iframe>`))
	require.NotContains(t, got, "script")
	require.NotContains(t, got, "onclick")
	require.NotContains(t, got, "iframe")
	require.Contains(t, got, "<b>world</b>")
}

func TestHTMLKeepsSafeFormatting(t *testing.T) {
	t.Parallel()

	got := string(HTML(`<p class="lead"><span style="color: #EB1F26">Band 7+</span> <a href="https://10minuteschool.com">link</a></p><ul><li>one</li></ul>`))
	require.Contains(t, got, `class="lead"`)
	require.Contains(t, got, "color: #EB1F26")
	require.Contains(t, got, `rel="nofollow noopener"`)
	require.Contains(t, got, "<li>one</li>")
}

func TestHTMLDropsUnsafeStyles(t *testing.T) {
	t.Parallel()

	got := string(HTML(`<span style="background-image: url(javascript:alert(1)); color: red">x</span>`))
	require.NotContains(t, got, "javascript")
	require.NotContains(t, got, "background-image")
}

func TestHTMLBlank(t *testing.T) {
	t.Parallel()

	require.Empty(t, HTML("   "))
}

func TestText(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                                     "",
		"plain":                                "plain",
		"<p>IELTS <b>Course</b></p><p>by Munzereen</p>": "IELTS Course by Munzereen",
		"<p>a &amp; b</p>":                     "a & b",
		"x<script>alert(1)</script>y":          "xy",
		"<h2>line<br>break</h2>":               "line break",
	}
	for in, want := range tests {
		require.Equal(t, want, Text(in), in)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", Truncate("abc", 5))
	require.Equal(t, "ab…", Truncate("abcdef", 2))
	require.Equal(t, "আমি…", Truncate("আমিতুমি", 3))
	require.Empty(t, Truncate("abc", 0))
	require.True(t, strings.HasSuffix(Truncate(strings.Repeat("x", 200), 150), "…"))
}
