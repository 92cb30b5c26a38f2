package htmldoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const sample = `<html><head><title>  Demo V1.2.3 </title></head>
<body>
<h1 class="cover">Cover</h1>
<h1>Admins</h1>
<table>
  <thead><tr><th>A</th><th>B</th></tr></thead>
  <tbody>
    <tr><td>1</td><td><span style="padding-left: 20px">x</span></td></tr>
    <tr><td>2</td><td>y</td></tr>
  </tbody>
</table>
</body></html>`

func parseSample(t *testing.T) *html.Node {
	t.Helper()
	doc, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	return doc
}

func TestSelectSingle_AbsolutePath(t *testing.T) {
	doc := parseSample(t)
	title := SelectSingle(doc, "/html/head/title")
	require.NotNil(t, title)
	assert.Equal(t, "Demo V1.2.3", Text(title))
}

func TestSelectAll_RelativePathWithIndex(t *testing.T) {
	doc := parseSample(t)
	table := FindFirst(doc, func(n *html.Node) bool { return Name(n) == "table" })
	require.NotNil(t, table)

	headers := SelectAll(table, "thead/tr/th")
	require.Len(t, headers, 2)
	assert.Equal(t, "B", Text(headers[1]))

	rows := SelectAll(table, "tbody/tr")
	require.Len(t, rows, 2)
	assert.Equal(t, "2", Text(SelectSingle(rows[1], "td[1]")))
	assert.Equal(t, "y", Text(SelectSingle(rows[1], "td[2]")))
	assert.Nil(t, SelectSingle(rows[1], "td[3]"))

	span := SelectSingle(rows[0], "td[2]/span")
	require.NotNil(t, span)
	style, ok := Attr(span, "STYLE")
	assert.True(t, ok)
	assert.Equal(t, "padding-left: 20px", style)
}

func TestFindFirst_SkipsClassedHeading(t *testing.T) {
	doc := parseSample(t)
	h1 := FindFirst(doc, func(n *html.Node) bool {
		_, hasClass := Attr(n, "class")
		return Name(n) == "h1" && !hasClass
	})
	require.NotNil(t, h1)
	assert.Equal(t, "Admins", Text(h1))
}

func TestName_NonElement(t *testing.T) {
	assert.Equal(t, "", Name(nil))
	assert.Equal(t, "", Name(&html.Node{Type: html.TextNode, Data: "h1"}))
	assert.Equal(t, "h1", Name(&html.Node{Type: html.ElementNode, Data: "H1"}))
}
