package apidoc

import (
	"testing"

	"github.com/dgallion1/omadadoc/internal/htmldoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func findTable(t *testing.T, doc *Documentation) *html.Node {
	t.Helper()
	table := htmldoc.FindFirst(doc.root, func(n *html.Node) bool { return htmldoc.Name(n) == "table" })
	require.NotNil(t, table)
	return table
}

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		headers []string
		want    TableKind
	}{
		{[]string{"Permission"}, TablePermission},
		{[]string{"Error Code", "Error Message"}, TableErrorCodes},
		{[]string{"Parameters", "Value", "Required", "Example", "Description"}, TableRequestHeaders},
		{[]string{"Parameters", "Example", "Description"}, TablePathParameters},
		{[]string{"Parameters", "Required", "Example", "Description"}, TableQueryParameters},
		{[]string{"Parameters", "Type", "Required", "Default", "Description", "Others"}, TableObject},
		{[]string{"parameters", "TYPE", "required", "default", "description", "others"}, TableObject},
		{[]string{"Parameters", "Type", "Required", "Default", "Description"}, TableUnknown},
		{[]string{"Description", "Example", "Parameters"}, TableUnknown},
		{nil, TableUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTable(tt.headers), "%v", tt.headers)
	}
}

func TestTableHeaders_SkipsBlankCells(t *testing.T) {
	doc := parseString(t, `<html><body><table><thead><tr><th> Permission </th><th>  </th></tr></thead></table></body></html>`)
	headers := tableHeaders(findTable(t, doc))
	assert.Equal(t, []string{"Permission"}, headers)
	assert.Equal(t, TablePermission, ClassifyTable(headers))
}

func TestTableKind_String(t *testing.T) {
	assert.Equal(t, "query parameters", TableQueryParameters.String())
	assert.Equal(t, "unknown", TableKind(99).String())
}
