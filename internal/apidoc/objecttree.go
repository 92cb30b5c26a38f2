package apidoc

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/omadadoc/internal/htmldoc"
	"golang.org/x/net/html"
)

// pixelsPerIndentLevel is the left padding the documentation uses per nesting level.
const pixelsPerIndentLevel = 20

var indentStyle = regexp.MustCompile(`(?i)(^|;)\s*padding-left\s*:\s*(\d+)\s*px\s*(;|$)`)

// treeGlyphs are the connector characters drawn in front of nested property names.
const treeGlyphs = " ├─└│"

// Row is one line of an object parameter table.
type Row struct {
	Name        string
	Type        string
	IsRequired  bool
	Default     string
	Description string
	Other       string
	IndentLevel int
}

// BuildObjectSchema turns the flat, indented rows of an object table into a
// tree of properties. Children follow the row that declares them and are
// indented one level deeper, so the rows are processed last to first: by the
// time a parent row is reached all of its children are complete.
//
// An empty row set returns nil without error.
func BuildObjectSchema(rows []Row) (*ObjectSchema, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	var stack [][]Property
	pop := func() *ObjectSchema {
		props := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		slices.Reverse(props)
		return &ObjectSchema{Properties: props}
	}

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		level := max(row.IndentLevel, 0)

		for len(stack) <= level {
			stack = append(stack, nil)
		}

		var complexType *ObjectSchema
		if level < len(stack)-1 {
			complexType = pop()
			// A parent indented more than one level above its children leaves
			// empty lists for the skipped levels behind.
			for level < len(stack)-1 {
				if len(stack[len(stack)-1]) > 0 {
					return nil, fmt.Errorf("%w: %q closes more than one nested object at once", ErrUnclosedObject, row.Name)
				}
				stack = stack[:len(stack)-1]
			}
		}

		top := len(stack) - 1
		stack[top] = append(stack[top], Property{
			Name:        row.Name,
			Type:        row.Type,
			IsRequired:  row.IsRequired,
			Default:     row.Default,
			Description: row.Description,
			Other:       row.Other,
			ComplexType: complexType,
		})
	}

	result := pop()
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: first row %q is nested %d level(s) deep", ErrUnclosedObject, rows[0].Name, len(stack))
	}
	return result, nil
}

// rowsFromTable reads the body rows of an object table.
func rowsFromTable(table *html.Node) []Row {
	trs := htmldoc.SelectAll(table, "tbody/tr")
	rows := make([]Row, 0, len(trs))
	for _, tr := range trs {
		nameCell := htmldoc.SelectSingle(tr, "td[1]")
		rows = append(rows, Row{
			Name:        strings.TrimSpace(strings.TrimLeft(htmldoc.Text(nameCell), treeGlyphs)),
			Type:        cellText(tr, 2),
			IsRequired:  isYes(cellText(tr, 3)),
			Default:     cellText(tr, 4),
			Description: cellText(tr, 5),
			Other:       cellText(tr, 6),
			IndentLevel: indentLevel(nameCell),
		})
	}
	return rows
}

// indentLevel reads the padding-left of the span marker inside a name cell.
func indentLevel(cell *html.Node) int {
	span := htmldoc.SelectSingle(cell, "span")
	style, _ := htmldoc.Attr(span, "style")
	m := indentStyle.FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	pixels, err := strconv.Atoi(m[2])
	if err != nil {
		return 0
	}
	return pixels / pixelsPerIndentLevel
}

func cellText(tr *html.Node, column int) string {
	return htmldoc.Text(htmldoc.SelectSingle(tr, "td["+strconv.Itoa(column)+"]"))
}

func isYes(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "yes")
}
