// Package report renders a human readable reference of an API
// documentation: every endpoint with its parameters and bodies, followed
// by the generated class hierarchy.
package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/dgallion1/omadadoc/internal/apidoc"
	"github.com/dgallion1/omadadoc/internal/definition"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const title = "Omada SDN Controller API"

// Markdown writes the reference for doc. roots may be nil, in which case
// the class hierarchy is left out.
func Markdown(doc *apidoc.Documentation, roots map[definition.PermissionLevel]*definition.ClassDefinition) (string, error) {
	version, err := doc.Version()
	if err != nil {
		return "", err
	}
	sections, err := doc.Sections()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", title, version)

	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Title)
		if len(s.Endpoints) == 0 {
			b.WriteString("No endpoints.\n\n")
		}
		for _, ep := range s.Endpoints {
			writeEndpoint(&b, ep)
		}
	}

	if ordered := definition.Ordered(roots); len(ordered) > 0 {
		b.WriteString("## Class hierarchy\n\n")
		for _, root := range ordered {
			fmt.Fprintf(&b, "### %s\n\n", root.Name)
			writeClass(&b, root, 0)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// HTML renders Markdown output as a standalone HTML page.
func HTML(markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

func writeEndpoint(b *strings.Builder, ep apidoc.Endpoint) {
	fmt.Fprintf(b, "### %s\n\n", ep.Title)
	fmt.Fprintf(b, "`%s %s`\n\n", ep.HTTPMethod, ep.Path)
	if ep.Permissions != "" {
		fmt.Fprintf(b, "**Permissions:** %s\n\n", cell(ep.Permissions))
	}

	if len(ep.RequestHeaders) > 0 {
		t := newTable("Name", "Value", "Required", "Description")
		for _, h := range ep.RequestHeaders {
			t.row(code(h.Name), h.Value, yesNo(h.IsRequired), h.Description)
		}
		t.write(b, "Headers")
	}
	if len(ep.RequestPathParameters) > 0 {
		t := newTable("Name", "Example", "Description")
		for _, p := range ep.RequestPathParameters {
			t.row(code(p.Name), p.Example, p.Description)
		}
		t.write(b, "Path parameters")
	}
	if len(ep.RequestQueryParameters) > 0 {
		t := newTable("Name", "Required", "Example", "Description")
		for _, p := range ep.RequestQueryParameters {
			t.row(code(p.Name), yesNo(p.IsRequired), p.Example, p.Description)
		}
		t.write(b, "Query parameters")
	}
	writeObject(b, "Request body", ep.RequestBody)
	writeObject(b, "Response body", ep.ResponseBody)

	if len(ep.ErrorMessages) > 0 {
		t := newTable("Code", "Message")
		for _, em := range ep.ErrorMessages {
			t.row(fmt.Sprint(em.Code), em.Message)
		}
		t.write(b, "Error codes")
	}
}

func writeObject(b *strings.Builder, heading string, o *apidoc.ObjectSchema) {
	if o == nil || len(o.Properties) == 0 {
		return
	}
	t := newTable("Property", "Type", "Required", "Default", "Description")
	var add func(prefix string, o *apidoc.ObjectSchema)
	add = func(prefix string, o *apidoc.ObjectSchema) {
		for _, p := range o.Properties {
			path := prefix + p.Name
			t.row(code(path), p.Type, yesNo(p.IsRequired), p.Default, p.Description)
			if p.IsComplexType() {
				add(path+".", p.ComplexType)
			}
		}
	}
	add("", o)
	t.write(b, heading)
}

func writeClass(b *strings.Builder, c *definition.ClassDefinition, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, op := range c.Operations {
		fmt.Fprintf(b, "%s- `%s` %s `%s`\n", indent, op.Name, op.HTTPMethod, op.Path)
	}
	for _, p := range c.Properties {
		fmt.Fprintf(b, "%s- `%s` → `%s`\n", indent, p.Name, p.Class.Name)
		writeClass(b, p.Class, depth+1)
	}
	for _, m := range c.Methods {
		fmt.Fprintf(b, "%s- `%s(%s)` → `%s`\n", indent, m.Name, m.ParameterName, m.Class.Name)
		writeClass(b, m.Class, depth+1)
	}
}

type table struct {
	header []string
	rows   [][]string
}

func newTable(header ...string) *table {
	return &table{header: header}
}

func (t *table) row(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(b *strings.Builder, heading string) {
	fmt.Fprintf(b, "#### %s\n\n", heading)
	b.WriteString("| " + strings.Join(t.header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.header)) + "\n")
	for _, r := range t.rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = cell(c)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

// cell makes text safe to place inside a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func code(s string) string {
	return "`" + s + "`"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
