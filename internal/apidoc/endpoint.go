package apidoc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/omadadoc/internal/htmldoc"
	"golang.org/x/net/html"
)

// Subsection headings (h3) inside an endpoint.
const (
	subsectionBasicInformation   = "Basic Information"
	subsectionRequestParameters  = "Request Parameters"
	subsectionResponseParameters = "Response Parameters"
)

// endpointBuilder accumulates one endpoint from the nodes that follow its
// "Basic Information" heading.
type endpointBuilder struct {
	ep         Endpoint
	subsection string

	// Tables that may only be seen once per endpoint.
	seen map[TableKind]bool
}

func newEndpointBuilder(title string) *endpointBuilder {
	return &endpointBuilder{
		ep:   Endpoint{Title: strings.TrimSpace(title)},
		seen: make(map[TableKind]bool),
	}
}

func (b *endpointBuilder) build() (Endpoint, error) {
	if b.ep.Path == "" {
		return Endpoint{}, fmt.Errorf("%w: unable to build endpoint %q as the path has not been set", ErrMalformedTemplate, b.ep.Title)
	}
	if b.ep.HTTPMethod == "" {
		return Endpoint{}, fmt.Errorf("%w: unable to build endpoint %q as the method has not been set", ErrMalformedTemplate, b.ep.Title)
	}
	return b.ep, nil
}

func (b *endpointBuilder) processNode(n *html.Node) error {
	switch htmldoc.Name(n) {
	case "h3":
		b.subsection = htmldoc.Text(n)
	case "p":
		b.processParagraph(n)
	case "table":
		return b.processTable(n)
	}
	return nil
}

// processParagraph picks up "Path:" and "Method:" labels.
func (b *endpointBuilder) processParagraph(p *html.Node) {
	label := htmldoc.SelectSingle(p, "strong")
	if label == nil {
		return
	}
	value := htmldoc.Text(label.NextSibling)
	switch strings.ReplaceAll(htmldoc.Text(label), "：", ":") {
	case "Path:":
		b.ep.Path = value
	case "Method:":
		b.ep.HTTPMethod = strings.ToUpper(value)
	}
}

func (b *endpointBuilder) processTable(table *html.Node) error {
	kind := ClassifyTable(tableHeaders(table))

	switch b.subsection {
	case subsectionBasicInformation:
		switch kind {
		case TablePermission:
			return b.once(kind, func() error { return b.readPermissions(table) })
		case TableErrorCodes:
			return b.once(kind, func() error { return b.readErrorMessages(table) })
		}
	case subsectionRequestParameters:
		switch kind {
		case TableRequestHeaders:
			return b.once(kind, func() error { b.readRequestHeaders(table); return nil })
		case TablePathParameters:
			return b.once(kind, func() error { b.readPathParameters(table); return nil })
		case TableQueryParameters:
			return b.once(kind, func() error { b.readQueryParameters(table); return nil })
		case TableObject:
			body, err := b.readObject(table)
			if err != nil {
				return err
			}
			b.ep.RequestBody = body
		}
	case subsectionResponseParameters:
		if kind == TableObject {
			body, err := b.readObject(table)
			if err != nil {
				return err
			}
			b.ep.ResponseBody = body
		}
	}
	return nil
}

func (b *endpointBuilder) once(kind TableKind, read func() error) error {
	if b.seen[kind] {
		return fmt.Errorf("%w: %s table set twice for endpoint %q", ErrDuplicateSubsection, kind, b.ep.Title)
	}
	b.seen[kind] = true
	return read()
}

func (b *endpointBuilder) readPermissions(table *html.Node) error {
	cells := htmldoc.SelectAll(table, "tbody/tr/td")
	if len(cells) != 1 {
		return fmt.Errorf("%w: expected a single permission text for endpoint %q, got %d cells", ErrMalformedTemplate, b.ep.Title, len(cells))
	}
	b.ep.Permissions = htmldoc.Text(cells[0])
	return nil
}

func (b *endpointBuilder) readErrorMessages(table *html.Node) error {
	for _, tr := range htmldoc.SelectAll(table, "tbody/tr") {
		codeText := cellText(tr, 1)
		if codeText == "" {
			continue
		}
		code, err := strconv.Atoi(codeText)
		if err != nil {
			return fmt.Errorf("%w: error code %q of endpoint %q is not an integer", ErrMalformedTemplate, codeText, b.ep.Title)
		}
		b.ep.ErrorMessages = append(b.ep.ErrorMessages, ErrorMessage{Code: code, Message: cellText(tr, 2)})
	}
	return nil
}

func (b *endpointBuilder) readRequestHeaders(table *html.Node) {
	for _, tr := range htmldoc.SelectAll(table, "tbody/tr") {
		b.ep.RequestHeaders = append(b.ep.RequestHeaders, Header{
			Name:        cellText(tr, 1),
			Value:       cellText(tr, 2),
			IsRequired:  isYes(cellText(tr, 3)),
			Example:     cellText(tr, 4),
			Description: cellText(tr, 5),
		})
	}
}

func (b *endpointBuilder) readPathParameters(table *html.Node) {
	for _, tr := range htmldoc.SelectAll(table, "tbody/tr") {
		b.ep.RequestPathParameters = append(b.ep.RequestPathParameters, PathParam{
			Name:        cellText(tr, 1),
			Example:     cellText(tr, 2),
			Description: cellText(tr, 3),
		})
	}
}

func (b *endpointBuilder) readQueryParameters(table *html.Node) {
	for _, tr := range htmldoc.SelectAll(table, "tbody/tr") {
		b.ep.RequestQueryParameters = append(b.ep.RequestQueryParameters, QueryParam{
			Name:        cellText(tr, 1),
			IsRequired:  isYes(cellText(tr, 2)),
			Example:     cellText(tr, 3),
			Description: cellText(tr, 4),
		})
	}
}

func (b *endpointBuilder) readObject(table *html.Node) (*ObjectSchema, error) {
	schema, err := BuildObjectSchema(rowsFromTable(table))
	if err != nil {
		return nil, fmt.Errorf("endpoint %q, %s: %w", b.ep.Title, b.subsection, err)
	}
	return schema, nil
}

// tableHeaders returns the non-blank header cells of a table, trimmed.
func tableHeaders(table *html.Node) []string {
	var headers []string
	for _, th := range htmldoc.SelectAll(table, "thead/tr/th") {
		if text := htmldoc.Text(th); text != "" {
			headers = append(headers, text)
		}
	}
	return headers
}
