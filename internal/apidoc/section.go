package apidoc

import (
	"fmt"

	"github.com/dgallion1/omadadoc/internal/htmldoc"
	"golang.org/x/net/html"
)

// isSectionHeading reports whether n starts a new section: an h1 without a class.
func isSectionHeading(n *html.Node) bool {
	if htmldoc.Name(n) != "h1" {
		return false
	}
	class, _ := htmldoc.Attr(n, "class")
	return class == ""
}

// ScanSections walks the siblings of the first section heading and groups
// everything after each heading into a Section. A document without any
// section heading yields no sections.
func ScanSections(root *html.Node) ([]Section, error) {
	var builders []*sectionBuilder

	for n := htmldoc.FindFirst(root, isSectionHeading); n != nil; n = n.NextSibling {
		if isSectionHeading(n) {
			sb, err := newSectionBuilder(htmldoc.Text(n))
			if err != nil {
				return nil, err
			}
			builders = append(builders, sb)
		}
		if err := builders[len(builders)-1].processNode(n); err != nil {
			return nil, err
		}
	}

	sections := make([]Section, 0, len(builders))
	for _, sb := range builders {
		s, err := sb.build()
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, nil
}

type sectionBuilder struct {
	title          string
	titleCandidate string
	endpoints      []*endpointBuilder
}

func newSectionBuilder(title string) (*sectionBuilder, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: section heading without text", ErrMalformedTemplate)
	}
	return &sectionBuilder{title: title}, nil
}

func (b *sectionBuilder) processNode(n *html.Node) error {
	switch htmldoc.Name(n) {
	case "h2":
		b.titleCandidate = htmldoc.Text(n)
	case "h3":
		if htmldoc.Text(n) == subsectionBasicInformation {
			if b.titleCandidate == "" {
				return fmt.Errorf("%w: endpoint in section %q has no title", ErrMalformedTemplate, b.title)
			}
			b.endpoints = append(b.endpoints, newEndpointBuilder(b.titleCandidate))
			b.titleCandidate = ""
		}
	}

	if len(b.endpoints) == 0 {
		return nil
	}
	return b.endpoints[len(b.endpoints)-1].processNode(n)
}

func (b *sectionBuilder) build() (Section, error) {
	s := Section{Title: b.title, Endpoints: make([]Endpoint, 0, len(b.endpoints))}
	for _, eb := range b.endpoints {
		ep, err := eb.build()
		if err != nil {
			return Section{}, fmt.Errorf("section %q: %w", b.title, err)
		}
		s.Endpoints = append(s.Endpoints, ep)
	}
	return s, nil
}
