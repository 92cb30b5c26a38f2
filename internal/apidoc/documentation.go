// Package apidoc extracts endpoint descriptions from the Omada controller
// API documentation, an HTML file following one fixed template.
package apidoc

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sync"

	"github.com/dgallion1/omadadoc/internal/htmldoc"
	"golang.org/x/net/html"
)

var versionFromTitle = regexp.MustCompile(`(?i)(\s|^|_)V(\d+(\.\d+)+)(\s|_|$)`)

// Documentation is the parsed model of one API reference document. Version
// and sections are computed on first use and cached.
type Documentation struct {
	root *html.Node
	log  *slog.Logger

	versionOnce sync.Once
	version     string
	versionErr  error

	sectionsOnce sync.Once
	sections     []Section
	sectionsErr  error
}

// Option configures a Documentation.
type Option func(*Documentation)

// WithLogger sets the logger used for debug output while extracting.
func WithLogger(log *slog.Logger) Option {
	return func(d *Documentation) {
		if log != nil {
			d.log = log
		}
	}
}

// New wraps an already parsed HTML tree.
func New(root *html.Node, opts ...Option) *Documentation {
	d := &Documentation{
		root: root,
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Parse reads an HTML document.
func Parse(r io.Reader, opts ...Option) (*Documentation, error) {
	root, err := htmldoc.Parse(r)
	if err != nil {
		return nil, err
	}
	return New(root, opts...), nil
}

// Version returns the API version from the document title, e.g. "5.4.6"
// for "Omada SDN Controller V5.4.6 API Document".
func (d *Documentation) Version() (string, error) {
	d.versionOnce.Do(func() {
		title := htmldoc.SelectSingle(d.root, "/html/head/title")
		if title == nil {
			d.versionErr = fmt.Errorf("%w: missing head/title element", ErrMalformedTemplate)
			return
		}
		text := htmldoc.Text(title)
		m := versionFromTitle.FindStringSubmatch(text)
		if m == nil {
			d.versionErr = fmt.Errorf("%w: title %q does not contain a version on the form Vx.x.x", ErrMalformedTemplate, text)
			return
		}
		d.version = m[2]
	})
	return d.version, d.versionErr
}

// Sections returns the documentation sections in document order.
func (d *Documentation) Sections() ([]Section, error) {
	d.sectionsOnce.Do(func() {
		d.sections, d.sectionsErr = ScanSections(d.root)
		if d.sectionsErr != nil {
			return
		}
		for _, s := range d.sections {
			d.log.Debug("section extracted", "title", s.Title, "endpoints", len(s.Endpoints))
		}
	})
	return d.sections, d.sectionsErr
}

// Endpoints returns every endpoint of every section in document order.
func (d *Documentation) Endpoints() ([]Endpoint, error) {
	sections, err := d.Sections()
	if err != nil {
		return nil, err
	}
	var endpoints []Endpoint
	for _, s := range sections {
		endpoints = append(endpoints, s.Endpoints...)
	}
	return endpoints, nil
}

// Endpoint looks up an endpoint by its title.
func (d *Documentation) Endpoint(title string) (Endpoint, bool, error) {
	endpoints, err := d.Endpoints()
	if err != nil {
		return Endpoint{}, false, err
	}
	for _, ep := range endpoints {
		if ep.Title == title {
			return ep, true, nil
		}
	}
	return Endpoint{}, false, nil
}
