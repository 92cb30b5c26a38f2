// Package htmldoc is the small query layer the extractor needs on top of
// golang.org/x/net/html: element names, trimmed text, attributes and
// slash separated child paths.
package htmldoc

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Parse reads an HTML document and returns its root node.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Name returns the lower-case element name, or "" for anything that is not an element.
func Name(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

// Text returns the concatenated text content of n, trimmed.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// Attr looks up an attribute by case-insensitive key.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// FindFirst returns the first descendant of n, in document order, for which pred holds.
func FindFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pred(c) {
			return c
		}
		if found := FindFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// SelectSingle returns the first node matching path, or nil.
func SelectSingle(n *html.Node, path string) *html.Node {
	matches := SelectAll(n, path)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// SelectAll returns every node reachable from n through path.
//
// A path is a list of element names separated by "/". Each step selects
// element children of the previous step. A leading "/" anchors the
// path at the document root, and a step may carry a 1-based index such as
// "td[2]".
func SelectAll(n *html.Node, path string) []*html.Node {
	if n == nil {
		return nil
	}
	if strings.HasPrefix(path, "/") {
		n = root(n)
		path = strings.TrimPrefix(path, "/")
	}

	current := []*html.Node{n}
	for _, step := range strings.Split(path, "/") {
		if step == "" {
			continue
		}
		name, index := parseStep(step)
		var next []*html.Node
		for _, parent := range current {
			pos := 0
			for c := parent.FirstChild; c != nil; c = c.NextSibling {
				if Name(c) != name {
					continue
				}
				pos++
				if index == 0 || index == pos {
					next = append(next, c)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

func parseStep(step string) (string, int) {
	open := strings.IndexByte(step, '[')
	if open < 0 || !strings.HasSuffix(step, "]") {
		return strings.ToLower(step), 0
	}
	index, err := strconv.Atoi(step[open+1 : len(step)-1])
	if err != nil || index < 1 {
		return strings.ToLower(step[:open]), 0
	}
	return strings.ToLower(step[:open]), index
}

func root(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}
