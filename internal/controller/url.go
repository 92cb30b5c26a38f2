package controller

import (
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"strings"
)

// ControllerIDParameter is the path placeholder resolved from /api/info.
const ControllerIDParameter = "omadacId"

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// URL describes one API call target. It is immutable; the With methods
// return modified copies.
type URL struct {
	path   string
	params map[string]string
	query  map[string]string
}

// NewURL starts a URL for a documented path such as "/{omadacId}/api/v2/sites".
func NewURL(path string) URL {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return URL{path: path}
}

func (u URL) Path() string { return u.path }

// WithPathParameter fills the {name} placeholder of the path.
func (u URL) WithPathParameter(name, value string) (URL, error) {
	if !strings.Contains(u.path, "{"+name+"}") {
		return u, fmt.Errorf("path %q does not contain a path variable {%s}", u.path, name)
	}
	out := u
	out.params = maps.Clone(u.params)
	if out.params == nil {
		out.params = make(map[string]string)
	}
	out.params[name] = value
	return out, nil
}

func (u URL) WithQueryParameter(name, value string) URL {
	out := u
	out.query = maps.Clone(u.query)
	if out.query == nil {
		out.query = make(map[string]string)
	}
	out.query[name] = value
	return out
}

// RequiresControllerID reports whether the controller ID placeholder is
// still unresolved.
func (u URL) RequiresControllerID() bool {
	if _, ok := u.params[ControllerIDParameter]; ok {
		return false
	}
	return strings.Contains(u.path, "{"+ControllerIDParameter+"}")
}

// Build resolves the URL against base, of which only scheme and host are
// kept. Every placeholder except the controller ID must have a value.
func (u URL) Build(base string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if b.Scheme == "" || b.Host == "" {
		return "", fmt.Errorf("base url %q must include scheme and host", base)
	}

	var missing []string
	path := placeholderPattern.ReplaceAllStringFunc(u.path, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := u.params[name]; ok {
			return url.PathEscape(v)
		}
		if name != ControllerIDParameter {
			missing = append(missing, name)
		}
		return m
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unable to build url for path %q: path parameter(s) %s not provided", u.path, strings.Join(missing, ", "))
	}

	out := b.Scheme + "://" + b.Host + path
	if len(u.query) > 0 {
		q := url.Values{}
		for k, v := range u.query {
			q.Set(k, v)
		}
		out += "?" + q.Encode()
	}
	return out, nil
}

func (u URL) String() string { return u.path }
