// Package pathtoken splits controller URL templates into the segments used
// to group endpoints into classes.
package pathtoken

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPath is returned for any path that does not follow the controller template.
var ErrInvalidPath = errors.New("invalid api path")

const expectedForm = "/{controllerId}/api/v<N>/..."

var templatePrefix = regexp.MustCompile(`^/\{[^}]+\}/api/v\d+/(.+)$`)

// Token is a literal path segment, optionally followed by a parameter placeholder.
// "sites/{siteId}" is a single token named "sites" with parameter "siteId".
type Token struct {
	Name          string `json:"name"`
	ParameterName string `json:"parameter_name,omitempty"`
}

func (t Token) HasParameter() bool {
	return t.ParameterName != ""
}

func (t Token) String() string {
	if t.HasParameter() {
		return t.Name + "/{" + t.ParameterName + "}"
	}
	return t.Name
}

// Tokenize strips the controller id and API version prefix from path and
// returns the remaining segments in order.
func Tokenize(path string) ([]Token, error) {
	m := templatePrefix.FindStringSubmatch(path)
	if m == nil {
		return nil, fmt.Errorf("%w: expected a path on the form %q where N is an integer, got %q", ErrInvalidPath, expectedForm, path)
	}

	var tokens []Token
	for _, segment := range strings.Split(m[1], "/") {
		if segment == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
		param, isParam := placeholder(segment)
		if !isParam {
			tokens = append(tokens, Token{Name: segment})
			continue
		}
		if len(tokens) == 0 {
			return nil, fmt.Errorf("%w: %q starts with parameter {%s} after the version segment", ErrInvalidPath, path, param)
		}
		last := &tokens[len(tokens)-1]
		if last.HasParameter() {
			return nil, fmt.Errorf("%w: parameters {%s} and {%s} follow each other in %q", ErrInvalidPath, last.ParameterName, param, path)
		}
		last.ParameterName = param
	}
	return tokens, nil
}

func placeholder(segment string) (string, bool) {
	if len(segment) < 3 || segment[0] != '{' || segment[len(segment)-1] != '}' {
		return "", false
	}
	return segment[1 : len(segment)-1], true
}
