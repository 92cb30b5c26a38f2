// Package definition groups extracted endpoints into a tree of client
// classes, one tree per permission level, following the shape of each
// endpoint's URL path.
package definition

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/omadadoc/internal/apidoc"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrSingularization is returned when a collection segment of a path cannot
// be turned into a singular accessor name.
var ErrSingularization = errors.New("cannot derive singular name")

// PermissionLevel is the coarse authorization level an endpoint needs.
type PermissionLevel int

const (
	PermissionAll PermissionLevel = iota
	PermissionRead
	PermissionAdmin
)

// Levels lists the permission levels from least to most privileged.
var Levels = []PermissionLevel{PermissionAll, PermissionRead, PermissionAdmin}

func (p PermissionLevel) String() string {
	switch p {
	case PermissionAll:
		return "all"
	case PermissionRead:
		return "read"
	case PermissionAdmin:
		return "admin"
	}
	return fmt.Sprintf("PermissionLevel(%d)", int(p))
}

// MarshalText lets permission levels key JSON and YAML maps by name.
func (p PermissionLevel) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ClassPrefix is prepended to every class name generated for the level.
func (p PermissionLevel) ClassPrefix() string {
	switch p {
	case PermissionAll:
		return "Unauthenticated"
	case PermissionRead:
		return "ReadAuthorized"
	default:
		return "AdminAuthorized"
	}
}

// RootName is the name of the root class for the level.
func (p PermissionLevel) RootName() string {
	return p.ClassPrefix() + "OmadaController"
}

// LevelOf classifies an endpoint. Endpoints documented as open to all
// levels need no authentication, other GET endpoints need read access and
// everything else needs admin access.
func LevelOf(ep apidoc.Endpoint) PermissionLevel {
	if strings.Contains(strings.ToLower(ep.Permissions), "all levels") {
		return PermissionAll
	}
	if ep.HTTPMethod == "GET" {
		return PermissionRead
	}
	return PermissionAdmin
}

// ClassDefinition is one generated client class.
type ClassDefinition struct {
	Name       string      `json:"name" yaml:"name"`
	Properties []*Property `json:"properties,omitempty" yaml:"properties,omitempty"`
	Methods    []*Method   `json:"methods,omitempty" yaml:"methods,omitempty"`
	Operations []Operation `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// Property exposes a child class for a path segment without a parameter,
// e.g. Stat for ".../stat/traffic".
type Property struct {
	Name  string           `json:"name" yaml:"name"`
	Class *ClassDefinition `json:"class" yaml:"class"`
}

// Method exposes a child class for a path segment that carries a parameter,
// e.g. GetSites(siteId) for ".../sites/{siteId}/...".
type Method struct {
	Name          string           `json:"name" yaml:"name"`
	ParameterName string           `json:"parameter_name" yaml:"parameter_name"`
	Class         *ClassDefinition `json:"class" yaml:"class"`
}

// Operation is an endpoint attached to the class its path leads to.
type Operation struct {
	Name       string `json:"name" yaml:"name"`
	HTTPMethod string `json:"http_method" yaml:"http_method"`
	Path       string `json:"path" yaml:"path"`
	Title      string `json:"title" yaml:"title"`
}

// Property returns the property with the given name, or nil.
func (c *ClassDefinition) Property(name string) *Property {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Method returns the method with the given name, or nil.
func (c *ClassDefinition) Method(name string) *Method {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Walk calls fn for c and every class reachable from it, depth first.
func (c *ClassDefinition) Walk(fn func(*ClassDefinition)) {
	fn(c)
	for _, p := range c.Properties {
		p.Class.Walk(fn)
	}
	for _, m := range c.Methods {
		m.Class.Walk(fn)
	}
}

// titleCase upper-cases the first letter of name and keeps the rest, so
// "sendSmsAuthCode" and "ssid-profiles" keep their inner letters.
func titleCase(name string) string {
	_, size := utf8.DecodeRuneInString(name)
	return cases.Title(language.Und).String(name[:size]) + name[size:]
}

// singular only accepts names that already look plural and returns them
// unchanged; irregular plurals are not handled.
func singular(plural string) (string, error) {
	if !strings.HasSuffix(plural, "s") {
		return "", fmt.Errorf("%w: %q does not end in \"s\"", ErrSingularization, plural)
	}
	return plural, nil
}
