package definition

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/omadadoc/internal/apidoc"
	"github.com/dgallion1/omadadoc/internal/pathtoken"
)

// Tokenizer splits an endpoint path into tokens.
type Tokenizer func(path string) ([]pathtoken.Token, error)

// Builder accumulates endpoints into one class tree per permission level.
// It is not safe for concurrent use.
type Builder struct {
	tokenize Tokenizer
	log      *slog.Logger
	roots    map[PermissionLevel]*ClassDefinition
}

type Option func(*Builder)

// WithTokenizer replaces pathtoken.Tokenize.
func WithTokenizer(t Tokenizer) Option {
	return func(b *Builder) {
		if t != nil {
			b.tokenize = t
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		tokenize: pathtoken.Tokenize,
		log:      slog.New(slog.DiscardHandler),
		roots:    make(map[PermissionLevel]*ClassDefinition),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build groups every endpoint of doc.
func Build(doc *apidoc.Documentation, opts ...Option) (map[PermissionLevel]*ClassDefinition, error) {
	b := NewBuilder(opts...)
	if err := b.AddDocumentation(doc); err != nil {
		return nil, err
	}
	return b.Roots(), nil
}

func (b *Builder) AddDocumentation(doc *apidoc.Documentation) error {
	sections, err := doc.Sections()
	if err != nil {
		return err
	}
	for _, s := range sections {
		if err := b.AddSection(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) AddSection(s apidoc.Section) error {
	for _, ep := range s.Endpoints {
		if err := b.AddEndpoint(ep); err != nil {
			return fmt.Errorf("section %q: %w", s.Title, err)
		}
	}
	return nil
}

// AddEndpoint walks the endpoint's path from the root of its permission
// level, creating classes as needed, and attaches the endpoint as an
// operation on the class the path ends at.
func (b *Builder) AddEndpoint(ep apidoc.Endpoint) error {
	tokens, err := b.tokenize(ep.Path)
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", ep.Title, err)
	}
	if len(tokens) == 0 {
		return fmt.Errorf("endpoint %q: %w: no path tokens", ep.Title, pathtoken.ErrInvalidPath)
	}

	level := LevelOf(ep)
	root, ok := b.roots[level]
	if !ok {
		root = &ClassDefinition{Name: level.RootName()}
		b.roots[level] = root
	}

	class := root
	prefix := level.ClassPrefix()
	for _, tok := range tokens[:len(tokens)-1] {
		name := titleCase(tok.Name)

		if tok.HasParameter() {
			name, err = singular(name)
			if err != nil {
				return fmt.Errorf("endpoint %q: %w", ep.Title, err)
			}
			methodName := "Get" + name
			m := class.Method(methodName)
			if m == nil {
				m = &Method{
					Name:          methodName,
					ParameterName: tok.ParameterName,
					Class:         &ClassDefinition{Name: prefix + name},
				}
				class.Methods = append(class.Methods, m)
			}
			class = m.Class
			continue
		}

		p := class.Property(name)
		if p == nil {
			p = &Property{Name: name, Class: &ClassDefinition{Name: prefix + name}}
			class.Properties = append(class.Properties, p)
		}
		class = p.Class
	}

	last := tokens[len(tokens)-1]
	class.Operations = append(class.Operations, Operation{
		Name:       titleCase(last.Name),
		HTTPMethod: ep.HTTPMethod,
		Path:       ep.Path,
		Title:      ep.Title,
	})
	b.log.Debug("endpoint grouped", "title", ep.Title, "level", level, "class", class.Name)
	return nil
}

// Roots returns the root class of every permission level seen so far.
func (b *Builder) Roots() map[PermissionLevel]*ClassDefinition {
	return b.roots
}

// Ordered returns the roots of roots in Levels order, skipping absent levels.
func Ordered(roots map[PermissionLevel]*ClassDefinition) []*ClassDefinition {
	var out []*ClassDefinition
	for _, level := range Levels {
		if root, ok := roots[level]; ok {
			out = append(out, root)
		}
	}
	return out
}
