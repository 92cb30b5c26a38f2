// Package openapi converts extracted API documentation into an OpenAPI 3
// document.
package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/dgallion1/omadadoc/internal/apidoc"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

const (
	defaultTitle      = "Omada SDN Controller API"
	defaultMediaType  = "application/json"
	errorCodesExtName = "x-error-codes"
)

// methods are the HTTP methods a path item can hold.
var methods = map[string]bool{
	http.MethodConnect: true,
	http.MethodDelete:  true,
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodPatch:   true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodTrace:   true,
}

// Build assembles the OpenAPI document for every endpoint of doc.
func Build(doc *apidoc.Documentation) (*openapi3.T, error) {
	version, err := doc.Version()
	if err != nil {
		return nil, err
	}
	sections, err := doc.Sections()
	if err != nil {
		return nil, err
	}

	spec := &openapi3.T{
		OpenAPI:    "3.0.3",
		Info:       &openapi3.Info{Title: defaultTitle, Version: version},
		Components: &openapi3.Components{},
		Paths:      openapi3.NewPaths(),
	}

	operationIDs := make(map[string]int)
	for _, section := range sections {
		spec.Tags = append(spec.Tags, &openapi3.Tag{Name: section.Title})
		for _, ep := range section.Endpoints {
			if !methods[ep.HTTPMethod] {
				return nil, fmt.Errorf("endpoint %q: unsupported HTTP method %q", ep.Title, ep.HTTPMethod)
			}
			op := buildOperation(section.Title, ep)
			op.OperationID = uniqueID(operationIDs, op.OperationID)

			item := spec.Paths.Value(ep.Path)
			if item == nil {
				item = &openapi3.PathItem{}
				spec.Paths.Set(ep.Path, item)
			}
			if item.GetOperation(ep.HTTPMethod) != nil {
				return nil, fmt.Errorf("endpoint %q: %s %s is documented twice", ep.Title, ep.HTTPMethod, ep.Path)
			}
			item.SetOperation(ep.HTTPMethod, op)
		}
	}
	return spec, nil
}

// MarshalYAML renders spec as YAML, keeping the field order of its JSON form.
func MarshalYAML(spec *openapi3.T) ([]byte, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("convert openapi to yaml: %w", err)
	}
	return yaml.Marshal(&node)
}

func buildOperation(section string, ep apidoc.Endpoint) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.Summary = ep.Title
	op.Description = ep.Permissions
	op.Tags = []string{section}
	op.OperationID = OperationID(ep.Title)

	mediaType := defaultMediaType
	for _, h := range ep.RequestHeaders {
		if strings.EqualFold(h.Name, "Content-Type") {
			if h.Value != "" {
				mediaType = h.Value
			}
			continue
		}
		p := openapi3.NewHeaderParameter(h.Name).WithRequired(h.IsRequired).WithDescription(h.Description)
		p.Schema = openapi3.NewStringSchema().NewRef()
		if h.Value != "" {
			p.Schema.Value.Enum = []any{h.Value}
		}
		op.AddParameter(p)
	}

	declared := make(map[string]bool)
	for _, pp := range ep.RequestPathParameters {
		declared[pp.Name] = true
		p := openapi3.NewPathParameter(pp.Name).WithDescription(pp.Description).WithSchema(openapi3.NewStringSchema())
		if pp.Example != "" {
			p.Example = pp.Example
		}
		op.AddParameter(p)
	}
	for _, name := range placeholders(ep.Path) {
		if !declared[name] {
			op.AddParameter(openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()))
		}
	}

	for _, qp := range ep.RequestQueryParameters {
		p := openapi3.NewQueryParameter(qp.Name).WithRequired(qp.IsRequired).WithDescription(qp.Description).WithSchema(openapi3.NewStringSchema())
		if qp.Example != "" {
			p.Example = qp.Example
		}
		op.AddParameter(p)
	}

	if ep.RequestBody != nil {
		body := openapi3.NewRequestBody().
			WithContent(openapi3.NewContentWithSchema(ObjectSchema(ep.RequestBody), []string{mediaType}))
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}

	resp := openapi3.NewResponse().WithDescription("Successful response")
	if ep.ResponseBody != nil {
		resp = resp.WithJSONSchema(ObjectSchema(ep.ResponseBody))
	}
	op.Responses = openapi3.NewResponses(openapi3.WithStatus(200, &openapi3.ResponseRef{Value: resp}))

	if len(ep.ErrorMessages) > 0 {
		codes := make([]map[string]any, 0, len(ep.ErrorMessages))
		for _, em := range ep.ErrorMessages {
			codes = append(codes, map[string]any{"code": em.Code, "message": em.Message})
		}
		op.Extensions = map[string]any{errorCodesExtName: codes}
	}
	return op
}

// ObjectSchema converts a documented object into a JSON schema object.
func ObjectSchema(o *apidoc.ObjectSchema) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	if o == nil {
		return s
	}
	for _, p := range o.Properties {
		s.WithProperty(p.Name, PropertySchema(p))
		if p.IsRequired {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

// PropertySchema maps a documented property type to a schema. Unknown
// types produce an unconstrained schema.
func PropertySchema(p apidoc.Property) *openapi3.Schema {
	base := strings.ToLower(p.BaseType())

	item := scalarSchema(base)
	if p.IsComplexType() {
		item = ObjectSchema(p.ComplexType)
	}
	if d, ok := typedDefault(base, p.Default); ok {
		item.Default = d
	}

	s := item
	if p.IsArray() {
		s = openapi3.NewArraySchema().WithItems(item)
	} else if base == "array" {
		s = openapi3.NewArraySchema().WithItems(openapi3.NewSchema())
	}
	s.Description = p.Description
	return s
}

func scalarSchema(base string) *openapi3.Schema {
	switch base {
	case "string":
		return openapi3.NewStringSchema()
	case "int", "integer":
		return openapi3.NewIntegerSchema()
	case "long":
		return openapi3.NewInt64Schema()
	case "number", "float", "double":
		return openapi3.NewFloat64Schema()
	case "boolean", "bool":
		return openapi3.NewBoolSchema()
	case "object", "map":
		return openapi3.NewObjectSchema()
	}
	return openapi3.NewSchema()
}

// typedDefault parses the documented default into the schema's type and
// drops it when it does not parse.
func typedDefault(base, raw string) (any, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	switch base {
	case "string":
		return raw, true
	case "int", "integer", "long":
		n, err := strconv.ParseInt(raw, 10, 64)
		return n, err == nil
	case "number", "float", "double":
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil
	case "boolean", "bool":
		b, err := strconv.ParseBool(raw)
		return b, err == nil
	}
	return nil, false
}

// OperationID turns an endpoint title into a lower camel case identifier,
// e.g. "Edit an Admin Account" becomes "editAnAdminAccount".
func OperationID(title string) string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

func uniqueID(seen map[string]int, id string) string {
	if seen[id] == 0 {
		seen[id] = 1
		return id
	}
	for {
		seen[id]++
		candidate := id + strconv.Itoa(seen[id])
		if seen[candidate] == 0 {
			seen[candidate] = 1
			return candidate
		}
	}
}

// placeholders returns the names of the {placeholders} in path, in order.
func placeholders(path string) []string {
	var names []string
	for _, seg := range strings.Split(path, "/") {
		if len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			names = append(names, seg[1:len(seg)-1])
		}
	}
	return names
}
