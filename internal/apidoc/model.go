package apidoc

import "strings"

// Section is a top-level group of endpoints, e.g. "Admins".
type Section struct {
	Title     string     `json:"title" yaml:"title"`
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Endpoint is one documented API operation.
type Endpoint struct {
	Title                  string         `json:"title" yaml:"title"`
	Path                   string         `json:"path" yaml:"path"`
	HTTPMethod             string         `json:"http_method" yaml:"http_method"`
	Permissions            string         `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	ErrorMessages          []ErrorMessage `json:"error_messages,omitempty" yaml:"error_messages,omitempty"`
	RequestHeaders         []Header       `json:"request_headers,omitempty" yaml:"request_headers,omitempty"`
	RequestPathParameters  []PathParam    `json:"request_path_parameters,omitempty" yaml:"request_path_parameters,omitempty"`
	RequestQueryParameters []QueryParam   `json:"request_query_parameters,omitempty" yaml:"request_query_parameters,omitempty"`
	RequestBody            *ObjectSchema  `json:"request_body,omitempty" yaml:"request_body,omitempty"`
	ResponseBody           *ObjectSchema  `json:"response_body,omitempty" yaml:"response_body,omitempty"`
}

type ErrorMessage struct {
	Code    int    `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

type Header struct {
	Name        string `json:"name" yaml:"name"`
	Value       string `json:"value" yaml:"value"`
	IsRequired  bool   `json:"is_required" yaml:"is_required"`
	Example     string `json:"example,omitempty" yaml:"example,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type PathParam struct {
	Name        string `json:"name" yaml:"name"`
	Example     string `json:"example,omitempty" yaml:"example,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type QueryParam struct {
	Name        string `json:"name" yaml:"name"`
	IsRequired  bool   `json:"is_required" yaml:"is_required"`
	Example     string `json:"example,omitempty" yaml:"example,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ObjectSchema describes a JSON object as an ordered list of properties.
type ObjectSchema struct {
	Properties []Property `json:"properties" yaml:"properties"`
}

// Property is one row of a request or response parameter table. Nested
// objects hang off ComplexType.
type Property struct {
	Name        string        `json:"name" yaml:"name"`
	Type        string        `json:"type" yaml:"type"`
	IsRequired  bool          `json:"is_required" yaml:"is_required"`
	Default     string        `json:"default,omitempty" yaml:"default,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Other       string        `json:"other,omitempty" yaml:"other,omitempty"`
	ComplexType *ObjectSchema `json:"complex_type,omitempty" yaml:"complex_type,omitempty"`
}

// BaseType is Type without any array brackets, e.g. "object" for "object[]".
func (p Property) BaseType() string {
	return strings.TrimRight(p.Type, "[] ")
}

func (p Property) IsArray() bool {
	return strings.HasSuffix(p.Type, "]")
}

func (p Property) IsComplexType() bool {
	return p.ComplexType != nil
}

// Property returns the property with the given name, if any.
func (o *ObjectSchema) Property(name string) (Property, bool) {
	if o == nil {
		return Property{}, false
	}
	for _, p := range o.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}
