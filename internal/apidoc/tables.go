package apidoc

import "strings"

// TableKind is the semantic type of a documentation table, derived from its header row.
type TableKind int

const (
	TableUnknown TableKind = iota
	TablePermission
	TableErrorCodes
	TableRequestHeaders
	TablePathParameters
	TableQueryParameters
	TableObject
)

func (k TableKind) String() string {
	switch k {
	case TablePermission:
		return "permission"
	case TableErrorCodes:
		return "error codes"
	case TableRequestHeaders:
		return "request headers"
	case TablePathParameters:
		return "path parameters"
	case TableQueryParameters:
		return "query parameters"
	case TableObject:
		return "object"
	}
	return "unknown"
}

var knownTables = []struct {
	kind    TableKind
	headers []string
}{
	{TablePermission, []string{"Permission"}},
	{TableErrorCodes, []string{"Error Code", "Error Message"}},
	{TableRequestHeaders, []string{"Parameters", "Value", "Required", "Example", "Description"}},
	{TablePathParameters, []string{"Parameters", "Example", "Description"}},
	{TableQueryParameters, []string{"Parameters", "Required", "Example", "Description"}},
	{TableObject, []string{"Parameters", "Type", "Required", "Default", "Description", "Others"}},
}

// ClassifyTable maps a header row to a table kind. Headers must match in
// number and order; case is ignored.
func ClassifyTable(headers []string) TableKind {
	for _, candidate := range knownTables {
		if headersEqual(headers, candidate.headers) {
			return candidate.kind
		}
	}
	return TableUnknown
}

func headersEqual(headers, expected []string) bool {
	if len(headers) != len(expected) {
		return false
	}
	for i := range headers {
		if !strings.EqualFold(headers[i], expected[i]) {
			return false
		}
	}
	return true
}
