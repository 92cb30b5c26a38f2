package openapi

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/dgallion1/omadadoc/internal/apidoc"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func buildFixture(t *testing.T) *openapi3.T {
	t.Helper()
	f, err := os.Open("../apidoc/testdata/omada_api.html")
	require.NoError(t, err)
	defer f.Close()
	doc, err := apidoc.Parse(f)
	require.NoError(t, err)

	spec, err := Build(doc)
	require.NoError(t, err)
	return spec
}

func TestBuild_Document(t *testing.T) {
	spec := buildFixture(t)

	assert.Equal(t, "5.4.6", spec.Info.Version)
	assert.Equal(t, 6, spec.Paths.Len())
	require.Len(t, spec.Tags, 3)
	assert.Equal(t, "Admins", spec.Tags[0].Name)

	err := spec.Validate(context.Background(),
		openapi3.DisableExamplesValidation(),
		openapi3.DisableSchemaDefaultsValidation(),
	)
	assert.NoError(t, err)
}

func TestBuild_EditOperation(t *testing.T) {
	spec := buildFixture(t)

	item := spec.Paths.Value("/{omadacId}/api/v2/users/{userID}")
	require.NotNil(t, item)
	op := item.Patch
	require.NotNil(t, op)

	assert.Equal(t, "Edit an Admin Account", op.Summary)
	assert.Equal(t, "editAnAdminAccount", op.OperationID)
	assert.Equal(t, []string{"Admins"}, op.Tags)
	assert.Equal(t, "Login is required.", op.Description)

	// Content-Type is carried by the request body media type.
	require.Len(t, op.Parameters, 2)
	for _, p := range op.Parameters {
		assert.Equal(t, openapi3.ParameterInPath, p.Value.In)
		assert.True(t, p.Value.Required)
	}
	require.NotNil(t, op.RequestBody)
	assert.NotNil(t, op.RequestBody.Value.Content.Get("application/json"))

	resp := op.Responses.Status(200)
	require.NotNil(t, resp)
	schema := resp.Value.Content.Get("application/json").Schema.Value
	assert.Equal(t, []string{"errorCode"}, schema.Required)
	assert.True(t, schema.Properties["errorCode"].Value.Type.Is(openapi3.TypeInteger))

	codes, ok := op.Extensions["x-error-codes"].([]map[string]any)
	require.True(t, ok)
	assert.Equal(t, -30109, codes[0]["code"])
}

func TestBuild_NestedRequestBody(t *testing.T) {
	spec := buildFixture(t)

	op := spec.Paths.Value("/{omadacId}/api/v2/users").Post
	require.NotNil(t, op)
	body := op.RequestBody.Value.Content.Get("application/json").Schema.Value
	assert.ElementsMatch(t, []string{"type", "name", "privilege"}, body.Required)

	privilege := body.Properties["privilege"].Value
	assert.True(t, privilege.Type.Is(openapi3.TypeObject))
	assert.Equal(t, []string{"role"}, privilege.Required)
	assert.Equal(t, int64(0), privilege.Properties["role"].Value.Default)
	assert.Equal(t, false, privilege.Properties["allSite"].Value.Default)

	sites := privilege.Properties["sites"].Value
	assert.True(t, sites.Type.Is(openapi3.TypeArray))
	assert.Equal(t, "Sites the admin can access", sites.Description)
	items := sites.Items.Value
	assert.True(t, items.Type.Is(openapi3.TypeObject))
	assert.Contains(t, items.Properties, "siteId")
	assert.Equal(t, []string{"siteId"}, items.Required)
}

func TestBuild_MissingPathParametersAreSynthesized(t *testing.T) {
	spec := buildFixture(t)

	op := spec.Paths.Value("/{omadacId}/api/v2/users/reviews").Post
	require.NotNil(t, op)
	p := op.Parameters.GetByInAndName(openapi3.ParameterInPath, "omadacId")
	require.NotNil(t, p)
	assert.True(t, p.Required)
}

func TestBuild_QueryParameters(t *testing.T) {
	spec := buildFixture(t)

	op := spec.Paths.Value("/{omadacId}/api/v2/sites/{siteId}/stat/traffic").Get
	require.NotNil(t, op)
	start := op.Parameters.GetByInAndName(openapi3.ParameterInQuery, "start")
	require.NotNil(t, start)
	assert.True(t, start.Required)
	assert.Equal(t, "1682000000", start.Example)
}

func buildString(t *testing.T, body string) (*openapi3.T, error) {
	t.Helper()
	src := `<html><head><title>Doc V1.0.0</title></head><body><h1>Section</h1>` + body + `</body></html>`
	doc, err := apidoc.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return Build(doc)
}

func endpointHTML(title, method string) string {
	return `<h2>` + title + `</h2><h3>Basic Information</h3>
<p><strong>Path:</strong> /{omadacId}/api/v2/things</p>
<p><strong>Method:</strong> ` + method + `</p>`
}

func TestBuild_DuplicateMethodAndPath(t *testing.T) {
	_, err := buildString(t, endpointHTML("Get Things", "GET")+endpointHTML("List Things", "GET"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "List Things")
	assert.Contains(t, err.Error(), "documented twice")
}

func TestBuild_UnsupportedMethod(t *testing.T) {
	for _, method := range []string{"GET/POST", "FETCH"} {
		t.Run(method, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = buildString(t, endpointHTML("Get Things", method))
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), `"Get Things"`)
			assert.Contains(t, err.Error(), method)
		})
	}
}

func TestPropertySchema_Types(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{"string", openapi3.TypeString},
		{"int", openapi3.TypeInteger},
		{"Integer", openapi3.TypeInteger},
		{"long", openapi3.TypeInteger},
		{"double", openapi3.TypeNumber},
		{"float", openapi3.TypeNumber},
		{"bool", openapi3.TypeBoolean},
		{"boolean", openapi3.TypeBoolean},
		{"string[]", openapi3.TypeArray},
		{"array", openapi3.TypeArray},
		{"object", openapi3.TypeObject},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			s := PropertySchema(apidoc.Property{Name: "x", Type: tt.typ})
			assert.True(t, s.Type.Is(tt.want), "got %v", s.Type)
		})
	}

	unknown := PropertySchema(apidoc.Property{Name: "x", Type: "whatever"})
	assert.Nil(t, unknown.Type)

	arr := PropertySchema(apidoc.Property{Name: "x", Type: "int[]"})
	assert.True(t, arr.Items.Value.Type.Is(openapi3.TypeInteger))
}

func TestPropertySchema_BadDefaultDropped(t *testing.T) {
	s := PropertySchema(apidoc.Property{Name: "x", Type: "int", Default: "none"})
	assert.Nil(t, s.Default)
}

func TestOperationID(t *testing.T) {
	assert.Equal(t, "editAnAdminAccount", OperationID("Edit an Admin Account"))
	assert.Equal(t, "sendSMSVerificationCodePortalSendSmsAuthCode", OperationID("Send SMS Verification Code (/portal/sendSmsAuthCode)"))
	assert.Equal(t, "", OperationID("  "))
}

func TestUniqueID(t *testing.T) {
	seen := map[string]int{}
	assert.Equal(t, "getSite", uniqueID(seen, "getSite"))
	assert.Equal(t, "getSite2", uniqueID(seen, "getSite"))
	assert.Equal(t, "getSite3", uniqueID(seen, "getSite"))
}

func TestUniqueID_NumberedTitleClash(t *testing.T) {
	seen := map[string]int{}
	got := []string{
		uniqueID(seen, "foo"),
		uniqueID(seen, "foo"),
		uniqueID(seen, "foo2"),
		uniqueID(seen, "foo"),
	}
	assert.Equal(t, []string{"foo", "foo2", "foo22", "foo3"}, got)

	seen = map[string]int{}
	assert.Equal(t, "foo2", uniqueID(seen, "foo2"))
	assert.Equal(t, "foo", uniqueID(seen, "foo"))
	assert.Equal(t, "foo3", uniqueID(seen, "foo"))
}

func TestMarshalYAML(t *testing.T) {
	spec := buildFixture(t)

	data, err := MarshalYAML(spec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "3.0.3", decoded["openapi"])

	raw, err := json.Marshal(spec)
	require.NoError(t, err)
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(raw, &fromJSON))
	assert.Len(t, decoded["paths"], len(fromJSON["paths"].(map[string]any)))
}
