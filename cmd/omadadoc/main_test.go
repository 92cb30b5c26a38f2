package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePath = "../../internal/apidoc/testdata/omada_api.html"

func TestAssignment(t *testing.T) {
	name, value, err := assignment("siteId=a=b")
	require.NoError(t, err)
	assert.Equal(t, "siteId", name)
	assert.Equal(t, "a=b", value)

	for _, bad := range []string{"siteId", "=x"} {
		_, _, err := assignment(bad)
		assert.Error(t, err, bad)
	}
}

func TestCallURL(t *testing.T) {
	u, err := callURL("/{omadacId}/api/v2/sites/{siteId}/stat/traffic", []string{"siteId=s1"}, []string{"start=10"})
	require.NoError(t, err)
	assert.True(t, u.RequiresControllerID())

	got, err := u.WithPathParameter("omadacId", "c1")
	require.NoError(t, err)
	target, err := got.Build("https://controller:8043")
	require.NoError(t, err)
	assert.Equal(t, "https://controller:8043/c1/api/v2/sites/s1/stat/traffic?start=10", target)

	_, err = callURL("/api/info", []string{"siteId=s1"}, nil)
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	v := map[string]int{"a": 1}

	var buf bytes.Buffer
	require.NoError(t, encode(&buf, "json", v))
	assert.JSONEq(t, `{"a":1}`, buf.String())

	buf.Reset()
	require.NoError(t, encode(&buf, "yaml", v))
	assert.Equal(t, "a: 1\n", buf.String())

	assert.Error(t, encode(&buf, "xml", v))
}

func TestParseCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc.json")
	rootCmd.SetArgs([]string{"parse", fixturePath, "-o", out, "--log-level", "error"})
	t.Cleanup(func() { outputPath = "" })
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc struct {
		Version  string `json:"version"`
		Sections []struct {
			Title string `json:"title"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "5.4.6", doc.Version)
	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Admins", doc.Sections[0].Title)
}
