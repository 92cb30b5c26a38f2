package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Build(t *testing.T) {
	u, err := NewURL("/{omadacId}/api/v2/sites/{siteId}").WithPathParameter("siteId", "a b")
	require.NoError(t, err)
	u = u.WithQueryParameter("page", "1").WithQueryParameter("pageSize", "10")

	assert.True(t, u.RequiresControllerID())
	got, err := u.Build("https://controller.local:8043/some/path?x=1")
	require.NoError(t, err)
	assert.Equal(t, "https://controller.local:8043/{omadacId}/api/v2/sites/a%20b?page=1&pageSize=10", got)

	u, err = u.WithPathParameter(ControllerIDParameter, "cid")
	require.NoError(t, err)
	assert.False(t, u.RequiresControllerID())
	got, err = u.Build("https://controller.local:8043")
	require.NoError(t, err)
	assert.Equal(t, "https://controller.local:8043/cid/api/v2/sites/a%20b?page=1&pageSize=10", got)
}

func TestURL_IsImmutable(t *testing.T) {
	base := NewURL("/{omadacId}/api/v2/sites/{siteId}")
	a, err := base.WithPathParameter("siteId", "a")
	require.NoError(t, err)
	_, err = a.WithPathParameter("siteId", "b")
	require.NoError(t, err)

	got, err := a.Build("http://h")
	require.NoError(t, err)
	assert.Equal(t, "http://h/{omadacId}/api/v2/sites/a", got)

	_, err = base.Build("http://h")
	assert.Error(t, err)
}

func TestURL_Errors(t *testing.T) {
	_, err := NewURL("/api/info").WithPathParameter("siteId", "x")
	assert.ErrorContains(t, err, "{siteId}")

	_, err = NewURL("/{omadacId}/api/v2/sites/{siteId}").Build("http://h")
	assert.ErrorContains(t, err, "siteId")

	_, err = NewURL("/api/info").Build("not a url")
	assert.Error(t, err)
}

func TestNewURL_AddsLeadingSlash(t *testing.T) {
	assert.Equal(t, "/{omadacId}/api/v2/login", NewURL("{omadacId}/api/v2/login").Path())
}
