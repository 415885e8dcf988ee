package namespace

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"dispatch-gateway/internal/model"
)

func TestMemoryScriptLifecycle(t *testing.T) {
	m := NewMemoryClient()

	require.NoError(t, m.PutScript("one", "body"))
	require.NoError(t, m.PutScript("two", "body"))
	require.NoError(t, m.AddTags("one", "cust-a", "basic"))

	names, err := m.ListScripts()
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, names)

	tags, err := m.Tags("one")
	require.NoError(t, err)
	require.Equal(t, []string{"cust-a", "basic"}, tags)

	byTag, err := m.ScriptsByTag("cust-a")
	require.NoError(t, err)
	require.Equal(t, []string{"one"}, byTag)

	// Replacing a body keeps existing tags.
	require.NoError(t, m.PutScript("one", "body v2"))
	tags, err = m.Tags("one")
	require.NoError(t, err)
	require.Contains(t, tags, "cust-a")

	require.NoError(t, m.Reset())
	names, err = m.ListScripts()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestMemoryRejectsEmptyScript(t *testing.T) {
	m := NewMemoryClient()

	err := m.PutScript("blank", "   ")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, 400, upstream.StatusCode)
	require.Contains(t, string(upstream.Payload), "errors")
}

// Resolve never fails; the missing script only surfaces on Invoke.
func TestMemoryLazyResolve(t *testing.T) {
	m := NewMemoryClient()

	handle := m.Resolve("ghost", nil)
	require.NotNil(t, handle)

	_, err := handle.Invoke(httptest.NewRequest("GET", "/dispatch/ghost", nil))
	require.ErrorIs(t, err, ErrScriptNotFound)

	// Uploading after resolve makes the same handle work.
	require.NoError(t, m.PutScript("ghost", "now exists"))
	resp, err := handle.Invoke(httptest.NewRequest("GET", "/dispatch/ghost", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"script":"ghost"`)
}

func TestMemoryInvokeEchoesLimits(t *testing.T) {
	m := NewMemoryClient()
	require.NoError(t, m.PutScript("limited", "x"))

	cpu := 25
	resp, err := m.Resolve("limited", &model.DispatchLimits{CPUMs: &cpu}).
		Invoke(httptest.NewRequest("POST", "/dispatch/limited", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"cpuMs":25`)
	require.Contains(t, string(body), `"method":"POST"`)
}

func TestValidScriptName(t *testing.T) {
	valid := []string{"a", "my-script", "script_2", "a1-b2"}
	invalid := []string{"", "-leading", "Has Caps", "dots.bad", "way/off"}

	for _, name := range valid {
		require.True(t, ValidScriptName(name), name)
	}
	for _, name := range invalid {
		require.False(t, ValidScriptName(name), name)
	}
}
