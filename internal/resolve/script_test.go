package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptReturnsIdentity(t *testing.T) {
	s := NewScript(`"vendor/" + specifier + ".d.ts"`, "<inline>", nil)

	got, err := s.Resolve(context.Background(), "jquery", "src/main.ts")
	require.NoError(t, err)
	assert.Equal(t, "vendor/jquery.d.ts", got)
}

func TestScriptSeesParent(t *testing.T) {
	s := NewScript(`parent + "!" + specifier`, "<inline>", nil)

	got, err := s.Resolve(context.Background(), "./x", "src/main.ts")
	require.NoError(t, err)
	assert.Equal(t, "src/main.ts!./x", got)
}

func TestScriptDefersToFallback(t *testing.T) {
	script := `
if specifier == "special" {
	"vendor/special.d.ts"
} else {
	nil
}
`
	s := NewScript(script, "<inline>", NewPaths(nil))

	got, err := s.Resolve(context.Background(), "special", "src/main.ts")
	require.NoError(t, err)
	assert.Equal(t, "vendor/special.d.ts", got)

	got, err = s.Resolve(context.Background(), "./plain", "src/main.ts")
	require.NoError(t, err)
	assert.Equal(t, "src/plain.ts", got)
}

func TestScriptEmptyStringDefers(t *testing.T) {
	s := NewScript(`""`, "<inline>", NewPaths(nil))

	got, err := s.Resolve(context.Background(), "./x", "src/main.ts")
	require.NoError(t, err)
	assert.Equal(t, "src/x.ts", got)
}

func TestScriptDeferMatchesPathResolver(t *testing.T) {
	paths := NewPaths(nil)
	s := NewScript(`nil`, "<inline>", paths)

	for _, spec := range []string{"./lib/util", "../shared.ts", "./mod"} {
		want, err := paths.Resolve(context.Background(), spec, "src/main.ts")
		require.NoError(t, err)
		got, err := s.Resolve(context.Background(), spec, "src/main.ts")
		require.NoError(t, err)
		assert.Equal(t, want, got, spec)
	}
}

func TestScriptDeferWithoutFallbackFails(t *testing.T) {
	s := NewScript(`nil`, "custom.risor", nil)

	_, err := s.Resolve(context.Background(), "./x", "src/main.ts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom.risor")
	assert.Contains(t, err.Error(), "no result")
}

func TestScriptNonStringResultFails(t *testing.T) {
	s := NewScript(`42`, "custom.risor", nil)

	_, err := s.Resolve(context.Background(), "./x", "src/main.ts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want string result")
}

func TestScriptEvalErrorWraps(t *testing.T) {
	s := NewScript(`no_such_name + 1`, "custom.risor", nil)

	_, err := s.Resolve(context.Background(), "./x", "src/main.ts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolver script custom.risor")
}
