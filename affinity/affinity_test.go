package affinity

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-rt/api"
)

func TestPinUnpin(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("pinning verified on linux only")
	}
	cpus, err := Allowed()
	require.NoError(t, err)
	require.NotEmpty(t, cpus)

	p := New()
	require.NoError(t, p.Pin(cpus[0]))
	assert.ErrorIs(t, p.Pin(cpus[0]), api.ErrAlreadyExists)
	require.NoError(t, p.Unpin())
	require.NoError(t, p.Unpin(), "second unpin is a no-op")
}

func TestPinRejectsNegativeCPU(t *testing.T) {
	assert.ErrorIs(t, New().Pin(-1), api.ErrInvalidArgument)
}
