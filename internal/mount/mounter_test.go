package mount

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/esptools/internal/runner"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

func TestMountAllSingleton(t *testing.T) {
	bundle := newFakeBundle(t, map[tool.Tool]string{
		tool.EspTool:   "esptool",
		tool.EspSecure: "espsecure",
	})
	m := NewMounter(newTestSession(t, bundle, Options{}))

	h, err := m.MountAll([]tool.Tool{tool.EspTool, tool.EspSecure})
	require.NoError(t, err)
	require.Len(t, h.Tools(), 2)
	assert.True(t, m.Active())

	_, err = m.MountAll([]tool.Tool{tool.EspTool})
	require.ErrorIs(t, err, ErrAlreadyMounted)

	h.Release()
	assert.False(t, m.Active())

	h2, err := m.MountAll([]tool.Tool{tool.EspTool})
	require.NoError(t, err)
	defer h2.Release()

	assert.Equal(t, 1, bundle.openCount(tool.EspTool), "second mount must hit the cache")
}

func TestHandleReleaseIsIdempotent(t *testing.T) {
	bundle := newFakeBundle(t, map[tool.Tool]string{tool.EspTool: "esptool"})
	s := newTestSession(t, bundle, Options{})
	m := NewMounter(s)

	h, err := m.MountAll([]tool.Tool{tool.EspTool})
	require.NoError(t, err)

	h.Release()
	h2, err := m.MountAll([]tool.Tool{tool.EspTool})
	require.NoError(t, err)

	// A stale handle must not release the newer mount.
	h.Release()
	assert.True(t, m.Active())
	assert.Equal(t, []tool.Tool{tool.EspTool}, s.Mounted())

	h2.Release()
	assert.Empty(t, s.Mounted())
}

func TestMountAllFailureLeavesMounterFree(t *testing.T) {
	bundle := newFakeBundle(t, map[tool.Tool]string{tool.EspTool: "esptool"})
	s := newTestSession(t, bundle, Options{})
	m := NewMounter(s)

	_, err := m.MountAll([]tool.Tool{tool.EspTool, tool.EspEfuse})
	require.ErrorIs(t, err, ErrUnknownTool)
	assert.False(t, m.Active())
	assert.Empty(t, s.Mounted(), "tools mounted before the failure must be forgotten")

	h, err := m.MountAll([]tool.Tool{tool.EspTool})
	require.NoError(t, err)
	h.Release()
}

func TestHandleTool(t *testing.T) {
	bundle := newFakeBundle(t, map[tool.Tool]string{tool.EspTool: "esptool"})
	m := NewMounter(newTestSession(t, bundle, Options{}))

	h, err := m.MountAll([]tool.Tool{tool.EspTool})
	require.NoError(t, err)
	defer h.Release()

	mt, err := h.Tool(tool.EspTool)
	require.NoError(t, err)
	assert.Equal(t, tool.EspTool, mt.Tool)

	_, err = h.Tool(tool.EspEfuse)
	require.Error(t, err)
}

func TestMountedToolExec(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on Windows")
	}

	bundle := newFakeBundle(t, map[tool.Tool]string{
		tool.EspTool: "#!/bin/sh\necho \"esptool $*\"\nexit 7\n",
	})
	s := newTestSession(t, bundle, Options{Fs: afero.NewOsFs(), CacheDir: t.TempDir()})

	mt, err := s.Mount(tool.EspTool)
	require.NoError(t, err)

	var stdout bytes.Buffer
	code, err := mt.Exec(context.Background(), []string{"chip_id"}, runner.WithStdio(nil, &stdout, nil))
	require.NoError(t, err)
	assert.Equal(t, 7, code)
	assert.Equal(t, "esptool chip_id\n", stdout.String())
}

func TestMountAllFailureKeepsEarlierMounts(t *testing.T) {
	bundle := newFakeBundle(t, map[tool.Tool]string{
		tool.EspTool:   "esptool",
		tool.EspSecure: "espsecure",
	})
	s := newTestSession(t, bundle, Options{})
	_, err := s.Mount(tool.EspSecure)
	require.NoError(t, err)

	m := NewMounter(s)
	_, err = m.MountAll([]tool.Tool{tool.EspSecure, tool.EspTool, tool.EspIdfNvs})
	require.ErrorIs(t, err, ErrUnknownTool)

	assert.Equal(t, []tool.Tool{tool.EspSecure}, s.Mounted())
}

func TestMountedToolLiteralExec(t *testing.T) {
	mt := &MountedTool{
		Tool: tool.EspTool,
		Path: filepath.Join(t.TempDir(), "missing", "esptool"),
	}

	_, err := mt.Exec(context.Background(), []string{"--version"})
	require.ErrorIs(t, err, runner.ErrSpawnFailed)
}
