package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeScript creates an executable shell script and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on Windows")
	}

	path := filepath.Join(t.TempDir(), "esptool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestRunReturnsExitCode(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "success", body: "exit 0", want: 0},
		{name: "failure", body: "exit 3", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScript(t, tt.body)

			code, err := Run(context.Background(), path, []string{"--version"}, WithStdio(nil, nil, nil))
			require.NoError(t, err)
			require.Equal(t, tt.want, code)
		})
	}
}

func TestRunPassesArgumentsVerbatim(t *testing.T) {
	path := writeScript(t, `for a in "$@"; do printf '[%s]\n' "$a"; done`)

	args := []string{"--port", "/dev/tty USB0", "write_flash", "0x0", "$HOME", "'quoted'", ""}

	var stdout bytes.Buffer
	code, err := Run(context.Background(), path, args, WithStdio(nil, &stdout, nil))
	require.NoError(t, err)
	require.Equal(t, 0, code)

	var want strings.Builder
	for _, a := range args {
		want.WriteString("[" + a + "]\n")
	}
	require.Equal(t, want.String(), stdout.String())
}

func TestRunStdioPassThrough(t *testing.T) {
	path := writeScript(t, `read line; echo "out:$line"; echo "err:$line" >&2`)

	var stdout, stderr bytes.Buffer
	code, err := Run(context.Background(), path, nil,
		WithStdio(strings.NewReader("chip esp32\n"), &stdout, &stderr))
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "out:chip esp32\n", stdout.String())
	require.Equal(t, "err:chip esp32\n", stderr.String())
}

func TestRunInheritsEnvAndDir(t *testing.T) {
	path := writeScript(t, `echo "$ESP_CHIP"; pwd`)
	t.Setenv("ESP_CHIP", "esp32s3")
	wd, err := os.Getwd()
	require.NoError(t, err)

	var stdout bytes.Buffer
	_, err = Run(context.Background(), path, nil, WithStdio(nil, &stdout, nil))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "esp32s3", lines[0])

	wantDir, err := filepath.EvalSymlinks(wd)
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(lines[1])
	require.NoError(t, err)
	require.Equal(t, wantDir, gotDir)
}

func TestRunSpawnFailed(t *testing.T) {
	t.Run("missing_executable", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "removed-from-cache", "esptool")

		_, err := Run(context.Background(), missing, []string{"--version"})
		require.ErrorIs(t, err, ErrSpawnFailed)
	})

	t.Run("not_executable", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("execute permission is not checked on Windows")
		}

		path := filepath.Join(t.TempDir(), "esptool")
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0644))

		_, err := Run(context.Background(), path, nil)
		require.ErrorIs(t, err, ErrSpawnFailed)
	})
}

func TestRunContextTimeout(t *testing.T) {
	path := writeScript(t, "sleep 5")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, path, nil, WithStdio(nil, nil, nil))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 4*time.Second)
}
