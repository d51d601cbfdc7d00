package packs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/packs"
	"github.com/agentguard/dcg/internal/packs/core"
)

// externalPackYAML is a minimal valid external pack document, matching the
// schema internal/packs/external.go expects.
const externalPackYAML = `
schema_version: 1
id: custom.watch_test
name: watch test pack
version: "1.0.0"
keywords:
  - wipeme
destructive_patterns:
  - name: wipe_everything
    pattern: "wipeme"
    severity: high
    description: matched the watch-test destructive pattern
`

func TestWatchExternalDirReloadsOnNewFile(t *testing.T) {
	dir := t.TempDir()
	builtins := []packs.BuiltinLoader{core.Git, core.Filesystem}

	reloaded := make(chan *packs.PackRegistry, 1)
	watcher, err := packs.WatchExternalDir(dir, builtins, func(reg *packs.PackRegistry) {
		reloaded <- reg
	})
	require.NoError(t, err)
	defer watcher.Close()

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(externalPackYAML), 0o644))

	select {
	case reg := <-reloaded:
		_, ok := reg.Get("custom.watch_test")
		require.True(t, ok, "reloaded registry should contain the newly written external pack")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for WatchExternalDir to observe the new file")
	}
}

func TestWatchExternalDirMissingDirErrors(t *testing.T) {
	_, err := packs.WatchExternalDir(filepath.Join(t.TempDir(), "does-not-exist"), nil, func(*packs.PackRegistry) {})
	require.Error(t, err)
}
