package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadProjectConfig(t.TempDir())
	require.NoError(t, err)

	sc := cfg.StructConfig("Config")
	assert.Equal(t, "OptionalConfig", sc.ShadowName)
	assert.True(t, sc.DefaultWrap)

	// The derived name is always exported, even for unexported originals.
	assert.Equal(t, "OptionalConfig", cfg.StructConfig("config").ShadowName)
}

func TestProjectConfigFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte(`defaults:
  prefix: Partial
  default_wrap: false
types:
  Cluster:
    name: ClusterOverlay
    default_wrap: true
`), 0644))

	cfg, err := LoadProjectConfig(dir)
	require.NoError(t, err)

	sc := cfg.StructConfig("Endpoint")
	assert.Equal(t, "PartialEndpoint", sc.ShadowName)
	assert.False(t, sc.DefaultWrap)

	sc = cfg.StructConfig("Cluster")
	assert.Equal(t, "ClusterOverlay", sc.ShadowName)
	assert.True(t, sc.DefaultWrap)
}

func TestProjectConfigMalformedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte("defaults: [nope"), 0644))

	_, err := LoadProjectConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ProjectConfigFile)
}
