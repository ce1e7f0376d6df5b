package codegen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"
)

// ProjectConfigFile is the optional per-package configuration file consulted
// for struct-level defaults and overrides.
const ProjectConfigFile = "optionalstruct.yaml"

// ProjectConfig holds defaults and per-type overrides loaded from
// optionalstruct.yaml. Flags beat the file, the file beats built-ins.
type ProjectConfig struct {
	Defaults struct {
		// Prefix is prepended to the original type name to derive the
		// shadow type name. Defaults to "Optional".
		Prefix string `yaml:"prefix"`
		// DefaultWrap is the package-wide default for fields without a
		// directive. Defaults to true.
		DefaultWrap *bool `yaml:"default_wrap"`
	} `yaml:"defaults"`
	Types map[string]TypeOverride `yaml:"types"`
}

// TypeOverride customizes generation for a single struct type.
type TypeOverride struct {
	Name        string `yaml:"name"`
	DefaultWrap *bool  `yaml:"default_wrap"`
}

// LoadProjectConfig reads optionalstruct.yaml from the source directory. A
// missing file yields the built-in defaults.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	var cfg ProjectConfig
	data, err := os.ReadFile(filepath.Join(dir, ProjectConfigFile))
	if errors.Is(err, fs.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ProjectConfigFile, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ProjectConfigFile, err)
	}
	return &cfg, nil
}

// StructConfig resolves the effective struct-level configuration for a type.
func (c *ProjectConfig) StructConfig(typeName string) StructConfig {
	out := StructConfig{
		ShadowName:  c.shadowName(typeName),
		DefaultWrap: true,
	}
	if c.Defaults.DefaultWrap != nil {
		out.DefaultWrap = *c.Defaults.DefaultWrap
	}
	if t, ok := c.Types[typeName]; ok {
		if t.Name != "" {
			out.ShadowName = t.Name
		}
		if t.DefaultWrap != nil {
			out.DefaultWrap = *t.DefaultWrap
		}
	}
	return out
}

func (c *ProjectConfig) shadowName(typeName string) string {
	prefix := c.Defaults.Prefix
	if prefix == "" {
		prefix = "Optional"
	}
	return prefix + inflect.Capitalize(typeName)
}
