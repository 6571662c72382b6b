// Package config loads opcount settings and the per-test instruction limits.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "opcount.yaml"

// NoLimit means a test has no upper bound on its instruction count.
const NoLimit = -1

// Config is the content of an opcount.yaml file.
//
//	toolset: gcc
//	matcher: prefix
//	limits:
//	  test_nested:
//	    gcc: 0
//	    clang: 0
type Config struct {
	Toolset  string                    `yaml:"toolset" json:"toolset,omitempty" jsonschema:"title=Toolset,description=Compiler toolset used to select limits; defaults to $TOOLSET"`
	Matcher  string                    `yaml:"matcher" json:"matcher,omitempty" jsonschema:"title=Matcher,description=Function name matching strategy,enum=prefix,enum=exact,enum=demangled"`
	Fallback []string                  `yaml:"fallback" json:"fallback,omitempty" jsonschema:"title=Fallback Matchers,description=Matchers tried in order when the primary one finds nothing"`
	Strict   bool                      `yaml:"strict" json:"strict,omitempty" jsonschema:"title=Strict,description=Fail when a dump defines a label twice"`
	Debug    bool                      `yaml:"debug" json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
	LogFile  string                    `yaml:"log_file" json:"logFile,omitempty" jsonschema:"title=Log File,description=Write process logs to this file instead of stderr"`
	Jobs     int                       `yaml:"jobs" json:"jobs,omitempty" jsonschema:"title=Jobs,description=Number of dumps checked in parallel,minimum=1"`
	Limits   map[string]map[string]int `yaml:"limits" json:"limits,omitempty" jsonschema:"title=Limits,description=Maximum instruction count per test and toolset"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Toolset: os.Getenv("TOOLSET"),
		Matcher: "prefix",
		Jobs:    4,
		Limits:  map[string]map[string]int{},
	}
}

// Load reads path over the defaults. An empty path reads DefaultFile if it
// exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Limits == nil {
		cfg.Limits = map[string]map[string]int{}
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	return cfg, nil
}

// Limit returns the instruction limit of test under toolset, or NoLimit.
func (c *Config) Limit(test, toolset string) int {
	if c == nil {
		return NoLimit
	}
	if toolset == "" {
		toolset = c.Toolset
	}
	perToolset, ok := c.Limits[test]
	if !ok {
		return NoLimit
	}
	if n, ok := perToolset[toolset]; ok {
		return n
	}
	return NoLimit
}
