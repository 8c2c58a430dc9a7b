/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/


package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dirpx.dev/tuneref/apis"
)

// EnvConfigPath names the environment variable holding the config file path
// when no --config flag is given.
const EnvConfigPath = "TUNEREF_CONFIG"

// ErrNoConfigPath is returned by Load when neither a path nor
// EnvConfigPath is set.
var ErrNoConfigPath = errors.New("tuneref(config): no config file given")

// File is the on-disk configuration read by the tuneref command.
//
//	registry: /etc/tuneref/tunings.yaml
//	log_level: info
//	limits:
//	  max_id_length: 256
//	  max_scale_size: 128
type File struct {
	// Registry is the path of the registry file to load.
	// Relative paths are resolved against the config file's directory.
	Registry string `yaml:"registry"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Limits overrides apis.Config limits. Zero values keep the defaults.
	Limits Limits `yaml:"limits"`
}

// Limits mirrors the numeric fields of apis.Config.
type Limits struct {
	MaxIDLength  int `yaml:"max_id_length"`
	MaxScaleSize int `yaml:"max_scale_size"`
}

// Validate checks for invalid configuration values.
func (f *File) Validate() error {
	if f.Limits.MaxIDLength < 0 {
		return fmt.Errorf("limits.max_id_length must be >= 0, got %d", f.Limits.MaxIDLength)
	}
	if f.Limits.MaxScaleSize < 0 {
		return fmt.Errorf("limits.max_scale_size must be >= 0, got %d", f.Limits.MaxScaleSize)
	}
	switch f.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", f.LogLevel)
	}
	return nil
}

// Config returns the apis.Config described by f.
func (f *File) Config() apis.Config {
	return NewConfig(
		WithMaxIDLength(f.Limits.MaxIDLength),
		WithMaxScaleSize(f.Limits.MaxScaleSize),
	)
}

// Load reads the config file at path, or at $TUNEREF_CONFIG when path is
// empty. There is no search path and no implicit default file.
func Load(path string) (*File, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return nil, ErrNoConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tuneref(config): read %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("tuneref(config): %s: %w", path, err)
	}
	if f.Registry != "" && !filepath.IsAbs(f.Registry) {
		f.Registry = filepath.Join(filepath.Dir(path), f.Registry)
	}
	return f, nil
}

// Parse decodes and validates a YAML config document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}
