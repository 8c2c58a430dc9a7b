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
	"dirpx.dev/tuneref/apis"
	"dirpx.dev/tuneref/wire"
)

const (
	// DefaultMaxIDLength represents the default for MaxIDLength.
	// It matches the wire string limit so every registered id can be sent.
	DefaultMaxIDLength = wire.DefaultMaxStringLength
	// DefaultMaxScaleSize represents the default for MaxScaleSize.
	DefaultMaxScaleSize = wire.DefaultMaxElements
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	// Ensure limits are valid.
	if cfg.MaxIDLength <= 0 {
		cfg.MaxIDLength = DefaultMaxIDLength
	}
	if cfg.MaxScaleSize <= 0 {
		cfg.MaxScaleSize = DefaultMaxScaleSize
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		MaxIDLength:  DefaultMaxIDLength,
		MaxScaleSize: DefaultMaxScaleSize,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithMaxIDLength sets the MaxIDLength option.
// A non-positive value resets to the default.
func WithMaxIDLength(n int) Option {
	return func(c *apis.Config) {
		if n <= 0 {
			c.MaxIDLength = DefaultMaxIDLength
			return
		}
		c.MaxIDLength = n
	}
}

// WithMaxScaleSize sets the MaxScaleSize option.
// A non-positive value resets to the default.
func WithMaxScaleSize(n int) Option {
	return func(c *apis.Config) {
		if n <= 0 {
			c.MaxScaleSize = DefaultMaxScaleSize
			return
		}
		c.MaxScaleSize = n
	}
}

// WireOptions returns the wire.Buffer options matching cfg's limits.
func WireOptions(cfg apis.Config) []wire.Option {
	return []wire.Option{
		wire.WithMaxStringLength(cfg.MaxIDLength),
		wire.WithMaxElements(cfg.MaxScaleSize),
	}
}
