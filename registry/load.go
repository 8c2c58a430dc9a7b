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


package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"dirpx.dev/tuneref/apis"
	"dirpx.dev/tuneref/tuning"
)

// Format selects the syntax of a registry file.
type Format int

const (
	// FormatYAML is a YAML mapping of id to tuning node.
	FormatYAML Format = iota
	// FormatJSONC is a JSON object of id to tuning node, with // and /* */
	// comments and trailing commas allowed.
	FormatJSONC
)

// ErrInvalidEntry is returned for a registry file entry that is not a
// concrete tuning.
var ErrInvalidEntry = errors.New("tuneref(registry): invalid registry entry")

// FormatOf picks a Format from a file extension: .json and .jsonc select
// FormatJSONC, everything else FormatYAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// Load reads a registry file and returns a populated registry.
//
// Each entry maps an id to a tuning compound node, or to a bare number as
// shorthand for an equal-tempered tuning with that step:
//
//	ji:     {type: ji}
//	bp:     {type: equal, step: 1.5}
//	custom: {type: ji, ratios: [[1, 1], [9, 8], [5, 4]]}
//	19edo:  0.631578947
func Load(path string, cfg apis.Config) (apis.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	reg, err := Parse(data, FormatOf(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes a registry document. Any invalid entry fails the whole
// document; a half-loaded registry would resolve some ids to the fallback
// tuning without anyone noticing.
func Parse(data []byte, format Format, cfg apis.Config) (apis.Registry, error) {
	var doc map[string]any
	switch format {
	case FormatJSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return nil, fmt.Errorf("parsing registry: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing registry: %w", err)
		}
	}

	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	reg := New(cfg)
	for _, id := range ids {
		t, err := entryTuning(doc[id])
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", id, err)
		}
		if err := reg.Register(id, t); err != nil {
			return nil, fmt.Errorf("entry %q: %w", id, err)
		}
	}
	return reg, nil
}

func entryTuning(node any) (tuning.Tuning, error) {
	switch v := node.(type) {
	case map[string]any:
		return tuning.FromTree(v)
	case float64:
		return tuning.Equal(v), nil
	case int:
		return tuning.Equal(float64(v)), nil
	case string:
		return tuning.Tuning{}, fmt.Errorf("%w: reference %q, registry entries must be tunings", ErrInvalidEntry, v)
	default:
		return tuning.Tuning{}, fmt.Errorf("%w: unsupported node %T", ErrInvalidEntry, node)
	}
}
