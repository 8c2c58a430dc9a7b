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

package ref

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"dirpx.dev/tuneref/codec"
	"dirpx.dev/tuneref/internal/logging"
	"dirpx.dev/tuneref/tuning"
)

// ToTree encodes r as a generic tree node: a constant becomes the tuning's
// compound map, a variable becomes its id string.
func ToTree(r Ref) any {
	if r.kind == KindConst {
		return r.tuning.ToTree()
	}
	return r.id
}

// FromTree decodes a tree node by its shape. It never fails:
//
//   - compound map: Const of the decoded tuning
//   - string:       Var
//   - float:        Const(tuning.Equal(v)), the legacy shorthand
//   - anything else, including nil and integers: JI
//
// A compound the tuning decoder rejects also yields JI, with a diagnostic.
func FromTree(node any) Ref {
	switch v := node.(type) {
	case map[string]any:
		return constFromTree(v)
	case map[any]any:
		m, ok := stringKeys(v)
		if !ok {
			logging.Log().V(logging.DEBUG).Info("Compound tuning node has non-string keys, using default")
			return JI
		}
		return constFromTree(m)
	case string:
		return Var(v)
	case float64:
		return Const(tuning.Equal(v))
	case float32:
		return Const(tuning.Equal(float64(v)))
	default:
		if node != nil {
			logging.Log().V(logging.DEBUG).Info("Unrecognized tuning node, using default", "type", fmt.Sprintf("%T", node))
		}
		return JI
	}
}

func constFromTree(m map[string]any) Ref {
	t, err := tuning.FromTree(m)
	if err != nil {
		logging.Log().Error(err, "Malformed tuning node, using default")
		return JI
	}
	return Const(t)
}

// stringKeys converts a generically decoded map, and the maps nested in it,
// to string keys. Nested maps with other key types are left as they are.
func stringKeys(in map[any]any) (map[string]any, bool) {
	out := make(map[string]any, len(in))
	for k, v := range in {
		s, ok := k.(string)
		if !ok {
			return nil, false
		}
		out[s] = normalize(v)
	}
	return out, true
}

func normalize(v any) any {
	switch x := v.(type) {
	case map[any]any:
		if m, ok := stringKeys(x); ok {
			return m
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = normalize(x[i])
		}
		return out
	default:
		return v
	}
}

// MarshalTree returns the CBOR encoding of r's tree node.
func MarshalTree(r Ref) ([]byte, error) {
	return codec.Marshal(ToTree(r))
}

// UnmarshalTree decodes CBOR produced by MarshalTree. Only malformed CBOR is
// an error; any well-formed node decodes per FromTree. Well-formed items Go
// cannot represent, such as a map keyed by arrays, yield JI.
func UnmarshalTree(data []byte) (Ref, error) {
	var node any
	if err := codec.Unmarshal(data, &node); err != nil {
		if werr := codec.Wellformed(data); werr != nil {
			return Ref{}, fmt.Errorf("tuneref(ref): decode tree: %w", werr)
		}
		logging.Log().V(logging.DEBUG).Info("Unrepresentable tuning node, using default", "reason", err.Error())
		return JI, nil
	}
	return FromTree(node), nil
}

// MarshalCBOR implements cbor.Marshaler.
func (r Ref) MarshalCBOR() ([]byte, error) {
	return MarshalTree(r)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (r *Ref) UnmarshalCBOR(data []byte) error {
	v, err := UnmarshalTree(data)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Ref) MarshalYAML() (any, error) {
	return ToTree(r), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("tuneref(ref): decode yaml: %w", err)
	}
	*r = FromTree(v)
	return nil
}
