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

package tuning

import (
	"errors"
	"fmt"
	"math"
)

// Tree keys and type names of a tuning compound node.
const (
	KeyType   = "type"
	KeyStep   = "step"
	KeyRatios = "ratios"

	typeJust  = "ji"
	typeEqual = "equal"
)

var (
	// ErrUnknownType is returned for a compound whose "type" is not a known system.
	ErrUnknownType = errors.New("tuneref(tuning): unknown tuning type")
	// ErrMalformed is returned for a compound with missing or mistyped fields.
	ErrMalformed = errors.New("tuneref(tuning): malformed tuning node")
)

// ToTree encodes t as a compound node.
//
//	{"type": "ji", "ratios": [[1, 1], [16, 15], ...]}
//	{"type": "equal", "step": 1.5}
func (t Tuning) ToTree() map[string]any {
	if t.system == SystemEqual {
		return map[string]any{KeyType: typeEqual, KeyStep: t.step}
	}
	ratios := make([]any, len(t.ratios))
	for i, r := range t.ratios {
		ratios[i] = []any{uint64(r.Num), uint64(r.Den)}
	}
	return map[string]any{KeyType: typeJust, KeyRatios: ratios}
}

// FromTree decodes a compound node produced by ToTree, or written by hand
// in YAML/JSON. Integer and float numbers are both accepted wherever a
// number is expected.
func FromTree(node map[string]any) (Tuning, error) {
	typ, ok := node[KeyType].(string)
	if !ok {
		return Tuning{}, fmt.Errorf("%w: missing %q", ErrMalformed, KeyType)
	}

	switch typ {
	case typeEqual:
		step, ok := number(node[KeyStep])
		if !ok {
			return Tuning{}, fmt.Errorf("%w: %q is not a number", ErrMalformed, KeyStep)
		}
		return Equal(step), nil
	case typeJust:
		raw, present := node[KeyRatios]
		if !present {
			return JI(), nil
		}
		list, ok := raw.([]any)
		if !ok {
			return Tuning{}, fmt.Errorf("%w: %q is not a list", ErrMalformed, KeyRatios)
		}
		ratios := make([]Ratio, 0, len(list))
		for i, item := range list {
			r, err := ratioFromTree(item)
			if err != nil {
				return Tuning{}, fmt.Errorf("%w: ratio %d: %v", ErrMalformed, i, err)
			}
			ratios = append(ratios, r)
		}
		return Tuning{system: SystemJust, ratios: ratios}, nil
	default:
		return Tuning{}, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

func ratioFromTree(item any) (Ratio, error) {
	pair, ok := item.([]any)
	if !ok || len(pair) != 2 {
		return Ratio{}, errors.New("want [num, den]")
	}
	num, ok := uint32Of(pair[0])
	if !ok {
		return Ratio{}, errors.New("numerator is not a uint32")
	}
	den, ok := uint32Of(pair[1])
	if !ok {
		return Ratio{}, errors.New("denominator is not a uint32")
	}
	return Ratio{Num: num, Den: den}, nil
}

// number accepts the numeric shapes produced by the CBOR, YAML and JSON
// decoders.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func uint32Of(v any) (uint32, bool) {
	switch n := v.(type) {
	case int:
		if n >= 0 && n <= math.MaxUint32 {
			return uint32(n), true
		}
	case int64:
		if n >= 0 && n <= math.MaxUint32 {
			return uint32(n), true
		}
	case uint64:
		if n <= math.MaxUint32 {
			return uint32(n), true
		}
	case float64:
		if n >= 0 && n <= math.MaxUint32 && n == math.Trunc(n) {
			return uint32(n), true
		}
	}
	return 0, false
}
