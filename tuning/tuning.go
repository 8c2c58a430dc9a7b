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

// Package tuning defines the Tuning value carried by tuning references.
//
// A Tuning is immutable. Two systems exist:
//
//   - Just intonation: an ordered list of frequency ratios, one per scale
//     degree. JI() returns the canonical 12-note 5-limit scale.
//   - Equal temperament: a single step size, in 12-EDO semitones
//     (1 is standard twelve-tone equal temperament).
//
// Tunings encode themselves as tree nodes (ToTree/FromTree) and onto the
// binary wire (AppendWire/ReadWire).
package tuning

import (
	"fmt"
	"math"
	"strings"
)

// System identifies how a Tuning maps keys to pitches.
type System uint8

const (
	// SystemJust is ratio-based just intonation.
	SystemJust System = iota
	// SystemEqual is equal temperament with a fixed step.
	SystemEqual
)

// String returns the tree type name of s.
func (s System) String() string {
	switch s {
	case SystemJust:
		return typeJust
	case SystemEqual:
		return typeEqual
	default:
		return fmt.Sprintf("system(%d)", uint8(s))
	}
}

// Ratio is a frequency ratio Num/Den relative to the tonic.
type Ratio struct {
	Num uint32
	Den uint32
}

// Float returns the ratio as a float64.
func (r Ratio) Float() float64 { return float64(r.Num) / float64(r.Den) }

// String formats the ratio as "num/den".
func (r Ratio) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// jiRatios is the 5-limit chromatic scale used by JI.
var jiRatios = [...]Ratio{
	{1, 1}, {16, 15}, {9, 8}, {6, 5}, {5, 4}, {4, 3},
	{45, 32}, {3, 2}, {8, 5}, {5, 3}, {9, 5}, {15, 8},
}

// Tuning is an immutable pitch-mapping scheme. The zero value is a just
// tuning with no degrees.
type Tuning struct {
	system System
	step   float64
	ratios []Ratio
}

// JI returns the default just intonation tuning.
func JI() Tuning {
	return Tuning{system: SystemJust, ratios: jiRatios[:]}
}

// Just returns a just intonation tuning over the given ratios.
// The slice is copied.
func Just(ratios ...Ratio) Tuning {
	return Tuning{system: SystemJust, ratios: append([]Ratio(nil), ratios...)}
}

// Equal returns an equal-tempered tuning with the given step size.
// Any float64 is accepted, including non-finite values.
func Equal(step float64) Tuning {
	return Tuning{system: SystemEqual, step: step}
}

// System reports the tuning system.
func (t Tuning) System() System { return t.system }

// Step returns the step size of an equal-tempered tuning.
func (t Tuning) Step() (float64, bool) {
	if t.system != SystemEqual {
		return 0, false
	}
	return t.step, true
}

// Ratios returns a copy of the ratios of a just tuning.
func (t Tuning) Ratios() ([]Ratio, bool) {
	if t.system != SystemJust {
		return nil, false
	}
	return append([]Ratio(nil), t.ratios...), true
}

// Equal reports whether t and o describe the same tuning. Steps compare by
// bit pattern, so a NaN step equals itself.
func (t Tuning) Equal(o Tuning) bool {
	if t.system != o.system {
		return false
	}
	switch t.system {
	case SystemEqual:
		return math.Float64bits(t.step) == math.Float64bits(o.step)
	default:
		if len(t.ratios) != len(o.ratios) {
			return false
		}
		for i := range t.ratios {
			if t.ratios[i] != o.ratios[i] {
				return false
			}
		}
		return true
	}
}

// String renders t for logs and the CLI.
func (t Tuning) String() string {
	if t.system == SystemEqual {
		return fmt.Sprintf("equal(step=%g)", t.step)
	}
	parts := make([]string, len(t.ratios))
	for i, r := range t.ratios {
		parts[i] = r.String()
	}
	return "ji[" + strings.Join(parts, " ") + "]"
}
