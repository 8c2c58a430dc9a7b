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

	"dirpx.dev/tuneref/wire"
)

// ErrUnknownSystem is returned when a wire system byte is not a known System.
var ErrUnknownSystem = errors.New("tuneref(tuning): unknown wire system byte")

// CheckWire reports whether t fits b's limits, so that a stream written
// by AppendWire can be read back with the same limits.
func (t Tuning) CheckWire(b *wire.Buffer) error {
	if t.system == SystemJust {
		return b.CheckCount(len(t.ratios))
	}
	return nil
}

// AppendWire appends the binary form of t:
//
//	just:  0x00, uvarint count, count × (uvarint num, uvarint den)
//	equal: 0x01, float64 step
//
// Nothing is written when CheckWire fails.
func (t Tuning) AppendWire(b *wire.Buffer) error {
	if err := t.CheckWire(b); err != nil {
		return err
	}
	b.PutByte(byte(t.system))
	if t.system == SystemEqual {
		b.PutFloat64(t.step)
		return nil
	}
	b.PutUvarint(uint64(len(t.ratios)))
	for _, r := range t.ratios {
		b.PutUvarint(uint64(r.Num))
		b.PutUvarint(uint64(r.Den))
	}
	return nil
}

// ReadWire consumes a tuning written by AppendWire.
func ReadWire(b *wire.Buffer) (Tuning, error) {
	sys, err := b.ReadByte()
	if err != nil {
		return Tuning{}, err
	}

	switch System(sys) {
	case SystemEqual:
		step, err := b.ReadFloat64()
		if err != nil {
			return Tuning{}, err
		}
		return Equal(step), nil
	case SystemJust:
		n, err := b.ReadCount()
		if err != nil {
			return Tuning{}, err
		}
		ratios := make([]Ratio, n)
		for i := range ratios {
			num, err := readUint32(b)
			if err != nil {
				return Tuning{}, err
			}
			den, err := readUint32(b)
			if err != nil {
				return Tuning{}, err
			}
			ratios[i] = Ratio{Num: num, Den: den}
		}
		return Tuning{system: SystemJust, ratios: ratios}, nil
	default:
		return Tuning{}, fmt.Errorf("%w: %d", ErrUnknownSystem, sys)
	}
}

func readUint32(b *wire.Buffer) (uint32, error) {
	v, err := b.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("tuneref(tuning): ratio term %d overflows uint32", v)
	}
	return uint32(v), nil
}
