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
	"errors"
	"fmt"

	"dirpx.dev/tuneref/tuning"
	"dirpx.dev/tuneref/wire"
)

// DiscriminantInvalid is reserved for values that are neither variant.
// Ref cannot hold such a value, so it is never written, and DecodeWire
// rejects it like any other unknown byte.
const DiscriminantInvalid byte = 255

// ErrUnknownDiscriminant is returned when a stream carries a discriminant
// byte other than KindVar or KindConst.
var ErrUnknownDiscriminant = errors.New("tuneref(ref): unknown wire discriminant")

// EncodeWire writes r as one discriminant byte followed by the variant
// payload: the id string for a variable, the tuning for a constant.
// It fails only when a variable id is not valid UTF-8 or exceeds the
// buffer's string limit; nothing is written in that case.
func EncodeWire(b *wire.Buffer, r Ref) error {
	switch r.kind {
	case KindConst:
		if err := r.tuning.CheckWire(b); err != nil {
			return fmt.Errorf("tuneref(ref): encode const: %w", err)
		}
		b.PutByte(byte(KindConst))
		return r.tuning.AppendWire(b)
	default:
		if err := b.CheckString(r.id); err != nil {
			return fmt.Errorf("tuneref(ref): encode var: %w", err)
		}
		b.PutByte(byte(KindVar))
		return b.PutString(r.id)
	}
}

// DecodeWire reads a Ref written by EncodeWire.
func DecodeWire(b *wire.Buffer) (Ref, error) {
	d, err := b.ReadByte()
	if err != nil {
		return Ref{}, err
	}
	switch Kind(d) {
	case KindVar:
		id, err := b.ReadString()
		if err != nil {
			return Ref{}, fmt.Errorf("tuneref(ref): decode var: %w", err)
		}
		return Var(id), nil
	case KindConst:
		t, err := tuning.ReadWire(b)
		if err != nil {
			return Ref{}, fmt.Errorf("tuneref(ref): decode const: %w", err)
		}
		return Const(t), nil
	default:
		return Ref{}, fmt.Errorf("%w: %d", ErrUnknownDiscriminant, d)
	}
}
