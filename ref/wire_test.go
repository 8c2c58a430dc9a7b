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

package ref_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dirpx.dev/tuneref/ref"
	"dirpx.dev/tuneref/tuning"
	"dirpx.dev/tuneref/wire"
)

func TestWireRoundTrip(t *testing.T) {
	for name, want := range sampleRefs() {
		t.Run(name, func(t *testing.T) {
			b := wire.NewBuffer(nil)
			if err := ref.EncodeWire(b, want); err != nil {
				t.Fatalf("EncodeWire: %v", err)
			}
			got, err := ref.DecodeWire(b)
			if err != nil {
				t.Fatalf("DecodeWire: %v", err)
			}
			if !got.Equal(want) {
				t.Fatalf("got %v, want %v", got, want)
			}
			if b.Len() != 0 {
				t.Fatalf("%d unread bytes", b.Len())
			}
		})
	}
}

func TestWireSequence(t *testing.T) {
	refs := []ref.Ref{ref.Var("a"), ref.Const(tuning.Equal(1)), ref.JI}
	b := wire.NewBuffer(nil)
	for _, r := range refs {
		if err := ref.EncodeWire(b, r); err != nil {
			t.Fatalf("EncodeWire: %v", err)
		}
	}
	for i, want := range refs {
		got, err := ref.DecodeWire(b)
		if err != nil {
			t.Fatalf("DecodeWire #%d: %v", i, err)
		}
		if !got.Equal(want) {
			t.Fatalf("#%d = %v, want %v", i, got, want)
		}
	}
}

func TestWireLayout(t *testing.T) {
	b := wire.NewBuffer(nil)
	if err := ref.EncodeWire(b, ref.Var("ji")); err != nil {
		t.Fatalf("EncodeWire: %v", err)
	}
	if diff := cmp.Diff([]byte{0, 2, 'j', 'i'}, b.Bytes()); diff != "" {
		t.Fatalf("var layout (-want +got):\n%s", diff)
	}

	b = wire.NewBuffer(nil)
	if err := ref.EncodeWire(b, ref.Const(tuning.Just(tuning.Ratio{Num: 3, Den: 2}))); err != nil {
		t.Fatalf("EncodeWire: %v", err)
	}
	if diff := cmp.Diff([]byte{1, 0, 1, 3, 2}, b.Bytes()); diff != "" {
		t.Fatalf("const layout (-want +got):\n%s", diff)
	}
}

func TestDecodeWire_UnknownDiscriminant(t *testing.T) {
	for _, d := range []byte{2, 7, ref.DiscriminantInvalid} {
		_, err := ref.DecodeWire(wire.NewBuffer([]byte{d, 0, 0}))
		if !errors.Is(err, ref.ErrUnknownDiscriminant) {
			t.Fatalf("DecodeWire(%d) err = %v, want ErrUnknownDiscriminant", d, err)
		}
	}
}

func TestDecodeWire_Truncated(t *testing.T) {
	cases := map[string][]byte{
		"empty":        {},
		"no string":    {0},
		"short string": {0, 5, 'a'},
		"no tuning":    {1},
		"short step":   {1, 1, 0x3f, 0xf0},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ref.DecodeWire(wire.NewBuffer(data))
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
			}
		})
	}
}

func TestEncodeWire_StringLimit(t *testing.T) {
	b := wire.NewBuffer(nil, wire.WithMaxStringLength(4))
	if err := ref.EncodeWire(b, ref.Var("ééé")); err != nil {
		t.Fatalf("EncodeWire at limit: %v", err)
	}
	b = wire.NewBuffer(nil, wire.WithMaxStringLength(4))
	if err := ref.EncodeWire(b, ref.Var("abcde")); !errors.Is(err, wire.ErrStringTooLong) {
		t.Fatalf("err = %v, want ErrStringTooLong", err)
	}
	if b.Len() != 0 {
		t.Fatalf("failed encode wrote %d bytes", b.Len())
	}
	if err := ref.EncodeWire(b, ref.Var("\xff")); !errors.Is(err, wire.ErrInvalidUTF8) {
		t.Fatalf("err = %v, want ErrInvalidUTF8", err)
	}

	long := strings.Repeat("x", wire.DefaultMaxStringLength)
	b = wire.NewBuffer(nil)
	if err := ref.EncodeWire(b, ref.Var(long)); err != nil {
		t.Fatalf("EncodeWire default limit: %v", err)
	}
	got, err := ref.DecodeWire(b)
	if err != nil || !got.Equal(ref.Var(long)) {
		t.Fatalf("DecodeWire long id: err=%v", err)
	}
}

func TestEncodeWire_ScaleLimit(t *testing.T) {
	ratios := make([]tuning.Ratio, wire.DefaultMaxElements+1)
	for i := range ratios {
		ratios[i] = tuning.Ratio{Num: uint32(i + 1), Den: 1}
	}

	b := wire.NewBuffer(nil)
	err := ref.EncodeWire(b, ref.Const(tuning.Just(ratios...)))
	if !errors.Is(err, wire.ErrTooManyElements) {
		t.Fatalf("err = %v, want ErrTooManyElements", err)
	}
	if b.Len() != 0 {
		t.Fatalf("failed encode wrote %d bytes", b.Len())
	}

	// One fewer fits, and decodes with the same limits.
	want := ref.Const(tuning.Just(ratios[:wire.DefaultMaxElements]...))
	if err := ref.EncodeWire(b, want); err != nil {
		t.Fatalf("EncodeWire at limit: %v", err)
	}
	got, err := ref.DecodeWire(b)
	if err != nil {
		t.Fatalf("DecodeWire at limit: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip at limit lost ratios")
	}
}
