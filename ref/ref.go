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

// Package ref implements tuning references.
//
// A Ref either embeds a tuning.Tuning (a constant) or names one by id (a
// variable). Variables are resolved at use time against a registry supplied
// through apis.Source; resolution never fails and falls back to just
// intonation.
//
// Refs travel in two encodings: a generic tree (ToTree/FromTree, persisted
// as CBOR or authored as YAML) and a compact binary wire form
// (EncodeWire/DecodeWire).
package ref

import (
	"fmt"
	"strconv"

	"dirpx.dev/tuneref/tuning"
)

// Kind identifies the active variant of a Ref. The numeric values are the
// wire discriminants.
type Kind uint8

const (
	// KindVar is a symbolic reference to a registry entry.
	KindVar Kind = iota
	// KindConst is an embedded tuning value.
	KindConst
)

// String returns "var" or "const".
func (k Kind) String() string {
	switch k {
	case KindVar:
		return "var"
	case KindConst:
		return "const"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// JIID is the registry id of the default tuning reference.
const JIID = "ji"

// JI is the default tuning reference. Registries may override what it
// resolves to by registering JIID.
var JI = Var(JIID)

// Ref is a reference to a tuning. It is immutable and comparable with
// Equal. The zero Ref is Var("").
type Ref struct {
	kind   Kind
	id     string
	tuning tuning.Tuning
}

// Const returns a reference that embeds t.
func Const(t tuning.Tuning) Ref {
	return Ref{kind: KindConst, tuning: t}
}

// Var returns a reference to the registry entry id. The id is kept exactly
// as given and is not checked against any registry.
func Var(id string) Ref {
	return Ref{kind: KindVar, id: id}
}

// Kind reports which variant r holds.
func (r Ref) Kind() Kind { return r.kind }

// ID returns the id of a variable reference.
func (r Ref) ID() (string, bool) {
	if r.kind != KindVar {
		return "", false
	}
	return r.id, true
}

// Tuning returns the embedded tuning of a constant reference.
func (r Ref) Tuning() (tuning.Tuning, bool) {
	if r.kind != KindConst {
		return tuning.Tuning{}, false
	}
	return r.tuning, true
}

// Equal reports whether r and o are the same variant with the same payload.
func (r Ref) Equal(o Ref) bool {
	if r.kind != o.kind {
		return false
	}
	if r.kind == KindVar {
		return r.id == o.id
	}
	return r.tuning.Equal(o.tuning)
}

// String renders r as var("id") or const(tuning).
func (r Ref) String() string {
	if r.kind == KindVar {
		return "var(" + strconv.Quote(r.id) + ")"
	}
	return "const(" + r.tuning.String() + ")"
}
