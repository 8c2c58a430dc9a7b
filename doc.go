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

// Package tuneref holds the process-wide tuning registry and resolves
// tuning references against it.
//
// Tunings are referred to with ref.Ref values: either an embedded tuning
// (a constant) or a string id (a variable) looked up when the reference is
// used. This package owns the registry those ids are looked up in.
//
// # Design
//
// The package keeps a read-mostly global snapshot (state) with four
// things:
//
//   - Config: limits on registry ids and wire payloads.
//
//   - Registry: the live id -> tuning mapping, or none. The registry has
//     its own lifecycle. It is absent until Open, SetRegistry or
//     LoadRegistry installs one, and Close makes it absent again. While it
//     is absent every variable reference resolves to just intonation.
//
//   - Builder: a pluggable factory that constructs a Registry for a
//     Config and migrates entries from the previous Registry.
//
//   - Pin flag: whether the Registry was installed explicitly and must
//     not be rebuilt.
//
// Readers load the current snapshot atomically and never lock. Writers
// take a short build mutex, derive a new snapshot and publish it with an
// atomic swap:
//
//	tuneref.Open()
//	_ = tuneref.Register("bohlen-pierce", tuning.Equal(1.5))
//	t := tuneref.Resolve(ref.Var("bohlen-pierce"))
//
// # Resolution
//
// World returns an apis.Source backed by this package. It re-reads the
// snapshot on every call, so a reference resolved through it always sees
// the registry that is current at that moment:
//
//	t := r.Resolve(tuneref.World())
//
// Code that should not depend on the global registry takes an apis.Source
// instead and receives World() from its caller.
//
// # Pinning
//
// SetRegistry(reg) installs reg and pins it: SetConfig and SetBuilder
// stop rebuilding the registry until UnpinRegistry. A registry built by
// Open is unpinned, and a config change rebuilds it through the Builder,
// carrying existing entries over.
//
// # Diagnostics
//
// Resolution failures are logged through the logr.Logger installed with
// SetLogger. The default logger discards everything.
package tuneref
