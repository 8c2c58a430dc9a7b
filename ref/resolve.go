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

	"dirpx.dev/tuneref/apis"
	"dirpx.dev/tuneref/internal/logging"
	"dirpx.dev/tuneref/tuning"
)

var (
	// ErrNoRegistry is returned when no registry is currently available.
	ErrNoRegistry = errors.New("tuneref(ref): no tuning registry loaded")
	// ErrTuningNotFound is returned when the registry has no entry for an id.
	ErrTuningNotFound = errors.New("tuneref(ref): tuning not found")
	// ErrRegistryFailure is returned when the source or registry panics.
	ErrRegistryFailure = errors.New("tuneref(ref): registry access failed")
)

// Resolve returns the tuning r refers to. It never fails: a constant yields
// its embedded tuning, and a variable that cannot be resolved yields
// tuning.JI() after logging why. src is consulted on every call.
func (r Ref) Resolve(src apis.Source) tuning.Tuning {
	t, err := r.TryResolve(src)
	if err != nil {
		logging.Log().Error(err, "Falling back to just intonation", "id", r.id)
		return tuning.JI()
	}
	return t
}

// TryResolve is Resolve without the fallback. It returns ErrNoRegistry,
// ErrTuningNotFound or ErrRegistryFailure for a variable that cannot be
// resolved. A nil src counts as no registry.
func (r Ref) TryResolve(src apis.Source) (t tuning.Tuning, err error) {
	if r.kind == KindConst {
		return r.tuning, nil
	}

	defer func() {
		if p := recover(); p != nil {
			t, err = tuning.Tuning{}, fmt.Errorf("%w: %v", ErrRegistryFailure, p)
		}
	}()

	if src == nil {
		return tuning.Tuning{}, ErrNoRegistry
	}
	reg, ok := src.Current()
	if !ok || reg == nil {
		return tuning.Tuning{}, ErrNoRegistry
	}
	found, ok := reg.Lookup(r.id)
	if !ok {
		return tuning.Tuning{}, fmt.Errorf("%w: %q", ErrTuningNotFound, r.id)
	}
	logging.Log().V(logging.TRACE).Info("Resolved tuning reference", "id", r.id, "tuning", found.String())
	return found, nil
}
