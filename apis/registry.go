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

package apis

import "dirpx.dev/tuneref/tuning"

// Registry maps tuning ids to tunings. Ids are matched exactly.
// Implementations must be safe for concurrent reads and writes.
type Registry interface {
	// Register associates id with t. Re-registering an equal tuning is a
	// no-op; a different tuning under an existing id is a conflict.
	Register(id string, t tuning.Tuning) error
	// Replace associates id with t, overwriting any previous tuning.
	Replace(id string, t tuning.Tuning) error
	// Unregister removes id and reports whether it was present.
	Unregister(id string) bool
	// Lookup returns the tuning registered under id.
	Lookup(id string) (t tuning.Tuning, ok bool)
	// Entries returns a snapshot sorted by id.
	Entries() []Entry
	// Count returns the number of registered entries.
	Count() int
	// Reset clears all registered entries.
	Reset()
}

// Entry is a single (id, tuning) association in a Registry snapshot.
type Entry struct {
	// ID is the registry key.
	ID string
	// Tuning is the associated tuning.
	Tuning tuning.Tuning
}
