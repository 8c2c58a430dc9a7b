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


package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"

	"dirpx.dev/tuneref/apis"
	"dirpx.dev/tuneref/config"
	"dirpx.dev/tuneref/tuning"
)

var (
	// ErrEmptyID is returned when an empty id is provided.
	ErrEmptyID = errors.New("tuneref(registry): empty id provided")
	// ErrIDTooLong is returned when an id exceeds Config.MaxIDLength.
	ErrIDTooLong = errors.New("tuneref(registry): id exceeds length limit")
	// ErrInvalidID is returned when an id is not valid UTF-8.
	ErrInvalidID = errors.New("tuneref(registry): id is not valid UTF-8")
	// ErrScaleTooLarge is returned when a just tuning has more ratios than
	// Config.MaxScaleSize.
	ErrScaleTooLarge = errors.New("tuneref(registry): tuning exceeds scale size limit")
	// ErrConflictingRegistration indicates an attempt to re-register
	// an id with a different tuning.
	ErrConflictingRegistration = errors.New("tuneref(registry): conflicting tuning registration")
)

// New constructs a Registry that validates ids according to cfg.
func New(cfg apis.Config) apis.Registry {
	if cfg.MaxIDLength <= 0 {
		cfg.MaxIDLength = config.DefaultMaxIDLength
	}
	if cfg.MaxScaleSize <= 0 {
		cfg.MaxScaleSize = config.DefaultMaxScaleSize
	}
	return &registry{cfg: cfg}
}

// registry is a simple Registry implementation backed by sync.Map.
type registry struct {
	// cfg is the configuration used for id and scale validation.
	cfg apis.Config
	// mu guards write-side consistency and counter
	mu sync.Mutex
	// m maps id to registered tuning.
	m sync.Map // map[string]tuning.Tuning
	// count tracks the number of registered entries.
	count int
}

// Register associates id with t.
// It is idempotent for the same (id, tuning) pair.
func (r *registry) Register(id string, t tuning.Tuning) error {
	// Validate inputs early.
	if err := r.validate(id, t); err != nil {
		return err
	}

	// Fast read path: idempotency / conflict check without locking.
	if old, ok := r.m.Load(id); ok {
		if old.(tuning.Tuning).Equal(t) {
			return nil // idempotent re-registration
		}
		return fmt.Errorf("%w: %q", ErrConflictingRegistration, id)
	}

	// Write path: guard with a mutex to keep counter consistent and avoid ABA.
	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if old, ok := r.m.Load(id); ok {
		if old.(tuning.Tuning).Equal(t) {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrConflictingRegistration, id)
	}

	r.m.Store(id, t)
	r.count++
	return nil
}

// Replace associates id with t, overwriting any previous tuning.
func (r *registry) Replace(id string, t tuning.Tuning) error {
	if err := r.validate(id, t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, loaded := r.m.Swap(id, t); !loaded {
		r.count++
	}
	return nil
}

// Unregister removes id and reports whether it was present.
func (r *registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, loaded := r.m.LoadAndDelete(id); loaded {
		r.count--
		return true
	}
	return false
}

// Lookup returns the tuning registered under id.
func (r *registry) Lookup(id string) (tuning.Tuning, bool) {
	if v, ok := r.m.Load(id); ok {
		return v.(tuning.Tuning), true
	}
	return tuning.Tuning{}, false
}

// Entries returns a snapshot sorted by id.
func (r *registry) Entries() []apis.Entry {
	entries := make([]apis.Entry, 0, r.Count())
	r.m.Range(func(key, value any) bool {
		entries = append(entries, apis.Entry{
			ID:     key.(string),
			Tuning: value.(tuning.Tuning),
		})
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Count returns the number of registered entries.
func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Reset clears all registered entries.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.Clear()
	r.count = 0
}

func (r *registry) validate(id string, t tuning.Tuning) error {
	if id == "" {
		return ErrEmptyID
	}
	if !utf8.ValidString(id) {
		return ErrInvalidID
	}
	if n := utf8.RuneCountInString(id); n > r.cfg.MaxIDLength {
		return fmt.Errorf("%w: %d > %d characters", ErrIDTooLong, n, r.cfg.MaxIDLength)
	}
	if ratios, ok := t.Ratios(); ok && len(ratios) > r.cfg.MaxScaleSize {
		return fmt.Errorf("%w: %q has %d ratios > %d", ErrScaleTooLarge, id, len(ratios), r.cfg.MaxScaleSize)
	}
	return nil
}
