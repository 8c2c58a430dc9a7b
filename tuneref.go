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

package tuneref

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"dirpx.dev/tuneref/apis"
	"dirpx.dev/tuneref/builder"
	"dirpx.dev/tuneref/config"
	"dirpx.dev/tuneref/internal/logging"
	"dirpx.dev/tuneref/ref"
	"dirpx.dev/tuneref/registry"
	"dirpx.dev/tuneref/tuning"
	"dirpx.dev/tuneref/wire"
)

// init initializes the global state with no registry loaded.
func init() {
	st.Store(&state{cfg: config.DefaultConfig(), bld: builder.New()})
}

var (
	// ErrNilRegistry is raised when a builder returns a nil registry.
	ErrNilRegistry = errors.New("tuneref: builder returned nil registry")
	// ErrNoRegistry is returned by writes while no registry is loaded.
	ErrNoRegistry = ref.ErrNoRegistry
)

// World returns a Source that reads the global registry on every call.
func World() apis.Source {
	return apis.SourceFunc(Current)
}

// Current returns the global registry, or (nil, false) when none is loaded.
func Current() (apis.Registry, bool) {
	reg := st.Load().reg
	return reg, reg != nil
}

// Resolve resolves r against the global registry. See ref.Ref.Resolve.
func Resolve(r ref.Ref) tuning.Tuning {
	return r.Resolve(World())
}

// Register adds a tuning to the global registry.
// It returns ErrNoRegistry when no registry is loaded.
func Register(id string, t tuning.Tuning) error {
	reg, ok := Current()
	if !ok {
		return ErrNoRegistry
	}
	return reg.Register(id, t)
}

// Open makes sure a registry is loaded. If none is, an empty one is built
// with the current builder and config. The loaded registry is returned.
func Open() apis.Registry {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	if old.reg != nil {
		return old.reg
	}

	nreg := old.bld.BuildRegistry(old.cfg, nil)
	if nreg == nil {
		panic(ErrNilRegistry)
	}

	st.Store(
		&state{
			cfg: old.cfg,
			reg: nreg,
			bld: old.bld,
		},
	)
	logging.Log().V(logging.DEBUG).Info("Tuning registry opened")
	return nreg
}

// Close unloads the global registry. Until the next Open or SetRegistry
// every variable reference resolves to just intonation.
func Close() {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	st.Store(
		&state{
			cfg: old.cfg,
			bld: old.bld,
		},
	)
	logging.Log().V(logging.DEBUG).Info("Tuning registry closed")
}

// LoadRegistry reads a YAML or JSONC registry file with the global config
// and installs it with SetRegistry.
func LoadRegistry(path string) error {
	reg, err := registry.Load(path, Config())
	if err != nil {
		return err
	}
	SetRegistry(reg)
	logging.Log().Info("Tuning registry loaded", "path", path, "tunings", reg.Count())
	return nil
}

// SetAll explicitly sets all global state components.
//
// A nil cfg or bld leaves the corresponding component unchanged. reg is
// always replaced: nil unloads the registry, anything else is installed
// pinned.
func SetAll(cfg *apis.Config, reg apis.Registry, bld apis.Builder) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()

	ncfg := old.cfg
	if cfg != nil {
		ncfg = *cfg
	}
	nbld := old.bld
	if bld != nil {
		nbld = bld
	}

	st.Store(
		&state{
			cfg:  ncfg,
			reg:  reg,
			bld:  nbld,
			preg: reg != nil,
		},
	)
}

// Config returns the global configuration.
func Config() apis.Config {
	return st.Load().cfg
}

// SetConfig sets the global configuration to cfg.
// A loaded, unpinned registry is rebuilt for the new configuration.
func SetConfig(cfg apis.Config) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	st.Store(
		&state{
			cfg:  cfg,
			reg:  rebuild(old.bld, cfg, old),
			bld:  old.bld,
			preg: old.preg,
		},
	)
}

// Registry returns the global registry, or nil when none is loaded.
func Registry() apis.Registry {
	return st.Load().reg
}

// SetRegistry installs reg as the global registry and pins it.
// A nil reg is ignored; use Close to unload.
func SetRegistry(reg apis.Registry) {
	if reg == nil {
		return
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	st.Store(
		&state{
			cfg:  old.cfg,
			reg:  reg,
			bld:  old.bld,
			preg: true,
		},
	)
}

// Builder returns the global builder.
func Builder() apis.Builder {
	return st.Load().bld
}

// SetBuilder sets the global builder to b.
// A loaded, unpinned registry is rebuilt with b.
func SetBuilder(b apis.Builder) {
	if b == nil {
		return
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	st.Store(
		&state{
			cfg:  old.cfg,
			reg:  rebuild(b, old.cfg, old),
			bld:  b,
			preg: old.preg,
		},
	)
}

// IsRegistryPinned returns whether the global registry is pinned.
func IsRegistryPinned() bool {
	return st.Load().preg
}

// PinRegistry stops config and builder changes from rebuilding the
// global registry.
func PinRegistry() {
	setPinned(true)
}

// UnpinRegistry lets config and builder changes rebuild the global
// registry again.
func UnpinRegistry() {
	setPinned(false)
}

// NewWireBuffer returns a wire buffer over data with the global limits.
func NewWireBuffer(data []byte) *wire.Buffer {
	return wire.NewBuffer(data, config.WireOptions(Config())...)
}

// SetLogger installs the logger used for diagnostics by this module.
func SetLogger(l logr.Logger) {
	logging.SetLogger(l)
}

func setPinned(pinned bool) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	st.Store(
		&state{
			cfg:  old.cfg,
			reg:  old.reg,
			bld:  old.bld,
			preg: pinned,
		},
	)
}

// rebuild returns the registry for the next snapshot. Absent and pinned
// registries are carried over unchanged. Callers hold buildMu.
func rebuild(b apis.Builder, cfg apis.Config, old *state) apis.Registry {
	if old.reg == nil || old.preg {
		return old.reg
	}
	nreg := b.BuildRegistry(cfg, old.reg)
	if nreg == nil {
		panic(ErrNilRegistry)
	}
	return nreg
}

// buildMu serializes writers (reconfigurations/swaps) so we never publish
// partially-built snapshots.
var buildMu sync.Mutex

// st is the global state.
var st atomic.Pointer[state]

// state is the global state snapshot.
// Immutable snapshot published atomically via st.Store; never mutate fields
// of a published state. Writers create a new state and swap it atomically.
type state struct {
	// cfg is the global configuration.
	cfg apis.Config
	// reg is the global registry; nil when none is loaded.
	reg apis.Registry
	// bld is the global builder.
	bld apis.Builder
	// preg indicates whether the reg is pinned.
	preg bool
}
