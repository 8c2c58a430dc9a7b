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
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"dirpx.dev/tuneref/apis"
	"dirpx.dev/tuneref/builder"
	"dirpx.dev/tuneref/config"
	"dirpx.dev/tuneref/internal/logging"
	"dirpx.dev/tuneref/ref"
	"dirpx.dev/tuneref/registry"
	"dirpx.dev/tuneref/tuning"
	"dirpx.dev/tuneref/wire"
)

func TestMain(m *testing.M) {
	logging.NewTestLogger()
	os.Exit(m.Run())
}

// Reset to a clean snapshot using our test builder.
// The registry is unloaded and unpinned.
func resetWithBuilder(tb testing.TB, b apis.Builder, cfg apis.Config) {
	tb.Helper()
	SetAll(&cfg, nil, b)
	tb.Cleanup(func() {
		def := config.DefaultConfig()
		SetAll(&def, nil, builder.New())
	})
}

// ---------------------- Test doubles (mocks) ----------------------

// mockBuilder builds real registries and records what it was asked for.
type mockBuilder struct {
	mu           sync.Mutex
	lastCfg      apis.Config
	lastPrev     apis.Registry
	regCounter   int
	returnNilReg bool
}

func (b *mockBuilder) BuildRegistry(cfg apis.Config, prev apis.Registry) apis.Registry {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastCfg, b.lastPrev = cfg, prev
	if b.returnNilReg {
		return nil
	}
	b.regCounter++
	nreg := registry.New(cfg)
	if prev != nil {
		for _, e := range prev.Entries() {
			_ = nreg.Register(e.ID, e.Tuning)
		}
	}
	return nreg
}

func (b *mockBuilder) builds() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regCounter
}

// ---------------------- Tests ----------------------

func TestInitialState_NoRegistry(t *testing.T) {
	resetWithBuilder(t, &mockBuilder{}, config.DefaultConfig())

	if reg, ok := Current(); ok || reg != nil {
		t.Fatalf("Current() = (%v,%v), want no registry", reg, ok)
	}
	if got := Resolve(ref.Var("custom")); !got.Equal(tuning.JI()) {
		t.Fatalf("Resolve without registry = %v, want JI", got)
	}
	if err := Register("custom", tuning.Equal(1)); !errors.Is(err, ErrNoRegistry) {
		t.Fatalf("Register err = %v, want ErrNoRegistry", err)
	}
}

func TestOpen_Register_Resolve(t *testing.T) {
	b := &mockBuilder{}
	resetWithBuilder(t, b, config.DefaultConfig())

	reg := Open()
	if reg == nil || Registry() != reg {
		t.Fatalf("Open did not install its registry")
	}
	if again := Open(); again != reg {
		t.Fatalf("second Open replaced the registry")
	}
	if b.builds() != 1 {
		t.Fatalf("builds = %d, want 1", b.builds())
	}
	if IsRegistryPinned() {
		t.Fatalf("opened registry is pinned")
	}

	if err := Register("ji", tuning.Equal(1)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := Resolve(ref.JI); !got.Equal(tuning.Equal(1)) {
		t.Fatalf("Resolve(JI) = %v, want the registry entry", got)
	}
	if got := Resolve(ref.Var("missing")); !got.Equal(tuning.JI()) {
		t.Fatalf("Resolve(missing) = %v, want JI", got)
	}
	if got := Resolve(ref.Const(tuning.Equal(2))); !got.Equal(tuning.Equal(2)) {
		t.Fatalf("Resolve(const) = %v", got)
	}

	Close()
	if _, ok := Current(); ok {
		t.Fatalf("registry present after Close")
	}
	if got := Resolve(ref.JI); !got.Equal(tuning.JI()) {
		t.Fatalf("Resolve after Close = %v, want JI", got)
	}
}

// A Source captured before the registry changes still sees every change.
func TestWorld_IsLive(t *testing.T) {
	resetWithBuilder(t, &mockBuilder{}, config.DefaultConfig())

	src := World()
	r := ref.Var("bp")
	if got := r.Resolve(src); !got.Equal(tuning.JI()) {
		t.Fatalf("before Open = %v, want JI", got)
	}

	Open()
	_ = Register("bp", tuning.Equal(1.5))
	if got := r.Resolve(src); !got.Equal(tuning.Equal(1.5)) {
		t.Fatalf("after Register = %v", got)
	}

	pinned := registry.New(config.DefaultConfig())
	_ = pinned.Register("bp", tuning.Equal(3))
	SetRegistry(pinned)
	if got := r.Resolve(src); !got.Equal(tuning.Equal(3)) {
		t.Fatalf("after SetRegistry = %v", got)
	}
}

func TestSetConfig_Rebuilds_Unpinned(t *testing.T) {
	b := &mockBuilder{}
	resetWithBuilder(t, b, config.DefaultConfig())

	reg1 := Open()
	_ = Register("custom", tuning.Equal(0.5))

	SetConfig(config.NewConfig(config.WithMaxIDLength(64)))

	reg2 := Registry()
	if reg1 == reg2 {
		t.Fatalf("registry was not rebuilt on SetConfig (unpinned)")
	}
	if got, ok := reg2.Lookup("custom"); !ok || !got.Equal(tuning.Equal(0.5)) {
		t.Fatalf("entry not migrated: (%v,%v)", got, ok)
	}

	b.mu.Lock()
	gotCfg, gotPrev := b.lastCfg, b.lastPrev
	b.mu.Unlock()
	if gotCfg.MaxIDLength != 64 {
		t.Fatalf("builder received wrong cfg: %+v", gotCfg)
	}
	if gotPrev != reg1 {
		t.Fatalf("builder did not receive the previous registry")
	}
	if Config().MaxIDLength != 64 {
		t.Fatalf("Config() = %+v", Config())
	}
}

func TestSetConfig_NoRegistry_StaysAbsent(t *testing.T) {
	b := &mockBuilder{}
	resetWithBuilder(t, b, config.DefaultConfig())

	SetConfig(config.NewConfig(config.WithMaxIDLength(8)))
	if _, ok := Current(); ok {
		t.Fatalf("SetConfig loaded a registry")
	}
	if b.builds() != 0 {
		t.Fatalf("builds = %d, want 0", b.builds())
	}
}

func TestSetRegistry_PinsRegistry(t *testing.T) {
	resetWithBuilder(t, &mockBuilder{}, config.DefaultConfig())

	custom := registry.New(config.DefaultConfig())
	SetRegistry(custom)
	if !IsRegistryPinned() {
		t.Fatalf("SetRegistry did not pin")
	}

	SetConfig(config.NewConfig(config.WithMaxScaleSize(16)))
	if Registry() != custom {
		t.Fatalf("pinned registry was rebuilt unexpectedly")
	}

	// Open keeps an installed registry.
	if Open() != custom {
		t.Fatalf("Open replaced the pinned registry")
	}

	SetRegistry(nil)
	if Registry() != custom {
		t.Fatalf("SetRegistry(nil) changed the registry")
	}
}

func TestSetBuilder_Rebuilds_Only_Unpinned(t *testing.T) {
	a := &mockBuilder{}
	resetWithBuilder(t, a, config.DefaultConfig())

	Open()
	PinRegistry()
	regBefore := Registry()

	b := &mockBuilder{}
	SetBuilder(b)
	if Builder() != b {
		t.Fatalf("Builder() did not return the new builder")
	}
	if Registry() != regBefore || b.builds() != 0 {
		t.Fatalf("pinned registry was rebuilt after SetBuilder")
	}

	UnpinRegistry()
	SetBuilder(a)
	if Registry() == regBefore {
		t.Fatalf("registry did not rebuild after UnpinRegistry + SetBuilder")
	}

	SetBuilder(nil)
	if Builder() != a {
		t.Fatalf("SetBuilder(nil) changed the builder")
	}
}

func TestNilRegistryFromBuilder_Panics(t *testing.T) {
	b := &mockBuilder{returnNilReg: true}
	resetWithBuilder(t, b, config.DefaultConfig())

	defer func() {
		if p := recover(); p != ErrNilRegistry {
			t.Fatalf("recover() = %v, want ErrNilRegistry", p)
		}
		if _, ok := Current(); ok {
			t.Fatalf("failed Open published a registry")
		}
	}()
	Open()
}

func TestLoadRegistry(t *testing.T) {
	resetWithBuilder(t, &mockBuilder{}, config.DefaultConfig())

	path := filepath.Join(t.TempDir(), "tunings.yaml")
	if err := os.WriteFile(path, []byte("bp: {type: equal, step: 1.5}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := LoadRegistry(path); err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if !IsRegistryPinned() {
		t.Fatalf("loaded registry is not pinned")
	}
	if got := Resolve(ref.Var("bp")); !got.Equal(tuning.Equal(1.5)) {
		t.Fatalf("Resolve(bp) = %v", got)
	}

	if err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("LoadRegistry of a missing file succeeded")
	}
	if Registry().Count() != 1 {
		t.Fatalf("failed load replaced the registry")
	}
}

func TestNewWireBuffer_UsesConfig(t *testing.T) {
	resetWithBuilder(t, &mockBuilder{}, config.NewConfig(config.WithMaxIDLength(3)))

	b := NewWireBuffer(nil)
	if err := ref.EncodeWire(b, ref.Var("long")); !errors.Is(err, wire.ErrStringTooLong) {
		t.Fatalf("err = %v, want ErrStringTooLong", err)
	}
	if err := ref.EncodeWire(b, ref.Var("bp")); err != nil {
		t.Fatalf("EncodeWire: %v", err)
	}
	got, err := ref.DecodeWire(NewWireBuffer(b.Bytes()))
	if err != nil || !got.Equal(ref.Var("bp")) {
		t.Fatalf("DecodeWire = (%v,%v)", got, err)
	}
}

func TestResolve_Concurrent_With_SetConfig(t *testing.T) {
	resetWithBuilder(t, &mockBuilder{}, config.DefaultConfig())
	Open()
	_ = Register("bp", tuning.Equal(1.5))

	done := make(chan struct{})
	var wg sync.WaitGroup

	readers := runtime.GOMAXPROCS(0) * 4
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if got := Resolve(ref.Var("bp")); !got.Equal(tuning.Equal(1.5)) {
					t.Errorf("Resolve(bp) = %v during rebuild", got)
					return
				}
			}
		}()
	}

	go func() {
		for i := 0; i < 20; i++ {
			SetConfig(config.NewConfig(config.WithMaxIDLength(16 + i)))
			_ = Register("w"+strconv.Itoa(i), tuning.Equal(float64(i)))
			time.Sleep(time.Millisecond)
		}
		close(done)
	}()

	wg.Wait()
	<-done
}
