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

// Source gives access to the registry that variable references resolve
// against. The registry has its own lifecycle: it may be absent, and it
// may change between calls.
type Source interface {
	// Current returns the live registry, or (nil, false) when none is loaded.
	// It must be safe to call from any goroutine and must not block.
	Current() (Registry, bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Registry, bool)

// Current calls f.
func (f SourceFunc) Current() (Registry, bool) { return f() }

// Static returns a Source that always yields reg. A nil reg yields an
// absent registry.
func Static(reg Registry) Source {
	return SourceFunc(func() (Registry, bool) { return reg, reg != nil })
}
