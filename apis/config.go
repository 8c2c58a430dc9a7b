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

// Config carries read-only limits shared by registries and wire buffers.
// It is passed by value and should be treated as immutable by implementations.
type Config struct {
	// MaxIDLength caps tuning ids, in characters. Registries reject longer
	// ids because they could not travel over the wire.
	MaxIDLength int

	// MaxScaleSize caps the number of ratios in a single just tuning, both
	// in registries and in wire decoders.
	MaxScaleSize int
}
