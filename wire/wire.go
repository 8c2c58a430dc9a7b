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

// Package wire implements the compact binary stream used to move tuning
// references between processes.
//
// A Buffer is both written and read, in order. Values are encoded as:
//
//   - byte:    1 raw byte
//   - uvarint: unsigned LEB128 (encoding/binary)
//   - string:  uvarint byte length, then UTF-8 bytes
//   - float64: IEEE-754 bits, big-endian, 8 bytes
//
// Reads that run past the end of the buffer fail with ErrTruncated, which
// wraps io.ErrUnexpectedEOF.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

const (
	// DefaultMaxStringLength caps strings, in characters.
	DefaultMaxStringLength = 32767
	// DefaultMaxElements caps element counts announced by a length prefix.
	DefaultMaxElements = 1024
)

var (
	// ErrTruncated is returned when a read needs more bytes than remain.
	ErrTruncated = fmt.Errorf("tuneref(wire): truncated stream: %w", io.ErrUnexpectedEOF)
	// ErrStringTooLong is returned when a string exceeds the buffer's limit.
	ErrStringTooLong = errors.New("tuneref(wire): string exceeds length limit")
	// ErrInvalidUTF8 is returned for strings that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("tuneref(wire): string is not valid UTF-8")
	// ErrTooManyElements is returned when a count prefix exceeds the limit.
	ErrTooManyElements = errors.New("tuneref(wire): element count exceeds limit")
	// ErrVarintOverflow is returned for a uvarint wider than 64 bits.
	ErrVarintOverflow = errors.New("tuneref(wire): uvarint overflows 64 bits")
)

// Buffer is an append-only write / sequential read byte buffer.
// It is not safe for concurrent use.
type Buffer struct {
	b   []byte
	off int

	maxString   int
	maxElements int
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithMaxStringLength sets the string limit, in characters.
// Non-positive values reset to DefaultMaxStringLength.
func WithMaxStringLength(n int) Option {
	return func(b *Buffer) {
		if n <= 0 {
			n = DefaultMaxStringLength
		}
		b.maxString = n
	}
}

// WithMaxElements sets the limit for count prefixes read by ReadCount.
// Non-positive values reset to DefaultMaxElements.
func WithMaxElements(n int) Option {
	return func(b *Buffer) {
		if n <= 0 {
			n = DefaultMaxElements
		}
		b.maxElements = n
	}
}

// NewBuffer returns a Buffer whose unread portion starts as data.
// The Buffer takes ownership of data.
func NewBuffer(data []byte, opts ...Option) *Buffer {
	b := &Buffer{
		b:           data,
		maxString:   DefaultMaxStringLength,
		maxElements: DefaultMaxElements,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bytes returns the unread portion of the buffer.
func (b *Buffer) Bytes() []byte { return b.b[b.off:] }

// Len returns the number of unread bytes.
func (b *Buffer) Len() int { return len(b.b) - b.off }

// MaxStringLength reports the string limit in characters.
func (b *Buffer) MaxStringLength() int { return b.maxString }

// MaxElements reports the limit for count prefixes.
func (b *Buffer) MaxElements() int { return b.maxElements }

// PutByte appends c.
func (b *Buffer) PutByte(c byte) {
	b.b = append(b.b, c)
}

// PutUvarint appends v as an unsigned varint.
func (b *Buffer) PutUvarint(v uint64) {
	b.b = binary.AppendUvarint(b.b, v)
}

// PutFloat64 appends v as 8 big-endian bytes.
func (b *Buffer) PutFloat64(v float64) {
	b.b = binary.BigEndian.AppendUint64(b.b, math.Float64bits(v))
}

// PutString appends s with a uvarint byte-length prefix.
func (b *Buffer) PutString(s string) error {
	if err := b.CheckString(s); err != nil {
		return err
	}
	b.PutUvarint(uint64(len(s)))
	b.b = append(b.b, s...)
	return nil
}

// ReadByte consumes one byte.
func (b *Buffer) ReadByte() (byte, error) {
	if b.off >= len(b.b) {
		return 0, ErrTruncated
	}
	c := b.b[b.off]
	b.off++
	return c, nil
}

// ReadUvarint consumes an unsigned varint.
func (b *Buffer) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(b.b[b.off:])
	switch {
	case n == 0:
		return 0, ErrTruncated
	case n < 0:
		return 0, ErrVarintOverflow
	}
	b.off += n
	return v, nil
}

// ReadCount consumes a uvarint element count and checks it against the
// buffer's element limit.
func (b *Buffer) ReadCount() (int, error) {
	v, err := b.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if v > uint64(b.maxElements) {
		return 0, fmt.Errorf("%w: %d > %d", ErrTooManyElements, v, b.maxElements)
	}
	return int(v), nil
}

// ReadFloat64 consumes 8 big-endian bytes.
func (b *Buffer) ReadFloat64() (float64, error) {
	if b.Len() < 8 {
		return 0, ErrTruncated
	}
	bits := binary.BigEndian.Uint64(b.b[b.off:])
	b.off += 8
	return math.Float64frombits(bits), nil
}

// ReadString consumes a length-prefixed UTF-8 string.
func (b *Buffer) ReadString() (string, error) {
	n, err := b.ReadUvarint()
	if err != nil {
		return "", err
	}
	// A character is at most utf8.UTFMax bytes.
	if n > uint64(b.maxString)*utf8.UTFMax {
		return "", fmt.Errorf("%w: %d bytes", ErrStringTooLong, n)
	}
	if uint64(b.Len()) < n {
		return "", ErrTruncated
	}
	s := string(b.b[b.off : b.off+int(n)])
	if err := b.CheckString(s); err != nil {
		return "", err
	}
	b.off += int(n)
	return s, nil
}

// CheckCount reports whether ReadCount would accept a count of n.
func (b *Buffer) CheckCount(n int) error {
	if n > b.maxElements {
		return fmt.Errorf("%w: %d > %d", ErrTooManyElements, n, b.maxElements)
	}
	return nil
}

// CheckString reports whether PutString would accept s.
func (b *Buffer) CheckString(s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	if c := utf8.RuneCountInString(s); c > b.maxString {
		return fmt.Errorf("%w: %d > %d characters", ErrStringTooLong, c, b.maxString)
	}
	return nil
}
