// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Field limits, enforced on both sides: the encoder refuses to produce
// a frame it could not decode, the decoder rejects oversize lengths
// before allocating.
const (
	maxStringLen  = 1 << 16
	maxBytesLen   = 1 << 22
	maxSliceCount = 1 << 12
)

// Writer serializes packet fields in declared order. The first
// oversize-field error latches; subsequent writes are no-ops.
type Writer struct {
	buf bytes.Buffer
	err error
}

// Bytes returns the encoded payload.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Err returns the latched encode error, if any.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) oversize(what string, n, limit int) {
	if w.err == nil {
		w.err = oops.Code(CodeOversizeField).
			With("field", what).
			With("length", n).
			With("limit", limit).
			Errorf("%s of %d bytes exceeds wire limit %d", what, n, limit)
	}
}

// Bool writes a single presence/flag byte.
func (w *Writer) Bool(v bool) {
	if w.err != nil {
		return
	}
	if v {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

// Uint8 writes one byte.
func (w *Writer) Uint8(v uint8) {
	if w.err != nil {
		return
	}
	w.buf.WriteByte(v)
}

// Int32 writes a fixed 4-byte big-endian signed integer.
func (w *Writer) Int32(v int32) {
	if w.err != nil {
		return
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf.Write(b[:])
}

// Uint32 writes a fixed 4-byte big-endian unsigned integer.
func (w *Writer) Uint32(v uint32) {
	if w.err != nil {
		return
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// Int64 writes a fixed 8-byte big-endian signed integer.
func (w *Writer) Int64(v int64) {
	if w.err != nil {
		return
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
}

// Float64 writes an IEEE 754 double.
func (w *Writer) Float64(v float64) {
	if w.err != nil {
		return
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
}

// String writes a length-prefixed UTF-8 string. The length must fit
// the 2-byte prefix.
func (w *Writer) String(s string) {
	if w.err != nil {
		return
	}
	if len(s) >= maxStringLen {
		w.oversize("string", len(s), maxStringLen)
		return
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(len(s)))
	w.buf.Write(b[:])
	w.buf.WriteString(s)
}

// Bytes32 writes a 4-byte length-prefixed byte block.
func (w *Writer) Bytes32(p []byte) {
	if w.err != nil {
		return
	}
	if len(p) > maxBytesLen {
		w.oversize("bytes", len(p), maxBytesLen)
		return
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(len(p)))
	w.buf.Write(b[:])
	w.buf.Write(p)
}

// ULID writes the 16 raw bytes of a ULID.
func (w *Writer) ULID(id ulid.ULID) {
	if w.err != nil {
		return
	}
	w.buf.Write(id[:])
}

// Time writes a timestamp as Unix milliseconds.
func (w *Writer) Time(t time.Time) {
	w.Int64(t.UnixMilli())
}

// StringSlice writes a count-prefixed list of strings.
func (w *Writer) StringSlice(ss []string) {
	if w.err != nil {
		return
	}
	if len(ss) > maxSliceCount {
		w.oversize("string slice", len(ss), maxSliceCount)
		return
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(len(ss)))
	w.buf.Write(b[:])
	for _, s := range ss {
		w.String(s)
	}
}

// ULIDSlice writes a count-prefixed list of ULIDs.
func (w *Writer) ULIDSlice(ids []ulid.ULID) {
	if w.err != nil {
		return
	}
	if len(ids) > maxSliceCount {
		w.oversize("ulid slice", len(ids), maxSliceCount)
		return
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(len(ids)))
	w.buf.Write(b[:])
	for _, id := range ids {
		w.ULID(id)
	}
}

// OptString writes a presence byte followed by the string when present.
// Absent is distinct from present-but-empty.
func (w *Writer) OptString(s *string) {
	if s == nil {
		w.Bool(false)
		return
	}
	w.Bool(true)
	w.String(*s)
}

// OptULID writes a presence byte followed by the id when present.
func (w *Writer) OptULID(id *ulid.ULID) {
	if id == nil {
		w.Bool(false)
		return
	}
	w.Bool(true)
	w.ULID(*id)
}

// OptTime writes a presence byte followed by the timestamp when present.
func (w *Writer) OptTime(t *time.Time) {
	if t == nil {
		w.Bool(false)
		return
	}
	w.Bool(true)
	w.Time(*t)
}

// OptFloat64 writes a presence byte followed by the value when present.
func (w *Writer) OptFloat64(v *float64) {
	if v == nil {
		w.Bool(false)
		return
	}
	w.Bool(true)
	w.Float64(*v)
}

// OptUint8 writes a presence byte followed by the value when present.
func (w *Writer) OptUint8(v *uint8) {
	if v == nil {
		w.Bool(false)
		return
	}
	w.Bool(true)
	w.Uint8(*v)
}

// Reader deserializes packet fields in the same declared order. The
// first error latches; subsequent reads return zero values.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader creates a reader over a payload.
func NewReader(p []byte) *Reader {
	return &Reader{buf: p}
}

// Err returns the latched decode error, if any.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) fail(what string) {
	if r.err == nil {
		r.err = oops.Code(CodeTruncatedPacket).
			With("field", what).
			With("offset", r.off).
			Errorf("packet truncated reading %s", what)
	}
}

func (r *Reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.fail(what)
		return nil
	}
	p := r.buf[r.off : r.off+n]
	r.off += n
	return p
}

// Bool reads a flag byte.
func (r *Reader) Bool() bool {
	p := r.take(1, "bool")
	return p != nil && p[0] != 0
}

// Uint8 reads one byte.
func (r *Reader) Uint8() uint8 {
	p := r.take(1, "uint8")
	if p == nil {
		return 0
	}
	return p[0]
}

// Int32 reads a fixed 4-byte big-endian signed integer.
func (r *Reader) Int32() int32 {
	p := r.take(4, "int32")
	if p == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(p))
}

// Uint32 reads a fixed 4-byte big-endian unsigned integer.
func (r *Reader) Uint32() uint32 {
	p := r.take(4, "uint32")
	if p == nil {
		return 0
	}
	return binary.BigEndian.Uint32(p)
}

// Int64 reads a fixed 8-byte big-endian signed integer.
func (r *Reader) Int64() int64 {
	p := r.take(8, "int64")
	if p == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(p))
}

// Float64 reads an IEEE 754 double.
func (r *Reader) Float64() float64 {
	p := r.take(8, "float64")
	if p == nil {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(p))
}

// String reads a length-prefixed UTF-8 string. The 2-byte prefix
// bounds the length below maxStringLen by construction.
func (r *Reader) String() string {
	p := r.take(2, "string length")
	if p == nil {
		return ""
	}
	n := int(binary.BigEndian.Uint16(p))
	b := r.take(n, "string")
	return string(b)
}

// Bytes32 reads a 4-byte length-prefixed byte block.
func (r *Reader) Bytes32() []byte {
	p := r.take(4, "bytes length")
	if p == nil {
		return nil
	}
	n := int(binary.BigEndian.Uint32(p))
	if n > maxBytesLen {
		r.fail("bytes")
		return nil
	}
	b := r.take(n, "bytes")
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// ULID reads 16 raw ULID bytes.
func (r *Reader) ULID() ulid.ULID {
	var id ulid.ULID
	p := r.take(16, "ulid")
	if p != nil {
		copy(id[:], p)
	}
	return id
}

// Time reads a Unix-millisecond timestamp in UTC.
func (r *Reader) Time() time.Time {
	ms := r.Int64()
	if r.err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// StringSlice reads a count-prefixed list of strings.
func (r *Reader) StringSlice() []string {
	p := r.take(2, "slice count")
	if p == nil {
		return nil
	}
	n := int(binary.BigEndian.Uint16(p))
	if n > maxSliceCount {
		r.fail("string slice")
		return nil
	}
	if n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.String())
	}
	return out
}

// ULIDSlice reads a count-prefixed list of ULIDs.
func (r *Reader) ULIDSlice() []ulid.ULID {
	p := r.take(2, "slice count")
	if p == nil {
		return nil
	}
	n := int(binary.BigEndian.Uint16(p))
	if n > maxSliceCount {
		r.fail("ulid slice")
		return nil
	}
	if n == 0 {
		return nil
	}
	out := make([]ulid.ULID, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.ULID())
	}
	return out
}

// OptString reads a presence byte and, when set, the string.
func (r *Reader) OptString() *string {
	if !r.Bool() {
		return nil
	}
	s := r.String()
	return &s
}

// OptULID reads a presence byte and, when set, the id.
func (r *Reader) OptULID() *ulid.ULID {
	if !r.Bool() {
		return nil
	}
	id := r.ULID()
	return &id
}

// OptTime reads a presence byte and, when set, the timestamp.
func (r *Reader) OptTime() *time.Time {
	if !r.Bool() {
		return nil
	}
	t := r.Time()
	return &t
}

// OptFloat64 reads a presence byte and, when set, the value.
func (r *Reader) OptFloat64() *float64 {
	if !r.Bool() {
		return nil
	}
	v := r.Float64()
	return &v
}

// OptUint8 reads a presence byte and, when set, the value.
func (r *Reader) OptUint8() *uint8 {
	if !r.Bool() {
		return nil
	}
	v := r.Uint8()
	return &v
}
