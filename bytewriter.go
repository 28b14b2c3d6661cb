package apkpack

import (
	"bytes"
	"encoding/binary"
)

// byteWriter accumulates a chunk's bytes with little-endian integer
// helpers and offset/padding bookkeeping, mirroring the chunked layout
// every ResChunk and ZIP record needs.
type byteWriter struct {
	buf bytes.Buffer
}

func newByteWriter() *byteWriter { return &byteWriter{} }

func (w *byteWriter) Len() int { return w.buf.Len() }

func (w *byteWriter) Bytes() []byte { return w.buf.Bytes() }

func (w *byteWriter) u8(v uint8) { w.buf.WriteByte(v) }

func (w *byteWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *byteWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *byteWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *byteWriter) raw(b []byte) { w.buf.Write(b) }

func (w *byteWriter) zero(n int) {
	for i := 0; i < n; i++ {
		w.buf.WriteByte(0)
	}
}

// padTo4 appends zero bytes until Len() is a multiple of 4.
func (w *byteWriter) padTo4() {
	if rem := w.Len() % 4; rem != 0 {
		w.zero(4 - rem)
	}
}

// offset captures the current write position, for patching length fields
// after the fact (e.g. a ResChunk's size, which is only known once its
// payload has been written).
func (w *byteWriter) offset() int { return w.Len() }

// patchU32 overwrites 4 bytes at a previously captured offset. Used to
// backfill chunk sizes once the payload length is known.
func (w *byteWriter) patchU32(at int, v uint32) {
	b := w.buf.Bytes()
	binary.LittleEndian.PutUint32(b[at:at+4], v)
}

func (w *byteWriter) patchU16(at int, v uint16) {
	b := w.buf.Bytes()
	binary.LittleEndian.PutUint16(b[at:at+2], v)
}

// chunk writes a {type,header_size,size} preamble, runs fn to emit the
// rest of the header plus payload, then backfills the size field with
// the true total.
func (w *byteWriter) chunk(chunkType uint16, headerSize uint16, fn func()) {
	start := w.offset()
	w.u16(chunkType)
	w.u16(headerSize)
	sizeAt := w.offset()
	w.u32(0) // patched below
	fn()
	w.patchU32(sizeAt, uint32(w.offset()-start))
}

// lp32 writes fn's output preceded by its own little-endian uint32
// length, the framing the APK Signing Block format uses throughout
// (spec §4.L). The block format is entirely little-endian, unlike
// cryptobyte's big-endian-only length-prefixed helpers, so this core
// hand-writes the framing instead of reaching for that package.
func (w *byteWriter) lp32(fn func()) {
	sizeAt := w.offset()
	w.u32(0)
	start := w.offset()
	fn()
	w.patchU32(sizeAt, uint32(w.offset()-start))
}
