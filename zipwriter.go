package apkpack

import (
	"hash/crc32"
)

// zipEntryRecord is one logical file staged for archiving, in the order
// it will appear in the archive.
type zipEntryRecord struct {
	name string
	data []byte
}

// zipBuildResult is everything downstream signing needs: the raw archive
// bytes, plus the offsets of the central directory and the EOCD record
// (v1 signing needs neither, but v2/v3 and EOCD patching do).
type zipBuildResult struct {
	archive       []byte
	centralDirOff uint32
	eocdOff       uint32
}

const (
	localFileHeaderSig  = 0x04034b50
	centralDirHeaderSig = 0x02014b50
	eocdSig             = 0x06054b50
)

// buildZip writes a deterministic, 4-byte-aligned, stored-only (method 0)
// ZIP archive: every local file header's data starts on a 4-byte
// boundary, entry order matches input order exactly, and no timestamp,
// UID/GID, or extra field varies between builds of the same inputs
// (spec §4.J's determinism requirement).
func buildZip(entries []zipEntryRecord) *zipBuildResult {
	w := newByteWriter()

	type central struct {
		name     string
		crc      uint32
		size     uint32
		localOff uint32
	}
	var centrals []central

	for _, e := range entries {
		localOff := uint32(w.offset())
		crc := crc32.ChecksumIEEE(e.data)

		w.u32(localFileHeaderSig)
		w.u16(20) // version needed to extract
		w.u16(0)  // flags
		w.u16(0)  // method: stored
		w.u16(0)  // mod time, fixed
		w.u16(0)  // mod date, fixed
		w.u32(crc)
		w.u32(uint32(len(e.data)))
		w.u32(uint32(len(e.data)))
		w.u16(uint16(len(e.name)))

		extraLen := alignPad(w.offset() + 2 + len(e.name))
		w.u16(uint16(len(extraLen)))
		w.raw([]byte(e.name))
		w.raw(extraLen)

		w.raw(e.data)

		centrals = append(centrals, central{name: e.name, crc: crc, size: uint32(len(e.data)), localOff: localOff})
	}

	centralDirOff := uint32(w.offset())
	for _, c := range centrals {
		w.u32(centralDirHeaderSig)
		w.u16(20) // version made by
		w.u16(20) // version needed to extract
		w.u16(0)  // flags
		w.u16(0)  // method: stored
		w.u16(0)  // mod time
		w.u16(0)  // mod date
		w.u32(c.crc)
		w.u32(c.size)
		w.u32(c.size)
		w.u16(uint16(len(c.name)))
		w.u16(0) // extra len
		w.u16(0) // comment len
		w.u16(0) // disk number start
		w.u16(0) // internal attrs
		w.u32(0) // external attrs
		w.u32(c.localOff)
		w.raw([]byte(c.name))
	}
	centralDirSize := uint32(w.offset()) - centralDirOff

	eocdOff := uint32(w.offset())
	w.u32(eocdSig)
	w.u16(0) // disk number
	w.u16(0) // disk with central dir
	w.u16(uint16(len(centrals)))
	w.u16(uint16(len(centrals)))
	w.u32(centralDirSize)
	w.u32(centralDirOff)
	w.u16(0) // comment length

	return &zipBuildResult{archive: w.Bytes(), centralDirOff: centralDirOff, eocdOff: eocdOff}
}

// alignPad returns the zero-fill extra field needed so that the byte
// immediately after a local file header (where the entry's data begins)
// lands on a 4-byte boundary. headerEnd is the write offset right after
// the local header's fixed fields and the filename.
func alignPad(headerEnd int) []byte {
	rem := headerEnd % 4
	if rem == 0 {
		return nil
	}
	return make([]byte, 4-rem)
}
