package apkpack

// buildResTableChunked renders resources.arsc: a RES_TABLE_TYPE chunk
// wrapping one RES_TABLE_PACKAGE_TYPE, itself wrapping a type-strings
// pool, a key-strings pool, and one RES_TABLE_TYPE_SPEC_TYPE +
// RES_TABLE_TYPE_TYPE pair per resource type (spec §4.G).
func buildResTableChunked(alloc *resAllocator, globalPool *StringPool, entries map[string]map[string]resTableValue, packageName string) []byte {
	w := newByteWriter()

	w.chunk(chunkTable, chunkHeaderSize+4, func() {
		w.u32(1) // package_count

		w.raw(globalPool.Encode())

		w.raw(buildResTablePackage(alloc, entries, packageName))
	})

	return w.Bytes()
}

func buildResTablePackage(alloc *resAllocator, entries map[string]map[string]resTableValue, packageName string) []byte {
	w := newByteWriter()

	w.chunk(chunkTablePackage, 288, func() {
		w.u32(applicationPackageID)
		w.raw(encodePackageName(packageName))

		typeStringsAt := w.offset()
		w.u32(0) // patched
		w.u32(0) // last_public_type
		keyStringsAt := w.offset()
		w.u32(0) // patched
		w.u32(0) // last_public_key
		w.u32(0) // type_id_offset

		typeStrings := NewStringPool()
		for _, t := range alloc.types() {
			typeStrings.Intern(t)
		}

		keyStrings := NewStringPool()
		for _, t := range alloc.types() {
			for _, name := range alloc.entriesOf(t) {
				keyStrings.Intern(name)
			}
		}

		// The package chunk's header_size (288) is also the byte offset,
		// relative to this chunk's own start, of the data immediately
		// following its fixed fields — exactly where the type-strings
		// pool begins.
		w.patchU32(typeStringsAt, 288)
		typeStringsBytes := typeStrings.Encode()
		w.raw(typeStringsBytes)

		keyStringsOff := 288 + len(typeStringsBytes)
		w.patchU32(keyStringsAt, uint32(keyStringsOff))
		w.raw(keyStrings.Encode())

		for _, t := range alloc.types() {
			typeIdx := alloc.typeIndexOf(t)
			names := alloc.entriesOf(t)
			w.raw(buildTypeSpec(typeIdx, len(names)))
			w.raw(buildTypeType(typeIdx, names, entries[t], keyStrings))
		}
	})

	return w.Bytes()
}

func encodePackageName(name string) []byte {
	w := newByteWriter()
	count := 0
	for _, r := range name {
		if count >= 127 {
			break
		}
		w.u16(uint16(r))
		count++
	}
	for i := count; i < 128; i++ {
		w.u16(0)
	}
	return w.Bytes()
}

func buildTypeSpec(typeIdx int, entryCount int) []byte {
	w := newByteWriter()
	w.chunk(chunkTableTypeSpec, 16, func() {
		w.u8(uint8(typeIdx))
		w.u8(0)
		w.u16(0)
		w.u32(uint32(entryCount))
		for i := 0; i < entryCount; i++ {
			w.u32(0) // no configuration variance: every entry's spec flags are 0
		}
	})
	return w.Bytes()
}

const resTableConfigSize = 64

func buildTypeType(typeIdx int, names []string, values map[string]resTableValue, keyStrings *StringPool) []byte {
	w := newByteWriter()

	// ResTable_type header_size: 8 (preamble) + 4(id/res0/res0) + 4(entryCount)
	// + 4(entriesStart) + 64(config) = 84, then offsets[] and entries[] follow
	// as the chunk's variable-length payload.
	w.chunk(chunkTableType, 84, func() {
		w.u8(uint8(typeIdx))
		w.u8(0)
		w.u16(0)
		w.u32(uint32(len(names)))

		entriesStartAt := w.offset()
		w.u32(0) // patched

		w.zero(resTableConfigSize)

		offsetsAt := w.offset()
		for range names {
			w.u32(0) // patched below
		}

		entriesStart := uint32(w.offset())
		w.patchU32(entriesStartAt, entriesStart)

		var offsets []uint32
		for _, name := range names {
			offsets = append(offsets, uint32(w.offset())-entriesStart)

			keyIdx := keyStrings.Intern(name)

			v, ok := values[name]
			if !ok {
				v = resTableValue{typ: AttrTypeNull, data: 0}
			}

			w.u16(8) // ResTable_entry.size
			w.u16(0) // flags
			w.u32(uint32(keyIdx))

			w.u16(8) // Res_value.size
			w.u8(0)
			w.u8(uint8(v.typ))
			w.u32(v.data)
		}

		for i, off := range offsets {
			w.patchU32(offsetsAt+4*i, off)
		}
	})

	return w.Bytes()
}
