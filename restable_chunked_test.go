package apkpack

import "testing"

func TestBuildResTableChunkedStructure(t *testing.T) {
	alloc := newResAllocator()
	alloc.declare("drawable", "preview")
	alloc.declare("string", "app_name")

	pool := NewStringPool()
	nameIdx := pool.Intern("res/drawable/preview.png")

	entries := map[string]map[string]resTableValue{
		"drawable": {"preview": {typ: AttrTypeString, data: nameIdx}},
	}

	out := buildResTableChunked(alloc, pool, entries, "com.e.t")

	chunks, err := walkTopLevelChunks(out)
	if err != nil {
		t.Fatalf("walkTopLevelChunks: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatalf("resources.arsc has no top-level chunks")
	}
	top := chunks[0]
	if top.id != chunkTable {
		t.Fatalf("top chunk type = %#x, want RES_TABLE_TYPE (%#x)", top.id, chunkTable)
	}
	if int(top.total) != len(out) {
		t.Fatalf("top chunk size field = %d, want %d", top.total, len(out))
	}

	// package_count is the u32 right after the 8-byte chunk preamble
	// (type/header_size/size), completing the 12-byte RES_TABLE_TYPE header.
	packageCount := leU32(out[8:12])
	if packageCount != 1 {
		t.Fatalf("package_count = %d, want 1", packageCount)
	}
}

func TestEncodePackageNameUTF16Padded(t *testing.T) {
	out := encodePackageName("abc")
	if len(out) != 256 {
		t.Fatalf("encoded package name length = %d, want 256 (128 UTF-16 code units)", len(out))
	}
	if leU16(out[0:2]) != 'a' || leU16(out[2:4]) != 'b' || leU16(out[4:6]) != 'c' {
		t.Fatalf("encoded name prefix does not match input")
	}
	if leU16(out[6:8]) != 0 {
		t.Fatalf("expected null padding after the name")
	}
}
