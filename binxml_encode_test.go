package apkpack

import "testing"

func TestEncodeBinaryXMLProducesValidChunkHeader(t *testing.T) {
	raw := []byte(`<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.e.t"/>`)
	alloc := newResAllocator()
	doc, err := compileXML(raw, alloc)
	if err != nil {
		t.Fatalf("compileXML: %v", err)
	}

	out := encodeBinaryXML(doc)

	chunks, err := walkTopLevelChunks(out)
	if err != nil {
		t.Fatalf("walkTopLevelChunks: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatalf("encoded document has no top-level chunks")
	}
	top := chunks[0]
	if top.id != chunkAxmlFile {
		t.Fatalf("chunk type = %#x, want RES_XML_TYPE (%#x)", top.id, chunkAxmlFile)
	}
	if int(top.total) != len(out) {
		t.Fatalf("chunk size field = %d, want %d (full buffer)", top.total, len(out))
	}
}

func TestEncodeBinaryXMLDeterministic(t *testing.T) {
	raw := []byte(`<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.e.t" android:versionCode="1"/>`)

	doc1, err := compileXML(raw, newResAllocator())
	if err != nil {
		t.Fatalf("compileXML (1): %v", err)
	}
	doc2, err := compileXML(raw, newResAllocator())
	if err != nil {
		t.Fatalf("compileXML (2): %v", err)
	}

	out1, out2 := encodeBinaryXML(doc1), encodeBinaryXML(doc2)
	if len(out1) != len(out2) {
		t.Fatalf("encodings differ in length: %d vs %d", len(out1), len(out2))
	}
	for i := range out1 {
		if out1[i] != out2[i] {
			t.Fatalf("encodings diverge at byte %d", i)
		}
	}
}

func TestResourceMapChunkPresentWhenAttributesMapped(t *testing.T) {
	raw := []byte(`<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.e.t" android:versionCode="1"/>`)
	doc, err := compileXML(raw, newResAllocator())
	if err != nil {
		t.Fatalf("compileXML: %v", err)
	}
	out := encodeBinaryXML(doc)

	top, err := walkTopLevelChunks(out)
	if err != nil || len(top) == 0 {
		t.Fatalf("walkTopLevelChunks: %v", err)
	}
	nested, err := walkTopLevelChunks(out[chunkHeaderSize:top[0].total])
	if err != nil {
		t.Fatalf("walkTopLevelChunks (nested): %v", err)
	}

	found := false
	for _, c := range nested {
		if c.id == chunkResourceIds {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a RES_XML_RESOURCE_MAP_TYPE chunk since versionCode is framework-mapped")
	}
}
