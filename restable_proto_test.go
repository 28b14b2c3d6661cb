package apkpack

import (
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestBuildResTableProtoStructure(t *testing.T) {
	alloc := newResAllocator()
	alloc.declare("drawable", "preview")

	entries := map[string]map[string]resTableProtoEntry{
		"drawable": {"preview": {name: "preview", filePath: "base/res/drawable/preview.png"}},
	}

	out := buildResTableProto(alloc, entries, "com.e.t")

	num, typ, n := protowire.ConsumeTag(out)
	if n < 0 || num != 2 || typ != protowire.BytesType {
		t.Fatalf("top-level field = (%d,%v,%d), want ResourceTable.package (2, bytes)", num, typ, n)
	}
	pkgBytes, n2 := protowire.ConsumeBytes(out[n:])
	if n2 < 0 {
		t.Fatalf("failed to consume Package bytes")
	}

	var sawPackageName, sawType bool
	rest := pkgBytes
	for len(rest) > 0 {
		fnum, ftyp, fn := protowire.ConsumeTag(rest)
		if fn < 0 {
			t.Fatalf("failed to consume Package field tag")
		}
		rest = rest[fn:]
		switch {
		case fnum == 2 && ftyp == protowire.BytesType:
			s, sn := protowire.ConsumeString(rest)
			if sn < 0 {
				t.Fatalf("failed to consume package_name")
			}
			if s != "com.e.t" {
				t.Fatalf("package_name = %q, want %q", s, "com.e.t")
			}
			sawPackageName = true
			rest = rest[sn:]
		case fnum == 3 && ftyp == protowire.BytesType:
			_, tn := protowire.ConsumeBytes(rest)
			if tn < 0 {
				t.Fatalf("failed to consume Type bytes")
			}
			sawType = true
			rest = rest[tn:]
		default:
			sz := protowire.ConsumeFieldValue(fnum, ftyp, rest)
			if sz < 0 {
				t.Fatalf("failed to skip unexpected Package field %d", fnum)
			}
			rest = rest[sz:]
		}
	}

	if !sawPackageName {
		t.Fatalf("did not find Package.package_name")
	}
	if !sawType {
		t.Fatalf("did not find Package.type")
	}
}

// TestBuildResTableProtoStringValue confirms a string-typed value resource
// (e.g. <string name="app_name">Hello</string>) round-trips through the
// proto resource table as a literal Item.str, not as a primitive wrapping a
// dangling global-string-pool index (resources.pb carries no such pool).
func TestBuildResTableProtoStringValue(t *testing.T) {
	alloc := newResAllocator()
	alloc.declare("string", "app_name")

	entries := map[string]map[string]resTableProtoEntry{
		"string": {"app_name": {name: "app_name", hasStr: true, str: "Hello"}},
	}

	out := buildResTableProto(alloc, entries, "com.e.t")

	item := findResTableProtoItem(t, out, "string", "app_name")

	fnum, ftyp, n := protowire.ConsumeTag(item)
	if n < 0 || fnum != 3 || ftyp != protowire.BytesType {
		t.Fatalf("Item field = (%d,%v), want (3, bytes) for Item.str", fnum, ftyp)
	}
	strMsg, n2 := protowire.ConsumeBytes(item[n:])
	if n2 < 0 {
		t.Fatalf("failed to consume String bytes")
	}

	vnum, vtyp, vn := protowire.ConsumeTag(strMsg)
	if vn < 0 || vnum != 1 || vtyp != protowire.BytesType {
		t.Fatalf("String field = (%d,%v), want (1, bytes) for String.value", vnum, vtyp)
	}
	s, sn := protowire.ConsumeString(strMsg[vn:])
	if sn < 0 {
		t.Fatalf("failed to consume String.value")
	}
	if s != "Hello" {
		t.Fatalf("String.value = %q, want %q", s, "Hello")
	}
}

// TestBuildMinimalAABStringResource is an end-to-end check that a non-empty
// values/*.xml survives Build(..., FormatAAB) as a literal string rather
// than a meaningless primitive int, closing the gap an empty <resources/>
// AAB seed left uncovered.
func TestBuildMinimalAABStringResource(t *testing.T) {
	identity := testSigningIdentityForBuild(t)
	inputs := minimalInputs()

	out, err := Build(inputs, identity, FormatAAB)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	zr, err := verifyZip(out)
	if err != nil {
		t.Fatalf("verifyZip: %v", err)
	}
	restable, err := readZipEntry(zr, "base/resources.pb")
	if err != nil {
		t.Fatalf("readZipEntry(base/resources.pb): %v", err)
	}

	item := findResTableProtoItem(t, restable, "string", "app_name")
	fnum, ftyp, n := protowire.ConsumeTag(item)
	if n < 0 || fnum != 3 || ftyp != protowire.BytesType {
		t.Fatalf("Item field = (%d,%v), want (3, bytes) for Item.str", fnum, ftyp)
	}
	strMsg, n2 := protowire.ConsumeBytes(item[n:])
	if n2 < 0 {
		t.Fatalf("failed to consume String bytes")
	}
	_, _, vn := protowire.ConsumeTag(strMsg)
	s, sn := protowire.ConsumeString(strMsg[vn:])
	if sn < 0 {
		t.Fatalf("failed to consume String.value")
	}
	if s != "Example" {
		t.Fatalf("app_name string value = %q, want %q", s, "Example")
	}
}

// findResTableProtoItem walks a buildResTableProto/Build-produced
// ResourceTable looking for the named type/entry's single ConfigValue.Item
// bytes, failing the test if any expected field along the way is missing.
func findResTableProtoItem(t *testing.T, table []byte, wantType, wantName string) []byte {
	t.Helper()

	pkgBytes := consumeField(t, table, 2)
	rest := pkgBytes
	for len(rest) > 0 {
		fnum, ftyp, n := protowire.ConsumeTag(rest)
		if n < 0 {
			t.Fatalf("failed to consume Package field tag")
		}
		rest = rest[n:]
		if fnum != 3 || ftyp != protowire.BytesType {
			sz := protowire.ConsumeFieldValue(fnum, ftyp, rest)
			if sz < 0 {
				t.Fatalf("failed to skip unexpected Package field %d", fnum)
			}
			rest = rest[sz:]
			continue
		}
		typeBytes, tn := protowire.ConsumeBytes(rest)
		if tn < 0 {
			t.Fatalf("failed to consume Type bytes")
		}
		rest = rest[tn:]

		var typeName string
		var entryBytesList [][]byte
		tr := typeBytes
		for len(tr) > 0 {
			fnum2, ftyp2, n2 := protowire.ConsumeTag(tr)
			if n2 < 0 {
				t.Fatalf("failed to consume Type field tag")
			}
			tr = tr[n2:]
			switch {
			case fnum2 == 3 && ftyp2 == protowire.BytesType:
				s, sn := protowire.ConsumeString(tr)
				if sn < 0 {
					t.Fatalf("failed to consume Type.name")
				}
				typeName = s
				tr = tr[sn:]
			case fnum2 == 4 && ftyp2 == protowire.BytesType:
				eb, en := protowire.ConsumeBytes(tr)
				if en < 0 {
					t.Fatalf("failed to consume Entry bytes")
				}
				entryBytesList = append(entryBytesList, eb)
				tr = tr[en:]
			default:
				sz := protowire.ConsumeFieldValue(fnum2, ftyp2, tr)
				if sz < 0 {
					t.Fatalf("failed to skip unexpected Type field %d", fnum2)
				}
				tr = tr[sz:]
			}
		}
		if typeName != wantType {
			continue
		}

		for _, eb := range entryBytesList {
			var entryName string
			var configValueBytes []byte
			er := eb
			for len(er) > 0 {
				fnum3, ftyp3, n3 := protowire.ConsumeTag(er)
				if n3 < 0 {
					t.Fatalf("failed to consume Entry field tag")
				}
				er = er[n3:]
				switch {
				case fnum3 == 3 && ftyp3 == protowire.BytesType:
					s, sn := protowire.ConsumeString(er)
					if sn < 0 {
						t.Fatalf("failed to consume Entry.name")
					}
					entryName = s
					er = er[sn:]
				case fnum3 == 4 && ftyp3 == protowire.BytesType:
					cv, cn := protowire.ConsumeBytes(er)
					if cn < 0 {
						t.Fatalf("failed to consume ConfigValue bytes")
					}
					configValueBytes = cv
					er = er[cn:]
				default:
					sz := protowire.ConsumeFieldValue(fnum3, ftyp3, er)
					if sz < 0 {
						t.Fatalf("failed to skip unexpected Entry field %d", fnum3)
					}
					er = er[sz:]
				}
			}
			if entryName != wantName {
				continue
			}

			value := consumeField(t, configValueBytes, 2)
			return consumeField(t, value, 2)
		}
	}

	t.Fatalf("did not find entry %s/%s in resource table", wantType, wantName)
	return nil
}

// consumeField scans a message's top-level fields for the first occurrence
// of wantField and returns its bytes payload.
func consumeField(t *testing.T, msg []byte, wantField int32) []byte {
	t.Helper()
	rest := msg
	for len(rest) > 0 {
		fnum, ftyp, n := protowire.ConsumeTag(rest)
		if n < 0 {
			t.Fatalf("failed to consume field tag")
		}
		rest = rest[n:]
		if fnum == protowire.Number(wantField) && ftyp == protowire.BytesType {
			b, bn := protowire.ConsumeBytes(rest)
			if bn < 0 {
				t.Fatalf("failed to consume bytes for field %d", wantField)
			}
			return b
		}
		sz := protowire.ConsumeFieldValue(fnum, ftyp, rest)
		if sz < 0 {
			t.Fatalf("failed to skip field %d", fnum)
		}
		rest = rest[sz:]
	}
	t.Fatalf("field %d not found", wantField)
	return nil
}

func TestFileRefTypeOf(t *testing.T) {
	cases := map[string]fileRefType{
		"res/drawable/a.png": fileRefPNG,
		"res/xml/a.xml":      fileRefXML,
		"res/raw/a.bin":      fileRefUnknown,
	}
	for name, want := range cases {
		if got := fileRefTypeOf(name); got != want {
			t.Fatalf("fileRefTypeOf(%q) = %v, want %v", name, got, want)
		}
	}
}
