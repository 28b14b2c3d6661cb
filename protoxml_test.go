package apkpack

import (
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestEncodeProtoXMLRootElement(t *testing.T) {
	raw := []byte(`<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.e.t" android:versionCode="1"/>`)
	doc, err := compileXML(raw, newResAllocator())
	if err != nil {
		t.Fatalf("compileXML: %v", err)
	}

	out := encodeProtoXML(doc)

	// Top level is XmlNode{element=1}: a single length-delimited field.
	num, typ, n := protowire.ConsumeTag(out)
	if n < 0 {
		t.Fatalf("failed to consume top-level tag")
	}
	if num != 1 || typ != protowire.BytesType {
		t.Fatalf("top-level field = (%d,%v), want (1, bytes) for XmlNode.element", num, typ)
	}

	elemBytes, n2 := protowire.ConsumeBytes(out[n:])
	if n2 < 0 {
		t.Fatalf("failed to consume element bytes")
	}

	var sawName, sawAttr bool
	rest := elemBytes
	for len(rest) > 0 {
		fnum, ftyp, fn := protowire.ConsumeTag(rest)
		if fn < 0 {
			t.Fatalf("failed to consume field tag in XmlElement")
		}
		rest = rest[fn:]
		switch {
		case fnum == 2 && ftyp == protowire.BytesType:
			s, sn := protowire.ConsumeString(rest)
			if sn < 0 {
				t.Fatalf("failed to consume name string")
			}
			if s != "manifest" {
				t.Fatalf("element name = %q, want %q", s, "manifest")
			}
			sawName = true
			rest = rest[sn:]
		case fnum == 4 && ftyp == protowire.BytesType:
			_, an := protowire.ConsumeBytes(rest)
			if an < 0 {
				t.Fatalf("failed to consume attribute bytes")
			}
			sawAttr = true
			rest = rest[an:]
		default:
			sz := protowire.ConsumeFieldValue(fnum, ftyp, rest)
			if sz < 0 {
				t.Fatalf("failed to skip unexpected field %d", fnum)
			}
			rest = rest[sz:]
		}
	}

	if !sawName {
		t.Fatalf("did not find XmlElement.name field")
	}
	if !sawAttr {
		t.Fatalf("did not find any XmlElement.attribute field")
	}
}
