package apkpack

import "testing"

func TestParseValuesXMLBasic(t *testing.T) {
	raw := []byte(`<resources>
		<string name="app_name">My App</string>
		<bool name="flag">true</bool>
	</resources>`)

	alloc := newResAllocator()
	pool := NewStringPool()
	entries, err := parseValuesXML(raw, alloc, pool)
	if err != nil {
		t.Fatalf("parseValuesXML: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	byName := make(map[string]valueResource)
	for _, e := range entries {
		byName[e.name] = e
	}

	appName, ok := byName["app_name"]
	if !ok {
		t.Fatalf("missing app_name entry")
	}
	if appName.typ != "string" || appName.value.typ != AttrTypeString {
		t.Fatalf("app_name entry = %+v, want type string/AttrTypeString", appName)
	}
	if appName.text != "My App" {
		t.Fatalf("app_name.text = %q, want %q", appName.text, "My App")
	}

	flag, ok := byName["flag"]
	if !ok {
		t.Fatalf("missing flag entry")
	}
	if flag.typ != "bool" || flag.value.typ != AttrTypeIntBool || flag.value.data != 0xFFFFFFFF {
		t.Fatalf("flag entry = %+v, want type bool/IntBool/true", flag)
	}
}

func TestParseValuesXMLEmpty(t *testing.T) {
	raw := []byte(`<resources/>`)
	entries, err := parseValuesXML(raw, newResAllocator(), NewStringPool())
	if err != nil {
		t.Fatalf("parseValuesXML: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries for an empty <resources/>, want 0", len(entries))
	}
}

func TestParseValuesXMLStringDedup(t *testing.T) {
	// spec §8 scenario 3: identical text across two entries shares one
	// string-pool slot.
	raw := []byte(`<resources>
		<string name="a">hello</string>
		<string name="b">hello</string>
	</resources>`)

	pool := NewStringPool()
	entries, err := parseValuesXML(raw, newResAllocator(), pool)
	if err != nil {
		t.Fatalf("parseValuesXML: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].value.data != entries[1].value.data {
		t.Fatalf("expected identical text to share a string-pool index, got %d and %d",
			entries[0].value.data, entries[1].value.data)
	}
	if pool.Len() != 1 {
		t.Fatalf("pool has %d entries, want 1 (deduplicated)", pool.Len())
	}
}
