package apkpack

import (
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// fileRefType mirrors aapt.pb.FileReference.Type, identifying how a file
// resource's bytes should be interpreted by the runtime that reads the
// bundle back (spec §4.H).
type fileRefType int32

const (
	fileRefUnknown  fileRefType = 0
	fileRefPNG      fileRefType = 1
	fileRefXML      fileRefType = 3
	fileRefProtoXML fileRefType = 4
)

func fileRefTypeOf(name string) fileRefType {
	switch {
	case strings.HasSuffix(name, ".png"):
		return fileRefPNG
	case strings.HasSuffix(name, ".xml"):
		return fileRefXML
	default:
		return fileRefUnknown
	}
}

// resTableProtoEntry is one resolved entry as the proto resource table
// back-end needs it: a primitive/reference Item, a literal string (hasStr),
// or a file path (for AAB, file resources live under base/res/... and
// compiled value XML lives under base/res/.../*.xml.pb). String-typed
// value resources carry their literal text rather than a global-pool
// index, since resources.pb has no shared string pool for an index to
// point into.
type resTableProtoEntry struct {
	name     string
	item     *resTableValue // nil if hasStr or filePath is set
	hasStr   bool
	str      string
	filePath string
}

// buildResTableProto renders resources.pb: one aapt.pb.ResourceTable
// with a single Package, one Type per resource type, one Entry per
// resource name, each holding a single default-configuration ConfigValue
// (spec §4.H). Field numbers follow aapt2's Resources.proto:
//
//	ResourceTable: package=2
//	Package:       package_id=1, package_name=2, type=3
//	Type:          type_id=1, name=3, entry=4
//	Entry:         entry_id=1, name=3, config_value=4
//	ConfigValue:   config=1, value=2
//	Value:         item=2
//	Item:          prim=1, ref=2, str=3, file=6
//	String:        value=1
func buildResTableProto(alloc *resAllocator, entries map[string]map[string]resTableProtoEntry, packageName string) []byte {
	var pkg []byte
	pkg = protowire.AppendTag(pkg, 1, protowire.VarintType)
	pkg = protowire.AppendVarint(pkg, applicationPackageID)
	pkg = protowire.AppendTag(pkg, 2, protowire.BytesType)
	pkg = protowire.AppendString(pkg, packageName)

	for _, t := range alloc.types() {
		typeIdx := alloc.typeIndexOf(t)
		typeMsg := marshalResType(typeIdx, t, alloc.entriesOf(t), entries[t])
		pkg = protowire.AppendTag(pkg, 3, protowire.BytesType)
		pkg = protowire.AppendBytes(pkg, typeMsg)
	}

	var table []byte
	table = protowire.AppendTag(table, 2, protowire.BytesType)
	table = protowire.AppendBytes(table, pkg)
	return table
}

func marshalResType(typeIdx int, typeName string, names []string, entries map[string]resTableProtoEntry) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(typeIdx))
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendString(b, typeName)

	for idx, name := range names {
		entry := marshalResEntry(idx, name, entries[name])
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

func marshalResEntry(entryIdx int, name string, e resTableProtoEntry) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(entryIdx))
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendString(b, name)

	cv := marshalConfigValue(e)
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	b = protowire.AppendBytes(b, cv)
	return b
}

// marshalConfigValue emits a single ConfigValue carrying the default
// (all-zero) configuration; per-qualifier configurations are out of
// scope (spec §1 non-goals).
func marshalConfigValue(e resTableProtoEntry) []byte {
	var config []byte // aapt.pb.Configuration{}, all fields default/unset

	value := marshalValue(e)

	var cv []byte
	cv = protowire.AppendTag(cv, 1, protowire.BytesType)
	cv = protowire.AppendBytes(cv, config)
	cv = protowire.AppendTag(cv, 2, protowire.BytesType)
	cv = protowire.AppendBytes(cv, value)
	return cv
}

func marshalValue(e resTableProtoEntry) []byte {
	item := marshalItem(e)
	var v []byte
	v = protowire.AppendTag(v, 2, protowire.BytesType)
	v = protowire.AppendBytes(v, item)
	return v
}

func marshalItem(e resTableProtoEntry) []byte {
	var b []byte

	if e.filePath != "" {
		var fileRef []byte
		fileRef = protowire.AppendTag(fileRef, 1, protowire.BytesType)
		fileRef = protowire.AppendString(fileRef, e.filePath)
		fileRef = protowire.AppendTag(fileRef, 2, protowire.VarintType)
		fileRef = protowire.AppendVarint(fileRef, uint64(fileRefTypeOf(e.filePath)))

		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendBytes(b, fileRef)
		return b
	}

	if e.hasStr {
		var str []byte
		str = protowire.AppendTag(str, 1, protowire.BytesType)
		str = protowire.AppendString(str, e.str)

		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, str)
		return b
	}

	v := e.item
	if v == nil {
		return b
	}

	if v.typ == AttrTypeReference {
		var ref []byte
		ref = protowire.AppendTag(ref, 1, protowire.VarintType)
		ref = protowire.AppendVarint(ref, uint64(v.data))
		ref = protowire.AppendTag(ref, 3, protowire.VarintType)
		ref = protowire.AppendVarint(ref, 1) // Reference.Type.REFERENCE

		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, ref)
		return b
	}

	var prim []byte
	switch v.typ {
	case AttrTypeIntBool:
		prim = protowire.AppendTag(prim, 8, protowire.VarintType) // Primitive.boolean_value
		prim = protowire.AppendVarint(prim, boolVarint(v.data != 0))
	case AttrTypeIntDec:
		prim = protowire.AppendTag(prim, 2, protowire.VarintType) // Primitive.int_decimal_value
		prim = protowire.AppendVarint(prim, uint64(uint32(v.data)))
	case AttrTypeIntHex:
		prim = protowire.AppendTag(prim, 3, protowire.VarintType) // Primitive.int_hexadecimal_value
		prim = protowire.AppendVarint(prim, uint64(v.data))
	case AttrTypeFloat:
		prim = protowire.AppendTag(prim, 1, protowire.Fixed32Type)
		prim = protowire.AppendFixed32(prim, v.data)
	case AttrTypeDimension:
		prim = protowire.AppendTag(prim, 6, protowire.VarintType) // Primitive.dimension_value
		prim = protowire.AppendVarint(prim, uint64(v.data))
	case AttrTypeFraction:
		prim = protowire.AppendTag(prim, 7, protowire.VarintType) // Primitive.fraction_value
		prim = protowire.AppendVarint(prim, uint64(v.data))
	case AttrTypeIntColorArgb8, AttrTypeIntColorRgb8, AttrTypeIntColorArgb4, AttrTypeIntColorRgb4:
		prim = protowire.AppendTag(prim, 9, protowire.VarintType) // Primitive.color_argb8_value (approximate: see DESIGN.md)
		prim = protowire.AppendVarint(prim, uint64(v.data))
	default:
		prim = protowire.AppendTag(prim, 2, protowire.VarintType)
		prim = protowire.AppendVarint(prim, uint64(v.data))
	}

	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, prim)
	return b
}

func boolVarint(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
