package apkpack

import (
	"math"
	"strconv"
	"strings"
)

// typedValue is the inferred typed form of one attribute or value-resource
// value. Raw always holds the original literal text (ProtoXML's
// XmlAttribute.value is always the literal, regardless of type); Type and
// Data carry the typed payload.
type typedValue struct {
	Type AttrType
	Data uint32
	Raw  string
}

// xmlAttr is a fully-typed, resource-map-resolved attribute.
type xmlAttr struct {
	NS       string // resolved namespace URI, "" if none
	Name     string
	Value    typedValue
	ResID    uint32 // framework resource ID, 0 if unmapped
	IsMapped bool
}

type xmlEventKind int

const (
	evStartNamespace xmlEventKind = iota
	evEndNamespace
	evStartElement
	evEndElement
	evCData
)

type xmlEvent struct {
	kind   xmlEventKind
	prefix string
	uri    string
	ns     string
	name   string
	attrs  []xmlAttr
	text   string
}

// CompiledXML is the neutral, typed-attribute AST that both the chunked
// (binxml_encode.go) and protobuf (protoxml.go) back-ends render from, so
// the two dialects can never diverge in what they say about a document
// (spec §9 design note).
type CompiledXML struct {
	Strings     *StringPool
	ResourceMap []uint32 // framework attribute IDs, parallel to the pool's first len(ResourceMap) strings
	Events      []xmlEvent
}

// compileXML parses text XML and produces its typed, resource-resolved
// form. alloc resolves @type/name references against resources declared
// earlier in the same build.
func compileXML(raw []byte, alloc *resAllocator) (*CompiledXML, error) {
	rawEvents, err := parseXMLTokens(raw)
	if err != nil {
		return nil, err
	}

	pool := NewStringPool()

	// Pass 1: intern every distinct mapped framework attribute name, in
	// first-use order, BEFORE anything else touches the pool, so these
	// strings land at indices 0..N-1 and the resource map stays
	// positionally parallel to the pool (spec §4.E).
	var resourceMap []uint32
	seen := make(map[string]bool)
	for _, e := range rawEvents {
		if e.kind != rawStartElement {
			continue
		}
		for _, a := range e.attrs {
			if a.ns != frameworkAttrNamespace {
				continue
			}
			if seen[a.name] {
				continue
			}
			id, ok := lookupFrameworkAttr(a.name)
			if !ok {
				return nil, errUnknownFrameworkAttribute(a.name)
			}
			seen[a.name] = true
			pool.Intern(a.name)
			resourceMap = append(resourceMap, id)
		}
	}

	// Pass 2: emit the typed event stream, interning everything else as
	// encountered.
	var events []xmlEvent
	for _, e := range rawEvents {
		switch e.kind {
		case rawStartNamespace:
			pool.Intern(e.prefix)
			pool.Intern(e.uri)
			events = append(events, xmlEvent{kind: evStartNamespace, prefix: e.prefix, uri: e.uri})

		case rawEndNamespace:
			events = append(events, xmlEvent{kind: evEndNamespace, prefix: e.prefix, uri: e.uri})

		case rawEndElement:
			pool.Intern(e.name)
			events = append(events, xmlEvent{kind: evEndElement, ns: e.ns, name: e.name})

		case rawCData:
			idx := pool.Intern(e.text)
			events = append(events, xmlEvent{kind: evCData, text: e.text})
			_ = idx

		case rawStartElement:
			pool.Intern(e.name)
			attrs := make([]xmlAttr, 0, len(e.attrs))
			for _, a := range e.attrs {
				tv, err := inferAttrValue(a.value, pool, alloc)
				if err != nil {
					return nil, err
				}
				attr := xmlAttr{NS: a.ns, Name: a.name, Value: tv}
				if a.ns == frameworkAttrNamespace {
					id, ok := lookupFrameworkAttr(a.name)
					if !ok {
						return nil, errUnknownFrameworkAttribute(a.name)
					}
					attr.ResID = id
					attr.IsMapped = true
					pool.Intern(a.name) // no-op if already interned in pass 1
				} else {
					pool.Intern(a.name)
				}
				attrs = append(attrs, attr)
			}
			events = append(events, xmlEvent{kind: evStartElement, ns: e.ns, name: e.name, attrs: attrs})
		}
	}

	return &CompiledXML{Strings: pool, ResourceMap: resourceMap, Events: events}, nil
}

// inferAttrValue implements spec §4.D's attribute value type inference.
func inferAttrValue(lit string, pool *StringPool, alloc *resAllocator) (typedValue, error) {
	switch {
	case strings.HasPrefix(lit, "@android:"):
		id, ok := lookupFrameworkResource(lit[len("@android:"):])
		if !ok {
			return typedValue{}, errUnknownResourceReference(lit)
		}
		return typedValue{Type: AttrTypeReference, Data: id, Raw: lit}, nil

	case strings.HasPrefix(lit, "@"):
		id, err := alloc.resolveRef(lit[1:])
		if err != nil {
			return typedValue{}, err
		}
		return typedValue{Type: AttrTypeReference, Data: id, Raw: lit}, nil

	case lit == "true":
		return typedValue{Type: AttrTypeIntBool, Data: 0xFFFFFFFF, Raw: lit}, nil
	case lit == "false":
		return typedValue{Type: AttrTypeIntBool, Data: 0, Raw: lit}, nil

	case strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X"):
		v, err := strconv.ParseUint(lit[2:], 16, 32)
		if err == nil {
			return typedValue{Type: AttrTypeIntHex, Data: uint32(v), Raw: lit}, nil
		}

	case strings.HasPrefix(lit, "#"):
		if tv, ok := parseColor(lit); ok {
			return tv, nil
		}

	case strings.HasSuffix(lit, "%p"):
		if v, err := strconv.ParseFloat(strings.TrimSuffix(lit, "%p"), 64); err == nil {
			return typedValue{Type: AttrTypeFraction, Data: packComplex(v/100.0, unitFractionParent), Raw: lit}, nil
		}
	case strings.HasSuffix(lit, "%"):
		if v, err := strconv.ParseFloat(strings.TrimSuffix(lit, "%"), 64); err == nil {
			return typedValue{Type: AttrTypeFraction, Data: packComplex(v/100.0, unitFractionBasic), Raw: lit}, nil
		}

	default:
		if tv, ok := parseDimension(lit); ok {
			return tv, nil
		}
		if v, err := strconv.ParseInt(lit, 10, 32); err == nil {
			return typedValue{Type: AttrTypeIntDec, Data: uint32(v), Raw: lit}, nil
		}
	}

	idx := pool.Intern(lit)
	return typedValue{Type: AttrTypeString, Data: idx, Raw: lit}, nil
}

var dimensionUnits = map[string]uint32{
	"dp": unitDip, "dip": unitDip, "px": unitPx, "sp": unitSp,
	"pt": unitPt, "in": unitIn, "mm": unitMm,
}

func parseDimension(lit string) (typedValue, bool) {
	for _, suffix := range []string{"dip", "dp", "sp", "px", "in", "mm", "pt"} {
		if strings.HasSuffix(lit, suffix) {
			numPart := strings.TrimSuffix(lit, suffix)
			v, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				return typedValue{}, false
			}
			unit := dimensionUnits[suffix]
			return typedValue{Type: AttrTypeDimension, Data: packComplex(v, unit), Raw: lit}, true
		}
	}
	return typedValue{}, false
}

func parseColor(lit string) (typedValue, bool) {
	hex := strings.TrimPrefix(lit, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return typedValue{}, false
	}
	switch len(hex) {
	case 3:
		return typedValue{Type: AttrTypeIntColorRgb4, Data: uint32(v), Raw: lit}, true
	case 4:
		return typedValue{Type: AttrTypeIntColorArgb4, Data: uint32(v), Raw: lit}, true
	case 6:
		return typedValue{Type: AttrTypeIntColorRgb8, Data: uint32(v), Raw: lit}, true
	case 8:
		return typedValue{Type: AttrTypeIntColorArgb8, Data: uint32(v), Raw: lit}, true
	default:
		return typedValue{}, false
	}
}

// fracBits[radix] is the number of fractional mantissa bits that radix
// encodes, per Android's COMPLEX_RADIX_* scheme.
var fracBits = [4]uint{0, 7, 15, 23}

// packComplex packs a floating point magnitude and a unit code into
// Android's 32-bit complex dimension/fraction encoding: a 24-bit signed
// mantissa at one of four fixed radixes, plus a 2-bit radix selector and
// a 4-bit unit code in the low byte.
func packComplex(value float64, unit uint32) uint32 {
	for radix := 3; radix >= 0; radix-- {
		scale := float64(int64(1) << fracBits[radix])
		mantissa := math.Round(value * scale)
		if mantissa >= -0x800000 && mantissa <= 0x7FFFFF {
			m := uint32(int32(mantissa)) & 0xFFFFFF
			return (m << 8) | (uint32(radix) << 4) | (unit & 0xF)
		}
	}
	// Value too large to represent; saturate at the coarsest radix.
	return (0x7FFFFF << 8) | (0 << 4) | (unit & 0xF)
}

// unpackComplex is the decode-direction inverse, used by the
// self-verification test path.
func unpackComplex(data uint32) float64 {
	radix := (data >> 4) & 0x3
	mantissa := int32(data&0xFFFFFF00) >> 8 // sign-extend the 24-bit mantissa
	scale := float64(int64(1) << fracBits[radix])
	return float64(mantissa) / scale
}

// frameworkResources is a minimal embedded table of framework resource
// values reachable via "@android:type/name" in source manifests (spec
// §4.D). Multi-locale/density framework resource resolution is out of
// scope (spec §1 non-goals); this covers the handful of constants a
// manifest plausibly references directly.
var frameworkResources = map[string]uint32{
	"color/white":              0x01060000,
	"color/black":              0x01060001,
	"color/transparent":        0x01060002,
	"style/Theme":              0x01030000,
	"style/Theme.Holo":         0x01030237,
	"style/Theme.Material":     0x010302a2,
	"string/ok":                0x01040000,
	"string/cancel":            0x01040001,
	"drawable/ic_dialog_alert": 0x01080000,
}

func lookupFrameworkResource(ref string) (uint32, bool) {
	id, ok := frameworkResources[ref]
	if !ok {
		return 0, false
	}
	return id, true
}
