package apkpack

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// encodeProtoXML renders a CompiledXML document as an AOSP
// aapt.pb.XmlNode message (the format bundletool expects inside a
// base.zip's manifest/resource entries), built directly with protowire's
// low-level primitives rather than generated message types, since this
// core only ever needs to emit a handful of fixed field numbers (spec
// §4.F).
//
// Field numbers below follow aapt2's frameworks/base Resources.proto:
//
//	XmlNode:          element=1
//	XmlElement:       namespace_declaration=1, name=2, attribute=4, child=5
//	XmlNamespace:     prefix=1, uri=2
//	XmlAttribute:     namespace_uri=1, name=2, value=3, resource_id=5
//	XmlNode (child):  text=2
func encodeProtoXML(doc *CompiledXML) []byte {
	var cursor int
	return marshalElementStream(doc, &cursor)
}

// marshalElementStream walks doc.Events (a flat, balanced stream) and
// renders the single root element as a length-delimited XmlNode message.
func marshalElementStream(doc *CompiledXML, cursor *int) []byte {
	return marshalNode(doc, cursor)
}

// marshalNode consumes one balanced element subtree (including any
// immediately preceding namespace declarations it owns) starting at
// *cursor, advances cursor past it, and returns the encoded XmlNode.
func marshalNode(doc *CompiledXML, cursor *int) []byte {
	var nsDecls []xmlEvent
	for *cursor < len(doc.Events) && doc.Events[*cursor].kind == evStartNamespace {
		nsDecls = append(nsDecls, doc.Events[*cursor])
		*cursor++
	}

	start := doc.Events[*cursor]
	*cursor++ // past evStartElement

	var elem []byte
	for _, ns := range nsDecls {
		elem = protowire.AppendTag(elem, 1, protowire.BytesType)
		elem = protowire.AppendBytes(elem, marshalNamespace(ns))
	}

	elem = protowire.AppendTag(elem, 2, protowire.BytesType)
	elem = protowire.AppendString(elem, start.name)

	for _, a := range sortedAttrs(start.attrs) {
		elem = protowire.AppendTag(elem, 4, protowire.BytesType)
		elem = protowire.AppendBytes(elem, marshalAttribute(a))
	}

	for {
		ev := doc.Events[*cursor]
		switch ev.kind {
		case evCData:
			*cursor++
			elem = protowire.AppendTag(elem, 5, protowire.BytesType)
			elem = protowire.AppendBytes(elem, marshalTextChild(ev.text))

		case evStartNamespace, evStartElement:
			child := marshalNode(doc, cursor)
			elem = protowire.AppendTag(elem, 5, protowire.BytesType)
			elem = protowire.AppendBytes(elem, child)

		case evEndNamespace:
			*cursor++

		case evEndElement:
			*cursor++
			return wrapElementNode(elem)
		}
	}
}

func wrapElementNode(elem []byte) []byte {
	var node []byte
	node = protowire.AppendTag(node, 1, protowire.BytesType)
	node = protowire.AppendBytes(node, elem)
	return node
}

func marshalTextChild(text string) []byte {
	var node []byte
	node = protowire.AppendTag(node, 2, protowire.BytesType)
	node = protowire.AppendString(node, text)
	return node
}

func marshalNamespace(ns xmlEvent) []byte {
	var b []byte
	if ns.prefix != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, ns.prefix)
	}
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, ns.uri)
	return b
}

func marshalAttribute(a xmlAttr) []byte {
	var b []byte
	if a.NS != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, a.NS)
	}
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, a.Name)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendString(b, a.Value.Raw)
	if a.IsMapped {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(a.ResID))
	}
	return b
}
