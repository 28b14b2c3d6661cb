package apkpack

// encodeBinaryXML renders a CompiledXML document as a complete
// RES_XML_TYPE container: string pool, optional resource map, then one
// NsStart/NsEnd/TagStart/TagEnd/CData chunk per event, mirroring the
// chunk layout avast-apkparser's ParseXml reads back (common.go's chunk
// constants), but written instead of parsed.
func encodeBinaryXML(doc *CompiledXML) []byte {
	w := newByteWriter()

	w.chunk(chunkAxmlFile, chunkHeaderSize, func() {
		w.raw(doc.Strings.Encode())

		if len(doc.ResourceMap) > 0 {
			w.chunk(chunkResourceIds, chunkHeaderSize, func() {
				for _, id := range doc.ResourceMap {
					w.u32(id)
				}
			})
		}

		for _, ev := range doc.Events {
			switch ev.kind {
			case evStartNamespace:
				encodeNsEvent(w, chunkXmlNsStart, doc.Strings, ev.prefix, ev.uri)
			case evEndNamespace:
				encodeNsEvent(w, chunkXmlNsEnd, doc.Strings, ev.prefix, ev.uri)
			case evStartElement:
				encodeTagStart(w, doc, ev)
			case evEndElement:
				encodeTagEnd(w, doc.Strings, ev)
			case evCData:
				encodeText(w, doc.Strings, ev.text)
			}
		}
	})

	return w.Bytes()
}

// xmlNodeHeaderSize is the size of the shared line-number/comment header
// every ResXMLTree_node-derived chunk carries ahead of its own fields.
const xmlNodeHeaderSize = chunkHeaderSize + 2*4

func encodeNsEvent(w *byteWriter, chunkType uint16, pool *StringPool, prefix, uri string) {
	w.chunk(chunkType, xmlNodeHeaderSize, func() {
		w.u32(1)          // line number, unknown at build time
		w.u32(0xFFFFFFFF) // comment, absent
		w.u32(pool.Intern(prefix))
		w.u32(pool.Intern(uri))
	})
}

func encodeTagStart(w *byteWriter, doc *CompiledXML, ev xmlEvent) {
	w.chunk(chunkXmlTagStart, xmlNodeHeaderSize, func() {
		w.u32(1)
		w.u32(0xFFFFFFFF)

		nsIdx := uint32(0xFFFFFFFF)
		if ev.ns != "" {
			nsIdx = doc.Strings.Intern(ev.ns)
		}
		w.u32(nsIdx)
		w.u32(doc.Strings.Intern(ev.name))

		attrs := sortedAttrs(ev.attrs)

		w.u16(0x0014) // attrStart: sizeof(ResXMLTree_attrExt) header
		w.u16(0x0014) // attrSize: sizeof(ResXMLTree_attribute)
		w.u16(uint16(len(attrs)))
		w.u16(0) // idIndex
		w.u16(0) // classIndex
		w.u16(0) // styleIndex

		for _, a := range attrs {
			ansIdx := uint32(0xFFFFFFFF)
			if a.NS != "" {
				ansIdx = doc.Strings.Intern(a.NS)
			}
			w.u32(ansIdx)
			w.u32(doc.Strings.Intern(a.Name))

			rawValueIdx := uint32(0xFFFFFFFF)
			if a.Value.Type == AttrTypeString {
				rawValueIdx = a.Value.Data
			}
			w.u32(rawValueIdx)

			w.u16(8) // Res_value.size
			w.u8(0)  // Res_value.res0
			w.u8(uint8(a.Value.Type))
			w.u32(a.Value.Data)
		}
	})
}

func encodeTagEnd(w *byteWriter, pool *StringPool, ev xmlEvent) {
	w.chunk(chunkXmlTagEnd, xmlNodeHeaderSize, func() {
		w.u32(1)
		w.u32(0xFFFFFFFF)

		nsIdx := uint32(0xFFFFFFFF)
		if ev.ns != "" {
			nsIdx = pool.Intern(ev.ns)
		}
		w.u32(nsIdx)
		w.u32(pool.Intern(ev.name))
	})
}

func encodeText(w *byteWriter, pool *StringPool, text string) {
	w.chunk(chunkXmlText, xmlNodeHeaderSize, func() {
		w.u32(1)
		w.u32(0xFFFFFFFF)
		w.u32(pool.Intern(text))
		w.u32(0) // ResXMLTree_cdataExt.typedData.size/res0, unused for plain text
		w.u32(0xFFFFFFFF)
	})
}

// sortedAttrs orders an element's attributes for the chunked encoding:
// framework-mapped attributes first, ascending by resource ID, followed
// by unmapped attributes in source order (spec §4.E).
func sortedAttrs(attrs []xmlAttr) []xmlAttr {
	var mapped, unmapped []xmlAttr
	for _, a := range attrs {
		if a.IsMapped {
			mapped = append(mapped, a)
		} else {
			unmapped = append(unmapped, a)
		}
	}
	// Stable insertion sort by ResID; attribute counts per element are
	// small enough that this never needs to be anything fancier.
	for i := 1; i < len(mapped); i++ {
		for j := i; j > 0 && mapped[j-1].ResID > mapped[j].ResID; j-- {
			mapped[j-1], mapped[j] = mapped[j], mapped[j-1]
		}
	}
	return append(mapped, unmapped...)
}
