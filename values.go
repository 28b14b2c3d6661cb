package apkpack

// resTableValue is one resolved resource entry's typed payload, ready for
// either resource table back-end (chunked or proto).
type resTableValue struct {
	typ  AttrType
	data uint32 // STRING: index into the owning table's global string pool
}

// parseValuesXML parses one values/*.xml input's `<resources>` children
// into declared resource entries, interning string-typed content into
// pool (the resource table's global string pool, not a per-document
// one) and reusing the same literal-to-typed-value inference XML
// attributes use (spec §3: "values/*.xml inputs are parsed and their
// child elements become value resources").
func parseValuesXML(raw []byte, alloc *resAllocator, pool *StringPool) ([]valueResource, error) {
	events, err := parseXMLTokens(raw)
	if err != nil {
		return nil, err
	}

	var out []valueResource
	depth := 0
	var curType, curName string
	var curText string
	var inEntry bool

	for _, e := range events {
		switch e.kind {
		case rawStartElement:
			depth++
			if depth == 2 {
				curType = e.name
				curName = ""
				for _, a := range e.attrs {
					if a.name == "name" {
						curName = a.value
					}
				}
				curText = ""
				inEntry = true
			}
		case rawCData:
			if inEntry {
				curText += e.text
			}
		case rawEndElement:
			if depth == 2 && inEntry {
				tv, err := inferAttrValue(curText, pool, alloc)
				if err != nil {
					return nil, err
				}
				id := alloc.declare(curType, curName)
				out = append(out, valueResource{typ: curType, name: curName, id: id, value: resTableValue{typ: tv.Type, data: tv.Data}, text: curText})
				inEntry = false
			}
			depth--
		}
	}

	return out, nil
}

// valueResource is one compiled <type name="...">text</type> entry from a
// values/*.xml input. text is the literal source text, kept alongside the
// typed value so a string-typed entry can still be rendered as a literal
// string in back-ends (the proto resource table) that have no shared
// string pool of their own to index into.
type valueResource struct {
	typ   string
	name  string
	id    uint32
	value resTableValue
	text  string
}
