package apkpack

import (
	"bytes"
	"encoding/xml"
	"io"
)

// rawAttr is a still-untyped attribute as read from source text, before
// §4.D's type inference runs.
type rawAttr struct {
	ns    string // resolved namespace URI, "" if none
	name  string
	value string
}

type rawEventKind int

const (
	rawStartNamespace rawEventKind = iota
	rawEndNamespace
	rawStartElement
	rawEndElement
	rawCData
)

type rawEvent struct {
	kind   rawEventKind
	prefix string // namespace events
	uri    string // namespace events
	ns     string // element events: resolved namespace URI, "" if none
	name   string // element events
	attrs  []rawAttr
	text   string // cdata events
}

// parseXMLTokens runs a permissive tokenizer over text XML, recognizing
// declarations (discarded), namespace declarations on any element,
// elements, attributes, CDATA, and coalesced character data with
// whitespace-only runs between tags discarded. It resolves every
// prefix-qualified name to its namespace URI and emits an explicit
// StartNamespace/EndNamespace pair around the subtree that introduces
// each declaration, so the namespace stack in the output is always
// balanced.
func parseXMLTokens(raw []byte) ([]rawEvent, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false

	var events []rawEvent
	var nsBaseMarks []int // per open element: len(nsStack) before it pushed its decls
	type nsFrame struct{ prefix, uri string }
	var nsStack []nsFrame

	var pendingText bytes.Buffer
	flushText := func() {
		if t := pendingText.String(); len(bytesTrimSpace(t)) > 0 {
			events = append(events, rawEvent{kind: rawCData, text: t})
		}
		pendingText.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errMalformedXML("xml tokenizer error", err)
		}

		switch t := tok.(type) {
		case xml.ProcInst, xml.Directive, xml.Comment:
			// discarded

		case xml.CharData:
			pendingText.Write(t)

		case xml.StartElement:
			flushText()

			base := len(nsStack)
			var attrs []rawAttr
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					nsStack = append(nsStack, nsFrame{prefix: a.Name.Local, uri: a.Value})
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					nsStack = append(nsStack, nsFrame{prefix: "", uri: a.Value})
				default:
					attrs = append(attrs, rawAttr{ns: a.Name.Space, name: a.Name.Local, value: a.Value})
				}
			}
			for _, f := range nsStack[base:] {
				events = append(events, rawEvent{kind: rawStartNamespace, prefix: f.prefix, uri: f.uri})
			}
			nsBaseMarks = append(nsBaseMarks, base)

			events = append(events, rawEvent{kind: rawStartElement, ns: t.Name.Space, name: t.Name.Local, attrs: attrs})

		case xml.EndElement:
			flushText()

			events = append(events, rawEvent{kind: rawEndElement, ns: t.Name.Space, name: t.Name.Local})

			if len(nsBaseMarks) == 0 {
				return nil, errInternalInvariant("unbalanced end element: no matching start")
			}
			base := nsBaseMarks[len(nsBaseMarks)-1]
			nsBaseMarks = nsBaseMarks[:len(nsBaseMarks)-1]
			for i := len(nsStack) - 1; i >= base; i-- {
				events = append(events, rawEvent{kind: rawEndNamespace, prefix: nsStack[i].prefix, uri: nsStack[i].uri})
			}
			nsStack = nsStack[:base]
		}
	}

	if len(nsBaseMarks) != 0 || len(nsStack) != 0 {
		return nil, errInternalInvariant("namespace stack not balanced at end of document")
	}

	return events, nil
}

func bytesTrimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isXMLSpace(s[start]) {
		start++
	}
	for end > start && isXMLSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isXMLSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
