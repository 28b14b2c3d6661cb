package apkpack

import "fmt"

// typeKey identifies a resource type by name ("string", "drawable", ...).
type typeKey = string

// resAllocator assigns stable 32-bit resource IDs of the form
// 0x7F_TT_EEEE: package 0x7F, 1-based type index TT (first-seen order),
// 0-based entry index EEEE (first-seen order within its type).
//
// Two-phase use: every (type, name) pair encountered while scanning
// inputs is registered with declare, then resolve answers @type/name
// lookups during XML compilation against the resulting symbol table.
type resAllocator struct {
	typeOrder   []typeKey
	typeIndex   map[typeKey]int // 1-based
	entryOrder  map[typeKey][]string
	entryIndex  map[typeKey]map[string]int // 0-based
	entryConfig map[typeKey]map[string]struct{}
}

func newResAllocator() *resAllocator {
	return &resAllocator{
		typeIndex:   make(map[typeKey]int),
		entryOrder:  make(map[typeKey][]string),
		entryIndex:  make(map[typeKey]map[string]int),
		entryConfig: make(map[typeKey]map[string]struct{}),
	}
}

// declare registers a (type, name) pair, assigning it fresh type/entry
// indices on first sight and returning its resource ID on every call.
func (a *resAllocator) declare(typ, name string) uint32 {
	ti, ok := a.typeIndex[typ]
	if !ok {
		a.typeOrder = append(a.typeOrder, typ)
		ti = len(a.typeOrder) // 1-based
		a.typeIndex[typ] = ti
		a.entryIndex[typ] = make(map[string]int)
	}

	ei, ok := a.entryIndex[typ][name]
	if !ok {
		ei = len(a.entryOrder[typ])
		a.entryOrder[typ] = append(a.entryOrder[typ], name)
		a.entryIndex[typ][name] = ei
	}

	return makeResID(ti, ei)
}

// resolve looks up an already-declared (type, name) pair without
// allocating a new one, for @type/name reference resolution.
func (a *resAllocator) resolve(typ, name string) (uint32, bool) {
	ti, ok := a.typeIndex[typ]
	if !ok {
		return 0, false
	}
	ei, ok := a.entryIndex[typ][name]
	if !ok {
		return 0, false
	}
	return makeResID(ti, ei), true
}

// resolveRef resolves a "type/name" reference (the text after the
// leading '@' of an "@type/name" literal; "@android:type/name" is
// handled by the caller) against this allocator.
func (a *resAllocator) resolveRef(ref string) (uint32, error) {
	typ, name, err := splitTypeName(ref)
	if err != nil {
		return 0, err
	}
	id, ok := a.resolve(typ, name)
	if !ok {
		return 0, errUnknownResourceReference(ref)
	}
	return id, nil
}

func splitTypeName(ref string) (typ, name string, err error) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '/' {
			return ref[:i], ref[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("malformed reference %q, expected type/name", ref)
}

// types returns the type names in first-seen (1-based index) order.
func (a *resAllocator) types() []typeKey { return a.typeOrder }

// entriesOf returns the entry names of a type in first-seen (0-based
// index) order.
func (a *resAllocator) entriesOf(typ typeKey) []string { return a.entryOrder[typ] }

// typeIndexOf returns the 1-based index assigned to typ.
func (a *resAllocator) typeIndexOf(typ typeKey) int { return a.typeIndex[typ] }
