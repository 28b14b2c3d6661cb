package apkpack

import (
	"strings"
)

// Format selects which archive layout Build produces.
type Format int

const (
	FormatAPK Format = iota
	FormatAAB
)

// ResourceInput is one raw resource file or values/*.xml document
// supplied to Build, as described by spec §3's data model.
type ResourceInput struct {
	Subdirectory string
	Name         string
	Contents     []byte
}

// PackageInputs is everything Build needs besides the signing identity.
type PackageInputs struct {
	ManifestXML []byte
	Resources   []ResourceInput
}

// splitQualifier separates a resource subdirectory into its base type
// name and an optional trailing "-qualifier" (locale, density, ...).
// Only the unqualified default configuration is supported (spec §9's
// open question, resolved as UnsupportedResourceQualifier).
func splitQualifier(subdir string) (base, qualifier string) {
	if i := strings.IndexByte(subdir, '-'); i >= 0 {
		return subdir[:i], subdir[i+1:]
	}
	return subdir, ""
}

func splitExt(name string) (stem, ext string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i:]
	}
	return name, ""
}

// assembledEntry is one logical file in the archive, independent of
// format-specific path prefixes.
type assembledEntry struct {
	path string
	data []byte
}

// assemble runs the whole pipeline of spec §4.C through §4.I: resource
// ID allocation, values/*.xml and manifest compilation, and resource
// table construction, and returns the final ordered entry list for
// buildZip.
func assemble(inputs PackageInputs, format Format) ([]assembledEntry, error) {
	alloc := newResAllocator()
	globalPool := NewStringPool()

	chunkedValues := make(map[string]map[string]resTableValue)
	protoValues := make(map[string]map[string]resTableProtoEntry)

	addChunked := func(typ, name string, v resTableValue) {
		if chunkedValues[typ] == nil {
			chunkedValues[typ] = make(map[string]resTableValue)
		}
		chunkedValues[typ][name] = v
	}
	addProto := func(typ, name string, e resTableProtoEntry) {
		if protoValues[typ] == nil {
			protoValues[typ] = make(map[string]resTableProtoEntry)
		}
		protoValues[typ][name] = e
	}

	var fileResources []ResourceInput
	var xmlResources []ResourceInput

	// Phase 1: scan every input, declaring (type, name) pairs so later
	// @type/name references resolve (spec §4.C).
	for _, r := range inputs.Resources {
		base, qualifier := splitQualifier(r.Subdirectory)
		if qualifier != "" {
			return nil, errUnsupportedQualifier(r.Subdirectory)
		}

		if base == "values" {
			entries, err := parseValuesXML(r.Contents, alloc, globalPool)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				addChunked(e.typ, e.name, e.value)
				if e.value.typ == AttrTypeString {
					addProto(e.typ, e.name, resTableProtoEntry{name: e.name, hasStr: true, str: e.text})
				} else {
					item := e.value
					addProto(e.typ, e.name, resTableProtoEntry{name: e.name, item: &item})
				}
			}
			continue
		}

		stem, ext := splitExt(r.Name)
		alloc.declare(base, stem)

		if base == "xml" {
			xmlResources = append(xmlResources, r)
		} else {
			fileResources = append(fileResources, r)
		}
		_ = ext
	}

	resPrefix := "res"
	if format == FormatAAB {
		resPrefix = "base/res"
	}

	var entries []assembledEntry

	for _, r := range fileResources {
		stem, _ := splitExt(r.Name)
		archivePath := resPrefix + "/" + r.Subdirectory + "/" + r.Name
		pathIdx := globalPool.Intern(archivePath)
		addChunked(r.Subdirectory, stem, resTableValue{typ: AttrTypeString, data: pathIdx})
		addProto(r.Subdirectory, stem, resTableProtoEntry{name: stem, filePath: archivePath})
		entries = append(entries, assembledEntry{path: archivePath, data: r.Contents})
	}

	for _, r := range xmlResources {
		stem, _ := splitExt(r.Name)
		compiled, err := compileXML(r.Contents, alloc)
		if err != nil {
			return nil, err
		}

		if format == FormatAPK {
			archivePath := resPrefix + "/" + r.Subdirectory + "/" + r.Name
			pathIdx := globalPool.Intern(archivePath)
			addChunked(r.Subdirectory, stem, resTableValue{typ: AttrTypeString, data: pathIdx})
			entries = append(entries, assembledEntry{path: archivePath, data: encodeBinaryXML(compiled)})
		} else {
			archivePath := resPrefix + "/" + r.Subdirectory + "/" + r.Name + ".pb"
			addProto(r.Subdirectory, stem, resTableProtoEntry{name: stem, filePath: archivePath})
			entries = append(entries, assembledEntry{path: archivePath, data: encodeProtoXML(compiled)})
		}
	}

	manifest, err := compileXML(inputs.ManifestXML, alloc)
	if err != nil {
		return nil, err
	}

	packageName := manifestPackageName(manifest)

	if format == FormatAPK {
		manifestEntry := assembledEntry{path: "AndroidManifest.xml", data: encodeBinaryXML(manifest)}
		restable := assembledEntry{path: "resources.arsc", data: buildResTableChunked(alloc, globalPool, chunkedValues, packageName)}
		out := append([]assembledEntry{manifestEntry, restable}, entries...)
		return out, nil
	}

	manifestEntry := assembledEntry{path: "manifest/AndroidManifest.xml", data: encodeProtoXML(manifest)}
	restable := assembledEntry{path: "base/resources.pb", data: buildResTableProto(alloc, protoValues, packageName)}
	bundleConfig := assembledEntry{path: "BundleConfig.pb", data: buildBundleConfig()}
	out := append([]assembledEntry{manifestEntry, restable, bundleConfig}, entries...)
	return out, nil
}

// manifestPackageName reads the root <manifest package="..."> attribute
// directly from the compiled event stream; it is always a plain string
// attribute, never resource-ID encoded (spec §4.D).
func manifestPackageName(doc *CompiledXML) string {
	for _, ev := range doc.Events {
		if ev.kind != evStartElement {
			continue
		}
		for _, a := range ev.attrs {
			if a.NS == "" && a.Name == "package" {
				return a.Value.Raw
			}
		}
		return "" // first element is the root <manifest>; if it lacks package, there is none
	}
	return ""
}
