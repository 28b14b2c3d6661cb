package apkpack

import "fmt"

// ErrorKind classifies a BuildError, per the error taxonomy a build must
// surface eagerly and all-or-nothing.
type ErrorKind int

const (
	// MalformedXML: text XML failed to parse.
	MalformedXML ErrorKind = iota
	// UnknownResourceReference: an @type/name reference did not resolve
	// against the symbol table populated during allocation.
	UnknownResourceReference
	// UnknownFrameworkAttribute: an android: namespace attribute is not
	// in the embedded framework attribute table.
	UnknownFrameworkAttribute
	// UnsupportedResourceQualifier: a resource subdirectory carried a
	// qualifier (values-es, drawable-xhdpi, ...) outside the supported
	// default-configuration-only set.
	UnsupportedResourceQualifier
	// InvalidSigningMaterial: the certificate/key failed to parse, or
	// the key pair is inconsistent.
	InvalidSigningMaterial
	// InternalInvariantViolated: a bug-class failure (offset mismatch,
	// unbalanced namespace stack, ...). Always fatal.
	InternalInvariantViolated
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedXML:
		return "MalformedXML"
	case UnknownResourceReference:
		return "UnknownResourceReference"
	case UnknownFrameworkAttribute:
		return "UnknownFrameworkAttribute"
	case UnsupportedResourceQualifier:
		return "UnsupportedResourceQualifier"
	case InvalidSigningMaterial:
		return "InvalidSigningMaterial"
	case InternalInvariantViolated:
		return "InternalInvariantViolated"
	default:
		return "Unknown"
	}
}

// BuildError wraps every error this package produces with a stable kind,
// so callers can branch on errors.As/errors.Is instead of string matching.
type BuildError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("apkpack: %s: %s: %s", e.Kind, e.Msg, e.Err.Error())
	}
	return fmt.Sprintf("apkpack: %s: %s", e.Kind, e.Msg)
}

func (e *BuildError) Unwrap() error { return e.Err }

func newBuildError(kind ErrorKind, msg string, err error) *BuildError {
	return &BuildError{Kind: kind, Msg: msg, Err: err}
}

func errMalformedXML(msg string, err error) error {
	return newBuildError(MalformedXML, msg, err)
}

func errUnknownResourceReference(ref string) error {
	return newBuildError(UnknownResourceReference, fmt.Sprintf("unresolved reference %q", ref), nil)
}

func errUnknownFrameworkAttribute(name string) error {
	return newBuildError(UnknownFrameworkAttribute, fmt.Sprintf("android:%s has no entry in the embedded framework attribute table", name), nil)
}

func errUnsupportedQualifier(subdir string) error {
	return newBuildError(UnsupportedResourceQualifier, fmt.Sprintf("subdirectory %q carries an unsupported configuration qualifier", subdir), nil)
}

func errInvalidSigningMaterial(msg string, err error) error {
	return newBuildError(InvalidSigningMaterial, msg, err)
}

func errInternalInvariant(msg string) error {
	return newBuildError(InternalInvariantViolated, msg, nil)
}
