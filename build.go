package apkpack

import "fmt"

// Build compiles a manifest, resource set, and signing identity into a
// complete, installable archive (spec §6's one exported operation).
// AAB output carries only the v1 (JAR) signature, matching bundletool's
// own split-APK generation step deferring v2/v3 signing to install time;
// APK output carries v1, v2, and v3.
func Build(inputs PackageInputs, keys SigningIdentity, format Format) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = errInternalInvariant(fmt.Sprintf("panic during build: %v", r))
		}
	}()

	entries, err := assemble(inputs, format)
	if err != nil {
		return nil, err
	}

	v1Entries, err := signV1(entries, keys)
	if err != nil {
		return nil, err
	}
	entries = append(entries, v1Entries...)

	zipEntries := make([]zipEntryRecord, len(entries))
	for i, e := range entries {
		zipEntries[i] = zipEntryRecord{name: e.path, data: e.data}
	}
	built := buildZip(zipEntries)

	if format == FormatAAB {
		return built.archive, nil
	}

	signer, err := newRSASigner(keys.RSAPrivate.Modulus, keys.RSAPrivate.PublicExponent, keys.RSAPrivate.PrivateExponent)
	if err != nil {
		return nil, errInvalidSigningMaterial("constructing RSA private key", err)
	}

	signed, err := signV2V3(built.archive, built.centralDirOff, built.eocdOff, signer, keys.CertDER)
	if err != nil {
		return nil, err
	}
	return signed, nil
}
