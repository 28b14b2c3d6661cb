package apkpack

import (
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"

	"go.mozilla.org/pkcs7"
)

// RSAPrivateKeyMaterial is the signing identity's RSA key, given as its
// raw numeric components rather than a parsed *rsa.PrivateKey: spec §6
// keeps PEM/key-format parsing an external collaborator's job, so the
// core only ever sees (modulus, public exponent, private exponent).
type RSAPrivateKeyMaterial struct {
	Modulus         []byte
	PublicExponent  int
	PrivateExponent []byte
}

// SigningIdentity is the certificate and RSA key pair Build signs with.
type SigningIdentity struct {
	CertDER    []byte
	RSAPrivate RSAPrivateKeyMaterial
}

// signV1 builds META-INF/MANIFEST.MF, META-INF/CERT.SF, and
// META-INF/CERT.RSA for entries, implementing the JAR (v1) signing
// scheme (spec §4.K). entries is not modified; it returns the three new
// entries, and callers append them to the archive's entry list before
// final ZIP assembly.
func signV1(entries []assembledEntry, identity SigningIdentity) ([]assembledEntry, error) {
	cert, err := x509.ParseCertificate(identity.CertDER)
	if err != nil {
		return nil, errInvalidSigningMaterial("parsing signing certificate", err)
	}
	key, err := buildRSAPrivateKey(identity.RSAPrivate)
	if err != nil {
		return nil, err
	}

	manifest, sections := buildJARManifest(entries)
	sf := buildJARSignatureFile(manifest, sections)

	signedData, err := pkcs7.NewSignedData(sf)
	if err != nil {
		return nil, errInvalidSigningMaterial("initializing PKCS#7 signed data", err)
	}
	signedData.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	if err := signedData.AddSigner(cert, key, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, errInvalidSigningMaterial("adding PKCS#7 signer", err)
	}
	signedData.Detach()

	certRSA, err := signedData.Finish()
	if err != nil {
		return nil, errInvalidSigningMaterial("finishing PKCS#7 signed data", err)
	}

	return []assembledEntry{
		{path: "META-INF/MANIFEST.MF", data: manifest},
		{path: "META-INF/CERT.SF", data: sf},
		{path: "META-INF/CERT.RSA", data: certRSA},
	}, nil
}

func buildRSAPrivateKey(m RSAPrivateKeyMaterial) (crypto.Signer, error) {
	key, err := newRSASigner(m.Modulus, m.PublicExponent, m.PrivateExponent)
	if err != nil {
		return nil, errInvalidSigningMaterial("constructing RSA private key", err)
	}
	return key, nil
}

// buildJARManifest renders META-INF/MANIFEST.MF: a global header
// followed by one digest section per archive entry, in entry order.
// sections is the raw bytes of each individual section (including its
// trailing blank line), needed again when the signature file digests
// them (spec §4.K).
func buildJARManifest(entries []assembledEntry) (manifest []byte, sections [][]byte) {
	var b strings.Builder
	b.WriteString("Manifest-Version: 1.0\r\n\r\n")

	for _, e := range entries {
		digest := sha256.Sum256(e.data)
		section := fmt.Sprintf("Name: %s\r\nSHA-256-Digest: %s\r\n\r\n", e.path, base64.StdEncoding.EncodeToString(digest[:]))
		sections = append(sections, []byte(section))
		b.WriteString(section)
	}

	return []byte(b.String()), sections
}

// buildJARSignatureFile renders META-INF/CERT.SF: a header digesting the
// whole manifest, followed by one section per manifest section digesting
// that section's exact bytes (spec §4.K).
func buildJARSignatureFile(manifest []byte, sections [][]byte) []byte {
	var b strings.Builder
	manifestDigest := sha256.Sum256(manifest)
	b.WriteString("Signature-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("SHA-256-Digest-Manifest: %s\r\n\r\n", base64.StdEncoding.EncodeToString(manifestDigest[:])))

	for _, s := range sections {
		digest := sha256.Sum256(s)
		name := jarSectionName(s)
		b.WriteString(fmt.Sprintf("Name: %s\r\nSHA-256-Digest: %s\r\n\r\n", name, base64.StdEncoding.EncodeToString(digest[:])))
	}

	return []byte(b.String())
}

func jarSectionName(section []byte) string {
	const prefix = "Name: "
	s := string(section)
	if i := strings.Index(s, prefix); i >= 0 {
		rest := s[i+len(prefix):]
		if j := strings.Index(rest, "\r\n"); j >= 0 {
			return rest[:j]
		}
	}
	return ""
}
