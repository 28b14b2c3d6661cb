// This is a tool to build a signed APK or AAB from a manifest, a
// resource directory, and a PEM-encoded signing identity.
package main

import (
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apkpack/apkpack"
)

type optsType struct {
	manifestPath string
	resDir       string
	pemPath      string
	format       string
	outPath      string
}

func main() {
	var opts optsType

	flag.StringVar(&opts.manifestPath, "manifest", "AndroidManifest.xml", "Path to the source manifest XML")
	flag.StringVar(&opts.resDir, "res", "res", "Path to the resource directory (subdirectories become resource types)")
	flag.StringVar(&opts.pemPath, "pem", "", "Path to a combined PEM file holding the signing certificate and RSA private key")
	flag.StringVar(&opts.format, "format", "apk", "Output format: apk or aab")
	flag.StringVar(&opts.outPath, "o", "out.apk", "Output archive path")
	flag.Parse()

	if err := run(&opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts *optsType) error {
	manifest, err := os.ReadFile(opts.manifestPath)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	resources, err := collectResources(opts.resDir)
	if err != nil {
		return fmt.Errorf("collecting resources: %w", err)
	}

	pemBytes, err := os.ReadFile(opts.pemPath)
	if err != nil {
		return fmt.Errorf("reading signing PEM: %w", err)
	}
	identity, err := parseSigningPEM(pemBytes)
	if err != nil {
		return fmt.Errorf("parsing signing PEM: %w", err)
	}

	format := apkpack.FormatAPK
	switch strings.ToLower(opts.format) {
	case "apk":
		format = apkpack.FormatAPK
	case "aab":
		format = apkpack.FormatAAB
	default:
		return fmt.Errorf("unknown format %q, want apk or aab", opts.format)
	}

	out, err := apkpack.Build(apkpack.PackageInputs{
		ManifestXML: manifest,
		Resources:   resources,
	}, identity, format)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	if err := os.WriteFile(opts.outPath, out, 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// collectResources walks a directory tree one level deep: each immediate
// subdirectory is a resource subdirectory name (spec §3's data model),
// and every file within it becomes one ResourceInput.
func collectResources(root string) ([]apkpack.ResourceInput, error) {
	subdirs, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []apkpack.ResourceInput
	for _, sd := range subdirs {
		if !sd.IsDir() {
			continue
		}
		subPath := filepath.Join(root, sd.Name())
		files, err := os.ReadDir(subPath)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			contents, err := os.ReadFile(filepath.Join(subPath, f.Name()))
			if err != nil {
				return nil, err
			}
			out = append(out, apkpack.ResourceInput{
				Subdirectory: sd.Name(),
				Name:         f.Name(),
				Contents:     contents,
			})
		}
	}
	return out, nil
}

// parseSigningPEM decodes a combined PEM text into the core's signing
// identity. The core itself never parses PEM or ASN.1 key structures
// (spec §6); that parsing is entirely this external collaborator's job.
func parseSigningPEM(data []byte) (apkpack.SigningIdentity, error) {
	var certDER []byte
	var modulus []byte
	var pubExp int
	var privExp []byte

	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch block.Type {
		case "CERTIFICATE":
			certDER = block.Bytes
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return apkpack.SigningIdentity{}, fmt.Errorf("parsing PKCS#1 private key: %w", err)
			}
			modulus = key.N.Bytes()
			pubExp = key.E
			privExp = key.D.Bytes()
		}
	}

	if certDER == nil {
		return apkpack.SigningIdentity{}, fmt.Errorf("no CERTIFICATE block found in PEM")
	}
	if modulus == nil {
		return apkpack.SigningIdentity{}, fmt.Errorf("no RSA PRIVATE KEY block found in PEM")
	}

	return apkpack.SigningIdentity{
		CertDER: certDER,
		RSAPrivate: apkpack.RSAPrivateKeyMaterial{
			Modulus:         modulus,
			PublicExponent:  pubExp,
			PrivateExponent: privExp,
		},
	}, nil
}
