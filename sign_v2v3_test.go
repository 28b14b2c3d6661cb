package apkpack

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/binary"
	"math/big"
	"testing"
	"time"
)

func TestChunkedDigestMatchesHandFramedSingleChunk(t *testing.T) {
	data := []byte("a small payload spanning a single chunk")

	h := sha256.New()
	h.Write([]byte{0xa5})
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(len(data)))
	h.Write(lb[:])
	h.Write(data)
	chunkDigest := h.Sum(nil)

	top := sha256.New()
	top.Write([]byte{0x5a})
	var cnt [4]byte
	binary.LittleEndian.PutUint32(cnt[:], 1)
	top.Write(cnt[:])
	top.Write(chunkDigest)
	want := top.Sum(nil)

	got := chunkedDigest([][]byte{data})
	if !bytes.Equal(got, want) {
		t.Fatalf("chunkedDigest mismatch:\ngot  %x\nwant %x", got, want)
	}
}

func TestChunkedDigestSplitAcrossMultipleRegions(t *testing.T) {
	// Same logical bytes, once as a single region and once split across
	// several small regions: the digest must only depend on the
	// concatenated content, not on the region boundaries.
	whole := bytes.Repeat([]byte{0x42}, 100)
	split := [][]byte{whole[:10], whole[10:37], whole[37:100]}

	d1 := chunkedDigest([][]byte{whole})
	d2 := chunkedDigest(split)
	if !bytes.Equal(d1, d2) {
		t.Fatalf("chunkedDigest differs based on region framing:\n%x\n%x", d1, d2)
	}
}

func TestChunkedDigestMultipleOneMiBChunks(t *testing.T) {
	const chunkSize = 1 << 20
	data := bytes.Repeat([]byte{0x7}, chunkSize+100)

	h0 := sha256.New()
	h0.Write([]byte{0xa5})
	var l0 [4]byte
	binary.LittleEndian.PutUint32(l0[:], chunkSize)
	h0.Write(l0[:])
	h0.Write(data[:chunkSize])
	d0 := h0.Sum(nil)

	h1 := sha256.New()
	h1.Write([]byte{0xa5})
	var l1 [4]byte
	binary.LittleEndian.PutUint32(l1[:], 100)
	h1.Write(l1[:])
	h1.Write(data[chunkSize:])
	d1 := h1.Sum(nil)

	top := sha256.New()
	top.Write([]byte{0x5a})
	var cnt [4]byte
	binary.LittleEndian.PutUint32(cnt[:], 2)
	top.Write(cnt[:])
	top.Write(d0)
	top.Write(d1)
	want := top.Sum(nil)

	got := chunkedDigest([][]byte{data})
	if !bytes.Equal(got, want) {
		t.Fatalf("chunkedDigest over >1MiB input mismatch:\ngot  %x\nwant %x", got, want)
	}
}

func testSigningIdentity(t *testing.T) (*rsaSigner, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "apkpack test"},
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Unix(0, 0).AddDate(30, 0, 0),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	signer, err := newRSASigner(key.N.Bytes(), key.E, key.D.Bytes())
	if err != nil {
		t.Fatalf("newRSASigner: %v", err)
	}
	return signer, certDER
}

func TestSignV2V3Structure(t *testing.T) {
	signer, certDER := testSigningIdentity(t)

	entries := []zipEntryRecord{
		{name: "AndroidManifest.xml", data: []byte("manifest-bytes")},
		{name: "resources.arsc", data: []byte("arsc-bytes")},
	}
	built := buildZip(entries)

	signed, err := signV2V3(built.archive, built.centralDirOff, built.eocdOff, signer, certDER)
	if err != nil {
		t.Fatalf("signV2V3: %v", err)
	}

	if _, err := verifyZip(signed); err != nil {
		t.Fatalf("signed archive does not open as a ZIP: %v", err)
	}

	idx := bytes.Index(signed, []byte(apkSigBlockMagic))
	if idx < 0 {
		t.Fatalf("signed archive does not contain the APK Signing Block magic")
	}

	var v2Seen, v3Seen bool
	var v2ID, v3ID [4]byte
	binary.LittleEndian.PutUint32(v2ID[:], v2BlockID)
	binary.LittleEndian.PutUint32(v3ID[:], v3BlockID)
	if bytes.Contains(signed[:idx], v2ID[:]) {
		v2Seen = true
	}
	if bytes.Contains(signed[:idx], v3ID[:]) {
		v3Seen = true
	}
	if !v2Seen || !v3Seen {
		t.Fatalf("expected both v2 (%#x) and v3 (%#x) block IDs before the signing block magic", v2BlockID, v3BlockID)
	}

	// The EOCD's recorded cd_offset must point exactly at the start of the
	// central directory, which starts right after the inserted signing
	// block.
	eocdIdx := bytes.LastIndex(signed, []byte{0x50, 0x4b, 0x05, 0x06})
	if eocdIdx < 0 {
		t.Fatalf("signed archive has no EOCD record")
	}
	cdOffset := binary.LittleEndian.Uint32(signed[eocdIdx+16 : eocdIdx+20])
	if signed[cdOffset] != 0x50 || signed[cdOffset+1] != 0x4b || signed[cdOffset+2] != 0x01 || signed[cdOffset+3] != 0x02 {
		t.Fatalf("patched cd_offset %d does not point at a central directory header", cdOffset)
	}
}

func TestSignV2V3Deterministic(t *testing.T) {
	signer, certDER := testSigningIdentity(t)

	entries := []zipEntryRecord{
		{name: "a.txt", data: []byte("hello")},
	}
	built := buildZip(entries)

	s1, err := signV2V3(built.archive, built.centralDirOff, built.eocdOff, signer, certDER)
	if err != nil {
		t.Fatalf("signV2V3 (1st): %v", err)
	}
	s2, err := signV2V3(built.archive, built.centralDirOff, built.eocdOff, signer, certDER)
	if err != nil {
		t.Fatalf("signV2V3 (2nd): %v", err)
	}
	if !bytes.Equal(s1, s2) {
		t.Fatalf("signV2V3 is not deterministic for identical inputs and signer")
	}
}
