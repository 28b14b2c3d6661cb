package apkpack

import (
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
)

const (
	v2BlockID = 0x7109871a
	v3BlockID = 0xf05368c0

	rsaPKCS1SHA256AlgoID = 0x0103
	v3RotationAttrID     = 0x3ba06f8c

	apkSigBlockMagic = "APK Sig Block 42"
)

// signV2V3 takes a v1-signed, fully assembled ZIP and the offsets of its
// central directory and EOCD record, and returns a new archive with an
// APK Signing Block carrying v2 and v3 signatures inserted immediately
// before the central directory, with the EOCD's recorded offset bumped
// to match (spec §4.L).
func signV2V3(archive []byte, centralDirOff, eocdOff uint32, signer *rsaSigner, certDER []byte) ([]byte, error) {
	before := append([]byte{}, archive[:centralDirOff]...)
	centralDir := archive[centralDirOff:eocdOff]
	eocd := archive[eocdOff:]

	// The signing block must start on an 8-byte boundary from the start
	// of the archive; pad the region ahead of it (this padding is part
	// of the digested "before signing block" content, same as real
	// signers' alignment padding).
	if pad := (8 - len(before)%8) % 8; pad != 0 {
		before = append(before, make([]byte, pad)...)
	}

	pubKeyDER, err := x509.MarshalPKIXPublicKey(signer.pub)
	if err != nil {
		return nil, errInvalidSigningMaterial("marshaling SubjectPublicKeyInfo", err)
	}

	// The signing block's own length depends only on the sizes of the
	// digest, certificate, public key and signature, not on the digest's
	// value or the EOCD's contents, so build a throwaway block first
	// purely to learn its length, then rewrite the EOCD's cd_offset to
	// its final (post-insertion) value before computing the digest that
	// actually gets signed. Installers verify against the final offset,
	// not the original one.
	probeDigest := chunkedDigest([][]byte{before, centralDir, eocd})
	probeBlock, err := buildSigningBlockPair(probeDigest, certDER, pubKeyDER, signer)
	if err != nil {
		return nil, err
	}

	eocdRewritten := append([]byte{}, eocd...)
	newCDOffset := uint32(len(before)) + uint32(len(probeBlock))
	binary.LittleEndian.PutUint32(eocdRewritten[16:20], newCDOffset)

	digest := chunkedDigest([][]byte{before, centralDir, eocdRewritten})
	block, err := buildSigningBlockPair(digest, certDER, pubKeyDER, signer)
	if err != nil {
		return nil, err
	}
	if len(block) != len(probeBlock) {
		return nil, errInternalInvariant("signing block length changed between probe and final build")
	}

	out := make([]byte, 0, len(before)+len(block)+len(centralDir)+len(eocdRewritten))
	out = append(out, before...)
	out = append(out, block...)
	out = append(out, centralDir...)
	out = append(out, eocdRewritten...)
	return out, nil
}

type signingBlockPair struct {
	id      uint32
	payload []byte
}

// buildSigningBlockPair renders the complete v2+v3 APK Signing Block for
// a given digest, both blocks signing the same content since v2 and v3
// cover the same archive bytes (spec §4.L).
func buildSigningBlockPair(digest, certDER, pubKeyDER []byte, signer *rsaSigner) ([]byte, error) {
	v2Payload, err := buildSignerBlockPayload(digest, certDER, pubKeyDER, signer, false)
	if err != nil {
		return nil, err
	}
	v3Payload, err := buildSignerBlockPayload(digest, certDER, pubKeyDER, signer, true)
	if err != nil {
		return nil, err
	}
	return assembleSigningBlock([]signingBlockPair{
		{id: v2BlockID, payload: v2Payload},
		{id: v3BlockID, payload: v3Payload},
	}), nil
}

func assembleSigningBlock(pairs []signingBlockPair) []byte {
	var pairBytes []byte
	for _, p := range pairs {
		var pb []byte
		pb = append(pb, 0, 0, 0, 0, 0, 0, 0, 0) // pair_size, patched below
		binary.LittleEndian.PutUint64(pb, uint64(4+len(p.payload)))
		var idBuf [4]byte
		binary.LittleEndian.PutUint32(idBuf[:], p.id)
		pb = append(pb, idBuf[:]...)
		pb = append(pb, p.payload...)
		pairBytes = append(pairBytes, pb...)
	}

	sizeVal := uint64(len(pairBytes) + 8 + 16)

	w := newByteWriter()
	w.u64(sizeVal)
	w.raw(pairBytes)
	w.u64(sizeVal)
	w.raw([]byte(apkSigBlockMagic))
	return w.Bytes()
}

// buildSignerBlockPayload renders one v2 or v3 block payload: a
// length-prefixed sequence holding exactly one signer (spec §4.L).
func buildSignerBlockPayload(digest, certDER, pubKeyDER []byte, signer *rsaSigner, v3 bool) ([]byte, error) {
	signedData := newByteWriter()
	signedData.lp32(func() { // digests sequence
		signedData.lp32(func() {
			signedData.u32(rsaPKCS1SHA256AlgoID)
			signedData.lp32(func() { signedData.raw(digest) })
		})
	})
	signedData.lp32(func() { // certificates sequence
		signedData.lp32(func() { signedData.raw(certDER) })
	})
	if v3 {
		signedData.lp32(func() { // additional attributes: proof-of-rotation stub
			signedData.lp32(func() {
				signedData.u32(v3RotationAttrID)
			})
		})
		signedData.u32(uint32(int32(-2147483648))) // min_sdk = INT32_MIN
		signedData.u32(0x7fffffff)                 // max_sdk = INT32_MAX
	} else {
		signedData.lp32(func() {}) // additional attributes: empty
	}
	signedDataBytes := signedData.Bytes()

	sigHash := sha256.Sum256(signedDataBytes)
	sig, err := signer.Sign(nil, sigHash[:], crypto.SHA256)
	if err != nil {
		return nil, errInvalidSigningMaterial("signing v2/v3 signed-data", err)
	}

	signerW := newByteWriter()
	signerW.lp32(func() { signerW.raw(signedDataBytes) })
	signerW.lp32(func() { // signatures sequence
		signerW.lp32(func() {
			signerW.u32(rsaPKCS1SHA256AlgoID)
			signerW.lp32(func() { signerW.raw(sig) })
		})
	})
	signerW.lp32(func() { signerW.raw(pubKeyDER) })
	signerBytes := signerW.Bytes()

	payloadW := newByteWriter()
	payloadW.lp32(func() { // signers sequence
		payloadW.lp32(func() { payloadW.raw(signerBytes) })
	})
	return payloadW.Bytes(), nil
}

// chunkedDigest implements spec §4.L's chunked SHA-256 digest over the
// logical concatenation of regions, without ever materializing that
// concatenation as a single contiguous buffer (spec §5's 32-bit memory
// note): each 1 MiB chunk is hashed by writing its constituent region
// slices directly into a streaming sha256.Hash.
func chunkedDigest(regions [][]byte) []byte {
	const chunkSize = 1 << 20

	total := 0
	for _, r := range regions {
		total += len(r)
	}

	var chunkDigests [][]byte
	ri, ro := 0, 0
	offset := 0
	for offset < total {
		thisLen := chunkSize
		if total-offset < thisLen {
			thisLen = total - offset
		}

		h := sha256.New()
		h.Write([]byte{0xa5})
		var lb [4]byte
		binary.LittleEndian.PutUint32(lb[:], uint32(thisLen))
		h.Write(lb[:])

		remaining := thisLen
		for remaining > 0 {
			avail := len(regions[ri]) - ro
			take := avail
			if take > remaining {
				take = remaining
			}
			h.Write(regions[ri][ro : ro+take])
			ro += take
			remaining -= take
			offset += take
			if ro == len(regions[ri]) {
				ri++
				ro = 0
			}
		}

		chunkDigests = append(chunkDigests, h.Sum(nil))
	}

	top := sha256.New()
	top.Write([]byte{0x5a})
	var cnt [4]byte
	binary.LittleEndian.PutUint32(cnt[:], uint32(len(chunkDigests)))
	top.Write(cnt[:])
	for _, d := range chunkDigests {
		top.Write(d)
	}
	return top.Sum(nil)
}
