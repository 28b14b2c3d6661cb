package apkpack

import (
	"crypto"
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"io"
	"math/big"
)

// rsaSigner implements crypto.Signer over a private exponent held as raw
// bytes, performing RSASSA-PKCS1-v1_5 signing by hand with math/big
// modular exponentiation rather than calling crypto/rsa's signing path,
// per spec §9's allowance ("implementers may import any vetted
// big-integer + hash primitive; the spec constrains only wire output").
// The PKCS#1 DigestInfo prefixes live in this file's own
// hashPKCS1Prefixes table; crypto/rsa is used only for its PublicKey
// struct, which is pure plumbing, not the signing operation itself.
type rsaSigner struct {
	pub *rsa.PublicKey
	d   *big.Int
	n   *big.Int
}

func newRSASigner(modulus []byte, publicExponent int, privateExponent []byte) (*rsaSigner, error) {
	n := new(big.Int).SetBytes(modulus)
	d := new(big.Int).SetBytes(privateExponent)
	if n.Sign() <= 0 || d.Sign() <= 0 {
		return nil, errors.New("modulus and private exponent must be positive")
	}
	return &rsaSigner{
		pub: &rsa.PublicKey{N: n, E: publicExponent},
		d:   d,
		n:   n,
	}, nil
}

func (s *rsaSigner) Public() crypto.PublicKey { return s.pub }

// Sign implements crypto.Signer: digest is the already-hashed message,
// opts.HashFunc identifies the algorithm for the PKCS#1 v1.5 DigestInfo
// prefix (spec §4.L specifies SHA-256 throughout).
func (s *rsaSigner) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	hash := opts.HashFunc()
	prefix, ok := hashPKCS1Prefixes[hash]
	if !ok {
		return nil, errors.New("unsupported hash for PKCS#1 v1.5 signing")
	}
	if len(digest) != hash.Size() {
		return nil, errors.New("digest length does not match hash function")
	}

	em, err := emsaPKCS1v15Encode(append(append([]byte{}, prefix...), digest...), (s.n.BitLen()+7)/8)
	if err != nil {
		return nil, err
	}

	m := new(big.Int).SetBytes(em)
	if m.Cmp(s.n) >= 0 {
		return nil, errors.New("message representative out of range")
	}

	c := new(big.Int).Exp(m, s.d, s.n)

	k := (s.n.BitLen() + 7) / 8
	sig := make([]byte, k)
	cBytes := c.Bytes()
	copy(sig[k-len(cBytes):], cBytes)
	return sig, nil
}

// hashPKCS1Prefixes holds the DER-encoded DigestInfo prefixes PKCS#1 v1.5
// prepends ahead of the raw hash, for the hash functions this core uses.
var hashPKCS1Prefixes = map[crypto.Hash][]byte{
	crypto.SHA256: {0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20},
}

// emsaPKCS1v15Encode implements RFC 8017 §9.2's EMSA-PKCS1-v1_5-ENCODE:
// 0x00 || 0x01 || 0xFF...0xFF || 0x00 || digestInfo, padded to exactly
// emLen bytes.
func emsaPKCS1v15Encode(digestInfo []byte, emLen int) ([]byte, error) {
	tLen := len(digestInfo)
	if emLen < tLen+11 {
		return nil, errors.New("intended encoded message length too short")
	}

	em := make([]byte, emLen)
	em[0] = 0x00
	em[1] = 0x01
	padLen := emLen - tLen - 3
	for i := 0; i < padLen; i++ {
		em[2+i] = 0xFF
	}
	em[2+padLen] = 0x00
	copy(em[emLen-tLen:], digestInfo)
	return em, nil
}

// rsaVerifyConstantTime is used only by this package's own tests to
// confirm a signature produced by rsaSigner verifies against the public
// key, independent of crypto/rsa.VerifyPKCS1v15.
func rsaVerifyConstantTime(pub *rsa.PublicKey, hash crypto.Hash, digest, sig []byte) error {
	c := new(big.Int).SetBytes(sig)
	n := pub.N
	if c.Cmp(n) >= 0 {
		return errors.New("signature representative out of range")
	}
	m := new(big.Int).Exp(c, big.NewInt(int64(pub.E)), n)

	k := (n.BitLen() + 7) / 8
	em := make([]byte, k)
	mb := m.Bytes()
	copy(em[k-len(mb):], mb)

	prefix := hashPKCS1Prefixes[hash]
	want, err := emsaPKCS1v15Encode(append(append([]byte{}, prefix...), digest...), k)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(em, want) != 1 {
		return errors.New("signature verification failed")
	}
	return nil
}
