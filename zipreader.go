package apkpack

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// verifyZip re-opens a freshly built archive through archive/zip,
// confirming the writer produced a structurally valid end-of-central-
// directory record and central directory, and registers a deflate
// decompressor for later reads. It does not read any entry's data;
// per-entry CRC-32 checks happen in readZipEntry. Builds never call this
// path themselves; it exists for the package's own tests.
func verifyZip(archive []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, err
	}
	zr.RegisterDecompressor(zip.Deflate, newPooledFlateReader)
	return zr, nil
}

// readZipEntry opens and fully reads one entry by name, verifying its
// checksum via archive/zip's own CRC-32 check, which reports a mismatch
// when the read reaches the end of the entry.
func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// chunkInfo is one top-level chunk found by walkTopLevelChunks.
type chunkInfo struct {
	id     uint16
	offset int
	total  uint32
}

// walkTopLevelChunks decodes the sequence of top-level chunks in a binary
// XML document or resource table using the same chunk-header framing
// (id, header_len, size) the chunked encoders wrote, confirming every
// chunk's declared size is internally consistent and stays in bounds. It
// is a decode-direction cross-check on what this package's chunked
// encoders just wrote; builds never call it, only this package's own
// tests do.
func walkTopLevelChunks(data []byte) ([]chunkInfo, error) {
	var out []chunkInfo
	off := 0
	for off < len(data) {
		id, headerLen, total, err := parseChunkHeader(bytes.NewReader(data[off:]))
		if err != nil {
			return nil, err
		}
		if total < uint32(headerLen) || total < chunkHeaderSize || off+int(total) > len(data) {
			return nil, fmt.Errorf("chunk at offset %d has inconsistent size (header_len=%d, size=%d)", off, headerLen, total)
		}
		out = append(out, chunkInfo{id: id, offset: off, total: total})
		off += int(total)
	}
	return out, nil
}

// flateReaderPool amortizes klauspost/compress/flate.Reader allocation
// across the many small entries a typical archive verification touches.
var flateReaderPool sync.Pool

func newPooledFlateReader(r io.Reader) io.ReadCloser {
	fr, ok := flateReaderPool.Get().(io.ReadCloser)
	if ok {
		fr.(flate.Resetter).Reset(r, nil)
	} else {
		fr = flate.NewReader(r)
	}
	return &pooledFlateReader{fr: fr}
}

type pooledFlateReader struct {
	mu sync.Mutex
	fr io.ReadCloser
}

func (r *pooledFlateReader) Read(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fr.Read(p)
}

func (r *pooledFlateReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.fr.Close()
	flateReaderPool.Put(r.fr)
	r.fr = nil
	return err
}
