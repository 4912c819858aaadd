package pdf

import (
    "fmt"

    fitz "github.com/gen2brain/go-fitz"
)

// Decoder opens documents and configures how their pages render. It is an
// explicitly constructed handle: no package-level engine state, every caller
// receives its configuration through dependency injection.
type Decoder struct {
    baseDPI float64
    quality int
    workers int
}

// DecoderOptions configures a Decoder.
type DecoderOptions struct {
    // BaseDPI is the resolution at scale 1.0. Defaults to 96.
    BaseDPI int
    // JPEGQuality in [1,100]. Defaults to 80; lossy output bounds memory and
    // bandwidth on mobile clients, so callers must not compare byte-for-byte.
    JPEGQuality int
    // Workers bounds concurrent page renders within one batch. Defaults to 4.
    Workers int
}

// NewDecoder creates a Decoder with defaults applied.
func NewDecoder(opts DecoderOptions) *Decoder {
    if opts.BaseDPI <= 0 { opts.BaseDPI = 96 }
    if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 { opts.JPEGQuality = 80 }
    if opts.Workers <= 0 { opts.Workers = 4 }
    return &Decoder{
        baseDPI: float64(opts.BaseDPI),
        quality: opts.JPEGQuality,
        workers: opts.Workers,
    }
}

// Workers returns the per-batch render concurrency bound.
func (dec *Decoder) Workers() int { return dec.workers }

// Open decodes document bytes into an opaque page-rendering handle. The
// caller owns the handle and must Close it.
func (dec *Decoder) Open(data []byte) (*Document, error) {
    doc, err := fitz.NewFromMemory(data)
    if err != nil {
        return nil, fmt.Errorf("%w: open document: %v", ErrDecode, err)
    }
    return &Document{
        doc:     doc,
        pages:   doc.NumPage(),
        baseDPI: dec.baseDPI,
        quality: dec.quality,
    }, nil
}
