package pdf

import (
    "bytes"
    "fmt"
    "image/jpeg"
    "time"

    fitz "github.com/gen2brain/go-fitz"
    "github.com/rs/zerolog/log"
)

// RenderedPage is a decoded page rasterized at a point in time. Never mutated
// after creation; owned by the browsing session that requested it.
type RenderedPage struct {
    PageNumber  int     `json:"page_number"` // 1-based
    Image       []byte  `json:"-"`           // JPEG bytes
    Width       int     `json:"width"`
    Height      int     `json:"height"`
    AspectRatio float64 `json:"aspect_ratio"` // width / height
}

// Document is an opaque handle over an open PDF. It hides the decode
// library's object shape entirely; only page count and rendering are exposed.
type Document struct {
    doc     *fitz.Document
    pages   int
    baseDPI float64
    quality int
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int { return d.pages }

// RenderPage rasterizes the 1-based page at the given scale factor and
// encodes it as JPEG. scale multiplies the decoder's base DPI; callers on
// resource-constrained clients pass a lower scale.
func (d *Document) RenderPage(pageNumber int, scale float64) (*RenderedPage, error) {
    if pageNumber < 1 || pageNumber > d.pages {
        return nil, fmt.Errorf("%w: page %d out of range (document has %d pages)", ErrDecode, pageNumber, d.pages)
    }
    if scale <= 0 {
        return nil, fmt.Errorf("%w: scale must be positive, got %v", ErrDecode, scale)
    }

    start := time.Now()
    // go-fitz uses 0-based indexing
    img, err := d.doc.ImageDPI(pageNumber-1, d.baseDPI*scale)
    if err != nil {
        return nil, fmt.Errorf("%w: render page %d: %v", ErrDecode, pageNumber, err)
    }

    bounds := img.Bounds()
    width := bounds.Dx()
    height := bounds.Dy()
    if height == 0 {
        return nil, fmt.Errorf("%w: page %d rendered with zero height", ErrDecode, pageNumber)
    }

    var buf bytes.Buffer
    if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: d.quality}); err != nil {
        return nil, fmt.Errorf("%w: encode page %d: %v", ErrDecode, pageNumber, err)
    }

    log.Debug().
        Int("page", pageNumber).
        Int("width", width).
        Int("height", height).
        Float64("scale", scale).
        Int("jpeg_size", buf.Len()).
        Dur("took", time.Since(start)).
        Msg("rendered page to JPEG")

    return &RenderedPage{
        PageNumber:  pageNumber,
        Image:       buf.Bytes(),
        Width:       width,
        Height:      height,
        AspectRatio: float64(width) / float64(height),
    }, nil
}

// Close releases the underlying decode resources. The handle must not be
// used afterwards.
func (d *Document) Close() error {
    if d.doc == nil {
        return nil
    }
    err := d.doc.Close()
    d.doc = nil
    return err
}
