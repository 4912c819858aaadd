package pdf

import "errors"

var (
    // ErrDecode is returned when document bytes are malformed or a page
    // index is out of range during rasterization.
    ErrDecode = errors.New("decode failed")

    // ErrExtract is returned when a page-subset extraction cannot be
    // completed. No partial output is ever produced.
    ErrExtract = errors.New("extraction failed")
)
