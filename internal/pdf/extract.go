package pdf

import (
    "bytes"
    "fmt"
    "strconv"
    "time"

    "github.com/pdfcpu/pdfcpu/pkg/api"
    "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
    "github.com/rs/zerolog/log"

    "github.com/local/printflow/internal/metrics"
)

// PageCount returns the number of pages in the given PDF bytes using pdfcpu.
func PageCount(data []byte) (int, error) {
    n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
    if err != nil {
        return 0, fmt.Errorf("%w: page count: %v", ErrDecode, err)
    }
    return n, nil
}

// ExtractPages produces a new PDF containing exactly the given pages of src,
// in the given order. The list must be non-empty, strictly ascending,
// duplicate-free, and each page within [1, pageCount]. Either every requested
// page is copied or the operation fails entirely.
func ExtractPages(src []byte, pages []int) ([]byte, error) {
    start := time.Now()

    total, err := PageCount(src)
    if err != nil {
        metrics.ObserveExtraction("malformed", time.Since(start))
        return nil, fmt.Errorf("%w: malformed source: %v", ErrExtract, err)
    }
    if err := ValidatePageList(pages, total); err != nil {
        metrics.ObserveExtraction("invalid_pages", time.Since(start))
        return nil, fmt.Errorf("%w: %v", ErrExtract, err)
    }

    selected := make([]string, len(pages))
    for i, p := range pages {
        selected[i] = strconv.Itoa(p)
    }

    var out bytes.Buffer
    if err := api.Trim(bytes.NewReader(src), &out, selected, model.NewDefaultConfiguration()); err != nil {
        metrics.ObserveExtraction("error", time.Since(start))
        return nil, fmt.Errorf("%w: trim to %d pages: %v", ErrExtract, len(pages), err)
    }

    metrics.ObserveExtraction("ok", time.Since(start))
    log.Info().
        Int("source_pages", total).
        Int("subset_pages", len(pages)).
        Int("out_size", out.Len()).
        Msg("extracted page subset")
    return out.Bytes(), nil
}

// ValidatePageList checks that pages is non-empty, strictly ascending (which
// also rules out duplicates), and within [1, total].
func ValidatePageList(pages []int, total int) error {
    if len(pages) == 0 {
        return fmt.Errorf("empty page list")
    }
    prev := 0
    for _, p := range pages {
        if p < 1 || p > total {
            return fmt.Errorf("page %d out of range [1, %d]", p, total)
        }
        if p <= prev {
            return fmt.Errorf("page list not strictly ascending at %d", p)
        }
        prev = p
    }
    return nil
}
