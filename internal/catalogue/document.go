package catalogue

import (
    "fmt"
    "time"
)

// Document describes an uploaded catalogue. The source file itself lives in
// object storage and is immutable once uploaded.
type Document struct {
    ID             string    `json:"id"`
    Name           string    `json:"name"`
    ByteSize       int64     `json:"byte_size"`
    TotalPageCount int       `json:"total_page_count"`
    CoverPageIndex int       `json:"cover_page_index"` // 1-based, defaults to 1
    SourceRef      string    `json:"source_ref"`       // s3:// URL
    UploadedAt     time.Time `json:"uploaded_at"`
}

// Validate enforces the document invariants.
func (d *Document) Validate() error {
    if d.ID == "" {
        return fmt.Errorf("document id required")
    }
    if d.Name == "" {
        return fmt.Errorf("document name required")
    }
    if d.TotalPageCount < 1 {
        return fmt.Errorf("document must have at least one page")
    }
    if d.CoverPageIndex < 1 || d.CoverPageIndex > d.TotalPageCount {
        return fmt.Errorf("cover page %d outside [1, %d]", d.CoverPageIndex, d.TotalPageCount)
    }
    return nil
}

// CoverPage picks the page rendered as the catalogue thumbnail: the override
// if positive, clamped into [1, totalPages]; page 1 when no override is set.
// Always returns a valid page number.
func CoverPage(totalPages, override int) int {
    if totalPages < 1 {
        return 1
    }
    if override < 1 {
        return 1
    }
    if override > totalPages {
        return totalPages
    }
    return override
}
