// Package pdftest builds small, well-formed PDF files in memory so decoder
// and extractor tests do not depend on fixture files.
package pdftest

import (
    "bytes"
    "fmt"
)

// MultiPage returns a valid PDF with n pages (n >= 1). Page i carries a
// single text line "Page i" so tests can identify page content after a
// subset extraction. Pages use a US Letter media box (612x792 pt).
func MultiPage(n int) []byte {
    if n < 1 {
        n = 1
    }

    // Object ids: 1 catalog, 2 page tree, 3 font,
    // then (page, content) pairs: page i -> ids 2+2i and 3+2i.
    totalObjs := 3 + 2*n

    var buf bytes.Buffer
    offsets := make([]int, totalObjs+1)

    buf.WriteString("%PDF-1.4\n")

    writeObj := func(id int, body string) {
        offsets[id] = buf.Len()
        fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
    }

    var kids bytes.Buffer
    for i := 1; i <= n; i++ {
        if i > 1 {
            kids.WriteString(" ")
        }
        fmt.Fprintf(&kids, "%d 0 R", 2+2*i)
    }

    writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
    writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), n))
    writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

    for i := 1; i <= n; i++ {
        pageID := 2 + 2*i
        contentID := 3 + 2*i
        writeObj(pageID, fmt.Sprintf(
            "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
                "/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentID))

        stream := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (Page %d) Tj ET", i)
        writeObj(contentID, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
    }

    xrefOffset := buf.Len()
    fmt.Fprintf(&buf, "xref\n0 %d\n", totalObjs+1)
    buf.WriteString("0000000000 65535 f \n")
    for id := 1; id <= totalObjs; id++ {
        fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[id])
    }
    fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", totalObjs+1, xrefOffset)

    return buf.Bytes()
}
