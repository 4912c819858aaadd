package pdf

import (
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/local/printflow/internal/pdf/pdftest"
)

func TestPageCount(t *testing.T) {
    n, err := PageCount(pdftest.MultiPage(7))
    require.NoError(t, err)
    assert.Equal(t, 7, n)
}

func TestPageCountMalformed(t *testing.T) {
    _, err := PageCount([]byte("garbage"))
    assert.ErrorIs(t, err, ErrDecode)
}

// pageTexts extracts the text of every page via the decoder, so extraction
// output can be checked page-by-page against the source.
func pageTexts(t *testing.T, data []byte) []string {
    t.Helper()
    dec := NewDecoder(DecoderOptions{})
    doc, err := dec.Open(data)
    require.NoError(t, err)
    defer doc.Close()

    out := make([]string, 0, doc.PageCount())
    for i := 0; i < doc.PageCount(); i++ {
        text, err := doc.doc.Text(i)
        require.NoError(t, err)
        out = append(out, strings.TrimSpace(text))
    }
    return out
}

func TestExtractPagesSubset(t *testing.T) {
    src := pdftest.MultiPage(12)

    out, err := ExtractPages(src, []int{3, 7, 12})
    require.NoError(t, err)

    n, err := PageCount(out)
    require.NoError(t, err)
    assert.Equal(t, 3, n)

    texts := pageTexts(t, out)
    require.Len(t, texts, 3)
    assert.Contains(t, texts[0], "Page 3")
    assert.Contains(t, texts[1], "Page 7")
    assert.Contains(t, texts[2], "Page 12")
}

func TestExtractPagesIdempotent(t *testing.T) {
    src := pdftest.MultiPage(6)
    pages := []int{2, 5}

    a, err := ExtractPages(src, pages)
    require.NoError(t, err)
    b, err := ExtractPages(src, pages)
    require.NoError(t, err)

    // Encoder metadata (timestamps) may differ; structural content must not.
    na, err := PageCount(a)
    require.NoError(t, err)
    nb, err := PageCount(b)
    require.NoError(t, err)
    assert.Equal(t, na, nb)
    assert.Equal(t, pageTexts(t, a), pageTexts(t, b))
}

func TestExtractPagesAllOrNothing(t *testing.T) {
    src := pdftest.MultiPage(10)

    // page 12 out of range against a 10-page document
    _, err := ExtractPages(src, []int{3, 7, 12})
    assert.ErrorIs(t, err, ErrExtract)
}

func TestExtractPagesInvalidLists(t *testing.T) {
    src := pdftest.MultiPage(5)

    cases := map[string][]int{
        "empty":          {},
        "descending":     {3, 1},
        "duplicate":      {2, 2},
        "zero page":      {0, 1},
        "negative page":  {-1},
        "beyond total":   {6},
    }
    for name, pages := range cases {
        t.Run(name, func(t *testing.T) {
            _, err := ExtractPages(src, pages)
            assert.ErrorIs(t, err, ErrExtract)
        })
    }
}

func TestExtractPagesMalformedSource(t *testing.T) {
    _, err := ExtractPages([]byte("not a pdf"), []int{1})
    assert.ErrorIs(t, err, ErrExtract)
}

func TestValidatePageList(t *testing.T) {
    assert.NoError(t, ValidatePageList([]int{1, 2, 3}, 3))
    assert.NoError(t, ValidatePageList([]int{5}, 10))
    assert.Error(t, ValidatePageList(nil, 10))
    assert.Error(t, ValidatePageList([]int{1, 1}, 10))
    assert.Error(t, ValidatePageList([]int{2, 1}, 10))
    assert.Error(t, ValidatePageList([]int{11}, 10))
}
