package filetype

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestDetectPDF(t *testing.T) {
    d := New()
    info, err := d.Detect([]byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"))
    require.NoError(t, err)
    assert.True(t, info.IsPDF)
    assert.Equal(t, "application/pdf", info.MIMEType)
}

func TestDetectNonPDF(t *testing.T) {
    d := New()
    info, err := d.Detect([]byte("<html><body>not a pdf</body></html>"))
    require.NoError(t, err)
    assert.False(t, info.IsPDF)
}

func TestDetectEmpty(t *testing.T) {
    d := New()
    _, err := d.Detect(nil)
    assert.Error(t, err)
}

func TestRequirePDF(t *testing.T) {
    d := New()
    assert.NoError(t, d.RequirePDF([]byte("%PDF-1.4\n")))
    assert.Error(t, d.RequirePDF([]byte("PK\x03\x04 zip bytes")))
}
