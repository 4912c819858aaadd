package filetype

import (
    "fmt"

    "github.com/gabriel-vasile/mimetype"
    "github.com/rs/zerolog/log"
)

// Info contains detected file type information for an uploaded catalogue.
type Info struct {
    MIMEType  string
    Extension string
    IsPDF     bool
}

// Detector identifies uploads by magic bytes, not filename.
type Detector struct{}

// New creates a new file type detector.
func New() *Detector {
    return &Detector{}
}

// Detect inspects the payload's magic bytes.
func (d *Detector) Detect(data []byte) (*Info, error) {
    if len(data) == 0 {
        return nil, fmt.Errorf("empty payload")
    }
    mtype := mimetype.Detect(data)

    info := &Info{
        MIMEType:  mtype.String(),
        Extension: mtype.Extension(),
        IsPDF:     mtype.Is("application/pdf"),
    }
    log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Msg("detected file type")
    return info, nil
}

// RequirePDF returns an error unless the payload is a PDF.
func (d *Detector) RequirePDF(data []byte) error {
    info, err := d.Detect(data)
    if err != nil {
        return err
    }
    if !info.IsPDF {
        return fmt.Errorf("unsupported file type %s, expected application/pdf", info.MIMEType)
    }
    return nil
}
