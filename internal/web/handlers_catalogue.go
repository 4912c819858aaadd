package web

import (
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/gorilla/mux"
    "github.com/rs/zerolog/log"

    "github.com/local/printflow/internal/catalogue"
    "github.com/local/printflow/internal/fetch"
    "github.com/local/printflow/internal/filetype"
    "github.com/local/printflow/internal/pdf"
    "github.com/local/printflow/internal/storage"
)

type catalogueResponse struct {
    ID         string    `json:"id"`
    Name       string    `json:"name"`
    ByteSize   int64     `json:"byte_size"`
    TotalPages int       `json:"total_pages"`
    CoverPage  int       `json:"cover_page"`
    UploadedAt time.Time `json:"uploaded_at"`
}

func toCatalogueResponse(d *catalogue.Document) catalogueResponse {
    return catalogueResponse{
        ID:         d.ID,
        Name:       d.Name,
        ByteSize:   d.ByteSize,
        TotalPages: d.TotalPageCount,
        CoverPage:  catalogue.CoverPage(d.TotalPageCount, d.CoverPageIndex),
        UploadedAt: d.UploadedAt,
    }
}

func (s *Server) handleUploadCatalogue(w http.ResponseWriter, r *http.Request) {
    if err := r.ParseMultipartForm(32 << 20); err != nil {
        writeError(w, http.StatusBadRequest, "invalid multipart form")
        return
    }
    file, header, err := r.FormFile("file")
    if err != nil {
        writeError(w, http.StatusBadRequest, "missing file field")
        return
    }
    defer file.Close()

    data, err := io.ReadAll(io.LimitReader(file, s.cfg.Fetch.MaxBodyBytes+1))
    if err != nil {
        writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
        return
    }
    if int64(len(data)) > s.cfg.Fetch.MaxBodyBytes {
        writeError(w, http.StatusRequestEntityTooLarge, "catalogue exceeds size limit")
        return
    }
    if err := filetype.New().RequirePDF(data); err != nil {
        writeError(w, http.StatusUnsupportedMediaType, err.Error())
        return
    }
    totalPages, err := pdf.PageCount(data)
    if err != nil {
        writeDomainError(w, err)
        return
    }

    name := r.FormValue("name")
    if name == "" {
        name = header.Filename
    }
    id := uuid.NewString()
    key := fmt.Sprintf("%s/%s.pdf", s.cfg.Storage.CataloguePrefix, id)
    ref, err := s.uploader.Upload(r.Context(), key, data, &storage.ObjectMetadata{
        OriginalName: header.Filename,
        ContentType:  "application/pdf",
        Size:         int64(len(data)),
    })
    if err != nil {
        writeError(w, http.StatusBadGateway, "store catalogue: "+err.Error())
        return
    }

    doc := &catalogue.Document{
        ID:             id,
        Name:           name,
        ByteSize:       int64(len(data)),
        TotalPageCount: totalPages,
        CoverPageIndex: 1,
        SourceRef:      ref,
        UploadedAt:     time.Now().UTC(),
    }
    if err := s.catalogues.Save(r.Context(), doc); err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    log.Info().Str("catalogue_id", id).Str("name", name).Int("pages", totalPages).Msg("catalogue uploaded")
    writeJSON(w, http.StatusCreated, toCatalogueResponse(doc))
}

func (s *Server) handleListCatalogues(w http.ResponseWriter, r *http.Request) {
    docs, err := s.catalogues.List(r.Context())
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    out := make([]catalogueResponse, 0, len(docs))
    for _, d := range docs {
        out = append(out, toCatalogueResponse(d))
    }
    writeJSON(w, http.StatusOK, map[string]any{"catalogues": out})
}

func (s *Server) handleGetCatalogue(w http.ResponseWriter, r *http.Request) {
    id := mux.Vars(r)["id"]
    d, ok, err := s.catalogues.Get(r.Context(), id)
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    if !ok {
        writeError(w, http.StatusNotFound, "catalogue not found")
        return
    }
    writeJSON(w, http.StatusOK, toCatalogueResponse(d))
}

func (s *Server) handleSetCover(w http.ResponseWriter, r *http.Request) {
    id := mux.Vars(r)["id"]
    var body struct {
        CoverPage int `json:"cover_page"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        writeError(w, http.StatusBadRequest, "invalid json body")
        return
    }
    if err := s.catalogues.SetCover(r.Context(), id, body.CoverPage); err != nil {
        writeError(w, http.StatusBadRequest, err.Error())
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"id": id, "cover_page": body.CoverPage})
}

func (s *Server) handleDeleteCatalogue(w http.ResponseWriter, r *http.Request) {
    id := mux.Vars(r)["id"]
    d, ok, err := s.catalogues.Get(r.Context(), id)
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    if !ok {
        writeError(w, http.StatusNotFound, "catalogue not found")
        return
    }

    // remove the stored PDF first so a failed object delete leaves the
    // metadata behind and the request retryable
    if _, key, err := fetch.SplitS3URL(d.SourceRef); err == nil {
        if err := s.uploader.Delete(r.Context(), key); err != nil {
            writeError(w, http.StatusBadGateway, "delete catalogue object: "+err.Error())
            return
        }
    }
    if err := s.catalogues.Delete(r.Context(), id); err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    log.Info().Str("catalogue_id", id).Msg("catalogue deleted")
    w.WriteHeader(http.StatusNoContent)
}
