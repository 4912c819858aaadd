package web

import (
    "encoding/json"
    "net/http"
    "strconv"
    "time"

    "github.com/gorilla/mux"
    "github.com/rs/zerolog/log"

    "github.com/local/printflow/internal/metrics"
    "github.com/local/printflow/internal/session"
)

type sessionResponse struct {
    ID          string `json:"id"`
    CatalogueID string `json:"catalogue_id"`
    TotalPages  int    `json:"total_pages"`
    Loaded      int    `json:"loaded"`
    Complete    bool   `json:"complete"`
}

func (s *Server) sessionState(sess *session.Session) sessionResponse {
    l := sess.Loader()
    return sessionResponse{
        ID:          sess.ID,
        CatalogueID: sess.CatalogueID,
        TotalPages:  l.TotalPages(),
        Loaded:      l.LoadedCount(),
        Complete:    l.Complete(),
    }
}

// loaderOptions derives batch sizing and scale from the client profile.
// Mobile clients get smaller batches and a lower render scale.
func (s *Server) loaderOptions(profile string) session.LoaderOptions {
    rc := s.cfg.Render
    opts := session.LoaderOptions{
        InitialBatchSize: rc.InitialBatchSize,
        BatchSize:        rc.BatchSize,
        Scale:            rc.DesktopScale,
        Workers:          rc.Workers,
    }
    if profile == "mobile" {
        opts.InitialBatchSize = rc.MobileBatchSize
        opts.BatchSize = rc.MobileBatchSize
        opts.Scale = rc.MobileScale
    }
    return opts
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
    var body struct {
        CatalogueID string `json:"catalogue_id"`
        Profile     string `json:"profile"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        writeError(w, http.StatusBadRequest, "invalid json body")
        return
    }
    if body.CatalogueID == "" {
        writeError(w, http.StatusBadRequest, "catalogue_id is required")
        return
    }

    doc, ok, err := s.catalogues.Get(r.Context(), body.CatalogueID)
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    if !ok {
        writeError(w, http.StatusNotFound, "catalogue not found")
        return
    }

    start := time.Now()
    data, err := s.fetcher.Fetch(r.Context(), doc.SourceRef)
    if err != nil {
        writeDomainError(w, err)
        return
    }
    handle, err := s.decoder.Open(data)
    if err != nil {
        writeDomainError(w, err)
        return
    }

    profile := body.Profile
    if profile == "" { profile = "desktop" }
    sess, err := s.sessions.Open(body.CatalogueID, handle, s.loaderOptions(profile))
    if err != nil {
        metrics.ObserveRender("error", profile, time.Since(start))
        writeDomainError(w, err)
        return
    }
    metrics.ObserveRender("ok", profile, time.Since(start))
    writeJSON(w, http.StatusCreated, s.sessionState(sess))
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
    sess, ok := s.sessions.Get(mux.Vars(r)["id"])
    if !ok {
        writeError(w, http.StatusNotFound, "session not found")
        return
    }
    if _, err := sess.LoadMore(); err != nil {
        log.Error().Err(err).Str("session_id", sess.ID).Msg("load more failed")
        writeDomainError(w, err)
        return
    }
    writeJSON(w, http.StatusOK, s.sessionState(sess))
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)
    sess, ok := s.sessions.Get(vars["id"])
    if !ok {
        writeError(w, http.StatusNotFound, "session not found")
        return
    }
    n, err := strconv.Atoi(vars["n"])
    if err != nil {
        writeError(w, http.StatusBadRequest, "invalid page number")
        return
    }
    page, ok := sess.Loader().Page(n)
    if !ok {
        writeError(w, http.StatusNotFound, "page not loaded")
        return
    }
    w.Header().Set("Content-Type", "image/jpeg")
    w.Header().Set("X-Page-Aspect-Ratio", strconv.FormatFloat(page.AspectRatio, 'f', 6, 64))
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(page.Image)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
    sess, ok := s.sessions.Get(mux.Vars(r)["id"])
    if !ok {
        writeError(w, http.StatusNotFound, "session not found")
        return
    }
    var body struct {
        Page int `json:"page"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        writeError(w, http.StatusBadRequest, "invalid json body")
        return
    }
    selected, err := sess.Toggle(body.Page)
    if err != nil {
        writeError(w, http.StatusBadRequest, err.Error())
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{
        "page":     body.Page,
        "selected": selected,
        "size":     sess.SelectionSize(),
        "pages":    sess.SelectedPages(),
    })
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
    sess, ok := s.sessions.Get(mux.Vars(r)["id"])
    if !ok {
        writeError(w, http.StatusNotFound, "session not found")
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{
        "size":  sess.SelectionSize(),
        "pages": sess.SelectedPages(),
    })
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
    if !s.sessions.Close(mux.Vars(r)["id"]) {
        writeError(w, http.StatusNotFound, "session not found")
        return
    }
    w.WriteHeader(http.StatusNoContent)
}
