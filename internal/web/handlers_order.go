package web

import (
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/gorilla/mux"
    "github.com/rs/zerolog/log"

    "github.com/local/printflow/internal/metrics"
    "github.com/local/printflow/internal/notify"
    "github.com/local/printflow/internal/order"
    "github.com/local/printflow/internal/pdf"
)

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
    var body struct {
        SessionID string                `json:"session_id"`
        Contact   order.CustomerContact `json:"contact"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        writeError(w, http.StatusBadRequest, "invalid json body")
        return
    }
    sess, ok := s.sessions.Get(body.SessionID)
    if !ok {
        writeError(w, http.StatusNotFound, "session not found")
        return
    }
    doc, ok, err := s.catalogues.Get(r.Context(), sess.CatalogueID)
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    if !ok {
        writeError(w, http.StatusNotFound, "catalogue not found")
        return
    }

    now := time.Now().UTC()
    o := &order.Order{
        ID:                   uuid.NewString(),
        DocumentID:           doc.ID,
        DocumentNameSnapshot: doc.Name,
        SelectedPages:        sess.SelectedPages(),
        Contact:              body.Contact,
        Status:               order.StatusReceived,
        CreatedAt:            now,
        UpdatedAt:            now,
    }
    if err := o.Validate(doc.TotalPageCount); err != nil {
        metrics.IncOrder("invalid")
        writeError(w, http.StatusBadRequest, err.Error())
        return
    }
    if err := s.orders.Save(r.Context(), o); err != nil {
        metrics.IncOrder("error")
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    metrics.IncOrder("ok")

    // checkout hands the selection off to the order
    sess.ClearSelection()

    if s.notifier != nil {
        s.notifier.Publish(notify.Event{
            OrderID:      o.ID,
            DocumentID:   o.DocumentID,
            DocumentName: o.DocumentNameSnapshot,
            Status:       string(o.Status),
            OccurredAt:   now,
        })
    }
    log.Info().Str("order_id", o.ID).Str("document_id", o.DocumentID).
        Ints("pages", o.SelectedPages).Msg("order received")
    writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
    orders, err := s.orders.List(r.Context())
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
    o, ok, err := s.orders.Get(r.Context(), mux.Vars(r)["id"])
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    if !ok {
        writeError(w, http.StatusNotFound, "order not found")
        return
    }
    writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleSetOrderStatus(w http.ResponseWriter, r *http.Request) {
    id := mux.Vars(r)["id"]
    var body struct {
        Status order.Status `json:"status"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        writeError(w, http.StatusBadRequest, "invalid json body")
        return
    }
    if err := s.orders.SetStatus(r.Context(), id, body.Status); err != nil {
        writeError(w, http.StatusConflict, err.Error())
        return
    }
    if body.Status == order.StatusCancelled {
        if err := s.queue.CancelOrder(r.Context(), id); err != nil {
            log.Error().Err(err).Str("order_id", id).Msg("record cancellation")
        }
    }
    if s.notifier != nil {
        o, ok, _ := s.orders.Get(r.Context(), id)
        if ok {
            s.notifier.Publish(notify.Event{
                OrderID:      o.ID,
                DocumentID:   o.DocumentID,
                DocumentName: o.DocumentNameSnapshot,
                Status:       string(o.Status),
                ResultRef:    o.ResultRef,
                OccurredAt:   time.Now().UTC(),
            })
        }
    }
    writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": body.Status})
}

func (s *Server) handleFulfillOrder(w http.ResponseWriter, r *http.Request) {
    id := mux.Vars(r)["id"]
    o, ok, err := s.orders.Get(r.Context(), id)
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    if !ok {
        writeError(w, http.StatusNotFound, "order not found")
        return
    }
    if o.Status != order.StatusReceived {
        writeError(w, http.StatusConflict, fmt.Sprintf("order is %s, only received orders can be fulfilled", o.Status))
        return
    }
    doc, ok, err := s.catalogues.Get(r.Context(), o.DocumentID)
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    if !ok {
        writeError(w, http.StatusNotFound, "catalogue not found")
        return
    }

    payload, err := json.Marshal(FulfillJobPayload(o, doc.SourceRef))
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    if err := s.queue.Enqueue(r.Context(), payload); err != nil {
        writeError(w, http.StatusBadGateway, "enqueue fulfillment: "+err.Error())
        return
    }
    log.Info().Str("order_id", id).Msg("fulfillment enqueued")
    writeJSON(w, http.StatusAccepted, map[string]any{"id": id, "enqueued": true})
}

func (s *Server) handleDownloadOrder(w http.ResponseWriter, r *http.Request) {
    id := mux.Vars(r)["id"]
    o, ok, err := s.orders.Get(r.Context(), id)
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    if !ok {
        writeError(w, http.StatusNotFound, "order not found")
        return
    }
    doc, ok, err := s.catalogues.Get(r.Context(), o.DocumentID)
    if err != nil {
        writeError(w, http.StatusInternalServerError, err.Error())
        return
    }
    if !ok {
        writeError(w, http.StatusNotFound, "catalogue not found")
        return
    }

    src, err := s.fetcher.Fetch(r.Context(), doc.SourceRef)
    if err != nil {
        writeDomainError(w, err)
        return
    }
    start := time.Now()
    subset, err := pdf.ExtractPages(src, o.SelectedPages)
    if err != nil {
        metrics.ObserveExtraction("error", time.Since(start))
        writeDomainError(w, err)
        return
    }
    metrics.ObserveExtraction("ok", time.Since(start))

    w.Header().Set("Content-Type", "application/pdf")
    w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="order-%s.pdf"`, o.ID))
    w.Header().Set("Content-Length", fmt.Sprintf("%d", len(subset)))
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(subset)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
    if s.checker != nil && !s.checker.Healthy(r.Context()) {
        writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "service": "printflow"})
        return
    }
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "printflow"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
    if s.checker == nil {
        writeError(w, http.StatusServiceUnavailable, "status checker unavailable")
        return
    }
    writeJSON(w, http.StatusOK, s.checker.Summary(r.Context()))
}
