package fulfill

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/printflow/internal/metrics"
    "github.com/local/printflow/internal/notify"
    "github.com/local/printflow/internal/order"
    "github.com/local/printflow/internal/pdf"
    "github.com/local/printflow/internal/storage"
)

// Job is the queue payload for one order's page extraction. Attempts
// counts deliveries so transient failures can back off before the DLQ.
type Job struct {
    OrderID        string `json:"order_id"`
    DocumentID     string `json:"document_id"`
    SourceRef      string `json:"source_ref"`
    Pages          []int  `json:"pages"`
    IdempotencyKey string `json:"idempotency_key,omitempty"`
    Attempts       int    `json:"attempts,omitempty"`
}

// Queue is the slice of the redis queue the worker needs.
type Queue interface {
    Dequeue(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error)
    Ack(ctx context.Context, msgID string) error
    EnqueueDelayed(ctx context.Context, payload []byte, executeAt time.Time) error
    AddDLQ(ctx context.Context, payload []byte, reason string) error
    IsCancelled(ctx context.Context, orderID string) (bool, error)
    IsIdemDone(ctx context.Context, key string) (bool, error)
    MarkIdemDone(ctx context.Context, key string, ttl time.Duration) error
}

// OrderStore is the slice of the order store the worker needs.
type OrderStore interface {
    SetStatus(ctx context.Context, id string, next order.Status) error
    SetResult(ctx context.Context, id, resultRef string) error
    Get(ctx context.Context, id string) (*order.Order, bool, error)
}

// Fetcher resolves a source ref into document bytes.
type Fetcher interface {
    Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Uploader stores the extracted subset and returns its ref.
type Uploader interface {
    Upload(ctx context.Context, key string, data []byte, meta *storage.ObjectMetadata) (string, error)
}

// Config tunes the worker pool.
type Config struct {
    Concurrency    int
    JobTimeout     time.Duration
    IdempotencyTTL time.Duration
    ResultPrefix   string
    MaxAttempts    int
    RetryDelay     time.Duration
}

// Worker consumes fulfillment jobs: fetch the source document, extract the
// ordered page subset, upload the result, and advance the order's status.
type Worker struct {
    cfg      Config
    q        Queue
    orders   OrderStore
    fetcher  Fetcher
    uploader Uploader
    notifier *notify.Notifier
    stop     chan struct{}
}

// New builds a worker pool. Start must be called to begin consuming.
func New(cfg Config, q Queue, orders OrderStore, fetcher Fetcher, uploader Uploader, notifier *notify.Notifier) *Worker {
    if cfg.Concurrency <= 0 { cfg.Concurrency = 2 }
    if cfg.JobTimeout <= 0 { cfg.JobTimeout = 120 * time.Second }
    if cfg.IdempotencyTTL <= 0 { cfg.IdempotencyTTL = 24 * time.Hour }
    if cfg.ResultPrefix == "" { cfg.ResultPrefix = "fulfilled" }
    if cfg.MaxAttempts <= 0 { cfg.MaxAttempts = 3 }
    if cfg.RetryDelay <= 0 { cfg.RetryDelay = 10 * time.Second }
    return &Worker{cfg: cfg, q: q, orders: orders, fetcher: fetcher, uploader: uploader, notifier: notifier, stop: make(chan struct{})}
}

// Start launches the consumer loops.
func (w *Worker) Start() {
    for i := 0; i < w.cfg.Concurrency; i++ {
        go w.loop(i)
    }
}

// Stop signals all loops to exit after their current job.
func (w *Worker) Stop() {
    close(w.stop)
}

func (w *Worker) loop(id int) {
    consumer := fmt.Sprintf("fulfill-%d-%s", id, uuid.NewString()[:8])
    log.Info().Int("worker", id).Msg("fulfillment worker started")
    for {
        select {
        case <-w.stop:
            log.Info().Int("worker", id).Msg("fulfillment worker stopped")
            return
        default:
        }

        msgID, data, err := w.q.Dequeue(context.Background(), consumer, 2*time.Second)
        if err != nil {
            log.Error().Err(err).Msg("queue dequeue error")
            time.Sleep(500 * time.Millisecond)
            continue
        }
        if data == nil { continue }
        _ = w.q.Ack(context.Background(), msgID)

        var job Job
        if err := json.Unmarshal(data, &job); err != nil {
            log.Error().Err(err).Msg("malformed fulfillment job")
            _ = w.q.AddDLQ(context.Background(), data, "unmarshal: "+err.Error())
            continue
        }
        w.handle(job, data)
    }
}

// Handle processes one job synchronously. Exported for the HTTP surface's
// synchronous fulfill path and for tests.
func (w *Worker) Handle(job Job) error {
    payload, _ := json.Marshal(job)
    return w.handle(job, payload)
}

func (w *Worker) handle(job Job, payload []byte) error {
    ctx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
    defer cancel()

    lg := log.With().Str("order_id", job.OrderID).Str("document_id", job.DocumentID).Logger()

    if cancelled, _ := w.q.IsCancelled(ctx, job.OrderID); cancelled {
        lg.Warn().Msg("order cancelled before fulfillment, skipping")
        return nil
    }
    if done, _ := w.q.IsIdemDone(ctx, job.IdempotencyKey); done {
        lg.Info().Msg("fulfillment already completed, skipping duplicate")
        return nil
    }

    start := time.Now()
    resultRef, err := w.extract(ctx, job)
    if err != nil {
        metrics.ObserveExtraction("error", time.Since(start))
        if transient(err) && job.Attempts+1 < w.cfg.MaxAttempts {
            job.Attempts++
            delay := w.cfg.RetryDelay * time.Duration(1<<(job.Attempts-1))
            retryPayload, _ := json.Marshal(job)
            _ = w.q.EnqueueDelayed(context.Background(), retryPayload, time.Now().Add(delay))
            lg.Warn().Err(err).Int("attempt", job.Attempts).Dur("retry_in", delay).
                Msg("fulfillment failed, retry scheduled")
            return err
        }
        lg.Error().Err(err).Int("attempt", job.Attempts + 1).Msg("fulfillment failed")
        _ = w.q.AddDLQ(context.Background(), payload, err.Error())
        return err
    }
    metrics.ObserveExtraction("ok", time.Since(start))

    if err := w.orders.SetResult(ctx, job.OrderID, resultRef); err != nil {
        lg.Error().Err(err).Msg("record fulfillment result")
        return err
    }
    if err := w.orders.SetStatus(ctx, job.OrderID, order.StatusInProduction); err != nil {
        lg.Error().Err(err).Msg("advance order status")
        return err
    }
    _ = w.q.MarkIdemDone(context.Background(), job.IdempotencyKey, w.cfg.IdempotencyTTL)

    if w.notifier != nil {
        ev := notify.Event{
            OrderID:    job.OrderID,
            DocumentID: job.DocumentID,
            Status:     string(order.StatusInProduction),
            ResultRef:  resultRef,
            OccurredAt: time.Now().UTC(),
        }
        if o, ok, _ := w.orders.Get(ctx, job.OrderID); ok {
            ev.DocumentName = o.DocumentNameSnapshot
        }
        w.notifier.Publish(ev)
    }
    lg.Info().Str("result_ref", resultRef).Dur("took", time.Since(start)).Msg("order fulfilled")
    return nil
}

// transient reports whether a failure is worth retrying. Malformed sources
// and invalid page lists never heal on their own; network and storage
// trouble usually does.
func transient(err error) bool {
    return !errors.Is(err, pdf.ErrExtract) && !errors.Is(err, pdf.ErrDecode)
}

func (w *Worker) extract(ctx context.Context, job Job) (string, error) {
    src, err := w.fetcher.Fetch(ctx, job.SourceRef)
    if err != nil {
        return "", fmt.Errorf("fetch source: %w", err)
    }
    subset, err := pdf.ExtractPages(src, job.Pages)
    if err != nil {
        return "", fmt.Errorf("extract pages: %w", err)
    }
    key := fmt.Sprintf("%s/%s.pdf", w.cfg.ResultPrefix, job.OrderID)
    ref, err := w.uploader.Upload(ctx, key, subset, &storage.ObjectMetadata{
        ContentType: "application/pdf",
        Size:        int64(len(subset)),
        Metadata:    map[string]string{"order_id": job.OrderID, "document_id": job.DocumentID},
    })
    if err != nil {
        return "", fmt.Errorf("upload result: %w", err)
    }
    return ref, nil
}
