package notify

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "sync"
    "time"

    "github.com/local/printflow/internal/logger"
    "github.com/local/printflow/internal/metrics"
)

// Event is what gets posted to the print shop webhook when an order
// changes state.
type Event struct {
    OrderID      string    `json:"order_id"`
    DocumentID   string    `json:"document_id"`
    DocumentName string    `json:"document_name"`
    Status       string    `json:"status"`
    ResultRef    string    `json:"result_ref,omitempty"`
    OccurredAt   time.Time `json:"occurred_at"`
}

// Notifier posts order events to a webhook in the background. Sends never
// block the caller and failures are logged and swallowed; order state is
// the source of truth, notifications are best effort.
type Notifier struct {
    webhookURL string
    client     *http.Client
    events     chan Event
    done       chan struct{}
    closeOnce  sync.Once
}

// Options configures a Notifier.
type Options struct {
    WebhookURL string
    Timeout    time.Duration
    Buffer     int
}

// New starts the sender goroutine. An empty webhook URL yields a notifier
// that drops everything silently, so callers need no nil checks.
func New(opts Options) *Notifier {
    if opts.Timeout <= 0 { opts.Timeout = 10 * time.Second }
    if opts.Buffer <= 0 { opts.Buffer = 256 }
    n := &Notifier{
        webhookURL: opts.WebhookURL,
        client:     &http.Client{Timeout: opts.Timeout},
        events:     make(chan Event, opts.Buffer),
        done:       make(chan struct{}),
    }
    go n.run()
    return n
}

// Publish hands the event to the sender. Drops when the buffer is full.
func (n *Notifier) Publish(ev Event) {
    select {
    case n.events <- ev:
    default:
        metrics.IncNotifyDropped()
        logger.Get().Warn().Str("order_id", ev.OrderID).Msg("notification buffer full, event dropped")
    }
}

// Close stops the sender after draining buffered events.
func (n *Notifier) Close() {
    n.closeOnce.Do(func() {
        close(n.events)
        <-n.done
    })
}

func (n *Notifier) run() {
    defer close(n.done)
    for ev := range n.events {
        n.send(ev)
    }
}

func (n *Notifier) send(ev Event) {
    if n.webhookURL == "" {
        return
    }
    body, err := json.Marshal(ev)
    if err != nil {
        logger.Get().Error().Err(err).Str("order_id", ev.OrderID).Msg("marshal notification")
        return
    }
    ctx, cancel := context.WithTimeout(context.Background(), n.client.Timeout)
    defer cancel()
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
    if err != nil {
        logger.Get().Error().Err(err).Msg("build notification request")
        return
    }
    req.Header.Set("Content-Type", "application/json")

    resp, err := n.client.Do(req)
    if err != nil {
        metrics.IncNotifyDropped()
        logger.Get().Warn().Err(err).Str("order_id", ev.OrderID).Msg("notification send failed")
        return
    }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        metrics.IncNotifyDropped()
        logger.Get().Warn().Int("status", resp.StatusCode).Str("order_id", ev.OrderID).Msg("notification rejected")
        return
    }
    logger.Get().Debug().Str("order_id", ev.OrderID).Str("status", ev.Status).Msg("notification delivered")
}
