package fulfill

import (
    "context"
    "encoding/json"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/local/printflow/internal/order"
    "github.com/local/printflow/internal/pdf/pdftest"
    "github.com/local/printflow/internal/storage"
)

type delayedEntry struct {
    payload   []byte
    executeAt time.Time
}

type fakeQueue struct {
    mu        sync.Mutex
    cancelled map[string]bool
    idemDone  map[string]bool
    dlq       []string
    delayed   []delayedEntry
}

func newFakeQueue() *fakeQueue {
    return &fakeQueue{cancelled: map[string]bool{}, idemDone: map[string]bool{}}
}

func (q *fakeQueue) Dequeue(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error) {
    return "", nil, nil
}
func (q *fakeQueue) Ack(ctx context.Context, msgID string) error { return nil }
func (q *fakeQueue) EnqueueDelayed(ctx context.Context, payload []byte, executeAt time.Time) error {
    q.mu.Lock()
    defer q.mu.Unlock()
    q.delayed = append(q.delayed, delayedEntry{payload: payload, executeAt: executeAt})
    return nil
}
func (q *fakeQueue) AddDLQ(ctx context.Context, payload []byte, reason string) error {
    q.mu.Lock()
    defer q.mu.Unlock()
    q.dlq = append(q.dlq, reason)
    return nil
}
func (q *fakeQueue) IsCancelled(ctx context.Context, orderID string) (bool, error) {
    q.mu.Lock()
    defer q.mu.Unlock()
    return q.cancelled[orderID], nil
}
func (q *fakeQueue) IsIdemDone(ctx context.Context, key string) (bool, error) {
    q.mu.Lock()
    defer q.mu.Unlock()
    return q.idemDone[key], nil
}
func (q *fakeQueue) MarkIdemDone(ctx context.Context, key string, ttl time.Duration) error {
    q.mu.Lock()
    defer q.mu.Unlock()
    q.idemDone[key] = true
    return nil
}

type fakeOrders struct {
    mu      sync.Mutex
    orders  map[string]*order.Order
    statErr error
}

func (s *fakeOrders) SetStatus(ctx context.Context, id string, next order.Status) error {
    if s.statErr != nil { return s.statErr }
    s.mu.Lock()
    defer s.mu.Unlock()
    if o, ok := s.orders[id]; ok { o.Status = next }
    return nil
}
func (s *fakeOrders) SetResult(ctx context.Context, id, resultRef string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if o, ok := s.orders[id]; ok { o.ResultRef = resultRef }
    return nil
}
func (s *fakeOrders) Get(ctx context.Context, id string) (*order.Order, bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    o, ok := s.orders[id]
    return o, ok, nil
}

type fakeFetcher struct {
    data []byte
    err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
    return f.data, f.err
}

type fakeUploader struct {
    mu   sync.Mutex
    keys []string
    data [][]byte
    err  error
}

func (u *fakeUploader) Upload(ctx context.Context, key string, data []byte, meta *storage.ObjectMetadata) (string, error) {
    if u.err != nil { return "", u.err }
    u.mu.Lock()
    defer u.mu.Unlock()
    u.keys = append(u.keys, key)
    u.data = append(u.data, data)
    return "s3://printflow-test/" + key, nil
}

func newTestWorker(q Queue, orders OrderStore, f Fetcher, u Uploader) *Worker {
    return New(Config{
        Concurrency:  1,
        JobTimeout:   30 * time.Second,
        ResultPrefix: "fulfilled",
        MaxAttempts:  3,
        RetryDelay:   time.Second,
    }, q, orders, f, u, nil)
}

func TestHandleFulfillsOrder(t *testing.T) {
    q := newFakeQueue()
    orders := &fakeOrders{orders: map[string]*order.Order{
        "ord-1": {ID: "ord-1", DocumentID: "cat-1", Status: order.StatusReceived},
    }}
    fetcher := &fakeFetcher{data: pdftest.MultiPage(12)}
    uploader := &fakeUploader{}
    w := newTestWorker(q, orders, fetcher, uploader)

    err := w.Handle(Job{
        OrderID:        "ord-1",
        DocumentID:     "cat-1",
        SourceRef:      "s3://bucket/catalogues/cat-1.pdf",
        Pages:          []int{3, 7, 12},
        IdempotencyKey: "ord-1:v1",
    })
    require.NoError(t, err)

    require.Len(t, uploader.keys, 1)
    assert.Equal(t, "fulfilled/ord-1.pdf", uploader.keys[0])
    assert.NotEmpty(t, uploader.data[0])

    o := orders.orders["ord-1"]
    assert.Equal(t, order.StatusInProduction, o.Status)
    assert.Equal(t, "s3://printflow-test/fulfilled/ord-1.pdf", o.ResultRef)
    assert.True(t, q.idemDone["ord-1:v1"])
    assert.Empty(t, q.dlq)
}

func TestHandleSkipsCancelledOrder(t *testing.T) {
    q := newFakeQueue()
    q.cancelled["ord-2"] = true
    orders := &fakeOrders{orders: map[string]*order.Order{
        "ord-2": {ID: "ord-2", Status: order.StatusReceived},
    }}
    uploader := &fakeUploader{}
    w := newTestWorker(q, orders, &fakeFetcher{data: pdftest.MultiPage(3)}, uploader)

    err := w.Handle(Job{OrderID: "ord-2", SourceRef: "s3://b/k", Pages: []int{1}})
    require.NoError(t, err)
    assert.Empty(t, uploader.keys)
    assert.Equal(t, order.StatusReceived, orders.orders["ord-2"].Status)
}

func TestHandleSkipsDuplicate(t *testing.T) {
    q := newFakeQueue()
    q.idemDone["ord-3:v1"] = true
    orders := &fakeOrders{orders: map[string]*order.Order{
        "ord-3": {ID: "ord-3", Status: order.StatusReceived},
    }}
    uploader := &fakeUploader{}
    w := newTestWorker(q, orders, &fakeFetcher{data: pdftest.MultiPage(3)}, uploader)

    err := w.Handle(Job{OrderID: "ord-3", SourceRef: "s3://b/k", Pages: []int{1}, IdempotencyKey: "ord-3:v1"})
    require.NoError(t, err)
    assert.Empty(t, uploader.keys)
}

func TestHandleFetchFailureSchedulesRetry(t *testing.T) {
    q := newFakeQueue()
    orders := &fakeOrders{orders: map[string]*order.Order{
        "ord-4": {ID: "ord-4", Status: order.StatusReceived},
    }}
    w := newTestWorker(q, orders, &fakeFetcher{err: errors.New("source unreachable")}, &fakeUploader{})

    before := time.Now()
    err := w.Handle(Job{OrderID: "ord-4", SourceRef: "https://example.com/gone.pdf", Pages: []int{1}})
    require.Error(t, err)

    // transient failure with attempts left goes to the delayed queue, not DLQ
    assert.Empty(t, q.dlq)
    require.Len(t, q.delayed, 1)
    assert.True(t, q.delayed[0].executeAt.After(before))

    var retry Job
    require.NoError(t, json.Unmarshal(q.delayed[0].payload, &retry))
    assert.Equal(t, "ord-4", retry.OrderID)
    assert.Equal(t, 1, retry.Attempts)
    assert.Equal(t, order.StatusReceived, orders.orders["ord-4"].Status)
}

func TestHandleExhaustedRetriesGoToDLQ(t *testing.T) {
    q := newFakeQueue()
    orders := &fakeOrders{orders: map[string]*order.Order{
        "ord-4b": {ID: "ord-4b", Status: order.StatusReceived},
    }}
    w := newTestWorker(q, orders, &fakeFetcher{err: errors.New("source unreachable")}, &fakeUploader{})

    err := w.Handle(Job{OrderID: "ord-4b", SourceRef: "https://example.com/gone.pdf", Pages: []int{1}, Attempts: 2})
    require.Error(t, err)
    assert.Empty(t, q.delayed)
    require.Len(t, q.dlq, 1)
    assert.Contains(t, q.dlq[0], "source unreachable")
}

func TestRetryBackoffGrowsPerAttempt(t *testing.T) {
    q := newFakeQueue()
    orders := &fakeOrders{orders: map[string]*order.Order{
        "ord-4c": {ID: "ord-4c", Status: order.StatusReceived},
    }}
    w := newTestWorker(q, orders, &fakeFetcher{err: errors.New("source unreachable")}, &fakeUploader{})

    before := time.Now()
    _ = w.Handle(Job{OrderID: "ord-4c", SourceRef: "https://example.com/gone.pdf", Pages: []int{1}, Attempts: 1})
    require.Len(t, q.delayed, 1)
    // second attempt doubles the base delay
    assert.True(t, q.delayed[0].executeAt.After(before.Add(2*time.Second-50*time.Millisecond)))
}

func TestHandlePagesOutOfRangeGoesToDLQ(t *testing.T) {
    q := newFakeQueue()
    orders := &fakeOrders{orders: map[string]*order.Order{
        "ord-5": {ID: "ord-5", Status: order.StatusReceived},
    }}
    uploader := &fakeUploader{}
    w := newTestWorker(q, orders, &fakeFetcher{data: pdftest.MultiPage(10)}, uploader)

    err := w.Handle(Job{OrderID: "ord-5", SourceRef: "s3://b/k", Pages: []int{3, 7, 12}})
    require.Error(t, err)
    assert.Empty(t, uploader.keys, "nothing may be uploaded when any page is invalid")
    assert.Len(t, q.dlq, 1)
    assert.Empty(t, q.delayed, "an invalid page list never heals, so no retry")
}

func TestHandleUploadFailure(t *testing.T) {
    q := newFakeQueue()
    orders := &fakeOrders{orders: map[string]*order.Order{
        "ord-6": {ID: "ord-6", Status: order.StatusReceived},
    }}
    w := newTestWorker(q, orders, &fakeFetcher{data: pdftest.MultiPage(5)}, &fakeUploader{err: errors.New("bucket denied")})

    err := w.Handle(Job{OrderID: "ord-6", SourceRef: "s3://b/k", Pages: []int{2, 4}, IdempotencyKey: "ord-6:v1"})
    require.Error(t, err)
    assert.False(t, q.idemDone["ord-6:v1"], "failed jobs must stay retryable")
    assert.Len(t, q.delayed, 1, "storage trouble is transient and retried")
}
