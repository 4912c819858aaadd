package statuscheck

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (p *stubPinger) Ping(ctx context.Context) error { return p.err }

type stubBucket struct {
    err    error
    bucket string
}

func (b *stubBucket) Ping(ctx context.Context) error { return b.err }
func (b *stubBucket) Bucket() string                 { return b.bucket }

func TestSummaryAllHealthy(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
    }))
    defer srv.Close()

    c := New(Options{
        Redis:      &stubPinger{},
        Objects:    &stubBucket{bucket: "printflow"},
        WebhookURL: srv.URL,
    })
    s := c.Summary(context.Background())
    assert.True(t, s.Redis.OK)
    assert.True(t, s.S3.OK)
    assert.True(t, s.Webhook.OK)
    assert.True(t, c.Healthy(context.Background()))
}

func TestSummaryRedisDown(t *testing.T) {
    c := New(Options{
        Redis:   &stubPinger{err: errors.New("connection refused")},
        Objects: &stubBucket{bucket: "printflow"},
    })
    s := c.Summary(context.Background())
    assert.False(t, s.Redis.OK)
    assert.Contains(t, s.Redis.Message, "connection refused")
    assert.False(t, c.Healthy(context.Background()))
}

func TestSummaryBucketNotConfigured(t *testing.T) {
    c := New(Options{Redis: &stubPinger{}, Objects: &stubBucket{}})
    s := c.Summary(context.Background())
    assert.False(t, s.S3.OK)
    assert.Equal(t, "Bucket not configured", s.S3.Message)
}

func TestWebhookOptionalForHealth(t *testing.T) {
    c := New(Options{Redis: &stubPinger{}, Objects: &stubBucket{bucket: "printflow"}})
    s := c.Summary(context.Background())
    assert.False(t, s.Webhook.OK)
    assert.True(t, c.Healthy(context.Background()), "missing webhook must not gate readiness")
}

func TestTrimErrorTruncates(t *testing.T) {
    long := errors.New(string(make([]byte, 300)))
    assert.Len(t, trimError(long), 120)
    assert.Empty(t, trimError(nil))
}
