package statuscheck

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
    Ping(ctx context.Context) error
}

// BucketPinger models object storage reachability.
type BucketPinger interface {
    Ping(ctx context.Context) error
    Bucket() string
}

// Checker aggregates health checks for external dependencies used by the
// status endpoint.
type Checker struct {
    redis      RedisPinger
    objects    BucketPinger
    webhookURL string
    httpClient *http.Client
}

// Options configures the Checker.
type Options struct {
    Redis      RedisPinger
    Objects    BucketPinger
    WebhookURL string
    HTTPClient *http.Client
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
    Redis   Status `json:"redis"`
    S3      Status `json:"s3"`
    Webhook Status `json:"webhook"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    client := opts.HTTPClient
    if client == nil {
        client = &http.Client{Timeout: 5 * time.Second}
    }
    return &Checker{
        redis:      opts.Redis,
        objects:    opts.Objects,
        webhookURL: strings.TrimSpace(opts.WebhookURL),
        httpClient: client,
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Redis:   c.checkRedis(ctx),
        S3:      c.checkS3(ctx),
        Webhook: c.checkWebhook(ctx),
    }
}

// Healthy reports whether the mandatory dependencies are reachable. The
// webhook is optional and does not gate readiness.
func (c *Checker) Healthy(ctx context.Context) bool {
    s := c.Summary(ctx)
    return s.Redis.OK && s.S3.OK
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: false, Message: "client unavailable"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.objects == nil || c.objects.Bucket() == "" {
        return Status{OK: false, Message: "Bucket not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := c.objects.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkWebhook(ctx context.Context) Status {
    if c.webhookURL == "" {
        return Status{OK: false, Message: "Webhook not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.webhookURL, nil)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    resp, err := c.httpClient.Do(req)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    defer resp.Body.Close()
    if resp.StatusCode >= 500 {
        return Status{OK: false, Message: resp.Status}
    }
    return Status{OK: true, Message: "Reachable"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
