package fetch

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/printflow/internal/metrics"
)

// ErrFetch is the failure category for source document retrieval. All errors
// returned by Fetcher wrap it, so callers can classify with errors.Is.
var ErrFetch = errors.New("fetch failed")

// ObjectDownloader resolves s3:// refs. Implemented by storage.S3Client.
type ObjectDownloader interface {
    Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// Fetcher retrieves a document's full byte payload from a content URL.
// Supported schemes: http://, https://, s3://.
type Fetcher struct {
    client  *http.Client
    objects ObjectDownloader
    maxBody int64
}

// Options configures a Fetcher.
type Options struct {
    Timeout      time.Duration
    MaxBodyBytes int64
    Objects      ObjectDownloader
}

// New creates a Fetcher. Timeout bounds the whole request including body read.
func New(opts Options) *Fetcher {
    if opts.Timeout <= 0 { opts.Timeout = 30 * time.Second }
    return &Fetcher{
        client:  &http.Client{Timeout: opts.Timeout},
        objects: opts.Objects,
        maxBody: opts.MaxBodyBytes,
    }
}

// Fetch returns the full byte payload for ref, or an error wrapping ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
    // Strip optional #page fragment if present
    if i := strings.Index(ref, "#"); i >= 0 {
        ref = ref[:i]
    }

    switch {
    case strings.HasPrefix(ref, "s3://"):
        return f.fetchS3(ctx, ref)
    case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
        return f.fetchHTTP(ctx, ref)
    default:
        return nil, fmt.Errorf("%w: unsupported ref %q", ErrFetch, ref)
    }
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrFetch, err)
    }
    resp, err := f.client.Do(req)
    if err != nil {
        metrics.IncFetch("http", "error")
        return nil, fmt.Errorf("%w: %v", ErrFetch, err)
    }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        metrics.IncFetch("http", "bad_status")
        return nil, fmt.Errorf("%w: http %d", ErrFetch, resp.StatusCode)
    }

    var r io.Reader = resp.Body
    if f.maxBody > 0 {
        r = io.LimitReader(resp.Body, f.maxBody+1)
    }
    body, err := io.ReadAll(r)
    if err != nil {
        metrics.IncFetch("http", "error")
        return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
    }
    if f.maxBody > 0 && int64(len(body)) > f.maxBody {
        metrics.IncFetch("http", "too_large")
        return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetch, f.maxBody)
    }
    // A short read against a declared Content-Length means a truncated payload.
    if resp.ContentLength > 0 && int64(len(body)) != resp.ContentLength {
        metrics.IncFetch("http", "truncated")
        return nil, fmt.Errorf("%w: truncated body: got %d of %d bytes", ErrFetch, len(body), resp.ContentLength)
    }

    metrics.IncFetch("http", "ok")
    log.Debug().Str("url", url).Int("size", len(body)).Msg("fetched document over http")
    return body, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, s3url string) ([]byte, error) {
    if f.objects == nil {
        return nil, fmt.Errorf("%w: no object store configured for %q", ErrFetch, s3url)
    }
    bucket, key, err := SplitS3URL(s3url)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrFetch, err)
    }
    body, err := f.objects.Download(ctx, bucket, key)
    if err != nil {
        metrics.IncFetch("s3", "error")
        return nil, fmt.Errorf("%w: %v", ErrFetch, err)
    }
    metrics.IncFetch("s3", "ok")
    log.Debug().Str("bucket", bucket).Str("key", key).Int("size", len(body)).Msg("fetched document from s3")
    return body, nil
}

// SplitS3URL splits s3://bucket/key into bucket and key.
func SplitS3URL(s3url string) (string, string, error) {
    path := strings.TrimPrefix(s3url, "s3://")
    slash := strings.Index(path, "/")
    if slash <= 0 || slash == len(path)-1 {
        return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
    }
    return path[:slash], path[slash+1:], nil
}
