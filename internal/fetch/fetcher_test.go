package fetch

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestFetchHTTPSuccess(t *testing.T) {
    payload := []byte("%PDF-1.4 fake catalogue bytes")
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write(payload)
    }))
    defer srv.Close()

    f := New(Options{Timeout: 5 * time.Second})
    got, err := f.Fetch(context.Background(), srv.URL)
    require.NoError(t, err)
    assert.Equal(t, payload, got)
}

func TestFetchHTTPStripsPageFragment(t *testing.T) {
    var gotPath string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotPath = r.URL.Path
        w.Write([]byte("ok"))
    }))
    defer srv.Close()

    f := New(Options{})
    _, err := f.Fetch(context.Background(), srv.URL+"/doc.pdf#page=3")
    require.NoError(t, err)
    assert.Equal(t, "/doc.pdf", gotPath)
}

func TestFetchHTTPBadStatus(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "gone", http.StatusNotFound)
    }))
    defer srv.Close()

    f := New(Options{})
    _, err := f.Fetch(context.Background(), srv.URL)
    require.Error(t, err)
    assert.ErrorIs(t, err, ErrFetch)
}

func TestFetchHTTPTruncatedBody(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Length", "100")
        w.(http.Flusher).Flush()
        w.Write([]byte("short"))
        // Hijack and close to cut the body off mid-stream.
        conn, _, err := w.(http.Hijacker).Hijack()
        if err == nil {
            conn.Close()
        }
    }))
    defer srv.Close()

    f := New(Options{Timeout: 5 * time.Second})
    _, err := f.Fetch(context.Background(), srv.URL)
    require.Error(t, err)
    assert.ErrorIs(t, err, ErrFetch)
}

func TestFetchHTTPBodyTooLarge(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write(make([]byte, 2048))
    }))
    defer srv.Close()

    f := New(Options{MaxBodyBytes: 1024})
    _, err := f.Fetch(context.Background(), srv.URL)
    require.Error(t, err)
    assert.ErrorIs(t, err, ErrFetch)
}

func TestFetchUnsupportedScheme(t *testing.T) {
    f := New(Options{})
    _, err := f.Fetch(context.Background(), "ftp://example.com/doc.pdf")
    assert.ErrorIs(t, err, ErrFetch)
}

type fakeDownloader struct {
    bucket, key string
    data        []byte
    err         error
}

func (d *fakeDownloader) Download(ctx context.Context, bucket, key string) ([]byte, error) {
    d.bucket, d.key = bucket, key
    return d.data, d.err
}

func TestFetchS3(t *testing.T) {
    dl := &fakeDownloader{data: []byte("pdf bytes")}
    f := New(Options{Objects: dl})

    got, err := f.Fetch(context.Background(), "s3://my-bucket/catalogues/abc.pdf")
    require.NoError(t, err)
    assert.Equal(t, []byte("pdf bytes"), got)
    assert.Equal(t, "my-bucket", dl.bucket)
    assert.Equal(t, "catalogues/abc.pdf", dl.key)
}

func TestFetchS3Error(t *testing.T) {
    dl := &fakeDownloader{err: errors.New("no such key")}
    f := New(Options{Objects: dl})

    _, err := f.Fetch(context.Background(), "s3://my-bucket/missing.pdf")
    assert.ErrorIs(t, err, ErrFetch)
}

func TestSplitS3URL(t *testing.T) {
    cases := []struct {
        in          string
        bucket, key string
        wantErr     bool
    }{
        {"s3://bucket/key.pdf", "bucket", "key.pdf", false},
        {"s3://bucket/nested/key.pdf", "bucket", "nested/key.pdf", false},
        {"s3://bucket", "", "", true},
        {"s3://bucket/", "", "", true},
        {"s3:///key", "", "", true},
    }
    for _, tc := range cases {
        t.Run(tc.in, func(t *testing.T) {
            b, k, err := SplitS3URL(tc.in)
            if tc.wantErr {
                assert.Error(t, err)
                return
            }
            require.NoError(t, err)
            assert.Equal(t, tc.bucket, b)
            assert.Equal(t, tc.key, k)
        })
    }
}
