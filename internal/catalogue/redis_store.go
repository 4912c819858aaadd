package catalogue

import (
    "context"
    "fmt"
    "strconv"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// RedisStore persists catalogue metadata as Redis hashes, one per document,
// with a set of ids for listing.
type RedisStore struct {
    client *redis.Client
    keyNS  string
}

// NewRedisStore connects to Redis and pings it.
func NewRedisStore(redisURL string) (*RedisStore, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil { return nil, err }
    return &RedisStore{client: c, keyNS: "catalogue"}, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

// Ping checks redis connectivity for health checks.
func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) key(id string) string { return fmt.Sprintf("%s:%s", s.keyNS, id) }

func (s *RedisStore) indexKey() string { return s.keyNS + ":all" }

// Save validates and writes the document hash.
func (s *RedisStore) Save(ctx context.Context, d *Document) error {
    if err := d.Validate(); err != nil {
        return err
    }
    m := map[string]interface{}{
        "name":        d.Name,
        "byte_size":   d.ByteSize,
        "total_pages": d.TotalPageCount,
        "cover_page":  d.CoverPageIndex,
        "source_ref":  d.SourceRef,
        "uploaded_at": d.UploadedAt.UTC().Format(time.RFC3339Nano),
    }
    pipe := s.client.TxPipeline()
    pipe.HSet(ctx, s.key(d.ID), m)
    pipe.SAdd(ctx, s.indexKey(), d.ID)
    _, err := pipe.Exec(ctx)
    return err
}

// Get returns the document, a found flag, and an error.
func (s *RedisStore) Get(ctx context.Context, id string) (*Document, bool, error) {
    res, err := s.client.HGetAll(ctx, s.key(id)).Result()
    if err != nil { return nil, false, err }
    if len(res) == 0 { return nil, false, nil }

    d := &Document{ID: id, Name: res["name"], SourceRef: res["source_ref"]}
    d.ByteSize, _ = strconv.ParseInt(res["byte_size"], 10, 64)
    d.TotalPageCount, _ = strconv.Atoi(res["total_pages"])
    d.CoverPageIndex, _ = strconv.Atoi(res["cover_page"])
    if v := res["uploaded_at"]; v != "" {
        if t, err := time.Parse(time.RFC3339Nano, v); err == nil { d.UploadedAt = t }
    }
    return d, true, nil
}

// List returns all stored documents. Order is unspecified.
func (s *RedisStore) List(ctx context.Context) ([]*Document, error) {
    ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
    if err != nil { return nil, err }
    out := make([]*Document, 0, len(ids))
    for _, id := range ids {
        d, ok, err := s.Get(ctx, id)
        if err != nil { return out, err }
        if ok { out = append(out, d) }
    }
    return out, nil
}

// SetCover updates the cover override after re-checking the invariant.
func (s *RedisStore) SetCover(ctx context.Context, id string, coverPage int) error {
    d, ok, err := s.Get(ctx, id)
    if err != nil { return err }
    if !ok { return fmt.Errorf("catalogue %s not found", id) }
    if coverPage < 1 || coverPage > d.TotalPageCount {
        return fmt.Errorf("cover page %d outside [1, %d]", coverPage, d.TotalPageCount)
    }
    return s.client.HSet(ctx, s.key(id), "cover_page", coverPage).Err()
}

// Delete removes the document hash and its index entry.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
    pipe := s.client.TxPipeline()
    pipe.Del(ctx, s.key(id))
    pipe.SRem(ctx, s.indexKey(), id)
    _, err := pipe.Exec(ctx)
    return err
}
