package order

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// RedisStore persists orders as Redis hashes, one per order, with a set of
// ids for listing. Pages and contact are stored as JSON fields inside the
// hash so the scalar fields stay individually updatable.
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
    return &RedisStore{client: c, keyNS: "order"}, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

// Ping checks redis connectivity for health checks.
func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) key(id string) string { return fmt.Sprintf("%s:%s", s.keyNS, id) }

func (s *RedisStore) indexKey() string { return s.keyNS + ":all" }

// Save writes the full order hash. Validation against the document's page
// count happens at create time, before the order reaches the store.
func (s *RedisStore) Save(ctx context.Context, o *Order) error {
    pages, err := json.Marshal(o.SelectedPages)
    if err != nil { return err }
    contact, err := json.Marshal(o.Contact)
    if err != nil { return err }

    m := map[string]interface{}{
        "document_id":   o.DocumentID,
        "document_name": o.DocumentNameSnapshot,
        "pages":         string(pages),
        "contact":       string(contact),
        "status":        string(o.Status),
        "result_ref":    o.ResultRef,
        "created_at":    o.CreatedAt.UTC().Format(time.RFC3339Nano),
        "updated_at":    o.UpdatedAt.UTC().Format(time.RFC3339Nano),
    }
    pipe := s.client.TxPipeline()
    pipe.HSet(ctx, s.key(o.ID), m)
    pipe.SAdd(ctx, s.indexKey(), o.ID)
    _, err = pipe.Exec(ctx)
    return err
}

// Get returns the order, a found flag, and an error.
func (s *RedisStore) Get(ctx context.Context, id string) (*Order, bool, error) {
    res, err := s.client.HGetAll(ctx, s.key(id)).Result()
    if err != nil { return nil, false, err }
    if len(res) == 0 { return nil, false, nil }

    o := &Order{
        ID:                   id,
        DocumentID:           res["document_id"],
        DocumentNameSnapshot: res["document_name"],
        Status:               Status(res["status"]),
        ResultRef:            res["result_ref"],
    }
    if v := res["pages"]; v != "" {
        if err := json.Unmarshal([]byte(v), &o.SelectedPages); err != nil {
            return nil, false, fmt.Errorf("order %s: corrupt pages field: %w", id, err)
        }
    }
    if v := res["contact"]; v != "" {
        if err := json.Unmarshal([]byte(v), &o.Contact); err != nil {
            return nil, false, fmt.Errorf("order %s: corrupt contact field: %w", id, err)
        }
    }
    if v := res["created_at"]; v != "" {
        if t, err := time.Parse(time.RFC3339Nano, v); err == nil { o.CreatedAt = t }
    }
    if v := res["updated_at"]; v != "" {
        if t, err := time.Parse(time.RFC3339Nano, v); err == nil { o.UpdatedAt = t }
    }
    return o, true, nil
}

// List returns all stored orders. Order is unspecified.
func (s *RedisStore) List(ctx context.Context) ([]*Order, error) {
    ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
    if err != nil { return nil, err }
    out := make([]*Order, 0, len(ids))
    for _, id := range ids {
        o, ok, err := s.Get(ctx, id)
        if err != nil { return out, err }
        if ok { out = append(out, o) }
    }
    return out, nil
}

// SetStatus moves the order to next after checking the transition is legal.
func (s *RedisStore) SetStatus(ctx context.Context, id string, next Status) error {
    if !ValidStatus(next) {
        return fmt.Errorf("unknown status %q", next)
    }
    o, ok, err := s.Get(ctx, id)
    if err != nil { return err }
    if !ok { return fmt.Errorf("order %s not found", id) }
    if !CanTransition(o.Status, next) {
        return fmt.Errorf("cannot move order %s from %s to %s", id, o.Status, next)
    }
    return s.client.HSet(ctx, s.key(id),
        "status", string(next),
        "updated_at", time.Now().UTC().Format(time.RFC3339Nano),
    ).Err()
}

// SetResult records where the extracted page subset was uploaded.
func (s *RedisStore) SetResult(ctx context.Context, id, resultRef string) error {
    return s.client.HSet(ctx, s.key(id),
        "result_ref", resultRef,
        "updated_at", time.Now().UTC().Format(time.RFC3339Nano),
    ).Err()
}
