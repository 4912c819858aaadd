package notify

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNotifierDeliversEvents(t *testing.T) {
    var mu sync.Mutex
    var got []Event
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        var ev Event
        require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
        assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
        mu.Lock()
        got = append(got, ev)
        mu.Unlock()
        w.WriteHeader(http.StatusOK)
    }))
    defer srv.Close()

    n := New(Options{WebhookURL: srv.URL, Timeout: 2 * time.Second})
    n.Publish(Event{OrderID: "ord-1", Status: "received", OccurredAt: time.Now()})
    n.Publish(Event{OrderID: "ord-1", Status: "in_production", OccurredAt: time.Now()})
    n.Close()

    mu.Lock()
    defer mu.Unlock()
    require.Len(t, got, 2)
    assert.Equal(t, "received", got[0].Status)
    assert.Equal(t, "in_production", got[1].Status)
}

func TestNotifierSwallowsServerErrors(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusBadGateway)
    }))
    defer srv.Close()

    n := New(Options{WebhookURL: srv.URL, Timeout: 2 * time.Second})
    // must not panic or block
    n.Publish(Event{OrderID: "ord-2", Status: "shipped"})
    n.Close()
}

func TestNotifierNoWebhookConfigured(t *testing.T) {
    n := New(Options{})
    n.Publish(Event{OrderID: "ord-3", Status: "received"})
    n.Close()
}

func TestNotifierCloseIsIdempotent(t *testing.T) {
    n := New(Options{})
    n.Close()
    n.Close()
}
