package session

import (
    "context"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/printflow/internal/metrics"
)

// Session is one customer's browsing of one catalogue: the materialized page
// sequence plus the in-progress page selection. Owned exclusively by that
// customer; nothing here is shared across sessions.
type Session struct {
    ID          string
    CatalogueID string
    CreatedAt   time.Time

    mu        sync.Mutex
    doc       DocumentHandle
    loader    *Loader
    selection *Selection
    ctx       context.Context
    cancel    context.CancelFunc
    closed    bool
}

// DocumentHandle is the decoded document a session takes ownership of.
type DocumentHandle interface {
    PageRenderer
    Close() error
}

// Loader returns the session's page loader.
func (s *Session) Loader() *Loader { return s.loader }

// LoadMore renders the next batch under the session's own context, so
// closing the session cancels the batch rather than the caller's request.
func (s *Session) LoadMore() (int, error) {
    return s.loader.LoadMore(s.ctx)
}

// Toggle flips the selection for a page.
func (s *Session) Toggle(page int) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.closed {
        return false, fmt.Errorf("session closed")
    }
    return s.selection.Toggle(page)
}

// SelectionSize returns the current selection cardinality.
func (s *Session) SelectionSize() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.selection.Size()
}

// SelectedPages returns the current selection in ascending order.
func (s *Session) SelectedPages() []int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.selection.Ascending()
}

// ClearSelection empties the selection, e.g. after checkout hands it off.
func (s *Session) ClearSelection() {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.selection.Clear()
}

// Manager tracks open browsing sessions. Opening a session for a new
// catalogue voids any previous session (and its selection) for that caller.
type Manager struct {
    mu       sync.Mutex
    sessions map[string]*Session
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
    return &Manager{sessions: make(map[string]*Session)}
}

// Open decodes nothing itself: the caller supplies an already-open document
// handle, which the session takes ownership of. The initial page batch is
// rendered before Open returns; on error the handle is closed and no session
// is registered.
func (m *Manager) Open(catalogueID string, doc DocumentHandle, opts LoaderOptions) (*Session, error) {
    ctx, cancel := context.WithCancel(context.Background())

    loader, err := NewLoader(ctx, doc, opts)
    if err != nil {
        cancel()
        _ = doc.Close()
        return nil, err
    }

    s := &Session{
        ID:          uuid.NewString(),
        CatalogueID: catalogueID,
        CreatedAt:   time.Now(),
        doc:         doc,
        loader:      loader,
        selection:   NewSelection(doc.PageCount()),
        ctx:         ctx,
        cancel:      cancel,
    }

    m.mu.Lock()
    m.sessions[s.ID] = s
    m.mu.Unlock()

    metrics.SessionOpened()
    log.Info().Str("session_id", s.ID).Str("catalogue_id", catalogueID).
        Int("total_pages", loader.TotalPages()).Int("loaded", loader.LoadedCount()).
        Msg("browsing session opened")
    return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, bool) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.sessions[id]
    return s, ok
}

// Close cancels in-flight decode batches, releases the document handle and
// discards the session's rendered pages and selection.
func (m *Manager) Close(id string) bool {
    m.mu.Lock()
    s, ok := m.sessions[id]
    if ok {
        delete(m.sessions, id)
    }
    m.mu.Unlock()
    if !ok {
        return false
    }

    s.mu.Lock()
    s.closed = true
    s.cancel()
    s.mu.Unlock()

    // The loader holds its mutex for the whole of an in-flight batch, so
    // taking it here waits out any renders still running before the
    // document handle is freed underneath them.
    s.loader.mu.Lock()
    _ = s.doc.Close()
    s.loader.mu.Unlock()

    metrics.SessionClosed()
    log.Info().Str("session_id", id).Msg("browsing session closed")
    return true
}

// CloseAll shuts down every open session, for server shutdown.
func (m *Manager) CloseAll() {
    m.mu.Lock()
    ids := make([]string, 0, len(m.sessions))
    for id := range m.sessions {
        ids = append(ids, id)
    }
    m.mu.Unlock()
    for _, id := range ids {
        m.Close(id)
    }
}
