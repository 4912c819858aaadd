package session

import (
    "context"
    "fmt"
    "sync"

    "golang.org/x/sync/errgroup"

    "github.com/local/printflow/internal/pdf"
)

// PageRenderer is the slice of the decoder handle the loader needs.
type PageRenderer interface {
    PageCount() int
    RenderPage(pageNumber int, scale float64) (*pdf.RenderedPage, error)
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
    // InitialBatchSize is rendered eagerly by NewLoader. Defaults to 4.
    InitialBatchSize int
    // BatchSize is rendered per LoadMore call. Defaults to InitialBatchSize.
    BatchSize int
    // Scale is the render scale handed to every decode; callers on mobile
    // clients pass a lower value.
    Scale float64
    // Workers bounds concurrent renders within one batch. Defaults to 4.
    Workers int
}

// Loader materializes a document's pages in ascending order, an eager
// initial batch followed by on-demand batches. Pages within a batch render
// concurrently, but the batch settles as a unit: callers never observe a
// partially-applied batch, and the loaded count never decreases.
type Loader struct {
    mu      sync.Mutex
    doc     PageRenderer
    total   int
    scale   float64
    batch   int
    workers int
    pages   []*pdf.RenderedPage
}

// NewLoader builds a loader and renders the initial batch. On error the
// loader is not returned; the initial load is fatal to the catalogue view.
func NewLoader(ctx context.Context, doc PageRenderer, opts LoaderOptions) (*Loader, error) {
    if opts.InitialBatchSize <= 0 { opts.InitialBatchSize = 4 }
    if opts.BatchSize <= 0 { opts.BatchSize = opts.InitialBatchSize }
    if opts.Workers <= 0 { opts.Workers = 4 }
    if opts.Scale <= 0 { opts.Scale = 1.0 }

    l := &Loader{
        doc:     doc,
        total:   doc.PageCount(),
        scale:   opts.Scale,
        batch:   opts.BatchSize,
        workers: opts.Workers,
    }
    if l.total < 1 {
        return nil, fmt.Errorf("%w: document has no pages", pdf.ErrDecode)
    }

    first := min(l.total, opts.InitialBatchSize)
    rendered, err := l.renderRange(ctx, 1, first)
    if err != nil {
        return nil, err
    }
    l.pages = rendered
    return l, nil
}

// LoadMore renders the next batch and appends it once the whole batch has
// settled. Returns the new loaded count. A no-op once the loader is
// complete. On failure the loader stays in its prior state and the same
// batch can be retried.
func (l *Loader) LoadMore(ctx context.Context) (int, error) {
    l.mu.Lock()
    defer l.mu.Unlock()

    loaded := len(l.pages)
    if loaded >= l.total {
        return loaded, nil
    }

    n := min(l.total-loaded, l.batch)
    rendered, err := l.renderRange(ctx, loaded+1, loaded+n)
    if err != nil {
        return loaded, err
    }
    l.pages = append(l.pages, rendered...)
    return len(l.pages), nil
}

// renderRange fans out renders for pages [from, to] and returns them in
// ascending page order, or fails as a unit. Cancellation aborts the batch
// without surfacing partial results.
func (l *Loader) renderRange(ctx context.Context, from, to int) ([]*pdf.RenderedPage, error) {
    out := make([]*pdf.RenderedPage, to-from+1)
    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(l.workers)

    for p := from; p <= to; p++ {
        g.Go(func() error {
            if err := gctx.Err(); err != nil {
                return err
            }
            page, err := l.doc.RenderPage(p, l.scale)
            if err != nil {
                return err
            }
            out[p-from] = page
            return nil
        })
    }
    if err := g.Wait(); err != nil {
        return nil, err
    }
    if err := ctx.Err(); err != nil {
        // Session was reset mid-batch; stale results must not surface.
        return nil, err
    }
    return out, nil
}

// LoadedCount returns how many pages have been materialized. Monotone,
// never exceeds TotalPages.
func (l *Loader) LoadedCount() int {
    l.mu.Lock()
    defer l.mu.Unlock()
    return len(l.pages)
}

// TotalPages returns the document's page count.
func (l *Loader) TotalPages() int { return l.total }

// Complete reports whether every page has been materialized.
func (l *Loader) Complete() bool {
    l.mu.Lock()
    defer l.mu.Unlock()
    return len(l.pages) >= l.total
}

// Page returns the materialized page with the given 1-based number, or
// false if it has not been loaded yet.
func (l *Loader) Page(pageNumber int) (*pdf.RenderedPage, bool) {
    l.mu.Lock()
    defer l.mu.Unlock()
    if pageNumber < 1 || pageNumber > len(l.pages) {
        return nil, false
    }
    return l.pages[pageNumber-1], true
}
