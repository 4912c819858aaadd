package web

import (
    "context"
    "crypto/subtle"
    "net/http"

    "github.com/gorilla/mux"
    "github.com/rs/cors"
    "golang.org/x/crypto/bcrypt"

    "github.com/local/printflow/internal/catalogue"
    "github.com/local/printflow/internal/config"
    "github.com/local/printflow/internal/fulfill"
    "github.com/local/printflow/internal/metrics"
    "github.com/local/printflow/internal/notify"
    "github.com/local/printflow/internal/order"
    "github.com/local/printflow/internal/pdf"
    "github.com/local/printflow/internal/session"
    "github.com/local/printflow/internal/statuscheck"
    "github.com/local/printflow/internal/storage"
)

// CatalogueStore is the slice of the catalogue store the API needs.
type CatalogueStore interface {
    Save(ctx context.Context, d *catalogue.Document) error
    Get(ctx context.Context, id string) (*catalogue.Document, bool, error)
    List(ctx context.Context) ([]*catalogue.Document, error)
    SetCover(ctx context.Context, id string, coverPage int) error
    Delete(ctx context.Context, id string) error
}

// OrderStore is the slice of the order store the API needs.
type OrderStore interface {
    Save(ctx context.Context, o *order.Order) error
    Get(ctx context.Context, id string) (*order.Order, bool, error)
    List(ctx context.Context) ([]*order.Order, error)
    SetStatus(ctx context.Context, id string, next order.Status) error
}

// JobQueue enqueues fulfillment jobs and records cancellations.
type JobQueue interface {
    Enqueue(ctx context.Context, payload []byte) error
    CancelOrder(ctx context.Context, orderID string) error
}

// Fetcher resolves a source ref into document bytes.
type Fetcher interface {
    Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Uploader stores uploaded catalogues and removes them again on delete.
type Uploader interface {
    Upload(ctx context.Context, key string, data []byte, meta *storage.ObjectMetadata) (string, error)
    Delete(ctx context.Context, key string) error
}

// Server wires the HTTP surface to the domain packages.
type Server struct {
    cfg        config.Config
    catalogues CatalogueStore
    orders     OrderStore
    queue      JobQueue
    fetcher    Fetcher
    uploader   Uploader
    decoder    *pdf.Decoder
    sessions   *session.Manager
    notifier   *notify.Notifier
    checker    *statuscheck.Checker
}

// Deps bundles the Server's collaborators.
type Deps struct {
    Config     config.Config
    Catalogues CatalogueStore
    Orders     OrderStore
    Queue      JobQueue
    Fetcher    Fetcher
    Uploader   Uploader
    Decoder    *pdf.Decoder
    Sessions   *session.Manager
    Notifier   *notify.Notifier
    Checker    *statuscheck.Checker
}

// NewServer builds the API server.
func NewServer(d Deps) *Server {
    return &Server{
        cfg:        d.Config,
        catalogues: d.Catalogues,
        orders:     d.Orders,
        queue:      d.Queue,
        fetcher:    d.Fetcher,
        uploader:   d.Uploader,
        decoder:    d.Decoder,
        sessions:   d.Sessions,
        notifier:   d.Notifier,
        checker:    d.Checker,
    }
}

// Router builds the mux router with CORS applied.
func (s *Server) Router() http.Handler {
    r := mux.NewRouter()

    r.Handle("/metrics", metrics.Handler()).Methods("GET")
    r.HandleFunc("/health", s.handleHealth).Methods("GET")
    r.HandleFunc("/status", s.handleStatus).Methods("GET")

    api := r.PathPrefix("/api/v1").Subrouter()

    // public catalogue browsing
    api.HandleFunc("/catalogues", s.handleListCatalogues).Methods("GET")
    api.HandleFunc("/catalogues/{id}", s.handleGetCatalogue).Methods("GET")

    // browsing sessions
    api.HandleFunc("/sessions", s.handleOpenSession).Methods("POST")
    api.HandleFunc("/sessions/{id}/more", s.handleLoadMore).Methods("POST")
    api.HandleFunc("/sessions/{id}/pages/{n}", s.handleGetPage).Methods("GET")
    api.HandleFunc("/sessions/{id}/toggle", s.handleToggle).Methods("POST")
    api.HandleFunc("/sessions/{id}/selection", s.handleGetSelection).Methods("GET")
    api.HandleFunc("/sessions/{id}", s.handleCloseSession).Methods("DELETE")

    // checkout
    api.HandleFunc("/orders", s.handleCreateOrder).Methods("POST")
    api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods("GET")

    // staff surface
    staff := api.PathPrefix("").Subrouter()
    staff.Use(s.requireStaff)
    staff.HandleFunc("/catalogues", s.handleUploadCatalogue).Methods("POST")
    staff.HandleFunc("/catalogues/{id}/cover", s.handleSetCover).Methods("PUT")
    staff.HandleFunc("/catalogues/{id}", s.handleDeleteCatalogue).Methods("DELETE")
    staff.HandleFunc("/orders", s.handleListOrders).Methods("GET")
    staff.HandleFunc("/orders/{id}/status", s.handleSetOrderStatus).Methods("PUT")
    staff.HandleFunc("/orders/{id}/fulfill", s.handleFulfillOrder).Methods("POST")
    staff.HandleFunc("/orders/{id}/download", s.handleDownloadOrder).Methods("GET")

    c := cors.New(cors.Options{
        AllowedOrigins: s.cfg.HTTP.AllowedOrigins,
        AllowedMethods: []string{
            http.MethodGet,
            http.MethodPost,
            http.MethodPut,
            http.MethodDelete,
            http.MethodOptions,
        },
        AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
        MaxAge:         300,
    })
    return c.Handler(r)
}

// requireStaff guards staff endpoints with basic auth against the bcrypt
// hash from config.
func (s *Server) requireStaff(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if s.cfg.HTTP.StaffUser == "" || s.cfg.HTTP.StaffPassHash == "" {
            writeError(w, http.StatusForbidden, "staff credentials not configured")
            return
        }
        user, pass, ok := r.BasicAuth()
        if !ok {
            w.Header().Set("WWW-Authenticate", `Basic realm="printflow staff"`)
            writeError(w, http.StatusUnauthorized, "authentication required")
            return
        }
        userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.HTTP.StaffUser)) == 1
        passOK := bcrypt.CompareHashAndPassword([]byte(s.cfg.HTTP.StaffPassHash), []byte(pass)) == nil
        if !userOK || !passOK {
            w.Header().Set("WWW-Authenticate", `Basic realm="printflow staff"`)
            writeError(w, http.StatusUnauthorized, "invalid credentials")
            return
        }
        next.ServeHTTP(w, r)
    })
}

// FulfillJobPayload builds the queue payload for an order.
func FulfillJobPayload(o *order.Order, sourceRef string) fulfill.Job {
    return fulfill.Job{
        OrderID:        o.ID,
        DocumentID:     o.DocumentID,
        SourceRef:      sourceRef,
        Pages:          o.SelectedPages,
        IdempotencyKey: "fulfill:" + o.ID,
    }
}
