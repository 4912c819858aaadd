package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    "github.com/local/printflow/internal/catalogue"
    cfgpkg "github.com/local/printflow/internal/config"
    "github.com/local/printflow/internal/fetch"
    "github.com/local/printflow/internal/fulfill"
    logpkg "github.com/local/printflow/internal/logger"
    "github.com/local/printflow/internal/metrics"
    "github.com/local/printflow/internal/notify"
    "github.com/local/printflow/internal/order"
    "github.com/local/printflow/internal/pdf"
    "github.com/local/printflow/internal/queue"
    "github.com/local/printflow/internal/session"
    "github.com/local/printflow/internal/statuscheck"
    "github.com/local/printflow/internal/storage"
    "github.com/local/printflow/internal/web"
)

func main() {
    _ = godotenv.Load()
    cfg := cfgpkg.FromEnv()

    _ = logpkg.Init(logpkg.Options{
        Level:        cfg.Logging.Level,
        Pretty:       cfg.Logging.Pretty,
        File:         cfg.Logging.File,
        MaxSizeMB:    cfg.Logging.MaxSizeMB,
        MaxBackups:   cfg.Logging.MaxBackups,
        MaxAgeDays:   cfg.Logging.MaxAgeDays,
        Compress:     cfg.Logging.Compress,
        SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey:  cfg.Axiom.APIKey,
        AxiomOrgID:   cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush:   cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()

    // Object storage
    s3c, err := storage.NewS3Client(context.Background(), cfg.Storage.Bucket)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init object storage")
    }

    // Source document fetcher
    fetcher := fetch.New(fetch.Options{
        Timeout:      cfg.Fetch.Timeout,
        MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
        Objects:      s3c,
    })

    // Page decoder
    decoder := pdf.NewDecoder(pdf.DecoderOptions{
        BaseDPI:     cfg.Render.BaseDPI,
        JPEGQuality: cfg.Render.JPEGQuality,
        Workers:     cfg.Render.Workers,
    })

    // Stores
    catalogues, err := catalogue.NewRedisStore(cfg.Redis.URL)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init catalogue store")
    }
    defer catalogues.Close()

    orders, err := order.NewRedisStore(cfg.Redis.URL)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init order store")
    }
    defer orders.Close()

    // Fulfillment queue
    rq, err := queue.NewRedisQueue(cfg.Redis.URL, cfg.Redis.Stream, cfg.Redis.Group, cfg.Redis.PollInterval)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to connect to redis")
    }
    defer rq.Close()

    // Outbound order notifications
    notifier := notify.New(notify.Options{
        WebhookURL: cfg.Notify.WebhookURL,
        Timeout:    cfg.Notify.Timeout,
        Buffer:     cfg.Notify.Buffer,
    })
    defer notifier.Close()

    // Fulfillment workers (optional, enabled by default)
    runWorker := os.Getenv("RUN_FULFILL_WORKER")
    if runWorker == "" || runWorker == "1" || runWorker == "true" {
        worker := fulfill.New(fulfill.Config{
            Concurrency:    cfg.Fulfill.Concurrency,
            JobTimeout:     cfg.Fulfill.JobTimeout,
            IdempotencyTTL: cfg.Fulfill.IdempotencyTTL,
            ResultPrefix:   cfg.Storage.FulfillPrefix,
            MaxAttempts:    cfg.Fulfill.MaxAttempts,
            RetryDelay:     cfg.Fulfill.RetryDelay,
        }, rq, orders, fetcher, s3c, notifier)
        worker.Start()
        defer worker.Stop()
    }

    sessions := session.NewManager()
    defer sessions.CloseAll()

    checker := statuscheck.New(statuscheck.Options{
        Redis:      rq,
        Objects:    s3c,
        WebhookURL: cfg.Notify.WebhookURL,
    })

    api := web.NewServer(web.Deps{
        Config:     cfg,
        Catalogues: catalogues,
        Orders:     orders,
        Queue:      rq,
        Fetcher:    fetcher,
        Uploader:   s3c,
        Decoder:    decoder,
        Sessions:   sessions,
        Notifier:   notifier,
        Checker:    checker,
    })

    // Queue depth gauges
    depthStop := make(chan struct{})
    go func() {
        ticker := time.NewTicker(15 * time.Second)
        defer ticker.Stop()
        for {
            select {
            case <-depthStop:
                return
            case <-ticker.C:
                ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
                if stream, delayed, dlq, err := rq.Depths(ctx); err == nil {
                    metrics.SetQueueDepth("stream", stream)
                    metrics.SetQueueDepth("delayed", delayed)
                    metrics.SetQueueDepth("dlq", dlq)
                }
                cancel()
            }
        }
    }()
    defer close(depthStop)

    srv := &http.Server{Addr: ":" + cfg.HTTP.Port, Handler: api.Router()}

    go func() {
        log.Info().Msgf("HTTP server listening on :%s", cfg.HTTP.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
    defer cancel()
    _ = srv.Shutdown(ctx)
    fmt.Println("shutdown complete")
}
