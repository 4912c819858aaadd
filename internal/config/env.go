package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// HTTPConfig defines the server listener and staff dashboard credentials.
type HTTPConfig struct {
    Port            string
    StaffUser       string
    StaffPassHash   string // bcrypt hash
    AllowedOrigins  []string
    ShutdownTimeout time.Duration
}

// StorageConfig defines object storage connectivity.
type StorageConfig struct {
    Bucket          string
    CataloguePrefix string
    FulfillPrefix   string
}

// RedisConfig defines Redis connectivity and queue names.
type RedisConfig struct {
    URL          string
    Stream       string
    Group        string
    PollInterval time.Duration
}

// RenderConfig controls the page decode pipeline.
type RenderConfig struct {
    BaseDPI          int
    JPEGQuality      int
    Workers          int
    DesktopScale     float64
    MobileScale      float64
    InitialBatchSize int
    BatchSize        int
    MobileBatchSize  int
}

// FetchConfig bounds source document retrieval.
type FetchConfig struct {
    Timeout      time.Duration
    MaxBodyBytes int64
}

// FulfillConfig defines fulfillment worker behavior.
type FulfillConfig struct {
    Concurrency    int
    JobTimeout     time.Duration
    IdempotencyTTL time.Duration
    MaxAttempts    int
    RetryDelay     time.Duration
}

// NotifyConfig defines the outbound notification sender.
type NotifyConfig struct {
    WebhookURL string
    Timeout    time.Duration
    Buffer     int
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    HTTP    HTTPConfig
    Storage StorageConfig
    Redis   RedisConfig
    Render  RenderConfig
    Fetch   FetchConfig
    Fulfill FulfillConfig
    Notify  NotifyConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/printflow.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_printflow",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.HTTP = HTTPConfig{
        Port:            getEnv("PORT", "8080"),
        StaffUser:       getEnv("STAFF_USERNAME", ""),
        StaffPassHash:   getEnv("STAFF_PASSWORD_HASH", ""),
        AllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
        ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
    }

    cfg.Storage = StorageConfig{
        Bucket:          getEnv("AWS_S3_BUCKET", "printflow-catalogues-dev"),
        CataloguePrefix: getEnv("S3_CATALOGUE_PREFIX", "catalogues"),
        FulfillPrefix:   getEnv("S3_FULFILL_PREFIX", "fulfillments"),
    }

    cfg.Redis = RedisConfig{
        URL:          getEnv("REDIS_URL", "redis://localhost:6379"),
        Stream:       getEnv("QUEUE_STREAM", "jobs:fulfill:orders"),
        Group:        getEnv("QUEUE_GROUP", "workers:fulfill"),
        PollInterval: parseDuration(getEnv("QUEUE_POLL_INTERVAL", "100ms"), 100*time.Millisecond),
    }

    cfg.Render = RenderConfig{
        BaseDPI:          parseInt(getEnv("RENDER_BASE_DPI", "96"), 96),
        JPEGQuality:      parseInt(getEnv("RENDER_JPEG_QUALITY", "80"), 80),
        Workers:          parseInt(getEnv("RENDER_WORKERS", "4"), 4),
        DesktopScale:     parseFloat(getEnv("RENDER_DESKTOP_SCALE", "1.5"), 1.5),
        MobileScale:      parseFloat(getEnv("RENDER_MOBILE_SCALE", "1.0"), 1.0),
        InitialBatchSize: parseInt(getEnv("RENDER_INITIAL_BATCH", "4"), 4),
        BatchSize:        parseInt(getEnv("RENDER_BATCH_SIZE", "4"), 4),
        MobileBatchSize:  parseInt(getEnv("RENDER_MOBILE_BATCH_SIZE", "2"), 2),
    }

    cfg.Fetch = FetchConfig{
        Timeout:      parseDuration(getEnv("FETCH_TIMEOUT", "30s"), 30*time.Second),
        MaxBodyBytes: int64(parseInt(getEnv("FETCH_MAX_BODY_MB", "200"), 200)) << 20,
    }

    cfg.Fulfill = FulfillConfig{
        Concurrency:    parseInt(getEnv("FULFILL_CONCURRENCY", "2"), 2),
        JobTimeout:     parseDuration(getEnv("FULFILL_JOB_TIMEOUT", "120s"), 120*time.Second),
        IdempotencyTTL: parseDuration(getEnv("FULFILL_IDEM_TTL", "24h"), 24*time.Hour),
        MaxAttempts:    parseInt(getEnv("FULFILL_MAX_ATTEMPTS", "3"), 3),
        RetryDelay:     parseDuration(getEnv("FULFILL_RETRY_DELAY", "10s"), 10*time.Second),
    }

    cfg.Notify = NotifyConfig{
        WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
        Timeout:    parseDuration(getEnv("NOTIFY_TIMEOUT", "10s"), 10*time.Second),
        Buffer:     parseInt(getEnv("NOTIFY_BUFFER", "256"), 256),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseFloat(s string, def float64) float64 {
    if s == "" { return def }
    if f, err := strconv.ParseFloat(s, 64); err == nil { return f }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        if t := strings.TrimSpace(p); t != "" {
            out = append(out, t)
        }
    }
    return out
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
