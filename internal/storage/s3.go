package storage

import (
    "bytes"
    "context"
    "fmt"
    "io"
    "os"
    "time"

    "github.com/aws/aws-sdk-go-v2/aws"
    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/credentials"
    "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
    "github.com/aws/aws-sdk-go-v2/service/s3"
    "github.com/rs/zerolog/log"
)

// S3Client wraps the AWS S3 client for catalogue source documents and
// fulfillment outputs. Documents are immutable: uploaded once, replaced by
// delete+reupload, never patched in place.
type S3Client struct {
    client   *s3.Client
    uploader *manager.Uploader
    bucket   string
}

// ObjectMetadata carries user metadata stored alongside an object.
type ObjectMetadata struct {
    OriginalName string
    ContentType  string
    Size         int64
    Metadata     map[string]string
}

// NewS3Client creates an S3 client for the given bucket. Static credentials
// from the environment take precedence over the default chain.
func NewS3Client(ctx context.Context, bucket string) (*S3Client, error) {
    var opts []func(*awscfg.LoadOptions) error
    if ak, sk := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); ak != "" && sk != "" {
        opts = append(opts, awscfg.WithCredentialsProvider(
            credentials.NewStaticCredentialsProvider(ak, sk, os.Getenv("AWS_SESSION_TOKEN"))))
    }
    cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
    if err != nil {
        return nil, fmt.Errorf("failed to load AWS config: %w", err)
    }

    cli := s3.NewFromConfig(cfg)
    return &S3Client{
        client:   cli,
        uploader: manager.NewUploader(cli),
        bucket:   bucket,
    }, nil
}

// Bucket returns the configured bucket name.
func (s *S3Client) Bucket() string { return s.bucket }

// Download fetches the full object payload from the given bucket and key.
func (s *S3Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
    if bucket == "" {
        bucket = s.bucket
    }
    result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
        Bucket: aws.String(bucket),
        Key:    aws.String(key),
    })
    if err != nil {
        return nil, fmt.Errorf("failed to download from S3: %w", err)
    }
    defer result.Body.Close()

    data, err := io.ReadAll(result.Body)
    if err != nil {
        return nil, fmt.Errorf("failed to read S3 object: %w", err)
    }
    if result.ContentLength != nil && *result.ContentLength != int64(len(data)) {
        return nil, fmt.Errorf("truncated S3 object: got %d of %d bytes", len(data), *result.ContentLength)
    }

    log.Debug().Str("bucket", bucket).Str("key", key).Int("size", len(data)).Msg("downloaded object from S3")
    return data, nil
}

// Upload stores an object under key with the given metadata.
func (s *S3Client) Upload(ctx context.Context, key string, data []byte, meta *ObjectMetadata) (string, error) {
    s3Meta := make(map[string]string)
    contentType := "application/octet-stream"
    if meta != nil {
        if meta.ContentType != "" {
            contentType = meta.ContentType
        }
        if meta.OriginalName != "" {
            s3Meta["name"] = meta.OriginalName
        }
        for k, v := range meta.Metadata {
            s3Meta[k] = v
        }
    }
    s3Meta["uploaded"] = time.Now().UTC().Format(time.RFC3339)

    out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
        Bucket:      aws.String(s.bucket),
        Key:         aws.String(key),
        Body:        bytes.NewReader(data),
        ContentType: aws.String(contentType),
        Metadata:    s3Meta,
    })
    if err != nil {
        return "", fmt.Errorf("failed to upload to S3: %w", err)
    }

    url := fmt.Sprintf("s3://%s/%s", s.bucket, key)
    log.Info().Str("key", key).Int("size", len(data)).Str("etag", aws.ToString(out.ETag)).Msg("uploaded object to S3")
    return url, nil
}

// Delete removes an object. Used when a catalogue is replaced or retired.
func (s *S3Client) Delete(ctx context.Context, key string) error {
    _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
        Bucket: aws.String(s.bucket),
        Key:    aws.String(key),
    })
    if err != nil {
        return fmt.Errorf("failed to delete from S3: %w", err)
    }
    log.Info().Str("key", key).Msg("deleted object from S3")
    return nil
}

// Ping verifies bucket access for health checks.
func (s *S3Client) Ping(ctx context.Context) error {
    _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
    if err != nil {
        return fmt.Errorf("s3 head bucket: %w", err)
    }
    return nil
}
