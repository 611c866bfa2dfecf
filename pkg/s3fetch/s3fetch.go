// Package s3fetch downloads catalog dump files from S3. The catalog
// export and its companion datasets are published as objects in a public
// bucket; fetch-dump pulls them to local disk before any batch work runs.
package s3fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mkessy/genre-db/internal/logctx"
	"github.com/mkessy/genre-db/pkg/fileutil"
	"github.com/mkessy/genre-db/pkg/humanfmt"
	"github.com/mkessy/genre-db/pkg/logging"
)

// Client wraps the S3 operations the pipeline needs.
type Client struct {
	s3Client *s3.Client
}

// NewClient creates a client using the default AWS configuration chain.
func NewClient(ctx context.Context) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Client{s3Client: s3.NewFromConfig(cfg)}, nil
}

// NewClientWithConfig creates a client with a custom AWS config.
func NewClientWithConfig(cfg aws.Config) *Client {
	return &Client{s3Client: s3.NewFromConfig(cfg)}
}

// ParseS3URI splits an s3://bucket/key URI into bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", errors.New("invalid S3 URI: must start with s3://")
	}

	path := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		return "", "", errors.New("invalid S3 URI: missing bucket name")
	}
	if len(parts) < 2 || parts[1] == "" {
		return "", "", errors.New("invalid S3 URI: missing object key")
	}
	return parts[0], parts[1], nil
}

// DownloadToFile streams s3://bucket/key to destPath via the atomic
// tmp+rename path, so an interrupted download never leaves a partial file
// at the final path.
func (c *Client) DownloadToFile(ctx context.Context, uri, destPath string) (int64, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return 0, err
	}

	log := logctx.FromContext(ctx)
	start := time.Now()

	resp, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	var written int64
	err = fileutil.WriteAtomic(destPath, func(w io.Writer) error {
		n, copyErr := io.Copy(w, resp.Body)
		written = n
		if copyErr != nil {
			return fmt.Errorf("download s3://%s/%s: %w", bucket, key, copyErr)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	elapsed := time.Since(start)
	e := log.Info().
		Str("event", "object_downloaded").
		Str("uri", uri).
		Str("dest", destPath).
		Int64("bytes", written).
		Int64("duration_ms", elapsed.Milliseconds())
	if logging.IsPrettyMode() {
		e = e.
			Str("bytes_h", humanfmt.Bytes(written)).
			Str("throughput_h", humanfmt.Throughput(written, elapsed))
	}
	e.Msg("download complete")

	return written, nil
}
