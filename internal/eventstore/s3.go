package eventstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/pkg/types"
)

// ArchiveStore fetches event logs exported to an S3 bucket, one JSON
// object per user under a common prefix.
type ArchiveStore struct {
	client     *s3.Client
	bucket     string
	prefix     string
	maxRetries int
}

// ArchiveConfig holds S3 archive settings.
type ArchiveConfig struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint is an optional custom endpoint (MinIO, LocalStack).
	Endpoint string
	// UsePathStyle enables path-style addressing (required for MinIO).
	UsePathStyle bool
}

// NewArchiveStore creates an archive store from ambient AWS credentials.
func NewArchiveStore(ctx context.Context, cfg ArchiveConfig) (*ArchiveStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewStoreError(errors.CodeFetchFailed, "eventstore: load AWS config", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &ArchiveStore{
		client:     s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		maxRetries: 3,
	}, nil
}

// NewArchiveStoreWithClient creates an archive store around a
// pre-configured client.
func NewArchiveStoreWithClient(client *s3.Client, bucket, prefix string) *ArchiveStore {
	return &ArchiveStore{client: client, bucket: bucket, prefix: prefix, maxRetries: 3}
}

// FetchEvents downloads and decodes the user's archived event log.
func (s *ArchiveStore) FetchEvents(ctx context.Context, userID string) ([]types.RawEvent, error) {
	key := path.Join(s.prefix, userID+jsonExt)

	var data []byte
	err := s.retryWithBackoff(ctx, func() error {
		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if stderrors.As(err, &noSuchKey) {
			return nil, errors.NewStoreError(errors.CodeEventsNotFound,
				fmt.Sprintf("eventstore: no archived events for %s", userID), err)
		}
		return nil, errors.NewStoreError(errors.CodeFetchFailed,
			fmt.Sprintf("eventstore: fetch s3://%s/%s", s.bucket, key), err)
	}
	return decodeEvents(userID, data)
}

// ListUsers returns the user ids present in the archive.
func (s *ArchiveStore) ListUsers(ctx context.Context) ([]string, error) {
	var users []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.NewStoreError(errors.CodeFetchFailed, "eventstore: list archive", err)
		}
		for _, obj := range page.Contents {
			name := path.Base(aws.ToString(obj.Key))
			if len(name) > len(jsonExt) && name[len(name)-len(jsonExt):] == jsonExt {
				users = append(users, name[:len(name)-len(jsonExt)])
			}
		}
	}
	return users, nil
}

// retryWithBackoff executes the operation with exponential backoff,
// giving up immediately on missing keys.
func (s *ArchiveStore) retryWithBackoff(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		var noSuchKey *s3types.NoSuchKey
		if stderrors.As(lastErr, &noSuchKey) {
			return lastErr
		}
		if attempt < s.maxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
