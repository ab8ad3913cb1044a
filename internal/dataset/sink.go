package dataset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/samadpls/archdata/internal/model"
)

const s3Scheme = "s3://"

// S3API is the subset of the S3 client used by Sink.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Sink saves and loads datasets from local paths or s3://bucket/key URIs.
type Sink struct {
	s3 S3API
}

// NewSink creates a Sink. A nil client limits it to local paths.
func NewSink(client S3API) *Sink {
	return &Sink{s3: client}
}

// NewS3Client loads the default AWS credential chain for region.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, eris.Wrap(err, "dataset: load aws config")
	}
	return s3.NewFromConfig(cfg), nil
}

// IsS3 reports whether uri names an S3 object.
func IsS3(uri string) bool {
	return strings.HasPrefix(uri, s3Scheme)
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsS3(uri) {
		return "", "", eris.Errorf("dataset: %q is not an s3 uri", uri)
	}
	bucket, key, _ = strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if bucket == "" || key == "" {
		return "", "", eris.Errorf("dataset: s3 uri %q needs a bucket and key", uri)
	}
	return bucket, key, nil
}

// Save writes records as JSONL to uri.
func (s *Sink) Save(ctx context.Context, uri string, records []model.Record) error {
	var buf bytes.Buffer
	if err := WriteJSONL(&buf, records); err != nil {
		return err
	}

	if !IsS3(uri) {
		if dir := filepath.Dir(uri); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return eris.Wrapf(err, "dataset: create %s", dir)
			}
		}
		if err := os.WriteFile(uri, buf.Bytes(), 0o644); err != nil {
			return eris.Wrapf(err, "dataset: write %s", uri)
		}
		zap.L().Info("dataset saved", zap.String("path", uri), zap.Int("records", len(records)))
		return nil
	}

	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return err
	}
	if s.s3 == nil {
		return eris.Errorf("dataset: no s3 client for %s", uri)
	}
	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return eris.Wrapf(err, "dataset: s3 put %s", uri)
	}
	zap.L().Info("dataset uploaded",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("records", len(records)),
	)
	return nil
}

// Load reads a JSONL dataset from uri.
func (s *Sink) Load(ctx context.Context, uri string) ([]model.Record, error) {
	if !IsS3(uri) {
		f, err := os.Open(uri)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: open %s", uri)
		}
		defer f.Close() //nolint:errcheck
		return ReadJSONL(f)
	}

	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if s.s3 == nil {
		return nil, eris.Errorf("dataset: no s3 client for %s", uri)
	}
	out, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: s3 get %s", uri)
	}
	defer out.Body.Close() //nolint:errcheck
	return ReadJSONL(out.Body)
}
