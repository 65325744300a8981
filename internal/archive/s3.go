package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config describes an S3-compatible bucket. Endpoint is set for R2 or
// other non-AWS providers and switches to path-style addressing.
type Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver stores raw feed bodies in object storage.
type Archiver struct {
	client putter
	bucket string
	now    func() time.Time
}

func New(ctx context.Context, cfg Config) (*Archiver, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Archiver{client: client, bucket: cfg.Bucket, now: time.Now}, nil
}

// Key returns feeds/<source_id>/<yyyy>/<mm>/<dd>/<run_id>.xml for the UTC date of t.
func Key(sourceID int64, runID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("feeds/%d/%04d/%02d/%02d/%s.xml", sourceID, t.Year(), int(t.Month()), t.Day(), runID)
}

// Archive uploads one fetched feed body.
func (a *Archiver) Archive(ctx context.Context, sourceID int64, runID string, body []byte) error {
	key := Key(sourceID, runID, a.now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/xml"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}
	return nil
}
