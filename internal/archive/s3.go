package archive

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alfredjeanlab/sitenav/internal/model"
)

// S3Destination uploads archives to an S3-compatible bucket. The key may
// contain {id} and {date} placeholders so that each archive gets its own
// object; a plain key is overwritten on every run.
type S3Destination struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Destination creates an S3 destination. A non-empty endpoint switches
// to path-style addressing for MinIO and similar servers.
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 destination needs a bucket and a key")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	return &S3Destination{
		client: s3.NewFromConfig(cfg, s3opts...),
		bucket: bucket,
		key:    key,
	}, nil
}

func (d *S3Destination) Name() string { return "s3://" + d.bucket + "/" + d.key }

// ObjectKey expands the {id} and {date} placeholders of key for a.
func ObjectKey(key string, a *model.Archive) string {
	return strings.NewReplacer(
		"{id}", a.ID,
		"{date}", a.TakenAt.UTC().Format("2006-01-02"),
	).Replace(key)
}

// Write uploads a as JSONL, tagging the object with the archive's id, source
// and page count.
func (d *S3Destination) Write(ctx context.Context, a *model.Archive) error {
	var buf bytes.Buffer
	if err := ExportJSONL(a, &buf); err != nil {
		return err
	}
	key := ObjectKey(d.key, a)
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
		Metadata: map[string]string{
			"archive-id": a.ID,
			"source":     a.Source,
			"pages":      strconv.Itoa(len(a.Nodes)),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}
