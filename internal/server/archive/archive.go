// Package archive mirrors delivered and received messages to S3-compatible
// object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/peermail/internal/server/config"
	"github.com/dmitrijs2005/peermail/internal/server/models"
	"github.com/google/uuid"
)

const (
	KindInbox = "inbox"
	KindSent  = "sent"
)

type Archiver interface {
	ArchiveInbox(ctx context.Context, e *models.InboxEntry) error
	ArchiveSent(ctx context.Context, e *models.SentEntry) error
}

// Nop discards everything. Used when no bucket is configured.
type Nop struct{}

func (Nop) ArchiveInbox(context.Context, *models.InboxEntry) error { return nil }
func (Nop) ArchiveSent(context.Context, *models.SentEntry) error   { return nil }

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	client objectPutter
	bucket string
}

// NewS3Archiver builds a client from the S3 settings of cfg. A non-empty
// S3BaseEndpoint points it at MinIO or another compatible service.
func NewS3Archiver(ctx context.Context, cfg *sc.Config) (*S3Archiver, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{client: client, bucket: cfg.S3Bucket}, nil
}

// ObjectKey returns "<kind>/<address>/<yyyy>/<mm>/<dd>/<id>.json".
func ObjectKey(kind, address string, t time.Time, id string) string {
	t = t.UTC()
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%s.json", kind, address, t.Year(), int(t.Month()), t.Day(), id)
}

func (a *S3Archiver) ArchiveInbox(ctx context.Context, e *models.InboxEntry) error {
	return a.put(ctx, ObjectKey(KindInbox, e.SelfAddress, e.CreatedAt, uuid.NewString()), e)
}

func (a *S3Archiver) ArchiveSent(ctx context.Context, e *models.SentEntry) error {
	return a.put(ctx, ObjectKey(KindSent, e.SelfAddress, e.CreatedAt, uuid.NewString()), e)
}

func (a *S3Archiver) put(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
