// Package blob stores uploaded receipt photos, spreadsheets and work-log
// images in S3.
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"refund-service/internal/config"
)

// ErrDisabled is returned by a Store with no bucket configured.
var ErrDisabled = errors.New("blob storage is not configured")

// Store is what the services need from blob storage.
type Store interface {
	// PresignPut returns a URL the client can PUT the object to directly.
	PresignPut(ctx context.Context, key, contentType string) (string, time.Duration, error)
	// Delete removes the object a stored reference points at. A reference
	// is either an object key or a URL whose path ends in the key.
	Delete(ctx context.Context, ref string) error
}

// Presigner is the subset of *s3.PresignClient used here.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Deleter is the subset of *s3.Client used here.
type Deleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Store struct {
	presigner Presigner
	deleter   Deleter
	bucket    string
	ttl       time.Duration
}

func NewS3Store(presigner Presigner, deleter Deleter, bucket string, ttl time.Duration) *S3Store {
	return &S3Store{presigner: presigner, deleter: deleter, bucket: bucket, ttl: ttl}
}

// NewStore builds the store selected by cfg. Without a bucket it returns a
// Store whose presign fails with ErrDisabled and whose deletes are no-ops.
func NewStore(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	if cfg.Bucket == "" {
		return disabledStore{}, nil
	}
	awsConfig, err := LoadAWSConfig(ctx, cfg.Region, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})
	return NewS3Store(s3.NewPresignClient(client), client, cfg.Bucket, cfg.PresignTTL), nil
}

func (s *S3Store) PresignPut(ctx context.Context, key, contentType string) (string, time.Duration, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	req, err := s.presigner.PresignPutObject(ctx, input, func(o *s3.PresignOptions) { o.Expires = s.ttl })
	if err != nil {
		return "", 0, err
	}
	return req.URL, s.ttl, nil
}

func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key := KeyFromRef(ref, s.bucket)
	if key == "" {
		return fmt.Errorf("cannot derive object key from %q", ref)
	}
	_, err := s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// KeyFromRef extracts the object key from a stored reference. URLs may be
// virtual-hosted (https://bucket.s3.../key) or path-style
// (http://endpoint/bucket/key).
func KeyFromRef(ref, bucket string) string {
	if !strings.Contains(ref, "://") {
		return strings.TrimPrefix(ref, "/")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	p := strings.TrimPrefix(u.Path, "/")
	if bucket != "" {
		p = strings.TrimPrefix(p, bucket+"/")
	}
	return p
}

// UploadKey builds the object key for a new upload:
// uploads/<kind>/<username>/<uuid><ext>.
func UploadKey(kind, username, ext string) string {
	return path.Join("uploads", kind, username, uuid.NewString()+ext)
}

type disabledStore struct{}

func (disabledStore) PresignPut(context.Context, string, string) (string, time.Duration, error) {
	return "", 0, ErrDisabled
}

func (disabledStore) Delete(context.Context, string) error { return nil }
