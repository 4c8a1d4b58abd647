package blob

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"refund-service/internal/config"
)

type MockPresigner struct {
	PresignPutObjectFunc func(ctx context.Context, params *s3.PutObjectInput) (*v4.PresignedHTTPRequest, error)
	expires              time.Duration
}

func (m *MockPresigner) PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	m.expires = opts.Expires
	return m.PresignPutObjectFunc(ctx, params)
}

type MockDeleter struct {
	keys []string
	err  error
}

func (m *MockDeleter) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.keys = append(m.keys, aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_PresignPut(t *testing.T) {
	presigner := &MockPresigner{
		PresignPutObjectFunc: func(ctx context.Context, params *s3.PutObjectInput) (*v4.PresignedHTTPRequest, error) {
			if aws.ToString(params.Bucket) != "receipts" || aws.ToString(params.ContentType) != "image/png" {
				t.Errorf("unexpected input: bucket=%s type=%s", aws.ToString(params.Bucket), aws.ToString(params.ContentType))
			}
			return &v4.PresignedHTTPRequest{URL: "https://receipts.s3.amazonaws.com/" + aws.ToString(params.Key) + "?X-Amz-Signature=abc"}, nil
		},
	}
	store := NewS3Store(presigner, &MockDeleter{}, "receipts", 5*time.Minute)

	url, ttl, err := store.PresignPut(context.Background(), "uploads/receipt/a0001/x.png", "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "https://receipts.s3.amazonaws.com/uploads/receipt/a0001/x.png") {
		t.Errorf("url = %s", url)
	}
	if ttl != 5*time.Minute || presigner.expires != 5*time.Minute {
		t.Errorf("ttl = %v, presign expires = %v", ttl, presigner.expires)
	}
}

func TestS3Store_Delete(t *testing.T) {
	deleter := &MockDeleter{}
	store := NewS3Store(nil, deleter, "receipts", time.Minute)
	ctx := context.Background()

	refs := []string{
		"https://receipts.s3.ap-northeast-2.amazonaws.com/uploads/receipt/a0001/1.jpg",
		"http://localhost:4566/receipts/uploads/receipt/a0001/2.jpg",
		"uploads/worklog/a0002/3.png",
	}
	for _, ref := range refs {
		if err := store.Delete(ctx, ref); err != nil {
			t.Fatalf("Delete(%s): %v", ref, err)
		}
	}

	want := []string{
		"receipts/uploads/receipt/a0001/1.jpg",
		"receipts/uploads/receipt/a0001/2.jpg",
		"receipts/uploads/worklog/a0002/3.png",
	}
	for i := range want {
		if deleter.keys[i] != want[i] {
			t.Errorf("deleted[%d] = %s, want %s", i, deleter.keys[i], want[i])
		}
	}

	deleter.err = errors.New("AccessDenied")
	if err := store.Delete(ctx, "uploads/x.png"); err == nil {
		t.Error("Delete swallowed the S3 error")
	}
}

func TestNewStore_WithoutBucketIsDisabled(t *testing.T) {
	store, err := NewStore(context.Background(), config.BlobConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.PresignPut(context.Background(), "k", "image/png"); !errors.Is(err, ErrDisabled) {
		t.Errorf("PresignPut error = %v, want ErrDisabled", err)
	}
	if err := store.Delete(context.Background(), "k"); err != nil {
		t.Errorf("Delete error = %v", err)
	}
}

func TestUploadKey(t *testing.T) {
	key := UploadKey("receipt", "a0001", ".jpg")
	if !strings.HasPrefix(key, "uploads/receipt/a0001/") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("UploadKey = %s", key)
	}
}
