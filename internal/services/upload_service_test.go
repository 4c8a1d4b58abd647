package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestUploadService_Presign(t *testing.T) {
	blobs := &MockBlobStore{
		PresignFunc: func(_ context.Context, key, contentType string) (string, time.Duration, error) {
			return "https://bucket.example/" + key + "?sig=1", 5 * time.Minute, nil
		},
	}
	svc := NewUploadService(blobs, testLogger())

	tests := []struct {
		name        string
		kind        string
		contentType string
		wantExt     string
		wantErr     error
	}{
		{"receipt jpeg", UploadReceipt, "image/jpeg", ".jpg", nil},
		{"work log heic", UploadWorkLog, "image/heic", ".heic", nil},
		{"excel sheet", UploadExcel, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx", nil},
		{"image as excel", UploadExcel, "image/png", "", ErrInvalidInput},
		{"sheet as receipt", UploadReceipt, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "", ErrInvalidInput},
		{"gif", UploadReceipt, "image/gif", "", ErrInvalidInput},
		{"unknown kind", "avatars", "image/png", "", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, err := svc.Presign(context.Background(), ulsan, tt.kind, tt.contentType)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			prefix := "uploads/" + tt.kind + "/a0001/"
			if !strings.HasPrefix(ticket.Key, prefix) || !strings.HasSuffix(ticket.Key, tt.wantExt) {
				t.Errorf("Key = %q", ticket.Key)
			}
			if !strings.Contains(ticket.UploadURL, ticket.Key) || ticket.ExpiresIn != 300 {
				t.Errorf("ticket = %+v", ticket)
			}
		})
	}
}

func TestUploadService_GivenNoBucketWhenPresigningThenInvalidInput(t *testing.T) {
	svc := NewUploadService(&MockBlobStore{}, testLogger())
	if _, err := svc.Presign(context.Background(), ulsan, UploadReceipt, "image/png"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
