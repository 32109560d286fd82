package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilename(t *testing.T) {
	at := time.Date(2025, 3, 5, 14, 7, 0, 0, time.UTC)
	assert.Equal(t, "my_label_20250305_140700.000000.jpg", normalizeFilename("my label!.jpeg", ".jpg", at))
	assert.Equal(t, "scan_20250305_140700.000000.png", normalizeFilename("", ".png", at))
	assert.Equal(t, "passwd_20250305_140700.000000.png", normalizeFilename("../../etc/passwd", ".png", at))
}

func TestLocalStorage_SaveImage(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(dir)

	url, err := ls.SaveImage(context.Background(), "label.jpg", "image/jpeg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/label_"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	_, err = ls.SaveImage(context.Background(), "doc.pdf", "application/pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestSpacesStorage_SaveImage(t *testing.T) {
	fake := &fakeS3{}
	ss := &SpacesStorage{client: fake, bucket: "islamapp", cdnURL: "https://cdn.example.com/"}

	url, err := ss.SaveImage(context.Background(), "label.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/scans/label_"))
	assert.Equal(t, "islamapp", aws.StringValue(fake.input.Bucket))
	assert.Equal(t, "image/png", aws.StringValue(fake.input.ContentType))
	assert.Equal(t, "png", string(fake.body))

	fake.err = errors.New("access denied")
	_, err = ss.SaveImage(context.Background(), "label.png", "image/png", []byte("png"))
	assert.Error(t, err)
}
