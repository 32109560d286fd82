// Package storage archives the label photos sent to the scanner.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog/log"
)

var ErrUnsupportedType = errors.New("unsupported image type")

// Storage saves an image and returns the URL it is served from.
type Storage interface {
	SaveImage(ctx context.Context, name, contentType string, data []byte) (string, error)
}

type LocalStorage struct {
	uploadDir string
	urlPrefix string
}

// s3Putter is the part of the S3 API used for uploads.
type s3Putter interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

type SpacesStorage struct {
	client s3Putter
	bucket string
	cdnURL string
}

// NewLocalStorage writes into uploadDir; files are expected to be served
// under /uploads.
func NewLocalStorage(uploadDir string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir, urlPrefix: "/uploads"}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if cdnURL == "" {
		cdnURL = fmt.Sprintf("https://%s.%s", bucket, strings.TrimPrefix(endpoint, "https://"))
	}

	return &SpacesStorage{client: s3.New(sess), bucket: bucket, cdnURL: cdnURL}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// normalizeFilename creates a unique filename without spaces; the
// extension follows the content type.
func normalizeFilename(name, ext string, now time.Time) string {
	baseName := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = unsafeChars.ReplaceAllString(baseName, "")
	if baseName == "" || baseName == "." {
		baseName = "scan"
	}
	return fmt.Sprintf("%s_%s%s", baseName, now.Format("20060102_150405.000000"), ext)
}

func imageExt(contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	case "image/heic":
		return ".heic", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
}

func (ls *LocalStorage) SaveImage(_ context.Context, name, contentType string, data []byte) (string, error) {
	ext, err := imageExt(contentType)
	if err != nil {
		return "", err
	}
	filename := normalizeFilename(name, ext, time.Now())
	log.Debug().Str("original", name).Str("normalized", filename).Msg("[storage] saving image")

	if err := os.MkdirAll(ls.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(ls.uploadDir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return ls.urlPrefix + "/" + filename, nil
}

func (ss *SpacesStorage) SaveImage(ctx context.Context, name, contentType string, data []byte) (string, error) {
	ext, err := imageExt(contentType)
	if err != nil {
		return "", err
	}
	key := "scans/" + normalizeFilename(name, ext, time.Now())

	_, err = ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("[storage] failed to upload image to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	return fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key), nil
}
