package s3mirror

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Mirror uploads verified server cores to S3.
type Mirror struct {
	uploader uploader
}

// New builds a mirror from the shared AWS config of profile. An empty region
// keeps the profile's region.
func New(ctx context.Context, profile, region string) (*Mirror, error) {
	opts := []func(*config.LoadOptions) error{config.WithRetryMode("adaptive")}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &Mirror{uploader: manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 16 * 1024 * 1024
	})}, nil
}

// ParseTarget splits "s3://bucket/key" or "bucket/key". A key that is empty
// or ends in "/" is a prefix; the file name is appended to it.
func ParseTarget(target, filePath string) (string, string, error) {
	target = strings.TrimPrefix(target, "s3://")
	parts := strings.SplitN(target, "/", 2)
	if len(parts) < 1 || parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 target %q", target)
	}
	bucket := parts[0]
	key := ""
	if len(parts) > 1 {
		key = parts[1]
	}
	if key == "" || strings.HasSuffix(key, "/") {
		key = path.Join(key, filepath.Base(filePath))
	}
	return bucket, key, nil
}

// Upload stores the file at target, recording its SHA-1 in object metadata,
// and returns the s3:// URI.
func (m *Mirror) Upload(ctx context.Context, filePath, target, sha1 string) (string, error) {
	bucket, key, err := ParseTarget(target, filePath)
	if err != nil {
		return "", err
	}
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("error opening %s: %w", filePath, err)
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(filePath)),
	}
	if sha1 != "" {
		input.Metadata = map[string]string{"sha1": sha1}
	}
	log.Debug().Str("op", "s3mirror/upload").Msgf("uploading %s to s3://%s/%s", filePath, bucket, key)
	if _, err := m.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("error uploading to s3://%s/%s: %w", bucket, key, err)
	}
	uri := fmt.Sprintf("s3://%s/%s", bucket, key)
	log.Info().Str("op", "s3mirror/upload").Msgf("mirrored %s", uri)
	return uri, nil
}

func contentType(filePath string) string {
	if strings.EqualFold(filepath.Ext(filePath), ".jar") {
		return "application/java-archive"
	}
	return "application/octet-stream"
}
