package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/absensi/internal/common"
	sc "github.com/dmitrijs2005/absensi/internal/server/config"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// PhotoKeyPrefix is the only prefix devices may upload under.
const PhotoKeyPrefix = "photos/"

// PhotoService signs PUT URLs for attendance photos in an S3-compatible
// bucket. The presign client is built on first use.
type PhotoService struct {
	config *sc.Config

	mu     sync.Mutex
	client *s3.PresignClient
}

func NewPhotoService(c *sc.Config) *PhotoService {
	return &PhotoService{config: c}
}

func (s *PhotoService) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	s.client = s3.NewPresignClient(client)
	return s.client, nil
}

// ValidPhotoKey reports whether key is a clean relative key under
// PhotoKeyPrefix.
func ValidPhotoKey(key string) bool {
	if !strings.HasPrefix(key, PhotoKeyPrefix) || len(key) == len(PhotoKeyPrefix) {
		return false
	}
	return path.Clean(key) == key && !strings.Contains(key, "..")
}

// UploadURL returns a presigned PUT URL for key, valid for the configured
// presign TTL.
func (s *PhotoService) UploadURL(ctx context.Context, key string) (string, error) {
	if !ValidPhotoKey(key) {
		return "", fmt.Errorf("%w: invalid photo key %q", common.ErrorValidation, key)
	}

	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	ttl := s.config.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
