// Package storage keeps rendered invoice PDFs in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ commissionapp.PDFStore = (*S3PDFStore)(nil)

const (
	defaultEndpoint       = "http://localhost:9000"
	defaultRegion         = "us-east-1"
	defaultUploadExpiry   = 15 * time.Minute
	defaultDownloadExpiry = time.Hour
)

var errStorageKeyRequired = errors.New("storage key is required")

// S3PDFStore hands out presigned URLs for invoice PDFs. The renderer uploads
// with the PUT URL and the read API serves the GET URL. Works against AWS S3,
// MinIO and other S3-compatible servers.
type S3PDFStore struct {
	client         *s3.Client
	presignClient  *s3.PresignClient
	bucket         string
	endpoint       string
	forcePathStyle bool
	publicPrefix   string
	uploadExpiry   time.Duration
	downloadExpiry time.Duration
	logger         *zap.Logger
}

// Option configures S3PDFStore
type Option func(*S3PDFStore)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3PDFStore) {
		s.logger = logger
	}
}

// NewS3PDFStore creates an S3PDFStore from configuration
func NewS3PDFStore(cfg *config.StorageConfig, opts ...Option) (*S3PDFStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	store := &S3PDFStore{
		client:         client,
		presignClient:  s3.NewPresignClient(client),
		bucket:         cfg.Bucket,
		endpoint:       endpoint,
		forcePathStyle: cfg.ForcePathStyle,
		publicPrefix:   strings.TrimRight(cfg.PublicURLPrefix, "/"),
		uploadExpiry:   cfg.UploadExpiry,
		downloadExpiry: cfg.DownloadExpiry,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.uploadExpiry <= 0 {
		store.uploadExpiry = defaultUploadExpiry
	}
	if store.downloadExpiry <= 0 {
		store.downloadExpiry = defaultDownloadExpiry
	}
	return store, nil
}

func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	return strings.TrimRight(endpoint, "/"), nil
}

// EnsureBucket creates the bucket when it is missing. Called once at startup.
func (s *S3PDFStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating invoice PDF bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// GenerateUploadURL presigns a PUT for the renderer
func (s *S3PDFStore) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errStorageKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = s.uploadExpiry
	}

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storageKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate upload URL: %w", err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

// GenerateDownloadURL presigns a GET for a stored PDF
func (s *S3PDFStore) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errStorageKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = s.downloadExpiry
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate download URL: %w", err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

// ObjectExists reports whether the renderer has uploaded the PDF yet
func (s *S3PDFStore) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errStorageKeyRequired
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return false, nil
	}
	// Some S3-compatible servers answer HEAD with a bare 404 code
	if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object existence: %w", err)
}

// ObjectURL is the stable, unsigned URL recorded as the invoice's pdfUrl
func (s *S3PDFStore) ObjectURL(storageKey string) string {
	key := strings.TrimLeft(storageKey, "/")
	if s.publicPrefix != "" {
		return s.publicPrefix + "/" + key
	}
	if s.forcePathStyle {
		return s.endpoint + "/" + s.bucket + "/" + key
	}
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return s.endpoint + "/" + s.bucket + "/" + key
	}
	return u.Scheme + "://" + s.bucket + "." + u.Host + "/" + key
}

// Bucket returns the bucket name
func (s *S3PDFStore) Bucket() string {
	return s.bucket
}
