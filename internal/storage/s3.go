// Package storage talks to the S3 bucket that holds profile photos. The
// server never proxies bytes: clients get short-lived presigned URLs and
// upload or download directly.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var (
	ErrBucketNotConfigured = errors.New("S3_BUCKET_NAME not configured")
	ErrObjectNotFound      = errors.New("object not found")
)

const DefaultPresignTTL = 5 * time.Minute

type Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	now     func() time.Time
}

// PresignedURL is what the client needs to perform the request itself.
type PresignedURL struct {
	URL       string      `json:"url"`
	Method    string      `json:"method"`
	Headers   http.Header `json:"headers,omitempty"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// New resolves AWS config from the environment. Static credentials win over
// the default chain when both are given.
func New(ctx context.Context, opts Options) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithConfig(cfg, opts), nil
}

func NewWithConfig(cfg aws.Config, opts Options) *S3Store {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := opts.PresignTTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *S3Store) Bucket() string { return s.bucket }

// PresignPut signs an upload that the bucket stores encrypted with AES256.
// The client must send the returned headers unchanged.
func (s *S3Store) PresignPut(ctx context.Context, key, contentType string) (PresignedURL, error) {
	if s.bucket == "" {
		return PresignedURL{}, ErrBucketNotConfigured
	}

	expiresAt := s.now().Add(s.ttl).UTC()
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(key),
		ContentType:          aws.String(contentType),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return PresignedURL{}, fmt.Errorf("presign put %q: %w", key, err)
	}

	return PresignedURL{URL: req.URL, Method: req.Method, Headers: req.SignedHeader, ExpiresAt: expiresAt}, nil
}

// PresignGet signs a download rendered inline by the browser.
func (s *S3Store) PresignGet(ctx context.Context, key string) (PresignedURL, error) {
	if s.bucket == "" {
		return PresignedURL{}, ErrBucketNotConfigured
	}

	expiresAt := s.now().Add(s.ttl).UTC()
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String("inline"),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return PresignedURL{}, fmt.Errorf("presign get %q: %w", key, err)
	}

	return PresignedURL{URL: req.URL, Method: req.Method, ExpiresAt: expiresAt}, nil
}

// Exists issues a HEAD for key.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	if s.bucket == "" {
		return false, ErrBucketNotConfigured
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("head %q: %w", key, err)
}

// Delete removes key. Deleting a missing key is not an error in S3.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if s.bucket == "" {
		return ErrBucketNotConfigured
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	// HEAD responses carry no body, so some stores only expose the status.
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}
