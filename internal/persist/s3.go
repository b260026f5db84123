package persist

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the S3-compatible object store client.
type S3Options struct {
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
	PublicBaseURL  string // public URL prefix, defaults to endpoint/bucket
}

// S3Store writes logo objects to an S3-compatible endpoint. Overwrite by
// path is supported, which is all the bridge requires.
type S3Store struct {
	api        *s3.Client
	bucket     string
	publicBase string
}

// NewS3Store creates an S3Store. Works against AWS or any S3-compatible
// store (MinIO, SeaweedFS) via the endpoint override.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	endpoint := opts.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
		awsconfig.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	)
	if err != nil {
		return nil, err
	}

	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.ForcePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	publicBase := strings.TrimSuffix(opts.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = strings.TrimSuffix(endpoint, "/") + "/" + opts.Bucket
	}

	return &S3Store{api: api, bucket: opts.Bucket, publicBase: publicBase}, nil
}

// Put uploads data under path and returns its public URL.
func (s *S3Store) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return s.publicBase + "/" + path, nil
}

// PublicBase returns the public URL prefix of stored objects.
func (s *S3Store) PublicBase() string {
	return s.publicBase
}
