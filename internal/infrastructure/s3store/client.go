// Package s3store browses and transfers S3 objects.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/ui"
)

const DefaultRegion = "us-east-1"

// API is the subset of the S3 client used here.
type API interface {
	ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// Uploader streams a local file to S3.
type Uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Downloader streams an object to a local file.
type Downloader interface {
	Download(ctx context.Context, w io.WriterAt, in *s3.GetObjectInput, opts ...func(*manager.Downloader)) (int64, error)
}

// Config holds the resolved AWS_* settings.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
	Profile         string
	Endpoint        string
}

// ConfigFromCredentials maps resolved AWS_* keys. When no access key is
// given the SDK default chain is used.
func ConfigFromCredentials(creds *credential.Resolved) Config {
	return Config{
		AccessKeyID:     creds.Get("ACCESS_KEY_ID"),
		SecretAccessKey: creds.Get("SECRET_ACCESS_KEY"),
		SessionToken:    creds.Get("SESSION_TOKEN"),
		Region:          creds.GetOr("DEFAULT_REGION", DefaultRegion),
		Profile:         creds.Get("PROFILE"),
		Endpoint:        creds.Get("ENDPOINT_URL"),
	}
}

// Client wraps the S3 API with the transfer manager.
type Client struct {
	api        API
	uploader   Uploader
	downloader Downloader
}

// New wires a Client from explicit parts.
func New(api API, up Uploader, down Downloader) *Client {
	return &Client{api: api, uploader: up, downloader: down}
}

// NewClient loads an AWS config for cfg and builds an S3 client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		if cfg.Profile != "" {
			return nil, errUtils.WithHints(
				fmt.Errorf("failed to load AWS profile %q: %w", cfg.Profile, err),
				"available profiles are listed in ~/.aws/config and ~/.aws/credentials",
			)
		}
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			ui.Debug("Using custom S3 endpoint %s", cfg.Endpoint)
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, manager.NewUploader(client), manager.NewDownloader(client)), nil
}

// Location is a bucket and an optional key.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return "s3://" + l.Bucket + "/" + l.Key
}

// ParsePath accepts s3://bucket/key and bucket/key.
func ParsePath(path string) Location {
	path = strings.TrimPrefix(path, "s3://")
	bucket, key, _ := strings.Cut(path, "/")
	return Location{Bucket: bucket, Key: key}
}

// ParseObjectPath is ParsePath but requires a key.
func ParseObjectPath(path string) (Location, error) {
	loc := ParsePath(path)
	if loc.Bucket == "" || loc.Key == "" {
		return Location{}, errUtils.WithHints(
			fmt.Errorf("%w: bucket and key required, got %q", errUtils.ErrInvalidArgument, path),
			"use s3://bucket/key or bucket/key",
		)
	}
	return loc, nil
}

var errorHints = map[string][2]string{
	"NoSuchBucket":          {"bucket not found", "check that the bucket name is correct"},
	"NoSuchKey":             {"object not found", "check that the key path is correct"},
	"NotFound":              {"object not found", "check that the key path is correct"},
	"AccessDenied":          {"access denied", "check your IAM permissions for this bucket/object"},
	"Forbidden":             {"access denied", "check your IAM permissions for this bucket/object"},
	"InvalidAccessKeyId":    {"invalid AWS access key", "check your AWS_ACCESS_KEY_ID"},
	"SignatureDoesNotMatch": {"invalid AWS secret key", "check your AWS_SECRET_ACCESS_KEY"},
	"ExpiredToken":          {"AWS session token has expired", "refresh your credentials"},
	"InvalidBucketName":     {"invalid bucket name", "bucket names must be 3-63 characters, lowercase, and DNS-compliant"},
}

// translate annotates S3 API errors with a readable cause and a hint.
func translate(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if h, ok := errorHints[apiErr.ErrorCode()]; ok {
			return errUtils.WithHints(fmt.Errorf("%s: %s: %w", op, h[0], err), h[1])
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
