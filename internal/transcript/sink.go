package transcript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrInvalidTarget is returned by Open for targets it cannot store to.
var ErrInvalidTarget = errors.New("transcript: invalid target")

// Sink stores a finished transcript.
type Sink interface {
	// Put stores body under name and returns where it was written.
	Put(ctx context.Context, name string, body []byte) (string, error)
}

// Open returns the sink for target: an S3Sink for s3://bucket/prefix URLs,
// otherwise a FileSink rooted at the target directory.
func Open(target string, opts S3Options) (Sink, error) {
	if !strings.HasPrefix(target, "s3://") {
		if strings.Contains(target, "://") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
		}
		return NewFileSink(target)
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no bucket", ErrInvalidTarget, target)
	}
	return NewS3Sink(NewS3Client(opts), u.Host, strings.Trim(u.Path, "/")), nil
}

// FileSink writes transcripts to a local directory.
type FileSink struct {
	dir string
}

// NewFileSink creates dir if needed and returns a sink writing into it.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("transcript: create dir: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Put writes body to dir/name.
func (s *FileSink) Put(_ context.Context, name string, body []byte) (string, error) {
	p := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(p, body, 0o644); err != nil {
		return "", fmt.Errorf("transcript: write %s: %w", p, err)
	}
	return p, nil
}

// PutObjectAPI is the subset of the S3 client used by S3Sink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads transcripts to an S3 bucket.
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Sink returns a sink storing objects under bucket/prefix.
func NewS3Sink(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads body as prefix/name.
func (s *S3Sink) Put(ctx context.Context, name string, body []byte) (string, error) {
	key := name
	if s.prefix != "" {
		key = path.Join(s.prefix, name)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("transcript: s3 upload failed: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	// Region is the bucket region. Default: AWS_REGION, then us-east-1.
	Region string

	// Endpoint overrides the service endpoint, for S3-compatible stores.
	Endpoint string

	// UsePathStyle addresses buckets as endpoint/bucket instead of bucket.endpoint.
	UsePathStyle bool

	// Credentials overrides the environment credentials.
	Credentials aws.CredentialsProvider
}

// NewS3Client builds an S3 client from opts. Without explicit credentials
// it reads AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN,
// and sends unsigned requests when they are unset.
func NewS3Client(opts S3Options) *s3.Client {
	region := opts.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	creds := opts.Credentials
	if creds == nil {
		creds = envCredentials()
	}

	o := s3.Options{
		Region:       region,
		UsePathStyle: opts.UsePathStyle,
		Credentials:  creds,
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return s3.New(o)
}

func envCredentials() aws.CredentialsProvider {
	key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if key == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")
	return aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     key,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "environment",
		}, nil
	}))
}
