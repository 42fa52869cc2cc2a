package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/packstore/packstore/pkg/packstore"
)

// Config options for the S3 provider
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket holding the packed containers
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)
}

// Provider is an S3-compatible implementation of the packstore.FileProvider
// interface. Streams issue ranged GetObject requests so a chunk load only
// transfers the bytes it seeks to, never the whole container.
type Provider struct {
	client *s3.Client
	bucket string
}

// New creates a new S3-compatible file provider.
func New(config Config) (*Provider, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	return &Provider{
		client: s3.NewFromConfig(awsCfg, s3Options...),
		bucket: config.Bucket,
	}, nil
}

var _ packstore.FileProvider = (*Provider)(nil)

// Open stats the object and returns a seekable stream over it. The object
// key is the URL with its scheme prefix stripped.
func (p *Provider) Open(ctx context.Context, url string) (io.ReadSeekCloser, error) {
	key := url
	if _, tail, ok := strings.Cut(url, "://"); ok {
		key = tail
	}

	head, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stat object %q: %w", key, err)
	}

	return &objectStream{
		ctx:    ctx,
		client: p.client,
		bucket: p.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// objectStream reads an S3 object through ranged GetObject requests. A
// sequential body is kept open between reads and discarded on seek, so the
// common pattern of one seek followed by sequential reads costs a single
// request.
type objectStream struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	size   int64

	offset int64
	body   io.ReadCloser
}

func (s *objectStream) Read(b []byte) (int, error) {
	if s.offset >= s.size {
		return 0, io.EOF
	}

	if s.body == nil {
		out, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-", s.offset)),
		})
		if err != nil {
			return 0, err
		}
		s.body = out.Body
	}

	n, err := s.body.Read(b)
	s.offset += int64(n)
	return n, err
}

func (s *objectStream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.offset + offset
	case io.SeekEnd:
		target = s.size + offset
	default:
		return 0, fmt.Errorf("invalid seek whence %d", whence)
	}

	if target < 0 {
		return 0, fmt.Errorf("negative seek position %d", target)
	}

	if target != s.offset && s.body != nil {
		s.body.Close()
		s.body = nil
	}
	s.offset = target
	return target, nil
}

func (s *objectStream) Close() error {
	if s.body != nil {
		err := s.body.Close()
		s.body = nil
		return err
	}
	return nil
}
