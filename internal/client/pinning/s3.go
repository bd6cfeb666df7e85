package pinning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Seams for tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
	now = time.Now
)

// s3API is the subset of *s3.Client the pinner uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Prefix    string `json:"prefix"`
}

// S3Pinner stores content in a bucket under its CIDv1 (raw codec,
// sha2-256), so the same bytes always land on the same key.
type S3Pinner struct {
	client s3API
	bucket string
	prefix string
}

var cidBuilder = cid.V1Builder{Codec: cid.Raw, MhType: multihash.SHA2_256, MhLength: -1}

func init() {
	Register("s3", createS3)
}

func createS3(args any) (Pinner, error) {
	cfg := S3Config{}
	if err := decodeConfig(args, &cfg); err != nil {
		return nil, err
	}
	return NewS3Pinner(context.Background(), cfg)
}

func NewS3Pinner(ctx context.Context, cfg S3Config) (*S3Pinner, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3PinnerWithClient(client, cfg), nil
}

func newS3PinnerWithClient(client s3API, cfg S3Config) *S3Pinner {
	return &S3Pinner{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}
}

func (s *S3Pinner) key(hash string) string {
	if s.prefix == "" {
		return hash
	}
	return path.Join(s.prefix, hash)
}

// ContentID returns the CID the pinner assigns to data.
func ContentID(data []byte) (string, error) {
	c, err := cidBuilder.Sum(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func (s *S3Pinner) Pin(ctx context.Context, name string, r io.Reader) (*PinResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	hash, err := ContentID(data)
	if err != nil {
		return nil, fmt.Errorf("content id: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(hash)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]string{"filename": name},
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", hash, err)
	}
	return &PinResult{Hash: hash, Size: int64(len(data)), Timestamp: now()}, nil
}

func (s *S3Pinner) Unpin(ctx context.Context, hash string) error {
	if err := ValidateHash(hash); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(hash)),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", hash, err)
	}
	return nil
}
