package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"smart-planner/core/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Publisher uploads a public object and returns the URL it is served from.
type Publisher interface {
	Publish(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Publisher struct {
	client putObjectAPI
	cfg    S3Config
}

func NewS3Publisher(cfg S3Config) *S3Publisher {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.AccessKeyID != "" {
		opts.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &S3Publisher{client: s3.New(opts), cfg: cfg}
}

func (p *S3Publisher) Publish(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if p.cfg.Bucket == "" {
		return "", fmt.Errorf("storage bucket is not configured")
	}
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logger.Error("Storage:Publish:Error", "bucket", p.cfg.Bucket, "key", key, "error", err)
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	url := p.ObjectURL(key)
	logger.Info("Storage:Publish:Success", "key", key, "url", url)
	return url, nil
}

// ObjectURL prefers the configured public base URL over the regional S3 host.
func (p *S3Publisher) ObjectURL(key string) string {
	if p.cfg.PublicBaseURL != "" {
		return strings.TrimRight(p.cfg.PublicBaseURL, "/") + "/" + key
	}
	if p.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(p.cfg.Endpoint, "/"), p.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, key)
}
