package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3 struct {
	Client        *s3.Client
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

type S3Config struct {
	Region        string
	Bucket        string
	Prefix        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{
		Client:        client,
		Bucket:        cfg.Bucket,
		Prefix:        strings.Trim(cfg.Prefix, "/"),
		PublicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *S3) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	key, err := cleanKey(in.Key)
	if err != nil {
		return PutResult{}, err
	}
	key = s.objectKey(key)

	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(in.ContentType),
	})
	if err != nil {
		return PutResult{}, err
	}

	return PutResult{Key: key, URL: s.url(key)}, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3) objectKey(key string) string {
	if s.Prefix == "" {
		return key
	}
	return s.Prefix + "/" + key
}

func (s *S3) url(key string) string {
	if s.PublicBaseURL == "" {
		return "s3://" + s.Bucket + "/" + key
	}
	return s.PublicBaseURL + "/" + key
}

func (s *S3) String() string { return fmt.Sprintf("s3(%s/%s)", s.Bucket, s.Prefix) }
