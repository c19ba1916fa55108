// Package storage wraps the S3 API used for audio, artwork and contract
// objects. Any S3 compatible service works when an endpoint is configured.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	minMultipartSize = 12 << 20
	deleteBatchSize  = 1000
)

var ErrBucketNotFound = errors.New("bucket does not exist")

type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

type S3 struct {
	c          *s3.Client
	presign    *s3.PresignClient
	uploader   *manager.Uploader
	bucket     *string
	presignTTL time.Duration
}

func NewS3(ctx context.Context, cfg Config) (*S3, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config, %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	s := &S3{
		c:       client,
		presign: s3.NewPresignClient(client),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		}),
		bucket:     aws.String(cfg.Bucket),
		presignTTL: cfg.PresignTTL,
	}

	if err := s.Ping(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Ping checks that the bucket exists and is reachable
func (s *S3) Ping(ctx context.Context) error {
	_, err := s.c.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: s.bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
			return fmt.Errorf("%w: %s", ErrBucketNotFound, *s.bucket)
		}

		return fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return nil
}

// Put stores body under key. Large objects go through the multipart
// uploader.
func (s *S3) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:        s.bucket,
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("private, max-age=31536000, immutable"),
	}

	var err error
	if size > minMultipartSize {
		_, err = s.uploader.Upload(ctx, input)
	} else {
		_, err = s.c.PutObject(ctx, input)
	}
	if err != nil {
		return fmt.Errorf("failed to upload %s, %w", key, err)
	}

	return nil
}

// Delete removes keys in batches, S3 accepts at most 1000 per request
func (s *S3) Delete(ctx context.Context, keys ...string) error {
	var errs []error

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))

		objects := make([]types.ObjectIdentifier, end-start)
		for i, key := range keys[start:end] {
			objects[i] = types.ObjectIdentifier{Key: aws.String(key)}
		}

		out, err := s.c.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: s.bucket,
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to delete objects, %w", err))
			continue
		}

		for _, e := range out.Errors {
			zap.L().Warn("Object not deleted",
				zap.String("key", aws.ToString(e.Key)),
				zap.String("code", aws.ToString(e.Code)),
			)
		}
	}

	return errors.Join(errs...)
}

// PresignGet returns a time limited download URL. The object is served as
// an attachment named after the original upload.
func (s *S3) PresignGet(ctx context.Context, key, name string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     s.bucket,
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(mime.FormatMediaType("attachment", map[string]string{"filename": name})),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s, %w", key, err)
	}

	return req.URL, nil
}
