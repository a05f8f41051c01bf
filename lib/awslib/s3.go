package awslib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Client struct {
	client s3API
}

func NewS3Client(cfg aws.Config) S3Client {
	return S3Client{client: s3.NewFromConfig(cfg)}
}

// NotFoundError is returned when a prefix holds no object with the wanted suffix.
type NotFoundError struct {
	Bucket string
	Prefix string
	Suffix string
}

func (n NotFoundError) Error() string {
	return fmt.Sprintf("no %q object under s3://%s/%s", n.Suffix, n.Bucket, n.Prefix)
}

// LatestObject returns the key of the most recently modified object under [prefix] whose key ends in [suffix].
func (s S3Client) LatestObject(ctx context.Context, bucket, prefix, suffix string) (string, error) {
	var latest *types.Object
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
		}

		for _, object := range page.Contents {
			if !strings.HasSuffix(aws.ToString(object.Key), suffix) || object.LastModified == nil {
				continue
			}

			if latest == nil || object.LastModified.After(*latest.LastModified) {
				latest = &object
			}
		}
	}

	if latest == nil {
		return "", NotFoundError{Bucket: bucket, Prefix: prefix, Suffix: suffix}
	}

	slog.Info("Found latest object", slog.String("bucket", bucket), slog.String("key", aws.ToString(latest.Key)), slog.Time("lastModified", *latest.LastModified))
	return aws.ToString(latest.Key), nil
}

func (s S3Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// IsRetryableError reports server side S3 faults, such as throttling or an internal error.
func IsRetryableError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout":
			return true
		}
		return apiErr.ErrorFault() == smithy.FaultServer
	}
	return false
}
