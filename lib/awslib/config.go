package awslib

import (
	"cmp"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/artie-labs/dwmerge/lib/config"
)

const sessionLabel = "dwmerge"

// LoadConfig builds the AWS config for [settings]. With no keys the default credential chain is used.
// A role ARN is assumed on top of whichever credentials were picked.
func LoadConfig(ctx context.Context, settings config.S3Settings) (aws.Config, error) {
	region := cmp.Or(settings.AwsRegion, os.Getenv("AWS_REGION"))
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}

	if settings.AwsAccessKeyID != "" && settings.AwsSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(settings.AwsAccessKeyID, settings.AwsSecretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	if settings.AwsRoleARN != "" {
		cfg.Credentials = NewRoleCredentials(cfg, settings.AwsRoleARN, sessionLabel)
	}
	return cfg, nil
}
