package awslib

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// expiryWindow is how long before expiry the cached role credentials are refreshed.
const expiryWindow = 10 * time.Minute

type assumeRoleAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// RoleProvider assumes [roleARN] on every Retrieve. Wrap it in [aws.NewCredentialsCache], see [NewRoleCredentials].
type RoleProvider struct {
	client      assumeRoleAPI
	roleARN     string
	sessionName string
}

// NewRoleCredentials returns cached credentials for [roleARN], assumed with the credentials of [base].
func NewRoleCredentials(base aws.Config, roleARN, sessionName string) *aws.CredentialsCache {
	provider := RoleProvider{client: sts.NewFromConfig(base), roleARN: roleARN, sessionName: sessionName}
	return aws.NewCredentialsCache(provider, func(opts *aws.CredentialsCacheOptions) {
		opts.ExpiryWindow = expiryWindow
	})
}

// Retrieve implements [aws.CredentialsProvider].
func (r RoleProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	out, err := r.client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(r.roleARN),
		RoleSessionName: aws.String(r.sessionName),
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("failed to assume role %q: %w", r.roleARN, err)
	}
	if out.Credentials == nil {
		return aws.Credentials{}, fmt.Errorf("assume role %q returned no credentials", r.roleARN)
	}

	creds := aws.Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Source:          "AssumeRole",
	}
	if out.Credentials.Expiration != nil {
		creds.CanExpire = true
		creds.Expires = *out.Credentials.Expiration
	}
	return creds, nil
}
