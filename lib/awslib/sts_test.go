package awslib

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSTS struct {
	calls  int
	input  *sts.AssumeRoleInput
	output *sts.AssumeRoleOutput
	err    error
}

func (f *fakeSTS) AssumeRole(_ context.Context, params *sts.AssumeRoleInput, _ ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	f.calls++
	f.input = params
	return f.output, f.err
}

func TestRoleProvider_Retrieve(t *testing.T) {
	ctx := context.Background()
	expiresAt := time.Now().Add(time.Hour).UTC()
	{
		client := &fakeSTS{output: &sts.AssumeRoleOutput{Credentials: &types.Credentials{
			AccessKeyId:     aws.String("key"),
			SecretAccessKey: aws.String("secret"),
			SessionToken:    aws.String("token"),
			Expiration:      aws.Time(expiresAt),
		}}}
		provider := RoleProvider{client: client, roleARN: "arn:aws:iam::123:role/dumps", sessionName: "dwmerge"}
		creds, err := provider.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "key", creds.AccessKeyID)
		assert.Equal(t, "token", creds.SessionToken)
		assert.True(t, creds.CanExpire)
		assert.Equal(t, expiresAt, creds.Expires)
		assert.Equal(t, "arn:aws:iam::123:role/dumps", aws.ToString(client.input.RoleArn))
		assert.Equal(t, "dwmerge", aws.ToString(client.input.RoleSessionName))
	}
	{
		// Failure
		provider := RoleProvider{client: &fakeSTS{err: errors.New("access denied")}, roleARN: "arn:aws:iam::123:role/dumps"}
		_, err := provider.Retrieve(ctx)
		assert.ErrorContains(t, err, `failed to assume role "arn:aws:iam::123:role/dumps": access denied`)
	}
	{
		// No credentials in the response
		provider := RoleProvider{client: &fakeSTS{output: &sts.AssumeRoleOutput{}}, roleARN: "role"}
		_, err := provider.Retrieve(ctx)
		assert.ErrorContains(t, err, `assume role "role" returned no credentials`)
	}
}

func TestRoleProvider_Cached(t *testing.T) {
	client := &fakeSTS{output: &sts.AssumeRoleOutput{Credentials: &types.Credentials{
		AccessKeyId: aws.String("key"),
		Expiration:  aws.Time(time.Now().Add(time.Hour)),
	}}}
	cache := aws.NewCredentialsCache(RoleProvider{client: client, roleARN: "role"}, func(opts *aws.CredentialsCacheOptions) {
		opts.ExpiryWindow = expiryWindow
	})

	for range 3 {
		_, err := cache.Retrieve(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, client.calls)
}
