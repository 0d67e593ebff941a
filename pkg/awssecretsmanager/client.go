package awssecretsmanager

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/systmms/secretconf/pkg/awsclient"
	"github.com/systmms/secretconf/pkg/secretfile"
)

// StoreName identifies Secrets Manager in logs and metrics.
const StoreName = "aws.secretsmanager"

// CurrentStage is the staging label of the version every fetch requests.
const CurrentStage = "AWSCURRENT"

// Client is the subset of *secretsmanager.Client used by this package.
type Client interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ClientFactory creates the client used when none is supplied.
type ClientFactory func(ctx context.Context) (Client, error)

// DefaultClientFactory returns a factory resolving credentials and region
// from c and the ambient AWS configuration chain.
func DefaultClientFactory(c awsclient.Config) ClientFactory {
	return func(ctx context.Context) (Client, error) {
		cfg, err := awsclient.Load(ctx, c)
		if err != nil {
			return nil, err
		}
		return secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
			if endpoint := c.BaseEndpoint(); endpoint != nil {
				o.BaseEndpoint = endpoint
			}
		}), nil
	}
}

type fetcher struct {
	client Client
}

func (f fetcher) Fetch(ctx context.Context, name string) (secretfile.Payload, bool, error) {
	out, err := f.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(name),
		VersionStage: aws.String(CurrentStage),
	})
	if err != nil {
		if isNotFoundError(err) {
			return secretfile.Payload{}, false, nil
		}
		return secretfile.Payload{}, false, err
	}

	return secretfile.Payload{
		Name:      aws.ToString(out.Name),
		Text:      out.SecretString,
		Binary:    out.SecretBinary,
		CreatedAt: aws.ToTime(out.CreatedDate),
		Version:   aws.ToString(out.VersionId),
	}, true, nil
}

func isNotFoundError(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}

// NewFileProvider returns a file provider that resolves each name to the
// AWSCURRENT version of the secret with that name.
func NewFileProvider(client Client, opts ...secretfile.Option) *secretfile.Provider {
	return secretfile.NewProvider(StoreName, fetcher{client: client}, opts...)
}
