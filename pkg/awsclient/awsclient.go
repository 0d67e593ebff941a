// Package awsclient loads AWS SDK configuration shared by the AWS-backed
// configuration sources.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Config selects how AWS credentials and region are resolved. The zero value
// uses the SDK's default chain (environment, shared config, IAM role).
type Config struct {
	Region  string `yaml:"region,omitempty"`
	Profile string `yaml:"profile,omitempty"`

	// Endpoint overrides the service endpoint, for LocalStack or testing.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Static credentials, for LocalStack or testing.
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

// Load resolves an aws.Config from c.
func Load(ctx context.Context, c Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// BaseEndpoint returns c.Endpoint as the pointer form used by service Options,
// or nil when no endpoint override is configured.
func (c Config) BaseEndpoint() *string {
	if c.Endpoint == "" {
		return nil
	}
	return aws.String(c.Endpoint)
}
