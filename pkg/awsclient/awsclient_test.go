package awsclient_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/secretconf/pkg/awsclient"
)

func isolateSharedConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
}

func TestLoadStaticCredentials(t *testing.T) {
	isolateSharedConfig(t)

	cfg, err := awsclient.Load(context.Background(), awsclient.Config{
		Region:          "eu-west-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
}

func TestLoadDefaultsToEnvironmentRegion(t *testing.T) {
	isolateSharedConfig(t)
	t.Setenv("AWS_REGION", "ap-southeast-2")

	cfg, err := awsclient.Load(context.Background(), awsclient.Config{})
	require.NoError(t, err)
	assert.Equal(t, "ap-southeast-2", cfg.Region)
}

func TestBaseEndpoint(t *testing.T) {
	t.Parallel()

	assert.Nil(t, awsclient.Config{}.BaseEndpoint())

	endpoint := awsclient.Config{Endpoint: "http://localhost:4566"}.BaseEndpoint()
	require.NotNil(t, endpoint)
	assert.Equal(t, "http://localhost:4566", *endpoint)
}
