package awsssm_test

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/secretconf/pkg/awsssm"
	"github.com/systmms/secretconf/pkg/configuration"
	"github.com/systmms/secretconf/tests/fakes"
)

const paramName = "/prod/app/config"

func TestParameterSource(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeSSMClient()
	client.AddSecureStringParameter(paramName, `{"key":"value","section":{"subkey":"subvalue"}}`)

	cfg, err := awsssm.AddWithClient(configuration.NewBuilder(), paramName, false, client).
		Build(context.Background())
	require.NoError(t, err)

	assert.Len(t, cfg.Entries(), 3)
	assert.Len(t, cfg.Children(), 2)
	assert.Equal(t, "value", cfg.Get("key"))
	assert.Equal(t, "subvalue", cfg.Get("section:subkey"))

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, paramName, aws.ToString(calls[0].Name))
	assert.True(t, aws.ToBool(calls[0].WithDecryption))
}

func TestMissingParameter(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeSSMClient()

	_, err := awsssm.AddWithClient(configuration.NewBuilder(), paramName, false, client).
		Build(context.Background())
	assert.ErrorIs(t, err, fs.ErrNotExist)

	cfg, err := awsssm.AddWithClient(configuration.NewBuilder(), paramName, true, client).
		Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cfg.Entries())
}

func TestParameterStoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("AccessDeniedException: not authorized")
	client := fakes.NewFakeSSMClient()
	client.AddError(paramName, storeErr)

	for _, optional := range []bool{false, true} {
		_, err := awsssm.AddWithClient(configuration.NewBuilder(), paramName, optional, client).
			Build(context.Background())
		assert.Same(t, storeErr, err)
	}
}

func TestEmptyGetParameterResponseIsAnError(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeSSMClient()
	client.GetParameterFunc = func(context.Context, *ssm.GetParameterInput) (*ssm.GetParameterOutput, error) {
		return &ssm.GetParameterOutput{}, nil
	}

	for _, optional := range []bool{false, true} {
		_, err := awsssm.AddWithClient(configuration.NewBuilder(), paramName, optional, client).
			Build(context.Background())
		require.Error(t, err, "optional=%v", optional)
		assert.ErrorIs(t, err, awsssm.ErrMissingParameter)
		assert.NotErrorIs(t, err, fs.ErrNotExist)
		assert.Contains(t, err.Error(), paramName)
	}
}

func TestParameterFileInfo(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeSSMClient()
	client.AddSecureStringParameter(paramName, `{}`)

	info, err := awsssm.NewFileProvider(client).Stat(context.Background(), paramName)
	require.NoError(t, err)
	assert.True(t, info.Exists())
	assert.Equal(t, paramName, info.Name())
	assert.Equal(t, int64(2), info.Size())
	assert.False(t, info.ModTime().IsZero())
}

func TestNewParameterSource(t *testing.T) {
	t.Parallel()

	_, err := awsssm.NewSource("", false, awsssm.WithClient(fakes.NewFakeSSMClient()))
	assert.ErrorIs(t, err, configuration.ErrInvalidArgument)

	factoryErr := errors.New("no region")
	_, err = awsssm.NewSource(paramName, false, awsssm.WithClientFactory(
		func(context.Context) (awsssm.Client, error) { return nil, factoryErr }))
	assert.ErrorIs(t, err, factoryErr)

	_, err = awsssm.AddWithClient(configuration.NewBuilder(), paramName, false, nil).Build(context.Background())
	assert.ErrorIs(t, err, configuration.ErrInvalidArgument)
}
