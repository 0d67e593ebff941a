package azurekeyvault_test

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/secretconf/pkg/azurekeyvault"
	"github.com/systmms/secretconf/pkg/configuration"
	"github.com/systmms/secretconf/tests/fakes"
)

const (
	secretName  = "app-config"
	testPayload = `{"key":"value","section":{"subkey":"subvalue"}}`
)

func TestSecretSource(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeAzureKeyVaultClient()
	client.AddSecretString(secretName, testPayload, "0123abcd")

	cfg, err := azurekeyvault.AddWithClient(configuration.NewBuilder(), secretName, false, client).
		Build(context.Background())
	require.NoError(t, err)

	assert.Len(t, cfg.Entries(), 3)
	assert.Len(t, cfg.Children(), 2)
	assert.Equal(t, "value", cfg.Get("key"))
	assert.Equal(t, "subvalue", cfg.Get("section:subkey"))

	assert.Equal(t, []fakes.AzureGetSecretCall{{Name: secretName, Version: ""}}, client.Calls(),
		"reads the current version")
}

func TestFileInfoMetadata(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeAzureKeyVaultClient()
	client.AddSecretString(secretName, testPayload, "0123abcd")

	info, err := azurekeyvault.NewFileProvider(client).Stat(context.Background(), secretName)
	require.NoError(t, err)
	assert.Equal(t, secretName, info.Name())
	assert.Equal(t, time.Date(2024, 1, 2, 4, 4, 5, 0, time.UTC), info.ModTime(), "uses the updated time")

	versioned, ok := info.(interface{ Version() string })
	require.True(t, ok)
	assert.Equal(t, "0123abcd", versioned.Version())
}

func TestMissingSecret(t *testing.T) {
	t.Parallel()

	client := fakes.NewFakeAzureKeyVaultClient()

	_, err := azurekeyvault.AddWithClient(configuration.NewBuilder(), secretName, false, client).
		Build(context.Background())
	assert.ErrorIs(t, err, fs.ErrNotExist)

	cfg, err := azurekeyvault.AddWithClient(configuration.NewBuilder(), secretName, true, client).
		Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cfg.Entries())
}

func TestStoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	for _, storeErr := range []error{fakes.AzureForbiddenError(), fakes.AzureThrottledError()} {
		client := fakes.NewFakeAzureKeyVaultClient()
		client.AddError(secretName, storeErr)

		for _, optional := range []bool{false, true} {
			_, err := azurekeyvault.AddWithClient(configuration.NewBuilder(), secretName, optional, client).
				Build(context.Background())
			assert.Same(t, storeErr, err)
		}
	}
}

func TestDefaultClientFactoryValidatesVaultURL(t *testing.T) {
	t.Parallel()

	_, err := azurekeyvault.NewSource(secretName, false)
	assert.ErrorIs(t, err, configuration.ErrInvalidArgument)

	_, err = azurekeyvault.NewSource(secretName, false,
		azurekeyvault.WithConfig(azurekeyvault.Config{VaultURL: "not a url"}))
	assert.ErrorIs(t, err, configuration.ErrInvalidArgument)

	_, err = azurekeyvault.NewSource("", false, azurekeyvault.WithClient(fakes.NewFakeAzureKeyVaultClient()))
	assert.ErrorIs(t, err, configuration.ErrInvalidArgument)
}
