package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// FakeAzureKeyVaultClient is an in-memory stand-in for *azsecrets.Client
type FakeAzureKeyVaultClient struct {
	// Secrets maps secret names to their current version
	Secrets map[string]*AzureSecretData
	// Errors maps secret names to errors to return
	Errors map[string]error
	// GetSecretFunc allows custom behavior for GetSecret
	GetSecretFunc func(ctx context.Context, name string, version string) (azsecrets.GetSecretResponse, error)

	mu    sync.Mutex
	calls []AzureGetSecretCall
}

// AzureSecretData holds the current version of a fake Key Vault secret
type AzureSecretData struct {
	Value      *string
	ID         *string
	Attributes *azsecrets.SecretAttributes
}

// AzureGetSecretCall records the arguments of one GetSecret call
type AzureGetSecretCall struct {
	Name    string
	Version string
}

// NewFakeAzureKeyVaultClient creates an empty fake Azure Key Vault client
func NewFakeAzureKeyVaultClient() *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		Secrets: make(map[string]*AzureSecretData),
		Errors:  make(map[string]error),
	}
}

// AddSecretString adds a string secret whose current version is version
func (f *FakeAzureKeyVaultClient) AddSecretString(name, value, version string) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	updated := created.Add(time.Hour)
	f.Secrets[name] = &AzureSecretData{
		Value: to.Ptr(value),
		ID:    to.Ptr(fmt.Sprintf("https://test-vault.vault.azure.net/secrets/%s/%s", name, version)),
		Attributes: &azsecrets.SecretAttributes{
			Enabled:       to.Ptr(true),
			Created:       &created,
			Updated:       &updated,
			RecoveryLevel: to.Ptr("Recoverable+Purgeable"),
		},
	}
}

// AddError configures the fake to return an error for a specific secret
func (f *FakeAzureKeyVaultClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// Calls returns the GetSecret calls received so far
func (f *FakeAzureKeyVaultClient) Calls() []AzureGetSecretCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AzureGetSecretCall(nil), f.calls...)
}

// GetSecret fakes the GetSecret operation
func (f *FakeAzureKeyVaultClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, AzureGetSecretCall{Name: name, Version: version})
	f.mu.Unlock()

	if f.GetSecretFunc != nil {
		return f.GetSecretFunc(ctx, name, version)
	}

	if err, exists := f.Errors[name]; exists {
		return azsecrets.GetSecretResponse{}, err
	}

	data, exists := f.Secrets[name]
	if !exists {
		return azsecrets.GetSecretResponse{}, AzureNotFoundError(name)
	}

	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{
			ID:         (*azsecrets.ID)(data.ID),
			Value:      data.Value,
			Attributes: data.Attributes,
		},
	}, nil
}

// AzureNotFoundError creates an Azure not found error
func AzureNotFoundError(secretName string) error {
	return &azcore.ResponseError{
		StatusCode: 404,
		ErrorCode:  "SecretNotFound",
	}
}

// AzureForbiddenError creates an Azure forbidden error
func AzureForbiddenError() error {
	return &azcore.ResponseError{
		StatusCode: 403,
		ErrorCode:  "Forbidden",
	}
}

// AzureThrottledError creates an Azure throttled error
func AzureThrottledError() error {
	return &azcore.ResponseError{
		StatusCode: 429,
		ErrorCode:  "TooManyRequests",
	}
}
