package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// FakeSecretsManagerClient is an in-memory stand-in for *secretsmanager.Client.
// It records every GetSecretValue input it receives.
type FakeSecretsManagerClient struct {
	// Secrets maps secret names to their current version
	Secrets map[string]*SecretData
	// Errors maps secret names to errors to return
	Errors map[string]error
	// GetSecretValueFunc allows custom behavior for GetSecretValue
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)

	mu    sync.Mutex
	calls []*secretsmanager.GetSecretValueInput
}

// SecretData holds the current version of a fake secret
type SecretData struct {
	SecretString  *string
	SecretBinary  []byte
	VersionId     *string
	VersionStages []string
	CreatedDate   *time.Time
}

// NewFakeSecretsManagerClient creates an empty fake Secrets Manager client
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]*SecretData),
		Errors:  make(map[string]error),
	}
}

// AddSecret adds a secret to the fake client
func (f *FakeSecretsManagerClient) AddSecret(name string, data *SecretData) {
	f.Secrets[name] = data
}

// AddSecretString adds a string secret to the fake client
func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	f.Secrets[name] = currentVersion(&SecretData{SecretString: aws.String(value)})
}

// AddSecretBinary adds a binary secret to the fake client
func (f *FakeSecretsManagerClient) AddSecretBinary(name string, value []byte) {
	f.Secrets[name] = currentVersion(&SecretData{SecretBinary: value})
}

func currentVersion(data *SecretData) *SecretData {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	data.VersionId = aws.String("v1-abc123")
	data.VersionStages = []string{"AWSCURRENT"}
	data.CreatedDate = &created
	return data
}

// AddError configures the fake to return an error for a specific secret
func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// Calls returns the GetSecretValue inputs received so far
func (f *FakeSecretsManagerClient) Calls() []*secretsmanager.GetSecretValueInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*secretsmanager.GetSecretValueInput(nil), f.calls...)
}

// GetSecretValue fakes the GetSecretValue operation
func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	f.mu.Unlock()

	if f.GetSecretValueFunc != nil {
		return f.GetSecretValueFunc(ctx, params)
	}

	secretName := aws.ToString(params.SecretId)

	if err, exists := f.Errors[secretName]; exists {
		return nil, err
	}

	data, exists := f.Secrets[secretName]
	if !exists {
		return nil, SecretsManagerNotFoundError(secretName)
	}

	return &secretsmanager.GetSecretValueOutput{
		ARN:           aws.String(fmt.Sprintf("arn:aws:secretsmanager:us-east-1:123456789012:secret:%s", secretName)),
		Name:          params.SecretId,
		SecretString:  data.SecretString,
		SecretBinary:  data.SecretBinary,
		VersionId:     data.VersionId,
		VersionStages: data.VersionStages,
		CreatedDate:   data.CreatedDate,
	}, nil
}

// SecretsManagerNotFoundError returns the error the SDK reports for a missing secret
func SecretsManagerNotFoundError(secretName string) error {
	return &types.ResourceNotFoundException{
		Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", secretName)),
	}
}

// FakeSSMClient is an in-memory stand-in for *ssm.Client
type FakeSSMClient struct {
	// Parameters maps parameter names to their data
	Parameters map[string]*ParameterData
	// Errors maps parameter names to errors to return
	Errors map[string]error
	// GetParameterFunc allows custom behavior for GetParameter
	GetParameterFunc func(ctx context.Context, params *ssm.GetParameterInput) (*ssm.GetParameterOutput, error)

	mu    sync.Mutex
	calls []*ssm.GetParameterInput
}

// ParameterData holds the data for a fake SSM parameter
type ParameterData struct {
	Name             *string
	Type             ssmtypes.ParameterType
	Value            *string
	Version          int64
	LastModifiedDate *time.Time
	ARN              *string
}

// NewFakeSSMClient creates an empty fake SSM client
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]*ParameterData),
		Errors:     make(map[string]error),
	}
}

// AddSecureStringParameter adds a SecureString parameter to the fake client
func (f *FakeSSMClient) AddSecureStringParameter(name, value string) {
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f.Parameters[name] = &ParameterData{
		Name:             aws.String(name),
		Type:             ssmtypes.ParameterTypeSecureString,
		Value:            aws.String(value),
		Version:          3,
		LastModifiedDate: &modified,
		ARN:              aws.String(fmt.Sprintf("arn:aws:ssm:us-east-1:123456789012:parameter%s", name)),
	}
}

// AddError configures the fake to return an error for a specific parameter
func (f *FakeSSMClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// Calls returns the GetParameter inputs received so far
func (f *FakeSSMClient) Calls() []*ssm.GetParameterInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*ssm.GetParameterInput(nil), f.calls...)
}

// GetParameter fakes the GetParameter operation
func (f *FakeSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	f.mu.Unlock()

	if f.GetParameterFunc != nil {
		return f.GetParameterFunc(ctx, params)
	}

	paramName := aws.ToString(params.Name)

	if err, exists := f.Errors[paramName]; exists {
		return nil, err
	}

	data, exists := f.Parameters[paramName]
	if !exists {
		return nil, &ssmtypes.ParameterNotFound{
			Message: aws.String(fmt.Sprintf("Parameter %s not found", paramName)),
		}
	}

	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:             data.Name,
			Type:             data.Type,
			Value:            data.Value,
			Version:          data.Version,
			LastModifiedDate: data.LastModifiedDate,
			ARN:              data.ARN,
		},
	}, nil
}

// FakeSTSClient is an in-memory stand-in for *sts.Client
type FakeSTSClient struct {
	Account string
	Arn     string
	UserId  string
	Err     error
}

// GetCallerIdentity fakes the GetCallerIdentity operation
func (f *FakeSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String(f.Account),
		Arn:     aws.String(f.Arn),
		UserId:  aws.String(f.UserId),
	}, nil
}
