package commands

import (
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretconf/internal/compose"
	"github.com/systmms/secretconf/internal/config"
	"github.com/systmms/secretconf/pkg/gcpsecretmanager"
	"github.com/systmms/secretconf/tests/fakes"
	"github.com/systmms/secretconf/tests/testutil"
)

func newDoctorEnv(t *testing.T) *testEnv {
	t.Helper()
	path := testutil.NewTestConfig(t).
		WithGCP(gcpsecretmanager.Config{ProjectID: "my-project"}).
		WithSource(config.SourceConfig{Type: compose.TypeMemory, Values: map[string]string{"greeting": "hello"}}).
		WithSecret(compose.TypeAWSSecretsManager, "prod/app", false).
		WithSecret(compose.TypeAWSSSM, "/prod/optional", true).
		WithSecret(compose.TypeGCPSecretManager, "app", false).
		WithSecret(compose.TypeAzureKeyVault, "app", false).
		Write()

	env := newTestEnvAt(t, path)
	env.sm.AddSecretString("prod/app", `{"password":"hunter22"}`)
	env.gcp.AddSecretString("my-project", "app", `{"a":"b"}`)
	env.azure.AddSecretString("app", `{"a":"b"}`, "v9")
	return env
}

func TestDoctorCommand_AllHealthy(t *testing.T) {
	t.Parallel()
	env := newDoctorEnv(t)

	stdout, _, err := executeCommand(NewDoctorCommand(env.cfg, env.rt))
	require.NoError(t, err)

	assert.Contains(t, stdout, "AWS identity: arn:aws:iam::123456789012:user/ci (account 123456789012)")
	assert.Contains(t, stdout, "SOURCE")
	assert.Contains(t, stdout, "version v1-abc123")
	assert.Contains(t, stdout, "version v9")
	assert.Contains(t, stdout, "optional, skipped")
	assert.Contains(t, stdout, "Summary: 4/4 secret sources healthy")
	assert.NotContains(t, stdout, "hunter22")
	env.log.AssertContains(t, "All secret sources reachable")
}

func TestDoctorCommand_Unhealthy(t *testing.T) {
	t.Parallel()

	t.Run("store error", func(t *testing.T) {
		env := newDoctorEnv(t)
		env.azure.AddError("app", fakes.AzureForbiddenError())

		stdout, _, err := executeCommand(NewDoctorCommand(env.cfg, env.rt), "--verbose")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not healthy")
		assert.Contains(t, stdout, "Summary: 3/4 secret sources healthy")
		assert.Contains(t, stdout, "Key Vault Secrets User")
	})

	t.Run("required secret missing", func(t *testing.T) {
		env := newTestEnv(t, "version: 1\nsources:\n  - type: aws.secretsmanager\n    name: prod/missing\n")

		stdout, _, err := executeCommand(NewDoctorCommand(env.cfg, env.rt))
		require.Error(t, err)
		assert.Contains(t, stdout, "required secret does not exist")
		assert.Contains(t, stdout, "Summary: 0/1")
	})

	t.Run("caller identity fails", func(t *testing.T) {
		env := newDoctorEnv(t)
		env.sts.Err = &smithy.GenericAPIError{Code: "ExpiredTokenException", Message: "token expired"}

		_, _, err := executeCommand(NewDoctorCommand(env.cfg, env.rt))
		require.Error(t, err)

		var apiErr smithy.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Contains(t, err.Error(), "aws sso login")
	})
}

func TestDoctorCommand_SkipsIdentityWithoutAWS(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "version: 1\nsources:\n  - type: azure.keyvault\n    name: app\n")
	env.azure.AddSecretString("app", `{}`, "1")
	env.sts.Err = errors.New("must not be called")

	stdout, _, err := executeCommand(NewDoctorCommand(env.cfg, env.rt))
	require.NoError(t, err)
	assert.NotContains(t, stdout, "AWS identity")
	assert.Contains(t, stdout, "Summary: 1/1")
}

func TestDoctorCommand_NoSecretSources(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, "version: 1\nsources:\n  - type: env\n    prefix: APP_\n")

	stdout, _, err := executeCommand(NewDoctorCommand(env.cfg, env.rt))
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Summary")
	env.log.AssertContains(t, "No secret store sources configured")
}
