package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretconf/internal/compose"
	"github.com/systmms/secretconf/internal/config"
	"github.com/systmms/secretconf/pkg/awsclient"
	"github.com/systmms/secretconf/pkg/awssecretsmanager"
	"github.com/systmms/secretconf/pkg/awsssm"
	"github.com/systmms/secretconf/pkg/azurekeyvault"
	"github.com/systmms/secretconf/pkg/gcpsecretmanager"
	"github.com/systmms/secretconf/tests/fakes"
	"github.com/systmms/secretconf/tests/testutil"
)

type testEnv struct {
	cfg   *config.Config
	rt    *Runtime
	log   *testutil.TestLogger
	sm    *fakes.FakeSecretsManagerClient
	ssm   *fakes.FakeSSMClient
	gcp   *fakes.FakeGCPSecretManagerClient
	azure *fakes.FakeAzureKeyVaultClient
	sts   *fakes.FakeSTSClient
}

// newTestEnv writes configYAML to a temp dir and wires every store to a fake.
func newTestEnv(t *testing.T, configYAML string) *testEnv {
	t.Helper()
	return newTestEnvAt(t, testutil.WriteTestConfig(t, configYAML))
}

func newTestEnvAt(t *testing.T, path string) *testEnv {
	t.Helper()

	env := &testEnv{
		log:   testutil.NewTestLogger(t),
		sm:    fakes.NewFakeSecretsManagerClient(),
		ssm:   fakes.NewFakeSSMClient(),
		gcp:   fakes.NewFakeGCPSecretManagerClient(),
		azure: fakes.NewFakeAzureKeyVaultClient(),
		sts:   &fakes.FakeSTSClient{Account: "123456789012", Arn: "arn:aws:iam::123456789012:user/ci"},
	}
	env.cfg = &config.Config{
		Path:   path,
		Logger: env.log.Logger,
	}
	env.rt = &Runtime{
		Clients: compose.Clients{
			SecretsManager: func(context.Context) (awssecretsmanager.Client, error) { return env.sm, nil },
			SSM:            func(context.Context) (awsssm.Client, error) { return env.ssm, nil },
			GCP:            func(context.Context) (gcpsecretmanager.Client, error) { return env.gcp, nil },
			Azure:          func(context.Context) (azurekeyvault.Client, error) { return env.azure, nil },
		},
		STS: func(context.Context, awsclient.Config) (STSClient, error) { return env.sts, nil },
	}
	return env
}

func (e *testEnv) writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.cfg.Dir(), name), []byte(content), 0644))
}

func executeCommand(cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}
