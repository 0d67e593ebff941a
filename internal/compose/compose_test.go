package compose_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretconf/internal/compose"
	"github.com/systmms/secretconf/internal/config"
	"github.com/systmms/secretconf/pkg/awssecretsmanager"
	"github.com/systmms/secretconf/pkg/awsssm"
	"github.com/systmms/secretconf/pkg/azurekeyvault"
	"github.com/systmms/secretconf/pkg/gcpsecretmanager"
	"github.com/systmms/secretconf/pkg/secretfile"
	"github.com/systmms/secretconf/tests/fakes"
)

type testFakes struct {
	sm    *fakes.FakeSecretsManagerClient
	ssm   *fakes.FakeSSMClient
	gcp   *fakes.FakeGCPSecretManagerClient
	azure *fakes.FakeAzureKeyVaultClient
}

func newFakes() *testFakes {
	return &testFakes{
		sm:    fakes.NewFakeSecretsManagerClient(),
		ssm:   fakes.NewFakeSSMClient(),
		gcp:   fakes.NewFakeGCPSecretManagerClient(),
		azure: fakes.NewFakeAzureKeyVaultClient(),
	}
}

func (f *testFakes) clients() compose.Clients {
	return compose.Clients{
		SecretsManager: func(context.Context) (awssecretsmanager.Client, error) { return f.sm, nil },
		SSM:            func(context.Context) (awsssm.Client, error) { return f.ssm, nil },
		GCP:            func(context.Context) (gcpsecretmanager.Client, error) { return f.gcp, nil },
		Azure:          func(context.Context) (azurekeyvault.Client, error) { return f.azure, nil },
	}
}

func loadedConfig(t *testing.T, def *config.Definition) *config.Config {
	t.Helper()
	def.Version = config.CurrentVersion
	return &config.Config{Path: filepath.Join(t.TempDir(), "secretconf.yaml"), Definition: def}
}

type countingObserver struct {
	fetches map[string]int
}

func (c *countingObserver) ObserveFetch(store string, _ secretfile.Outcome, _ time.Duration) {
	c.fetches[store]++
}

func TestBuilderLayersAllSourceTypes(t *testing.T) {
	f := newFakes()
	f.sm.AddSecretString("prod/app", `{"database":{"host":"sm-host","password":"sm-pass"},"from":"sm"}`)
	f.ssm.AddSecureStringParameter("/prod/app", `{"from":"ssm","ssm":{"only":"1"}}`)
	f.gcp.AddSecretString("my-project", "app", `{"from":"gcp","gcp":true}`)
	f.azure.AddSecretString("app", `{"from":"azure","features":["a","b"]}`, "v9")

	cfg := loadedConfig(t, &config.Definition{
		GCP: gcpsecretmanager.Config{ProjectID: "my-project"},
		Sources: []config.SourceConfig{
			{Type: compose.TypeMemory, Values: map[string]string{"from": "memory", "logging:level": "info"}},
			{Type: compose.TypeJSON, Path: "appsettings.json"},
			{Type: compose.TypeAWSSecretsManager, Name: "prod/app"},
			{Type: compose.TypeAWSSSM, Name: "/prod/app"},
			{Type: compose.TypeGCPSecretManager, Name: "app"},
			{Type: compose.TypeAzureKeyVault, Name: "app"},
			{Type: compose.TypeAWSSecretsManager, Name: "prod/missing", Optional: true},
			{Type: compose.TypeEnv, Prefix: "SECRETCONF_TEST_"},
		},
	})
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Dir(), "appsettings.json"),
		[]byte(`{"logging":{"level":"warn"},"from":"json"}`), 0644))
	t.Setenv("SECRETCONF_TEST_database__host", "env-host")

	observer := &countingObserver{fetches: map[string]int{}}
	b, err := compose.NewRegistry(compose.WithClients(f.clients()), compose.WithObserver(observer)).Builder(cfg)
	require.NoError(t, err)

	built, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "azure", built.Get("from"), "later sources win")
	assert.Equal(t, "warn", built.Get("logging:level"))
	assert.Equal(t, "env-host", built.Get("database:host"))
	assert.Equal(t, "sm-pass", built.Get("database:password"))
	assert.Equal(t, "1", built.Get("ssm:only"))
	assert.Equal(t, "true", built.Get("gcp"))
	assert.Equal(t, "b", built.Get("features:1"))
	assert.Len(t, built.Providers(), 8)

	assert.Equal(t, map[string]int{
		awssecretsmanager.StoreName: 2,
		awsssm.StoreName:            1,
		gcpsecretmanager.StoreName:  1,
		azurekeyvault.StoreName:     1,
	}, observer.fetches)
}

func TestBuilderValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source config.SourceConfig
		want   string
	}{
		{name: "unknown type", source: config.SourceConfig{Type: "vault", Name: "x"}, want: "unsupported source type"},
		{name: "secret without name", source: config.SourceConfig{Type: compose.TypeAWSSecretsManager}, want: "sources[0].name"},
		{name: "json without path", source: config.SourceConfig{Type: compose.TypeJSON}, want: "sources[0].path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadedConfig(t, &config.Definition{Sources: []config.SourceConfig{tt.source}})
			_, err := compose.NewRegistry(compose.WithClients(newFakes().clients())).Builder(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("not loaded", func(t *testing.T) {
		_, err := compose.NewRegistry().Builder(&config.Config{})
		assert.Error(t, err)
	})
}

func TestBuilderRequiredSecretMissing(t *testing.T) {
	t.Parallel()

	cfg := loadedConfig(t, &config.Definition{Sources: []config.SourceConfig{
		{Type: compose.TypeAWSSecretsManager, Name: "prod/missing"},
	}})
	b, err := compose.NewRegistry(compose.WithClients(newFakes().clients())).Builder(cfg)
	require.NoError(t, err)

	_, err = b.Build(context.Background())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestBuilderGCPWithoutProject(t *testing.T) {
	t.Parallel()

	f := newFakes()
	cfg := loadedConfig(t, &config.Definition{Sources: []config.SourceConfig{
		{Type: compose.TypeGCPSecretManager, Name: "app"},
	}})
	b, err := compose.NewRegistry(compose.WithClients(f.clients())).Builder(cfg)
	require.NoError(t, err)

	_, err = b.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project ID is required")
	assert.Empty(t, f.gcp.Calls())
}

func TestSupportedTypes(t *testing.T) {
	t.Parallel()

	r := compose.NewRegistry()
	assert.Equal(t, []string{
		"aws.secretsmanager", "aws.ssm", "azure.keyvault", "env", "gcp.secretmanager", "json", "memory",
	}, r.GetSupportedTypes())
	assert.True(t, r.IsSupported("aws.ssm"))
	assert.False(t, r.IsSupported("vault"))
	assert.True(t, compose.IsSecretStore("azure.keyvault"))
	assert.False(t, compose.IsSecretStore("json"))
}

func TestProbe(t *testing.T) {
	t.Parallel()

	f := newFakes()
	f.sm.AddSecretString("prod/app", `{"password":"hunter22"}`)
	storeErr := errors.New("AccessDeniedException")
	f.ssm.AddError("/denied", storeErr)

	def := &config.Definition{Sources: []config.SourceConfig{
		{Type: compose.TypeMemory, Values: map[string]string{"a": "b"}},
		{Type: compose.TypeAWSSecretsManager, Name: "prod/app"},
		{Type: compose.TypeAWSSecretsManager, Name: "prod/missing", Optional: true},
		{Type: compose.TypeAWSSSM, Name: "/denied"},
		{Type: compose.TypeGCPSecretManager, Name: "app"},
	}}

	results := compose.NewRegistry(compose.WithClients(f.clients())).Probe(context.Background(), def)
	require.Len(t, results, 4, "non-secret sources are skipped")

	assert.Equal(t, compose.ProbeFound, results[0].Status)
	assert.Equal(t, "v1-abc123", results[0].Version)
	assert.Equal(t, int64(len(`{"password":"hunter22"}`)), results[0].Size)

	assert.Equal(t, compose.ProbeNotFound, results[1].Status)

	assert.Equal(t, compose.ProbeError, results[2].Status)
	assert.Same(t, storeErr, results[2].Err)

	assert.Equal(t, compose.ProbeError, results[3].Status, "missing project ID")
}
