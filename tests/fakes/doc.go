// Package fakes provides test doubles for the secret store SDK clients.
//
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior. Each one records the requests it receives so tests can
// assert on version selection and fetch counts.
//
// Usage:
//
//	fake := fakes.NewFakeSecretsManagerClient()
//	fake.AddSecretString("prod/app", `{"db":{"host":"localhost"}}`)
//	b := awssecretsmanager.AddWithClient(configuration.NewBuilder(), "prod/app", false, fake)
//	cfg, err := b.Build(ctx)
package fakes
