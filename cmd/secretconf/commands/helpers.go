package commands

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/systmms/secretconf/internal/compose"
	"github.com/systmms/secretconf/internal/config"
	dserrors "github.com/systmms/secretconf/internal/errors"
	"github.com/systmms/secretconf/internal/metrics"
	"github.com/systmms/secretconf/pkg/awsclient"
	"github.com/systmms/secretconf/pkg/configuration"
	"github.com/systmms/secretconf/pkg/secretfile"
)

// STSClient is the subset of *sts.Client used by doctor.
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Runtime holds dependencies shared by every command. The zero value uses
// the real SDK clients.
type Runtime struct {
	// Timeout bounds configuration builds and probes. Zero means no limit.
	Timeout time.Duration

	// Clients overrides the secret store clients.
	Clients compose.Clients

	// STS creates the client used to show the AWS caller identity.
	STS func(ctx context.Context, c awsclient.Config) (STSClient, error)
}

func (rt *Runtime) context() (context.Context, context.CancelFunc) {
	if rt.Timeout > 0 {
		return context.WithTimeout(context.Background(), rt.Timeout)
	}
	return context.WithCancel(context.Background())
}

func (rt *Runtime) stsClient(ctx context.Context, c awsclient.Config) (STSClient, error) {
	if rt.STS != nil {
		return rt.STS(ctx, c)
	}
	awsCfg, err := awsclient.Load(ctx, c)
	if err != nil {
		return nil, err
	}
	return sts.NewFromConfig(awsCfg, func(o *sts.Options) {
		if endpoint := c.BaseEndpoint(); endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	}), nil
}

func (rt *Runtime) registry(cfg *config.Config, observer secretfile.Observer) *compose.Registry {
	opts := []compose.Option{compose.WithClients(rt.Clients)}
	if cfg.Logger != nil {
		opts = append(opts, compose.WithLogger(cfg.Logger))
	}
	if observer != nil {
		opts = append(opts, compose.WithObserver(observer))
	}
	return compose.NewRegistry(opts...)
}

// failureTracker remembers which store produced the last fetch error.
type failureTracker struct {
	next      secretfile.Observer
	lastStore string
}

func (f *failureTracker) ObserveFetch(store string, outcome secretfile.Outcome, elapsed time.Duration) {
	if outcome == secretfile.OutcomeError {
		f.lastStore = store
	}
	f.next.ObserveFetch(store, outcome, elapsed)
}

// buildConfiguration loads cfg and builds the configuration it describes.
// Failures are returned as user-facing errors.
func buildConfiguration(cfg *config.Config, rt *Runtime, collector *metrics.Collector) (*configuration.Configuration, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}

	tracker := &failureTracker{next: collector}
	b, err := rt.registry(cfg, tracker).Builder(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := rt.context()
	defer cancel()

	built, err := b.Build(ctx)
	collector.ObserveBuild(err)
	if err != nil {
		return nil, buildError(err, tracker.lastStore)
	}

	cfg.Logger.Debug("Built configuration from %d sources", len(built.Providers()))
	return built, nil
}

func buildError(err error, store string) error {
	var parseErr *configuration.ParseError
	if store == "" ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.As(err, &parseErr) ||
		errors.Is(err, configuration.ErrInvalidArgument) {
		return dserrors.BuildError(err)
	}
	return dserrors.ProviderError(store, "fetch", err)
}
