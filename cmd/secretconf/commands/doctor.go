package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/systmms/secretconf/internal/compose"
	"github.com/systmms/secretconf/internal/config"
	dserrors "github.com/systmms/secretconf/internal/errors"
)

func NewDoctorCommand(cfg *config.Config, rt *Runtime) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check secret store connectivity and configuration",
		Long: `Verify that every secret source in secretconf.yaml can be reached.

This command checks:
- Configuration file validity
- AWS caller identity, when an AWS source is configured
- Whether each secret exists, without printing its value

Optional secrets that do not exist are reported but not counted as failures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger.Info("Checking secretconf configuration...")
			if err := cfg.Load(); err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return err
			}
			cfg.Logger.Info("Configuration loaded successfully")

			ctx, cancel := rt.context()
			defer cancel()

			out := cmd.OutOrStdout()

			if usesAWS(cfg.Definition) {
				if err := checkCallerIdentity(ctx, out, cfg, rt); err != nil {
					return err
				}
			}

			results := rt.registry(cfg, nil).Probe(ctx, cfg.Definition)
			if len(results) == 0 {
				cfg.Logger.Warn("No secret store sources configured")
				return nil
			}
			displayProbeResults(out, results, verbose)

			healthy := 0
			for _, result := range results {
				if probeHealthy(result) {
					healthy++
				}
			}

			fmt.Fprintf(out, "\nSummary: %d/%d secret sources healthy\n", healthy, len(results))
			if healthy < len(results) {
				return fmt.Errorf("some secret sources are not healthy")
			}

			cfg.Logger.Info("All secret sources reachable")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show suggestions for failing sources")

	return cmd
}

func usesAWS(def *config.Definition) bool {
	for _, src := range def.Sources {
		if strings.HasPrefix(src.Type, "aws.") {
			return true
		}
	}
	return false
}

func checkCallerIdentity(ctx context.Context, out io.Writer, cfg *config.Config, rt *Runtime) error {
	client, err := rt.stsClient(ctx, cfg.Definition.AWS)
	if err != nil {
		return dserrors.ProviderError("aws", "loading credentials", err)
	}

	identity, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return dserrors.ProviderError("aws", "GetCallerIdentity", err)
	}

	fmt.Fprintf(out, "AWS identity: %s (account %s)\n\n",
		aws.ToString(identity.Arn), aws.ToString(identity.Account))
	return nil
}

func probeHealthy(r compose.ProbeResult) bool {
	switch r.Status {
	case compose.ProbeFound:
		return true
	case compose.ProbeNotFound:
		return r.Source.Optional
	}
	return false
}

// displayProbeResults shows probe results in a formatted table
func displayProbeResults(out io.Writer, results []compose.ProbeResult, verbose bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "SOURCE\tTYPE\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "------\t----\t------\t-------\n")

	for _, result := range results {
		status := string(result.Status)
		var message string

		switch {
		case result.Status == compose.ProbeFound:
			status = "✓ " + status
			message = fmt.Sprintf("%d bytes", result.Size)
			if result.Version != "" {
				message += ", version " + result.Version
			}
		case result.Status == compose.ProbeNotFound && result.Source.Optional:
			status = "- " + status
			message = "optional, skipped"
		case result.Status == compose.ProbeNotFound:
			status = "✗ " + status
			message = "required secret does not exist"
		default:
			status = "✗ " + status
			message = result.Err.Error()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			result.Source.Name, result.Source.Type, status, firstLine(message))
	}

	_ = w.Flush()

	if !verbose {
		return
	}
	for _, result := range results {
		if result.Status != compose.ProbeError {
			continue
		}
		userErr := dserrors.ProviderError(result.Source.Type, "probe", result.Err).(dserrors.UserError)
		if userErr.Suggestion != "" {
			fmt.Fprintf(out, "\n%s (%s) suggestion:\n  • %s\n", result.Source.Name, result.Source.Type, userErr.Suggestion)
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
