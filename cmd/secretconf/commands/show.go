package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/secretconf/internal/config"
	"github.com/systmms/secretconf/internal/logging"
	"github.com/systmms/secretconf/internal/metrics"
)

func NewShowCommand(cfg *config.Config, rt *Runtime) *cobra.Command {
	var (
		reveal      bool
		jsonOutput  bool
		showMetrics bool
		showSources bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the merged configuration",
		Long: `Build the configuration described by secretconf.yaml and print every value.

Values are redacted unless --reveal is given. Sources are merged in the order
they are listed; later sources override earlier ones.

Examples:
  # List every key with redacted values
  secretconf show

  # Print the merged tree as JSON, including values
  secretconf show --json --reveal

  # Include fetch metrics on stderr
  secretconf show --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collector := metrics.NewCollector()
			built, err := buildConfiguration(cfg, rt, collector)
			if showMetrics {
				defer func() {
					_ = collector.WriteText(cmd.ErrOrStderr())
				}()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if showSources {
				for _, p := range built.Providers() {
					fmt.Fprintf(out, "# %s (%d keys)\n", p.Name(), p.Len())
				}
			}

			if jsonOutput {
				tree := built.AsMap()
				if !reveal {
					tree = redactTree(tree)
				}
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(tree); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
				return nil
			}

			keys := built.Keys()
			for _, key := range keys {
				value := built.Get(key)
				if !reveal {
					value = logging.Secret(value).String()
				}
				fmt.Fprintf(out, "%s = %s\n", key, value)
			}
			if len(keys) == 0 {
				cfg.Logger.Warn("Configuration is empty")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print values instead of [REDACTED]")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the nested tree as JSON")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Write fetch metrics to stderr in Prometheus text format")
	cmd.Flags().BoolVar(&showSources, "sources", false, "List the contributing sources first")

	return cmd
}

func redactTree(tree map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(tree))
	for k, v := range tree {
		if child, ok := v.(map[string]interface{}); ok {
			out[k] = redactTree(child)
			continue
		}
		out[k] = logging.Secret("").String()
	}
	return out
}
