package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/secretconf/internal/config"
	dserrors "github.com/systmms/secretconf/internal/errors"
	"github.com/systmms/secretconf/internal/metrics"
)

func NewGetCommand(cfg *config.Config, rt *Runtime) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Get a single configuration value",
		Long: `Build the configuration and print the value stored at KEY.

Keys use ':' between segments, for example database:password. By default
only the raw value is printed, making it suitable for scripting. A KEY that
names a section is printed as a JSON object.

Examples:
  # Get a single value
  secretconf get database:password

  # Get a whole section
  secretconf get database --json

  # Use in scripts
  export DB_PASSWORD=$(secretconf get database:password)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			built, err := buildConfiguration(cfg, rt, metrics.NewCollector())
			if err != nil {
				return err
			}

			section := built.Section(key)
			if !section.Exists() {
				suggestion := "Use 'secretconf show' to list the available keys"
				if children := built.Children(); len(children) > 0 && len(children) <= 10 {
					var top []string
					for _, c := range children {
						top = append(top, c.Key())
					}
					suggestion = fmt.Sprintf("Top-level keys: %v", top)
				}
				return dserrors.ConfigError{
					Field:      "key",
					Value:      key,
					Message:    "key not found in the configuration",
					Suggestion: suggestion,
				}
			}

			value, isValue := built.Lookup(key)
			out := cmd.OutOrStdout()

			if !jsonOutput && isValue {
				fmt.Fprint(out, value)
				return nil
			}

			var output interface{} = section.AsMap()
			if isValue {
				output = map[string]interface{}{
					"key":   key,
					"value": value,
				}
			}

			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(output); err != nil {
				return fmt.Errorf("failed to encode JSON: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
