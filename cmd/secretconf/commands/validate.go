package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/systmms/secretconf/internal/config"
	dserrors "github.com/systmms/secretconf/internal/errors"
	"github.com/systmms/secretconf/internal/metrics"
	"github.com/systmms/secretconf/internal/schema"
)

func NewValidateCommand(cfg *config.Config, rt *Runtime) *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the merged configuration",
		Long: `Build the configuration and check that every source resolves.

With --schema the merged tree is also validated against a JSON Schema.
Leaves that spell a boolean or a number are checked as that type, and
sections keyed 0..n-1 are checked as arrays. A relative schema path is
resolved against the directory of secretconf.yaml.

Examples:
  # Check that all sources build
  secretconf validate

  # Check against a schema
  secretconf validate --schema config.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := buildConfiguration(cfg, rt, metrics.NewCollector())
			if err != nil {
				return err
			}
			cfg.Logger.Info("Configuration built from %d sources (%d keys)", len(built.Providers()), len(built.Keys()))

			if schemaPath == "" {
				return nil
			}

			path := schemaPath
			if !filepath.IsAbs(path) {
				path = filepath.Join(cfg.Dir(), path)
			}

			if err := schema.ValidateFile(path, built.AsMap()); err != nil {
				var validationErr *schema.ValidationError
				if errors.As(err, &validationErr) {
					for _, problem := range validationErr.Problems {
						cfg.Logger.Error("%s", problem)
					}
					return dserrors.UserError{
						Message:    fmt.Sprintf("Configuration does not match schema %s", schemaPath),
						Details:    fmt.Sprintf("%d problems found", len(validationErr.Problems)),
						Suggestion: "Fix the values listed above or update the schema",
						Err:        err,
					}
				}
				return dserrors.UserError{
					Message:    "Failed to load schema",
					Details:    err.Error(),
					Suggestion: fmt.Sprintf("Check that %s exists and is valid JSON Schema", schemaPath),
					Err:        err,
				}
			}

			cfg.Logger.Info("Configuration matches schema %s", schemaPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "JSON Schema file to validate against")

	return cmd
}
