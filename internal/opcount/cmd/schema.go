package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"opcount/internal/config"
)

// configSchema reflects the JSON schema of the config file.
func configSchema() ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	schema := reflector.Reflect(&config.Config{})
	schema.Title = "opcount configuration"
	return json.MarshalIndent(schema, "", "  ")
}

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate JSON schema for configuration",
	Long:   "Generate JSON schema for the " + config.DefaultFile + " configuration file",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		bts, err := configSchema()
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
