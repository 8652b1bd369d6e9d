package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lmazure/GitLabInjector/pkg/engine"
	"github.com/lmazure/GitLabInjector/pkg/types"
)

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("file", "f", "", "The structure definition file to validate")
	validateCmd.MarkFlagRequired("file")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a structure definition without making any changes",
	Long: `Validate a structure definition YAML file for correctness: required
fields, color formats, state and role enums, dates, and nesting depth.
Reference ordering is not checked here; use 'inject --dry-run' to see which
references would resolve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")

		raw, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var doc types.Document
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("invalid YAML: %w", err)
		}

		errs := engine.ValidateDocument(doc)
		if len(errs) > 0 {
			fmt.Fprintf(os.Stderr, "Validation failed with %d problem(s):\n", len(errs))
			for i, e := range errs {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, e)
			}
			os.Exit(1)
		}

		fmt.Println("Structure definition is valid.")
		return nil
	},
}
