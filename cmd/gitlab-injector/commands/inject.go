package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lmazure/GitLabInjector/pkg/engine"
	"github.com/lmazure/GitLabInjector/pkg/gitlab"
	"github.com/lmazure/GitLabInjector/pkg/types"
)

func init() {
	rootCmd.AddCommand(injectCmd)
	injectCmd.Flags().StringP("file", "f", "", "The structure definition file to inject")
	injectCmd.MarkFlagRequired("file")
	injectCmd.Flags().String("parent-group", "", "Full path of an existing group to nest top-level groups under")
	injectCmd.Flags().Bool("dry-run", false, "Walk the document without creating anything")
}

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Inject a structure definition into GitLab",
	Long: `Inject a structure definition from a YAML file, creating the described
groups, projects, labels, epics, iterations, milestones, issues and members
on the target GitLab instance. Exit code is non-zero if any creation failed;
reference-resolution warnings alone do not change it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")

		raw, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var doc types.Document
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to unmarshal YAML: %w", err)
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		parentGroup, _ := cmd.Flags().GetString("parent-group")

		// A dry run never touches the remote, so it works without a token.
		var client engine.GitLabClient
		if !dryRun {
			token := viper.GetString("token")
			if token == "" {
				return fmt.Errorf("a GitLab token is required. Set it via --token flag, GITLAB_INJECTOR_TOKEN environment variable, or config file")
			}
			gl, err := gitlab.NewClient(viper.GetString("url"), token)
			if err != nil {
				return fmt.Errorf("failed to create gitlab client: %w", err)
			}
			user, err := gl.CurrentUser(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to authenticate against %s: %w", viper.GetString("url"), err)
			}
			slog.Info("connected to GitLab", "username", user.Username)
			client = gl
		}

		report, err := engine.Inject(cmd.Context(), client, doc, engine.Options{
			ParentGroup: parentGroup,
			DryRun:      dryRun,
		})
		if err != nil {
			var confErr *engine.ConfigurationError
			if errors.As(err, &confErr) {
				fmt.Fprintf(os.Stderr, "Validation failed with %d problem(s):\n", len(confErr.Problems))
				for i, problem := range confErr.Problems {
					fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, problem)
				}
				os.Exit(1)
			}
			return err
		}

		fmt.Println(report)
		if breakdown := report.Breakdown(); breakdown != "" {
			fmt.Println(breakdown)
		}
		for _, warning := range report.Warnings {
			fmt.Println("warning:", warning)
		}
		for _, failure := range report.Errors {
			fmt.Println("error:", failure)
		}
		if report.HasFailures() {
			return fmt.Errorf("injection finished with %d failed creation(s)", len(report.Errors))
		}
		return nil
	},
}
