package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lmazure/GitLabInjector/pkg/gitlab"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Display information about the authenticated GitLab user",
	Long:  `Display information about the GitLab user the configured token authenticates as.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token := viper.GetString("token")
		if token == "" {
			return fmt.Errorf("a GitLab token is required. Set it via --token flag, GITLAB_INJECTOR_TOKEN environment variable, or config file")
		}

		client, err := gitlab.NewClient(viper.GetString("url"), token)
		if err != nil {
			return fmt.Errorf("failed to create gitlab client: %w", err)
		}
		user, err := client.CurrentUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get authenticated user: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Logged in as: %s\n", user.Username)
		if user.Name != "" {
			fmt.Fprintf(os.Stdout, "Name: %s\n", user.Name)
		}
		if user.Email != "" {
			fmt.Fprintf(os.Stdout, "Email: %s\n", user.Email)
		}

		return nil
	},
}
