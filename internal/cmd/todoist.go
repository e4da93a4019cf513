package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var todoistCmd = &cobra.Command{
	Use:   "todoist",
	Short: "Todoist integration commands",
}

var todoistCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the Todoist token by listing projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		result := a.Todoist.GetProjects(cmd.Context())
		if !result.Success {
			return errors.New(result.Error)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Todoist connection OK, %d project(s)\n", len(result.Projects))
		for _, p := range result.Projects {
			fmt.Fprintf(out, "  %s  %s\n", p.ID, p.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(todoistCmd)
	todoistCmd.AddCommand(todoistCheckCmd)
}
