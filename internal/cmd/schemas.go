package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Manage the tools offered to the model",
}

var schemasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom tool schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		for _, s := range a.Schemas.List() {
			line := fmt.Sprintf("%-20s %s", s.Function.Name, s.Function.Description)
			if required := s.Required(); len(required) > 0 {
				line += fmt.Sprintf(" (required: %s)", strings.Join(required, ", "))
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var schemasInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in schemas into SCHEMAS_DIR as a starting point",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Schemas.WriteDefaults(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schemas written to %s\n", a.Config.SchemasDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemasCmd)
	schemasCmd.AddCommand(schemasListCmd, schemasInitCmd)
}
