package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/avvvet/tietaja/internal/parser"
	"github.com/spf13/cobra"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and edit stored user memory",
}

var memoryShowCmd = &cobra.Command{
	Use:   "show <user_id>",
	Short: "Print a user's memory record as JSON",
	Long:  `Print the stored record, or the default record when none exists.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()
		return printJSON(cmd.OutOrStdout(), a.Memory.Load(cmd.Context(), args[0]))
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <user_id>",
	Short: "Delete a user's memory record and its backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		deleted, err := a.Memory.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if deleted {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted memory for %s\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "No memory stored for %s\n", args[0])
		}
		return nil
	},
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats <user_id>",
	Short: "Print size and counters of a user's memory record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Memory.Stats(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

var memorySetPrefCmd = &cobra.Command{
	Use:   "set-pref <user_id> <key=value>...",
	Short: "Merge preferences into a user's memory",
	Long: `Merge key=value pairs into the stored preferences. Values are
coerced the same way tool-call arguments are: true/false, numbers and
quoted strings.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefs := map[string]any{}
		for _, pair := range args[1:] {
			kv := parser.ParseKeyValues(pair)
			if len(kv) == 0 {
				return fmt.Errorf("invalid preference %q, expected key=value", pair)
			}
			for k, v := range kv {
				prefs[k] = v
			}
		}

		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		mem, err := a.Memory.UpdatePreferences(cmd.Context(), args[0], prefs)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), mem.Preferences)
	},
}

func init() {
	rootCmd.AddCommand(memoryCmd)
	memoryCmd.AddCommand(memoryShowCmd, memoryDeleteCmd, memoryStatsCmd, memorySetPrefCmd)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
