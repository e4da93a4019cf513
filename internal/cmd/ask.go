package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avvvet/tietaja/internal/models"
	"github.com/avvvet/tietaja/internal/parser"
	"github.com/spf13/cobra"
)

var (
	askUser    string
	askContext string
	askVerbose bool
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Run one conversation turn locally",
	Long: `Send a single message through the full turn: completion, action
execution, follow-up completion and memory update. The reply is printed
to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askUser, "user", "u", "default", "User identity whose memory is used")
	askCmd.Flags().StringVar(&askContext, "context", "", "Extra request context as a JSON object")
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "Also print detected tool calls and their results")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	chat, err := a.ChatHandler()
	if err != nil {
		return err
	}

	request := &models.ChatRequest{
		UserInput: strings.Join(args, " "),
		UserID:    askUser,
	}
	if askContext != "" {
		if err := json.Unmarshal([]byte(askContext), &request.Context); err != nil {
			return fmt.Errorf("invalid --context: %w", err)
		}
	}

	response, err := chat.HandleAsk(cmd.Context(), request)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if askVerbose && response.Metadata != nil {
		fmt.Fprintln(out, parser.Format(response.Metadata.ToolCalls))
		for _, result := range response.Metadata.ToolResults {
			data, _ := json.Marshal(result.Outcome)
			fmt.Fprintf(out, "  %s -> %s\n", result.Action, data)
		}
		if len(response.ToolsUsed) > 0 {
			fmt.Fprintf(out, "Tools used: %s\n", strings.Join(response.ToolsUsed, ", "))
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, response.Response)
	return nil
}
