package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avvvet/tietaja/internal/transport"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chat and memory requests over NATS",
	Long: `Connect to NATS and answer requests on the ask and memory subjects
until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.Config
	logger := a.Logger
	logger.Info("starting service",
		"service", cfg.ServiceName,
		"provider", cfg.LLMProvider,
		"model", cfg.LLMModel(),
		"memory_backend", cfg.MemoryBackend,
		"todoist_configured", a.Todoist.HasToken())

	chat, err := a.ChatHandler()
	if err != nil {
		return err
	}

	nt, err := transport.NewNATSTransport(cfg, chat, a.Memory, logger.With("component", "transport"))
	if err != nil {
		return err
	}
	defer nt.Close()

	if err := nt.Start(); err != nil {
		return fmt.Errorf("failed to start NATS transport: %w", err)
	}

	logger.Info("service running", "ask_subject", cfg.NatsRequestSubject, "memory_subject", cfg.NatsMemorySubject)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info("shutting down", "signal", sig.String())
	return nil
}
