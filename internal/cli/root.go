// Package cli implements the chatbotctl admin commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/imrishuroy/go-support-chatbot/internal/app"
	"github.com/imrishuroy/go-support-chatbot/internal/aws"
	"github.com/imrishuroy/go-support-chatbot/internal/config"
	"github.com/imrishuroy/go-support-chatbot/internal/logger"
)

// Opener builds the application for one command run.
type Opener func(ctx context.Context, configPath string) (*app.App, error)

// DefaultOpener wires the application against real AWS clients.
func DefaultOpener(ctx context.Context, configPath string) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: true, Output: os.Stderr, Service: "chatbotctl"})
	clients, err := aws.NewAWSClients(ctx, app.ClientOptions(cfg))
	if err != nil {
		return nil, err
	}
	return app.New(cfg, clients, log)
}

type runner struct {
	open       Opener
	configPath string
}

// NewRootCmd returns the top-level command.
func NewRootCmd(open Opener) *cobra.Command {
	if open == nil {
		open = DefaultOpener
	}
	r := &runner{open: open}

	root := &cobra.Command{
		Use:           "chatbotctl",
		Short:         "Administer the support chatbot",
		Long:          "Inspect and change chatbot settings, menu options and interaction logs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&r.configPath, "config", "c", os.Getenv("CHATBOT_CONFIG_FILE"), "Config file (default: $CHATBOT_CONFIG_FILE)")

	root.AddCommand(r.settingsCmd(), r.menuCmd(), r.logsCmd(), r.commerceCmd())
	return root
}

// Execute runs the CLI with os.Args.
func Execute() {
	root := NewRootCmd(nil)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (r *runner) app(cmd *cobra.Command) (*app.App, error) {
	a, err := r.open(cmd.Context(), r.configPath)
	if err != nil {
		return nil, fmt.Errorf("open app: %w", err)
	}
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
