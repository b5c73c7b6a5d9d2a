// Package root contains the root command for the application
package root

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/config"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/container"
)

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// OwnerID scopes every command to one tenant.
	OwnerID string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "keiridocs",
		Short: "A document management tool for small-business bookkeeping.",
		Long: `keiridocs ingests invoices, receipts and other business documents,
classifies them with AI assistance and keyword rules, files them in a
dated folder structure and produces monthly accountant exports.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to keiridocs!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
			Log = config.ConfigureLogging()
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&OwnerID, "owner", "u", "", "Owner key the command operates as")
}

// Bootstrap loads the configuration and wires the dependency container.
// Commands own the returned container and must Close it.
func Bootstrap(ctx context.Context) (*container.Container, error) {
	cfg, err := config.InitializeConfig()
	if err != nil {
		return nil, err
	}
	return container.NewContainer(ctx, cfg)
}
